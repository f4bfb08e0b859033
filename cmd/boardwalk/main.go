package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/boardwalk/pkg/cleaner"
)

var rootCmd = &cobra.Command{
	Use:   "boardwalk",
	Short: "boardwalk answers business questions from live project boards using a tool-calling model",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "zerolog level (trace, debug, info, warn, error)")

	viper.SetEnvPrefix("BOARDWALK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))

	rootCmd.AddCommand(newQueryCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadLookups resolves the cleaning lookup table: an explicit file when
// given, built-in defaults otherwise.
func loadLookups(path string) (*cleaner.Lookups, error) {
	if path == "" {
		return cleaner.DefaultLookups(), nil
	}
	return cleaner.LoadLookups(path)
}
