package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/boardwalk/pkg/agent"
	"github.com/go-go-golems/boardwalk/pkg/boardtools"
	"github.com/go-go-golems/boardwalk/pkg/engine/openai"
	"github.com/go-go-golems/boardwalk/pkg/events"
	"github.com/go-go-golems/boardwalk/pkg/monday"
	"github.com/go-go-golems/boardwalk/pkg/tools"
)

func newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Run one agentic query against the configured boards",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runQuery,
	}

	flags := cmd.Flags()
	flags.String("groq-api-key", "", "Groq API key")
	flags.String("groq-base-url", openai.DefaultBaseURL, "OpenAI-compatible inference endpoint")
	flags.String("model", openai.DefaultModel, "model identifier")
	flags.String("monday-token", "", "board API token")
	flags.String("monday-base-url", monday.DefaultBaseURL, "board GraphQL endpoint")
	flags.String("deals-board-id", "", "board ID for the deal funnel")
	flags.String("workorders-board-id", "", "board ID for the work order tracker")
	flags.String("lookups", "", "YAML file overriding the cleaning lookup table")
	flags.Int("max-turns", agent.DefaultMaxTurns, "inference call budget per query")
	flags.Duration("timeout", 2*time.Minute, "overall query deadline")
	flags.Int("max-rows", boardtools.DefaultMaxRows, "row cap on tool results")
	flags.Int("max-pages", monday.DefaultMaxPages, "pagination fail-safe bound")
	flags.Bool("with-trace", false, "print the tool-use trace as YAML")
	flags.Bool("verbose", false, "stream agent events while the query runs")

	flags.VisitAll(func(f *pflag.Flag) {
		cobra.CheckErr(viper.BindPFlag(f.Name, f))
	})

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	ctx := cmd.Context()

	lookups, err := loadLookups(viper.GetString("lookups"))
	if err != nil {
		return err
	}

	client, err := monday.NewClient(monday.Config{
		Token:    viper.GetString("monday-token"),
		BaseURL:  viper.GetString("monday-base-url"),
		MaxPages: viper.GetInt("max-pages"),
	})
	if err != nil {
		return err
	}

	dealsID := viper.GetString("deals-board-id")
	woID := viper.GetString("workorders-board-id")
	if dealsID == "" || woID == "" {
		return errors.New("both --deals-board-id and --workorders-board-id are required")
	}

	toolset := boardtools.New(client, boardtools.Config{
		Boards: map[string]string{
			boardtools.BoardDeals:      dealsID,
			boardtools.BoardWorkOrders: woID,
		},
		Lookups: lookups,
		MaxRows: viper.GetInt("max-rows"),
	})
	registry := tools.NewInMemoryToolRegistry()
	if err := toolset.Register(registry); err != nil {
		return err
	}

	settings := openai.DefaultSettings()
	settings.APIKey = viper.GetString("groq-api-key")
	settings.BaseURL = viper.GetString("groq-base-url")
	settings.Model = viper.GetString("model")
	eng, err := openai.NewOpenAIEngine(settings)
	if err != nil {
		return err
	}

	loop, err := agent.NewLoop(
		agent.WithEngine(eng),
		agent.WithRegistry(registry),
		agent.WithConfig(agent.LoopConfig{
			MaxTurns: viper.GetInt("max-turns"),
			Timeout:  viper.GetDuration("timeout"),
		}),
		agent.WithQualitySource(toolset.QualityReports),
	)
	if err != nil {
		return err
	}

	var result *agent.Result
	if viper.GetBool("verbose") {
		result, err = runWithEvents(ctx, loop, question)
		if err != nil {
			return err
		}
	} else {
		result = loop.Run(ctx, question)
	}

	return printResult(result, viper.GetBool("with-trace"))
}

// runWithEvents runs the loop with a live event subscription printing tool
// progress to stderr.
func runWithEvents(ctx context.Context, loop *agent.Loop, question string) (*agent.Result, error) {
	router, err := events.NewEventRouter()
	if err != nil {
		return nil, err
	}
	defer func() { _ = router.Close() }()

	const topic = "agent-events"
	router.AddHandler("progress", topic, func(msg *message.Message) error {
		raw, err := events.DecodeRawEvent(msg)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "[%s] %s\n", raw.Type, string(msg.Payload))
		return nil
	})

	routerCtx, cancelRouter := context.WithCancel(context.Background())
	defer cancelRouter()

	eg := errgroup.Group{}
	eg.Go(func() error { return router.Run(routerCtx) })
	<-router.Running()

	sink := events.NewWatermillSink(router.Publisher, topic)
	result := loop.Run(events.WithEventSinks(ctx, sink), question)

	cancelRouter()
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	return result, nil
}

func printResult(result *agent.Result, withTrace bool) error {
	if result.State == agent.StateFailed {
		fmt.Fprintf(os.Stderr, "query failed (%s): %s\n", result.ErrorKind, result.Message)
	} else {
		fmt.Println(result.Answer)
	}

	if withTrace {
		dump := struct {
			Trace   any `yaml:"trace"`
			Quality any `yaml:"quality,omitempty"`
		}{Trace: result.Trace, Quality: result.Quality}
		out, err := yaml.Marshal(dump)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "---\n%s", out)
	}

	if result.State == agent.StateFailed {
		return errors.Errorf("query ended in %s", result.ErrorKind)
	}
	return nil
}
