package engine

import "github.com/go-go-golems/boardwalk/pkg/events"

// Config holds engine-level configuration shared by all providers.
type Config struct {
	EventSinks []events.EventSink
}

type Option func(*Config) error

func NewConfig() *Config {
	return &Config{}
}

// WithSink adds an event sink that receives inference lifecycle events in
// addition to any sinks carried in the request context.
func WithSink(sink events.EventSink) Option {
	return func(c *Config) error {
		c.EventSinks = append(c.EventSinks, sink)
		return nil
	}
}

func ApplyOptions(c *Config, options ...Option) error {
	for _, opt := range options {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}
