package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool

	// Out receives command results, Log receives diagnostics
	Out io.Writer
	Log *logrus.Logger
}

// NewContext creates a new application context writing results to stdout
// and diagnostics to stderr
func NewContext() *Context {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	return &Context{
		Context:      context.Background(),
		OutputFormat: "table",
		Out:          os.Stdout,
		Log:          log,
	}
}

// WithCancel creates a cancellable context
func (c *Context) WithCancel() (*Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(c.Context)
	newCtx := *c
	newCtx.Context = ctx
	return &newCtx, cancel
}

// ConfigureLogging sets the log level. --verbose and --quiet take
// precedence over the configured level.
func (c *Context) ConfigureLogging(level string) error {
	switch {
	case c.Verbose:
		c.Log.SetLevel(logrus.DebugLevel)
	case c.Quiet:
		c.Log.SetLevel(logrus.ErrorLevel)
	default:
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		c.Log.SetLevel(parsed)
	}
	return nil
}

// Render writes a result in the selected output format
func (c *Context) Render(result Tabular) error {
	return FormatOutput(c.Out, result, c.OutputFormat)
}

// Printf writes an informational line unless quiet
func (c *Context) Printf(format string, args ...any) {
	if !c.Quiet {
		fmt.Fprintf(c.Out, format, args...)
	}
}
