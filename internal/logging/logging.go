// Package logging builds the hclog loggers used across face-quiz.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Name is the root logger name; components derive sub-loggers with Named.
const Name = "face-quiz"

// Options controls the root logger.
type Options struct {
	Level  string    // trace, debug, info, warn, error
	Format string    // text or json
	Output io.Writer // defaults to os.Stderr
}

// New returns the root logger for the given options.
// Unknown levels fall back to info.
func New(opts Options) hclog.Logger {
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       Name,
		Level:      level,
		Output:     output,
		JSONFormat: strings.EqualFold(opts.Format, "json"),
	})
}

// OrNull returns l, or a logger that discards everything when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}
