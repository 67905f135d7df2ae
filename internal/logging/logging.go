// Package logging builds the structured logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the given level. A nil w writes to
// stderr.
func New(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if w == nil {
		w = os.Stderr
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "importer",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}), nil
}

// Setup builds a logger like New and installs it as the package default, so
// code calling log.Default() shares it. verbose forces debug level.
func Setup(level string, verbose bool, w io.Writer) (*log.Logger, error) {
	if verbose {
		level = log.DebugLevel.String()
	}
	logger, err := New(level, w)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	return logger, nil
}
