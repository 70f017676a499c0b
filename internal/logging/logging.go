// Package logging builds the process logger and helpers for structured
// error fields.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

// Options selects the logger level and output format ("text" or "json").
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// New returns a logrus logger configured from opts.
func New(opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	if opts.Output != nil {
		logger.SetOutput(opts.Output)
	} else {
		logger.SetOutput(os.Stderr)
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	level := logrus.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		parsed, err := logrus.ParseLevel(s)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		level = parsed
	}
	logger.SetLevel(level)
	return logger, nil
}

// LogError logs err at error level. oops errors contribute their code and
// context as fields.
func LogError(logger logrus.FieldLogger, msg string, err error) {
	entry := logger.WithError(err)
	if oopsErr, ok := oops.AsOops(err); ok {
		if code := oopsErr.Code(); code != nil {
			entry = entry.WithField("code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			entry = entry.WithField("context", ctx)
		}
	}
	entry.Error(msg)
}
