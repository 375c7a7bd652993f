package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/secmon-lab/echonotes/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Logger holds CLI flags for the process logger
type Logger struct {
	level  string
	format string
	output string
}

// Flags returns CLI flags for logger configuration
func (l *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Category:    "Logging",
			Sources:     cli.EnvVars("ECHO_NOTES_LOG_LEVEL"),
			Destination: &l.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Category:    "Logging",
			Sources:     cli.EnvVars("ECHO_NOTES_LOG_FORMAT"),
			Destination: &l.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output (stdout, stderr, or a file path)",
			Value:       "stderr",
			Category:    "Logging",
			Sources:     cli.EnvVars("ECHO_NOTES_LOG_OUTPUT"),
			Destination: &l.output,
		},
	}
}

func (l Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", l.level),
		slog.String("format", l.format),
		slog.String("output", l.output),
	)
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// redactor masks credentials that reach log attributes
func redactor() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		masq.WithTag("secret"),
		masq.WithFieldName("APIKey"),
		masq.WithFieldName("DSN"),
		masq.WithFieldPrefix("secret"),
		masq.WithContain("sk-"),
	)
}

// NewHandler builds a slog handler for the given format
func NewHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	switch format {
	case "console":
		return clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(redactor()),
			clog.WithColorMap(&clog.ColorMap{
				Level: map[slog.Level]*color.Color{
					slog.LevelDebug: color.New(color.FgGreen, color.Bold),
					slog.LevelInfo:  color.New(color.FgCyan, color.Bold),
					slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
					slog.LevelError: color.New(color.FgRed, color.Bold),
				},
				LevelDefault: color.New(color.FgBlue, color.Bold),
				Time:         color.New(color.FgWhite),
				Message:      color.New(color.FgHiWhite),
				AttrKey:      color.New(color.FgHiCyan),
				AttrValue:    color.New(color.FgHiWhite),
			}),
		), nil

	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: redactor(),
		}), nil

	default:
		return nil, goerr.Wrap(ErrInvalidLogFormat, "unsupported log format", goerr.V("format", format))
	}
}

// Configure installs the process logger. The returned function closes the log file, if any.
func (l *Logger) Configure() (func(), error) {
	level, ok := logLevels[strings.ToLower(l.level)]
	if !ok {
		return nil, goerr.Wrap(ErrInvalidLogLevel, "unsupported log level", goerr.V("level", l.level))
	}

	closer := func() {}
	var w io.Writer
	switch l.output {
	case "stdout", "-":
		w = os.Stdout
	case "stderr", "":
		w = os.Stderr
	default:
		// #nosec G304 - path is provided by CLI argument
		f, err := os.OpenFile(l.output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open log file", goerr.V("path", l.output))
		}
		w = f
		closer = func() { _ = f.Close() }
	}

	handler, err := NewHandler(w, l.format, level)
	if err != nil {
		closer()
		return nil, err
	}

	logging.SetDefault(slog.New(handler))
	return closer, nil
}
