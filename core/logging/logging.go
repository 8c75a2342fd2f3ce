// Package logging builds the slog loggers used across the module.
//
// Every package declares its logger once in instrumentation.go:
//
//	logger = logging.NewLogger(scopeName)
//
// Records go to the OpenTelemetry log bridge and to a console sink rendered
// by zerolog. The console sink is swapped by [Init], so loggers created at
// package initialisation pick up the configuration chosen later by the CLI.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Options struct {
	Debug  bool
	Format string
	Output io.Writer
}

var sink atomic.Pointer[zerolog.Logger]

func init() {
	l := newSink(Options{})
	sink.Store(&l)
}

// Init configures the console sink shared by every logger.
func Init(opts Options) {
	l := newSink(opts)
	sink.Store(&l)
	zerolog.SetGlobalLevel(l.GetLevel())
}

func newSink(opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	if opts.Format == FormatJSON {
		w = out
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// NewLogger returns a logger for the given instrumentation scope.
func NewLogger(scope string) *slog.Logger {
	return slog.New(fanout{
		otelslog.NewHandler(scope),
		&consoleHandler{scope: scope},
	})
}
