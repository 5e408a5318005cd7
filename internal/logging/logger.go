// Package logging wires the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. It starts at info level with console
// output so early failures are readable; Init replaces it once the
// configured level is known.
var Logger = build("info", true)

// Init reconfigures the global logger. Unknown or empty levels fall back
// to info; pretty selects human-readable console output over JSON.
func Init(level string, pretty bool) {
	Logger = build(level, pretty)
}

func build(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	w := io.Writer(os.Stderr)
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Info starts an info-level event on the global logger.
func Info() *zerolog.Event { return Logger.Info() }

// Warn starts a warn-level event on the global logger.
func Warn() *zerolog.Event { return Logger.Warn() }

// Error starts an error-level event on the global logger.
func Error() *zerolog.Event { return Logger.Error() }

// Printf satisfies the pipeline and export Logger interfaces on top of
// the global zerolog logger. Lines land at info level.
type Printf struct{}

func (Printf) Printf(format string, v ...any) {
	Logger.Info().Msg(fmt.Sprintf(format, v...))
}
