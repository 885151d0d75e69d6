// Package cli is the popmap command line.
//
//   - render: write the map as SVG, HTML, JSON, PNG or PDF
//   - serve: answer map and web part requests over HTTP
//   - preview: hover the map in the terminal
//   - schema: print the web part property pane
//   - cache: show or clear the local cache
//
// Logs go to the writer given to [New]; --verbose lowers the level to debug
// and surfaces pipeline, cache and fetch events. Commands find the logger on
// their context. Status lines for people go to stderr, data to stdout.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// newLogger returns a leveled logger writing to w with short wall-clock
// timestamps ("14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})

	styles := log.DefaultStyles()
	styles.Levels[log.InfoLevel] = styles.Levels[log.InfoLevel].Foreground(colorAccent)
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(colorRed)
	styles.Values["err"] = lipgloss.NewStyle().Bold(true)
	l.SetStyles(styles)
	return l
}

// stopwatch logs how long a step took once it finishes.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func newStopwatch(l *log.Logger) stopwatch {
	return stopwatch{logger: l, start: time.Now()}
}

// done logs msg at info level with the elapsed time, to the millisecond.
func (s stopwatch) done(msg string, keyvals ...any) {
	elapsed := time.Since(s.start).Round(time.Millisecond)
	s.logger.Info(msg, append([]any{"elapsed", elapsed}, keyvals...)...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger set by the root command, or the
// package default for commands run outside it.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}
