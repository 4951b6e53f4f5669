package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

const logTimeFormat = "15:04:05.00"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
	})
}

// progress logs the completion of a step together with its elapsed time,
// e.g. "Fetched 12 files (1.234s)".
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) progress {
	return progress{logger: l, start: time.Now()}
}

func (p progress) done(msg string) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg + " (" + elapsed.String() + ")")
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger stored by the root command, or the
// charmbracelet default outside a command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}
