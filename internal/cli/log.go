package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates the CLI logger with "HH:MM:SS.cs" timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// stage times one step of a command (loading a model, a cluster round
// trip) and logs it with structured fields once it ends.
type stage struct {
	logger *log.Logger
	name   string
	start  time.Time
	now    func() time.Time
}

func startStage(l *log.Logger, name string) *stage {
	return &stage{logger: l, name: name, start: time.Now(), now: time.Now}
}

// end logs the stage at info level, e.g. `render nodes=3 took=12ms`.
func (s *stage) end(keyvals ...any) time.Duration {
	took := s.now().Sub(s.start).Round(time.Millisecond)
	s.logger.Info(s.name, append(keyvals, "took", took)...)
	return took
}

// fail logs the stage at error level and returns err unchanged.
func (s *stage) fail(err error) error {
	s.logger.Error(s.name, "err", err, "took", s.now().Sub(s.start).Round(time.Millisecond))
	return err
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger stored by withLogger, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
