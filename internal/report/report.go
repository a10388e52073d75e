package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/availability/internal/availability"
)

// Cycle is what the scheduler hands to reporters after each full pass.
type Cycle struct {
	Seq       uint64
	StartedAt time.Time
	Duration  time.Duration
	// Probed counts descriptors whose domain could be extracted and whose
	// probe completed in this cycle.
	Probed   int
	Snapshot availability.Snapshot
}

// Reporter consumes a completed cycle.
type Reporter interface {
	Report(ctx context.Context, c Cycle) error
}

// Func adapts a function to Reporter.
type Func func(ctx context.Context, c Cycle) error

func (f Func) Report(ctx context.Context, c Cycle) error { return f(ctx, c) }

// Multi fans a cycle out to every reporter. One failing reporter does not
// keep the others from running; all errors are returned combined.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, c Cycle) error {
	var err error
	for _, r := range m {
		if r == nil {
			continue
		}
		err = multierr.Append(err, r.Report(ctx, c))
	}
	return err
}

// Line formats the per-domain availability line.
func Line(domain string, percent float64) string {
	return fmt.Sprintf("%s has %.0f%% availability percentage", domain, percent)
}

// Lines writes one Line per known domain and logs the same figures.
type Lines struct {
	W      io.Writer
	Logger *zap.Logger
}

func NewLines(w io.Writer, logger *zap.Logger) *Lines {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lines{W: w, Logger: logger}
}

func (l *Lines) Report(_ context.Context, c Cycle) error {
	var err error
	for _, d := range c.Snapshot.Domains {
		line := Line(d.Domain, d.Percent)
		l.Logger.Info(line,
			zap.String("domain", d.Domain),
			zap.Float64("availability_percent", d.Percent),
			zap.Uint64("up", d.Up),
			zap.Uint64("down", d.Down),
		)
		if l.W != nil {
			_, werr := fmt.Fprintln(l.W, line)
			err = multierr.Append(err, werr)
		}
	}
	return err
}
