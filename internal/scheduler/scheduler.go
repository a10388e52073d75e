package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/availability/internal/availability"
	"github.com/hamed0406/availability/internal/endpoint"
	"github.com/hamed0406/availability/internal/probe"
	"github.com/hamed0406/availability/internal/report"
)

// DefaultInterval is the fixed cycle cadence, measured from scheduler start.
const DefaultInterval = 15 * time.Second

// ErrCycleInProgress is returned by RunCycle when another cycle is running.
var ErrCycleInProgress = errors.New("cycle already in progress")

// CycleError wraps anything that went wrong at the top level of a cycle.
// The scheduler logs it and keeps going.
type CycleError struct {
	Seq uint64
	Err error
}

func (e *CycleError) Error() string { return fmt.Sprintf("cycle %d: %v", e.Seq, e.Err) }

func (e *CycleError) Unwrap() error { return e.Err }

// State is the scheduler's position in its Idle -> Running -> Idle loop.
type State int32

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Diagnoser explains transport failures in the logs.
type Diagnoser interface {
	Diagnose(ctx context.Context, domain string) probe.DNSReport
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithConcurrency probes up to n descriptors of a cycle at once. The default
// of 1 probes them one after another.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithDiagnoser adds a DNS diagnosis to transport failure logs.
func WithDiagnoser(d Diagnoser) Option {
	return func(s *Scheduler) { s.diagnoser = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler runs health check cycles: every descriptor goes through
// Prober -> Classify -> Aggregator.Update, then the snapshot is reported.
// Cycles never overlap.
type Scheduler struct {
	logger      *zap.Logger
	descriptors []endpoint.Descriptor
	prober      probe.Prober
	agg         *availability.Aggregator
	reporter    report.Reporter

	interval    time.Duration
	concurrency int
	diagnoser   Diagnoser
	now         func() time.Time

	state atomic.Int32
	seq   atomic.Uint64
}

func New(
	logger *zap.Logger,
	descriptors []endpoint.Descriptor,
	prober probe.Prober,
	agg *availability.Aggregator,
	reporter report.Reporter,
	opts ...Option,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = report.Multi(nil)
	}
	s := &Scheduler{
		logger:      logger,
		descriptors: descriptors,
		prober:      prober,
		agg:         agg,
		reporter:    reporter,
		interval:    DefaultInterval,
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports whether a cycle is currently running.
func (s *Scheduler) State() State { return State(s.state.Load()) }

// Interval is the configured cadence.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// NextDelay returns how long to wait after now so the next cycle starts on an
// interval boundary counted from epoch. Time spent running a cycle therefore
// does not accumulate as drift.
func NextDelay(epoch, now time.Time, interval time.Duration) time.Duration {
	if interval <= 0 {
		return 0
	}
	elapsed := now.Sub(epoch)
	if elapsed < 0 {
		elapsed = 0
	}
	return interval - elapsed%interval
}

// Run fires the first cycle immediately and then one cycle per interval
// boundary until ctx is cancelled. Cycle errors are logged, never fatal.
func (s *Scheduler) Run(ctx context.Context) {
	epoch := s.now()
	s.logger.Info("scheduler_started",
		zap.Duration("interval", s.interval),
		zap.Int("endpoints", len(s.descriptors)),
		zap.Int("concurrency", s.concurrency),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler_stopped")
			return
		case <-timer.C:
		}

		if _, err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("scheduler_stopped", zap.String("during", "cycle"))
				return
			}
			s.logger.Error("cycle_error", zap.Error(err))
		}

		delay := NextDelay(epoch, s.now(), s.interval)
		s.logger.Debug("next_cycle", zap.Duration("in", delay))
		timer.Reset(delay)
	}
}

type target struct {
	desc   endpoint.Descriptor
	domain string
}

// RunCycle performs one full pass and reports it. It returns the reported
// cycle. Per-descriptor failures never surface here; a CycleError means the
// pass panicked or reporting failed.
func (s *Scheduler) RunCycle(ctx context.Context) (cycle report.Cycle, err error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return report.Cycle{}, ErrCycleInProgress
	}
	defer s.state.Store(int32(StateIdle))

	seq := s.seq.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err = &CycleError{Seq: seq, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	start := s.now()
	s.logger.Info("health_check_started", zap.Uint64("cycle", seq))

	targets := s.plan()

	var probed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if s.check(ctx, t) {
				probed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report.Cycle{}, err
	}

	cycle = report.Cycle{
		Seq:       seq,
		StartedAt: start,
		Duration:  s.now().Sub(start),
		Probed:    int(probed.Load()),
		Snapshot:  s.agg.Snapshot(),
	}
	if err := s.reporter.Report(ctx, cycle); err != nil {
		return cycle, &CycleError{Seq: seq, Err: fmt.Errorf("report: %w", err)}
	}

	s.logger.Info("health_check_completed",
		zap.Uint64("cycle", seq),
		zap.Int("probed", cycle.Probed),
		zap.Int("domains", len(cycle.Snapshot.Domains)),
		zap.Duration("took", cycle.Duration),
	)
	return cycle, nil
}

// plan extracts domains in descriptor order and registers them before any
// probe runs, so first-sighting order does not depend on probe completion.
func (s *Scheduler) plan() []target {
	targets := make([]target, 0, len(s.descriptors))
	for _, d := range s.descriptors {
		domain, err := d.Domain()
		if err != nil {
			s.logger.Warn("domain_extraction_failed",
				zap.String("name", d.Name),
				zap.String("url", d.URL),
				zap.Error(err),
			)
			continue
		}
		if s.agg.Observe(domain) {
			s.logger.Debug("domain_registered", zap.String("domain", domain))
		}
		targets = append(targets, target{desc: d, domain: domain})
	}
	return targets
}

// check probes one descriptor and records the result. It reports whether
// the result was recorded. A panic is contained to this descriptor.
func (s *Scheduler) check(ctx context.Context, t target) (recorded bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("endpoint_check_panicked",
				zap.String("name", t.desc.Name),
				zap.String("url", t.desc.URL),
				zap.Any("panic", r),
			)
			recorded = false
		}
	}()

	s.logger.Debug("checking_endpoint",
		zap.String("name", t.desc.Name),
		zap.String("url", t.desc.URL),
		zap.String("method", t.desc.Method),
		zap.Any("headers", t.desc.Headers),
		zap.Int("body_bytes", len(t.desc.Body)),
		zap.String("domain", t.domain),
	)

	out := s.prober.Probe(ctx, t.desc)
	if ctx.Err() != nil {
		s.logger.Debug("probe_cancelled", zap.String("url", t.desc.URL))
		return false
	}

	status := probe.Classify(out)
	s.agg.Update(t.domain, status)

	if out.Kind == probe.KindTransportFailure {
		fields := []zap.Field{
			zap.String("name", t.desc.Name),
			zap.String("url", t.desc.URL),
			zap.Float64("latency_ms", out.LatencyMS),
			zap.Error(out.Err),
		}
		if s.diagnoser != nil {
			dns := s.diagnoser.Diagnose(ctx, t.domain)
			fields = append(fields,
				zap.String("dns_class", string(dns.Class)),
				zap.Strings("dns_addrs", dns.Addrs),
				zap.String("resolver_error", dns.ResolverError),
			)
		}
		s.logger.Error("endpoint_down_transport_failure", fields...)
		return true
	}

	s.logger.Debug("endpoint_checked",
		zap.String("name", t.desc.Name),
		zap.String("url", t.desc.URL),
		zap.Int("status", out.StatusCode),
		zap.Float64("latency_ms", out.LatencyMS),
		zap.String("result", string(status)),
	)
	return true
}
