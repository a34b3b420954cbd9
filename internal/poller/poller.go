// Package poller owns the tick loop: at each tick it dispatches one probe
// per selected host, bounded by the forks semaphore, and folds completions
// into the shared model with per-host ordering guarantees.
package poller

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/rileyhilliard/ansimon/internal/logger"
	"github.com/rileyhilliard/ansimon/internal/model"
	"github.com/rileyhilliard/ansimon/internal/probe"
)

// Prober runs one probe round trip. Implemented by *probe.Runner; tests
// substitute fakes.
type Prober interface {
	Run(ctx context.Context, target probe.Target) (*probe.Sample, error)
}

// Config are the scheduling parameters.
type Config struct {
	// Interval is the tick spacing. Default 10s.
	Interval time.Duration

	// Forks bounds concurrently running probes. Default 10.
	Forks int

	// Timeout bounds one probe. Defaults to min(Interval, 30s).
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 10 * time.Second
	}
	if c.Forks <= 0 {
		c.Forks = 10
	}
	if c.Timeout <= 0 {
		c.Timeout = c.Interval
		if c.Timeout > 30*time.Second {
			c.Timeout = 30 * time.Second
		}
	}
	return c
}

// durationWindow is how many recent probe durations feed the backpressure
// estimate.
const durationWindow = 32

// inflight tracks one dispatched probe.
type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

// Poller drives the probe schedule for a fixed set of targets.
type Poller struct {
	cfg     Config
	targets []probe.Target
	mdl     *model.Model
	prober  Prober
	sem     *semaphore.Weighted
	log     logger.Logger

	refresh chan struct{}

	mu        sync.Mutex
	seq       uint64
	inFlight  map[string]*inflight
	applied   map[string]uint64
	durations []time.Duration
	warned    bool
	capWarned bool

	wg sync.WaitGroup
}

// New creates a poller. The model must contain a record for every target.
func New(cfg Config, targets []probe.Target, mdl *model.Model, prober Prober, log logger.Logger) *Poller {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Noop()
	}
	return &Poller{
		cfg:      cfg,
		targets:  targets,
		mdl:      mdl,
		prober:   prober,
		sem:      semaphore.NewWeighted(int64(cfg.Forks)),
		log:      log,
		refresh:  make(chan struct{}, 1),
		inFlight: make(map[string]*inflight),
		applied:  make(map[string]uint64),
	}
}

// RefreshNow requests an immediate tick. It never blocks; a refresh already
// pending is enough. Scheduled ticks keep their alignment.
func (p *Poller) RefreshNow() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Run executes the schedule until ctx is cancelled, then cancels all
// in-flight probes and waits for them to settle.
func (p *Poller) Run(ctx context.Context) {
	// First tick fires immediately; later ticks stay aligned to the
	// start time plus N effective intervals.
	next := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.shutdown()
			return

		case <-timer.C:
			p.cancelStragglers()
			p.tick(ctx)
			next = next.Add(p.effectiveInterval())
			timer.Reset(time.Until(next))

		case <-p.refresh:
			// A manual refresh is an extra tick; the timer is not
			// touched, so alignment to the last scheduled tick holds.
			p.tick(ctx)
		}
	}
}

// tick dispatches one probe per target, skipping hosts that still have one
// in flight (coalescing; relevant for manual refreshes between boundaries).
func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	now := time.Now()
	for _, target := range p.targets {
		p.dispatch(ctx, target, now)
	}
}

// dispatch starts one probe task unless the host already has one in flight.
func (p *Poller) dispatch(ctx context.Context, target probe.Target, now time.Time) {
	p.mu.Lock()
	if _, busy := p.inFlight[target.Name]; busy {
		p.mu.Unlock()
		return
	}
	p.seq++
	seq := p.seq

	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	p.inFlight[target.Name] = &inflight{seq: seq, cancel: cancel}
	p.mu.Unlock()

	p.mdl.MarkPolling(target.Name, now)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()

		start := time.Now()
		outcome := p.runProbe(probeCtx, target)
		p.recordDuration(time.Since(start))

		p.complete(target.Name, seq, outcome)
	}()
}

// runProbe waits for a fork slot and executes the probe.
func (p *Poller) runProbe(ctx context.Context, target probe.Target) model.Outcome {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return model.Outcome{Err: cancellationError(ctx), At: time.Now()}
	}
	defer p.sem.Release(1)

	sample, err := p.prober.Run(ctx, target)
	at := time.Now()
	if err != nil {
		if perr, ok := err.(*probe.Error); ok {
			return model.Outcome{Err: perr, At: at}
		}
		return model.Outcome{Err: &probe.Error{Kind: probe.FailRemoteCommand, Detail: err.Error()}, At: at}
	}
	return model.Outcome{Sample: sample, At: at}
}

// complete applies a probe outcome, enforcing per-host ordering: a
// completion whose sequence number is not newer than the last applied one
// is discarded.
func (p *Poller) complete(name string, seq uint64, outcome model.Outcome) {
	p.mu.Lock()
	if inf, ok := p.inFlight[name]; ok && inf.seq == seq {
		delete(p.inFlight, name)
	}
	if seq <= p.applied[name] {
		p.mu.Unlock()
		p.log.Debug("discarding stale completion for %s (seq %d)", name, seq)
		return
	}
	p.applied[name] = seq
	p.mu.Unlock()

	p.mdl.Apply(name, outcome)
}

// cancelStragglers cancels probes still in flight when a scheduled tick
// boundary arrives. Their completions race the redispatch; the sequence
// guard keeps the order straight either way.
func (p *Poller) cancelStragglers() {
	p.mu.Lock()
	var cancels []context.CancelFunc
	stragglers := 0
	for _, inf := range p.inFlight {
		cancels = append(cancels, inf.cancel)
		stragglers++
	}
	// Forget them so the new tick can redispatch immediately.
	p.inFlight = make(map[string]*inflight)
	p.mu.Unlock()

	if stragglers > 0 {
		p.log.Debug("cancelling %d straggler probe(s) at tick boundary", stragglers)
	}
	for _, cancel := range cancels {
		cancel()
	}
}

// shutdown cancels everything in flight and waits for the tasks to exit so
// no ssh child outlives the process.
func (p *Poller) shutdown() {
	p.mu.Lock()
	for _, inf := range p.inFlight {
		inf.cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// recordDuration feeds the backpressure window.
func (p *Poller) recordDuration(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.durations = append(p.durations, d)
	if len(p.durations) > durationWindow {
		p.durations = p.durations[len(p.durations)-durationWindow:]
	}
}

// effectiveInterval stretches the configured interval to the P95 probe
// duration when probes consistently overrun it, warning the first time and
// again if the 2x cap engages. The advertised interval is never silently
// inflated beyond that cap.
func (p *Poller) effectiveInterval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.durations) < durationWindow/2 {
		return p.cfg.Interval
	}

	p95 := percentile95(p.durations)
	if p95 <= p.cfg.Interval {
		return p.cfg.Interval
	}

	if !p.warned {
		p.warned = true
		p.log.Warn("probes exceed the %s interval (p95 %s); stretching the effective interval",
			p.cfg.Interval, p95.Round(time.Millisecond))
	}

	limit := 2 * p.cfg.Interval
	if p95 > limit {
		if !p.capWarned {
			p.capWarned = true
			p.log.Warn("effective interval capped at %s (p95 %s)", limit, p95.Round(time.Millisecond))
		}
		return limit
	}
	return p95
}

func percentile95(durations []time.Duration) time.Duration {
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := len(sorted) * 95 / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func cancellationError(ctx context.Context) *probe.Error {
	if ctx.Err() == context.DeadlineExceeded {
		return &probe.Error{Kind: probe.FailConnectTimeout, Detail: "probe timed out"}
	}
	return &probe.Error{Kind: probe.FailCancelled}
}
