// Package coordinator turns a validated filter selection into a single
// upstream query and owns that query's lifecycle: dynamic timeout, abort,
// progress estimation, and terminal-state bookkeeping.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marisklase/darkwatch/internal/config"
	"github.com/marisklase/darkwatch/internal/daterange"
	"github.com/marisklase/darkwatch/internal/model"
	"github.com/marisklase/darkwatch/internal/observability"
)

// State of a request lifecycle. Terminal states are reachable only from
// Pending; the coordinator returns to Idle once the caller acknowledges.
type State int32

const (
	Idle State = iota
	Pending
	Succeeded
	Failed
	TimedOut
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed_out"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

func (s State) Terminal() bool {
	switch s {
	case Succeeded, Failed, TimedOut, Aborted:
		return true
	}
	return false
}

// Fetcher issues the actual detections call. Implemented by upstream.Client.
type Fetcher interface {
	FetchDetections(ctx context.Context, eezIDs []string, startDate, endDate string, flags model.OptionFlags) (*model.DetectionsPayload, error)
}

// Lifecycle is a single in-flight query. All state transitions go through a
// compare-and-swap so a late-arriving response can never overwrite a timeout.
type Lifecycle struct {
	ID      string
	Filters model.FilterState

	TotalDays   int
	TotalChunks int
	Timeout     time.Duration

	startedAt time.Time
	state     atomic.Int32
	cancel    context.CancelFunc
	done      chan struct{}

	mu     sync.Mutex
	err    error
	result *model.DetectionsPayload
}

func (lc *Lifecycle) State() State { return State(lc.state.Load()) }

// transition applies from->to once. Returns false if another transition won.
func (lc *Lifecycle) transition(from, to State) bool {
	return lc.state.CompareAndSwap(int32(from), int32(to))
}

// Done is closed when the lifecycle reaches a terminal state.
func (lc *Lifecycle) Done() <-chan struct{} { return lc.done }

// Err returns the terminal error, if any.
func (lc *Lifecycle) Err() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.err
}

// Result returns the parsed payload after a Succeeded transition.
func (lc *Lifecycle) Result() *model.DetectionsPayload {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.result
}

// Cancel aborts the in-flight call at the user's request.
func (lc *Lifecycle) Cancel() {
	if lc.transition(Pending, Aborted) {
		lc.setErr(context.Canceled)
		lc.cancel()
		observability.IncLifecycleOutcome(Aborted.String())
	}
}

// ProgressEstimate interpolates elapsed time over the timeout-derived budget,
// clamped to 95 until the lifecycle is terminal. It never claims completion;
// the caller sets 100 explicitly on success.
func (lc *Lifecycle) ProgressEstimate(now time.Time) int {
	if lc.Timeout <= 0 {
		return 0
	}
	elapsed := now.Sub(lc.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	pct := int(elapsed * 100 / lc.Timeout)
	if pct > 95 {
		pct = 95
	}
	return pct
}

func (lc *Lifecycle) setErr(err error) {
	lc.mu.Lock()
	lc.err = err
	lc.mu.Unlock()
}

func (lc *Lifecycle) setResult(p *model.DetectionsPayload) {
	lc.mu.Lock()
	lc.result = p
	lc.mu.Unlock()
}

// Coordinator allows one active lifecycle at a time.
type Coordinator struct {
	logger  *slog.Logger
	fetcher Fetcher
	cfg     config.TimeoutCfg
	now     func() time.Time // for tests

	mu     sync.Mutex
	active *Lifecycle
}

func New(logger *slog.Logger, fetcher Fetcher, cfg config.TimeoutCfg) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkDays <= 0 {
		cfg.ChunkDays = 30
	}
	return &Coordinator{
		logger:  logger,
		fetcher: fetcher,
		cfg:     cfg,
		now:     time.Now,
	}
}

// ComputeTimeout is the heuristic upper bound for one query: a base budget,
// an allowance per 30-day backend chunk, an allowance per EEZ, and a fixed
// batch overhead. Not a measured SLA; it exists so large multi-EEZ queries
// are not killed prematurely while still bounding worst-case hang time.
func (c *Coordinator) ComputeTimeout(totalDays, eezCount int) (chunks int, timeout time.Duration) {
	chunks = (totalDays + c.cfg.ChunkDays - 1) / c.cfg.ChunkDays
	timeout = c.cfg.Base +
		time.Duration(chunks)*c.cfg.PerChunk +
		time.Duration(eezCount)*c.cfg.PerEEZ +
		c.cfg.BatchOverhead
	return chunks, timeout
}

// Active returns the current lifecycle, or nil when idle.
func (c *Coordinator) Active() *Lifecycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Acknowledge clears a terminal lifecycle, returning the coordinator to Idle.
func (c *Coordinator) Acknowledge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil && c.active.State().Terminal() {
		c.active = nil
	}
}

// Submit validates inputs, computes the timeout budget, and starts the
// upstream call. It rejects synchronously (no network activity) on empty
// inputs, and while a previous lifecycle is still pending.
func (c *Coordinator) Submit(ctx context.Context, eezIDs []string, startDate, endDate string, flags model.OptionFlags) (*Lifecycle, error) {
	if len(eezIDs) == 0 {
		return nil, &ValidationError{Field: "no EEZ selected"}
	}
	if startDate == "" || endDate == "" {
		return nil, &ValidationError{Field: "missing date"}
	}

	totalDays := daterange.DaysBetween(startDate, endDate) + 1
	if totalDays <= 0 {
		return nil, &ValidationError{Field: "start date after end date"}
	}
	chunks, timeout := c.ComputeTimeout(totalDays, len(eezIDs))

	c.mu.Lock()
	if c.active != nil && !c.active.State().Terminal() {
		c.mu.Unlock()
		return nil, ErrBusy
	}

	callCtx, cancel := context.WithCancel(ctx)
	lc := &Lifecycle{
		ID: uuid.NewString(),
		Filters: model.FilterState{
			RequestID:   "",
			EEZIDs:      append([]string(nil), eezIDs...),
			StartDate:   startDate,
			EndDate:     endDate,
			Flags:       flags,
			SubmittedAt: c.now(),
		},
		TotalDays:   totalDays,
		TotalChunks: chunks,
		Timeout:     timeout,
		startedAt:   c.now(),
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	lc.Filters.RequestID = lc.ID
	lc.state.Store(int32(Pending))
	c.active = lc
	c.mu.Unlock()

	timer := time.AfterFunc(timeout, func() {
		if lc.transition(Pending, TimedOut) {
			lc.setErr(&TimeoutError{Timeout: timeout, Days: totalDays, EEZCount: len(eezIDs)})
			lc.cancel()
			observability.IncLifecycleOutcome(TimedOut.String())
			c.logger.Warn("filter query timed out",
				"request_id", lc.ID, "timeout", timeout.String(),
				"days", totalDays, "eez_count", len(eezIDs))
		}
	})

	c.logger.Info("filter query submitted",
		"request_id", lc.ID, "eez_count", len(eezIDs),
		"start", startDate, "end", endDate,
		"days", totalDays, "chunks", chunks, "timeout", timeout.String())

	go c.run(callCtx, lc, timer, eezIDs, startDate, endDate, flags)
	return lc, nil
}

func (c *Coordinator) run(ctx context.Context, lc *Lifecycle, timer *time.Timer, eezIDs []string, startDate, endDate string, flags model.OptionFlags) {
	defer close(lc.done)

	payload, err := c.fetcher.FetchDetections(ctx, eezIDs, startDate, endDate, flags)
	timer.Stop()

	if err != nil {
		// Timed-out and user-aborted calls already hold their terminal
		// state; their transport error is discarded.
		if lc.transition(Pending, Failed) {
			lc.setErr(err)
			observability.IncLifecycleOutcome(Failed.String())
			c.logger.Error("filter query failed", "request_id", lc.ID, "err", err)
		}
		return
	}

	if lc.transition(Pending, Succeeded) {
		lc.setResult(payload)
		observability.IncLifecycleOutcome(Succeeded.String())
		c.logger.Info("filter query succeeded",
			"request_id", lc.ID,
			"detections", len(payload.DarkVessels.Detections))
		return
	}

	// Late arrival after timeout or abort: the response is dropped.
	c.logger.Warn("discarding late response", "request_id", lc.ID, "state", lc.State().String())
}
