// Package session owns per-console map state: the current filter snapshot,
// the rendered layer collections, and the apply flow that ties validation,
// the request coordinator, and the presenter together. It replaces the
// original console's module-level mutable map globals with one explicit
// object constructed at startup.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marisklase/darkwatch/internal/coordinator"
	"github.com/marisklase/darkwatch/internal/daterange"
	"github.com/marisklase/darkwatch/internal/eez"
	"github.com/marisklase/darkwatch/internal/model"
	"github.com/marisklase/darkwatch/internal/notify"
	"github.com/marisklase/darkwatch/internal/observability"
	"github.com/marisklase/darkwatch/internal/present"
)

// Backend is the slice of the upstream client the session needs for
// secondary layer fetches.
type Backend interface {
	Boundaries(ctx context.Context, eezIDs []string) (*model.BoundariesPayload, error)
	ProximityClusters(ctx context.Context, eezIDs []string, startDate, endDate string) (*model.ClustersPayload, error)
	Routes(ctx context.Context, eezIDs []string, startDate, endDate string) (*model.RoutesPayload, error)
	Association(ctx context.Context, eezIDs []string, startDate, endDate string) (*model.Association, error)
}

// Historian records terminal query outcomes. Optional.
type Historian interface {
	RecordOutcome(f model.FilterState, outcome, message string, detections int, duration time.Duration) error
}

// Layers holds the rendered collections for the map. Replaced wholesale on
// each successful apply; secondary layers land independently as they arrive.
type Layers struct {
	Detections present.FeatureCollection `json:"detections"`
	Boundaries present.FeatureCollection `json:"boundaries"`
	Clusters   present.FeatureCollection `json:"clusters"`
	Routes     present.FeatureCollection `json:"routes"`
	MatchedPct *float64                  `json:"matched_pct,omitempty"`
	Statistics map[string]any            `json:"statistics,omitempty"`
	Summaries  []model.EEZSummary        `json:"summaries,omitempty"`
}

type Session struct {
	logger   *slog.Logger
	coord    *coordinator.Coordinator
	backend  Backend
	notifier *notify.Notifier
	history  Historian

	secondaryTimeout time.Duration
	now              func() time.Time // for tests

	mu      sync.RWMutex
	current *model.FilterState
	layers  Layers

	pending sync.WaitGroup
}

func New(logger *slog.Logger, coord *coordinator.Coordinator, backend Backend, notifier *notify.Notifier, history Historian) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		logger:           logger,
		coord:            coord,
		backend:          backend,
		notifier:         notifier,
		history:          history,
		secondaryTimeout: time.Minute,
		now:              time.Now,
	}
}

// Apply resolves the selection, gates on the date validator, and submits the
// query. Validation failures surface one toast and never reach the network.
func (s *Session) Apply(ctx context.Context, selection *eez.Selection, startDate, endDate string, flags model.OptionFlags) (*coordinator.Lifecycle, error) {
	ids := selection.ResolvedIDs()

	if res := daterange.Validate(startDate, endDate, s.now()); !res.Valid {
		s.notifier.Push(notify.Error, validationMessage(res.Reason))
		return nil, &coordinator.ValidationError{Field: string(res.Reason)}
	}

	lc, err := s.coord.Submit(ctx, ids, startDate, endDate, flags)
	if err != nil {
		s.notifier.Push(notify.Error, err.Error())
		return nil, err
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.await(lc)
	}()
	return lc, nil
}

// await handles the lifecycle's terminal state: exactly one toast per apply,
// layer refresh and secondary fetches only on success.
func (s *Session) await(lc *coordinator.Lifecycle) {
	<-lc.Done()
	duration := s.now().Sub(lc.Filters.SubmittedAt)

	switch lc.State() {
	case coordinator.Succeeded:
		payload := lc.Result()
		snapshot := lc.Filters.Clone()
		s.applyResult(snapshot, payload)
		s.notifier.Push(notify.Success, successMessage(payload))
		s.record(snapshot, lc, len(payload.DarkVessels.Detections), duration)
		s.fetchSecondaryLayers(snapshot, payload)
	case coordinator.Aborted:
		s.notifier.Push(notify.Info, "query cancelled")
		s.record(lc.Filters, lc, 0, duration)
	default:
		s.notifier.Push(notify.Error, lc.Err().Error())
		s.record(lc.Filters, lc, 0, duration)
	}
}

// applyResult installs the new filter snapshot and the primary layers. The
// snapshot is replaced, never mutated, so concurrent readers always see a
// consistent query.
func (s *Session) applyResult(snapshot model.FilterState, payload *model.DetectionsPayload) {
	layers := Layers{
		Detections: present.DetectionsFC(payload.DarkVessels.Detections),
		Boundaries: s.layersSnapshot().Boundaries,
		Statistics: payload.Statistics,
		Summaries:  payload.Summaries,
	}
	if payload.Clusters != nil {
		layers.Clusters = present.ClustersFC(payload.Clusters.Clusters)
	}
	if payload.Routes != nil {
		layers.Routes = present.RoutesFC(payload.Routes.Routes)
	}

	s.mu.Lock()
	s.current = &snapshot
	s.layers = layers
	s.mu.Unlock()
}

// fetchSecondaryLayers issues the nice-to-have lookups. They run off the
// apply path, fail silently to the user, and each reads the same filter
// snapshot it was handed, so a later apply can never tear one query.
func (s *Session) fetchSecondaryLayers(snapshot model.FilterState, payload *model.DetectionsPayload) {
	s.spawn("boundaries", func(ctx context.Context) error {
		b, err := s.backend.Boundaries(ctx, snapshot.EEZIDs)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.layers.Boundaries = present.BoundariesFC(b.Boundaries)
		s.mu.Unlock()
		return nil
	})

	if snapshot.Flags.IncludeClusters && payload.Clusters == nil {
		s.spawn("clusters", func(ctx context.Context) error {
			c, err := s.backend.ProximityClusters(ctx, snapshot.EEZIDs, snapshot.StartDate, snapshot.EndDate)
			if err != nil {
				return err
			}
			s.mu.Lock()
			s.layers.Clusters = present.ClustersFC(c.Clusters)
			s.mu.Unlock()
			return nil
		})
	}

	if snapshot.Flags.IncludeRoutes && payload.Routes == nil {
		s.spawn("routes", func(ctx context.Context) error {
			r, err := s.backend.Routes(ctx, snapshot.EEZIDs, snapshot.StartDate, snapshot.EndDate)
			if err != nil {
				return err
			}
			s.mu.Lock()
			s.layers.Routes = present.RoutesFC(r.Routes)
			s.mu.Unlock()
			return nil
		})
	}

	s.spawn("association", func(ctx context.Context) error {
		a, err := s.backend.Association(ctx, snapshot.EEZIDs, snapshot.StartDate, snapshot.EndDate)
		if err != nil {
			return err
		}
		pct := a.Totals.MatchedDetectionsPct
		s.mu.Lock()
		s.layers.MatchedPct = &pct
		s.mu.Unlock()
		return nil
	})
}

func (s *Session) spawn(layer string, fn func(ctx context.Context) error) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.secondaryTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			observability.IncSecondaryFetchFailure(layer)
			s.logger.Warn("secondary layer fetch failed", "layer", layer, "err", err)
		}
	}()
}

func (s *Session) record(f model.FilterState, lc *coordinator.Lifecycle, detections int, duration time.Duration) {
	if s.history == nil {
		return
	}
	msg := ""
	if err := lc.Err(); err != nil {
		msg = err.Error()
	}
	if err := s.history.RecordOutcome(f, lc.State().String(), msg, detections, duration); err != nil {
		s.logger.Warn("history record failed", "err", err)
	}
}

// CurrentFilters returns the active filter snapshot, or nil before the first
// successful apply.
func (s *Session) CurrentFilters() *model.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	c := s.current.Clone()
	return &c
}

// Layers returns the rendered collections.
func (s *Session) Layers() Layers {
	return s.layersSnapshot()
}

func (s *Session) layersSnapshot() Layers {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layers
}

// Progress reports the decorative progress estimate. Completion is signaled
// only by the lifecycle itself; a successful terminal state reads 100.
type Progress struct {
	State   string `json:"state"`
	Percent int    `json:"percent"`
}

func (s *Session) Progress() Progress {
	lc := s.coord.Active()
	if lc == nil {
		return Progress{State: coordinator.Idle.String(), Percent: 0}
	}
	st := lc.State()
	if st == coordinator.Succeeded {
		return Progress{State: st.String(), Percent: 100}
	}
	return Progress{State: st.String(), Percent: lc.ProgressEstimate(s.now())}
}

// WaitIdle blocks until all in-flight work has settled. Test hook.
func (s *Session) WaitIdle() {
	s.pending.Wait()
}

func validationMessage(r daterange.Reason) string {
	switch r {
	case daterange.MissingDate:
		return "select both a start and an end date"
	case daterange.EndTooRecent:
		return "end date must be at least 7 days in the past (source data latency)"
	case daterange.StartAfterEnd:
		return "start date is after end date"
	case daterange.RangeTooLong:
		return "date range may cover at most 30 days"
	}
	return "invalid date range"
}

func successMessage(p *model.DetectionsPayload) string {
	n := len(p.DarkVessels.Detections)
	if n == 1 {
		return "showing 1 dark vessel detection"
	}
	return fmt.Sprintf("showing %d dark vessel detections", n)
}
