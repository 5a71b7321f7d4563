package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marisklase/darkwatch/internal/config"
	"github.com/marisklase/darkwatch/internal/coordinator"
	"github.com/marisklase/darkwatch/internal/eez"
	"github.com/marisklase/darkwatch/internal/model"
	"github.com/marisklase/darkwatch/internal/notify"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	payload *model.DetectionsPayload
	err     error
}

func (f *fakeFetcher) FetchDetections(ctx context.Context, eezIDs []string, startDate, endDate string, flags model.OptionFlags) (*model.DetectionsPayload, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeBackend struct {
	mu             sync.Mutex
	boundaryCalls  int
	boundariesErr  error
	clusterCalls   int
	routeCalls     int
	associationPct float64
}

func (b *fakeBackend) Boundaries(ctx context.Context, eezIDs []string) (*model.BoundariesPayload, error) {
	b.mu.Lock()
	b.boundaryCalls++
	b.mu.Unlock()
	if b.boundariesErr != nil {
		return nil, b.boundariesErr
	}
	geom := json.RawMessage(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)
	out := &model.BoundariesPayload{}
	for _, id := range eezIDs {
		out.Boundaries = append(out.Boundaries, model.Boundary{EEZID: id, Geometry: geom})
	}
	return out, nil
}

func (b *fakeBackend) ProximityClusters(ctx context.Context, eezIDs []string, startDate, endDate string) (*model.ClustersPayload, error) {
	b.mu.Lock()
	b.clusterCalls++
	b.mu.Unlock()
	return &model.ClustersPayload{
		Clusters: []model.ProximityCluster{{CenterLat: -12.5, CenterLon: 130.8, VesselCount: 3, RiskIndicator: "high", Date: startDate}},
	}, nil
}

func (b *fakeBackend) Routes(ctx context.Context, eezIDs []string, startDate, endDate string) (*model.RoutesPayload, error) {
	b.mu.Lock()
	b.routeCalls++
	b.mu.Unlock()
	return &model.RoutesPayload{
		Routes: []model.PredictedRoute{{Points: [][]float64{{-12.5, 130.8}, {-12.6, 130.9}}, Confidence: 0.8}},
	}, nil
}

func (b *fakeBackend) Association(ctx context.Context, eezIDs []string, startDate, endDate string) (*model.Association, error) {
	return &model.Association{Totals: model.AssociationTotals{MatchedDetectionsPct: b.associationPct}}, nil
}

type recordingHistory struct {
	mu      sync.Mutex
	records []string
}

func (h *recordingHistory) RecordOutcome(f model.FilterState, outcome, message string, detections int, duration time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, outcome)
	return nil
}

func (h *recordingHistory) outcomes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.records...)
}

func testSelection(t *testing.T) *eez.Selection {
	t.Helper()
	cat := eez.NewCatalog()
	cat.Build(map[string]eez.Entry{
		"8316": {Label: "Australia", ISO3Codes: []string{"AUS"}, IsParent: true},
		"8341": {Label: "Heard and McDonald Islands", ISO3Codes: []string{"AUS"}},
		"8492": {Label: "Benin", ISO3Codes: []string{"BEN"}},
	})
	sel := eez.NewSelection(cat)
	// Group resolves to Australia plus its sub-EEZ; Benin rides along.
	sel.SetSelected(eez.GroupPrefix+"8316", true)
	sel.SetSelected("8492", true)
	return sel
}

func testPayload(detections int) *model.DetectionsPayload {
	p := &model.DetectionsPayload{}
	for i := 0; i < detections; i++ {
		p.DarkVessels.Detections = append(p.DarkVessels.Detections, model.Detection{
			Lat: -12.5 - float64(i)*0.01, Lon: 130.8, Date: "2025-10-02",
		})
	}
	p.DarkVessels.Summary = model.DetectionSummary{Total: detections, Dark: detections}
	return p
}

func newTestSession(fetcher *fakeFetcher, backend *fakeBackend, hist Historian) (*Session, *notify.Notifier) {
	coord := coordinator.New(nil, fetcher, config.TimeoutCfg{
		Base: time.Second, PerChunk: time.Second, PerEEZ: time.Second, BatchOverhead: time.Second, ChunkDays: 30,
	})
	notifier := notify.New(time.Minute)
	s := New(nil, coord, backend, notifier, hist)
	s.now = func() time.Time { return time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC) }
	return s, notifier
}

func TestApply_ValidationFailureNeverSubmits(t *testing.T) {
	fetcher := &fakeFetcher{payload: testPayload(1)}
	s, notifier := newTestSession(fetcher, &fakeBackend{}, nil)

	// End date inside the 7-day latency window.
	_, err := s.Apply(context.Background(), testSelection(t), "2025-10-01", "2025-10-12", model.OptionFlags{})

	var verr *coordinator.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err=%v want ValidationError", err)
	}
	if fetcher.callCount() != 0 {
		t.Fatal("validation failure reached the network")
	}
	toast := notifier.Current()
	if toast == nil || toast.Level != notify.Error {
		t.Fatalf("toast=%+v want error toast", toast)
	}
}

func TestApply_SuccessRendersLayers(t *testing.T) {
	fetcher := &fakeFetcher{payload: testPayload(2)}
	backend := &fakeBackend{associationPct: 37.5}
	hist := &recordingHistory{}
	s, notifier := newTestSession(fetcher, backend, hist)

	lc, err := s.Apply(context.Background(), testSelection(t), "2025-10-01", "2025-10-08", model.OptionFlags{IncludeClusters: true, IncludeRoutes: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	<-lc.Done()
	s.WaitIdle()

	layers := s.Layers()
	if got := len(layers.Detections.Features); got != 2 {
		t.Fatalf("detection features=%d want 2", got)
	}
	if got := len(layers.Boundaries.Features); got != 3 {
		t.Fatalf("boundary features=%d want 3", got)
	}
	if len(layers.Clusters.Features) != 1 || len(layers.Routes.Features) != 1 {
		t.Fatalf("clusters=%d routes=%d want 1 each",
			len(layers.Clusters.Features), len(layers.Routes.Features))
	}
	if layers.MatchedPct == nil || *layers.MatchedPct != 37.5 {
		t.Fatalf("matched pct=%v want 37.5", layers.MatchedPct)
	}

	cur := s.CurrentFilters()
	if cur == nil || cur.StartDate != "2025-10-01" || len(cur.EEZIDs) != 3 {
		t.Fatalf("current filters=%+v", cur)
	}

	toast := notifier.Current()
	if toast == nil || toast.Level != notify.Success || toast.Message != "showing 2 dark vessel detections" {
		t.Fatalf("toast=%+v", toast)
	}
	if got := hist.outcomes(); len(got) != 1 || got[0] != "succeeded" {
		t.Fatalf("history outcomes=%v", got)
	}
}

func TestApply_SecondaryFailureStaysSilent(t *testing.T) {
	fetcher := &fakeFetcher{payload: testPayload(1)}
	backend := &fakeBackend{boundariesErr: errors.New("boundary service down")}
	s, notifier := newTestSession(fetcher, backend, nil)

	lc, err := s.Apply(context.Background(), testSelection(t), "2025-10-01", "2025-10-08", model.OptionFlags{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	<-lc.Done()
	s.WaitIdle()

	if got := len(s.Layers().Boundaries.Features); got != 0 {
		t.Fatalf("boundary features=%d want 0 after fetch failure", got)
	}
	// The user still sees exactly one toast for the action, the success one.
	toast := notifier.Current()
	if toast == nil || toast.Level != notify.Success {
		t.Fatalf("toast=%+v want success", toast)
	}
}

func TestApply_FetchFailureSurfacesErrorToast(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream unreachable")}
	hist := &recordingHistory{}
	s, notifier := newTestSession(fetcher, &fakeBackend{}, hist)

	lc, err := s.Apply(context.Background(), testSelection(t), "2025-10-01", "2025-10-08", model.OptionFlags{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	<-lc.Done()
	s.WaitIdle()

	if s.CurrentFilters() != nil {
		t.Fatal("failed query replaced the filter snapshot")
	}
	toast := notifier.Current()
	if toast == nil || toast.Level != notify.Error {
		t.Fatalf("toast=%+v want error", toast)
	}
	if got := hist.outcomes(); len(got) != 1 || got[0] != "failed" {
		t.Fatalf("history outcomes=%v", got)
	}
}

func TestProgress_ReportsHundredOnlyWhenSucceeded(t *testing.T) {
	fetcher := &fakeFetcher{payload: testPayload(1)}
	s, _ := newTestSession(fetcher, &fakeBackend{}, nil)

	if p := s.Progress(); p.State != "idle" || p.Percent != 0 {
		t.Fatalf("idle progress=%+v", p)
	}

	lc, err := s.Apply(context.Background(), testSelection(t), "2025-10-01", "2025-10-08", model.OptionFlags{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	<-lc.Done()
	s.WaitIdle()

	if p := s.Progress(); p.State != "succeeded" || p.Percent != 100 {
		t.Fatalf("terminal progress=%+v", p)
	}
}
