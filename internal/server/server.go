// Package server wires the console API: catalog and selection endpoints, the
// apply/progress lifecycle, rendered layers, and passthrough lookups to the
// analysis backend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marisklase/darkwatch/internal/cache"
	"github.com/marisklase/darkwatch/internal/config"
	"github.com/marisklase/darkwatch/internal/coordinator"
	"github.com/marisklase/darkwatch/internal/eez"
	"github.com/marisklase/darkwatch/internal/health"
	"github.com/marisklase/darkwatch/internal/history"
	"github.com/marisklase/darkwatch/internal/middleware"
	"github.com/marisklase/darkwatch/internal/model"
	"github.com/marisklase/darkwatch/internal/notify"
	"github.com/marisklase/darkwatch/internal/report"
	"github.com/marisklase/darkwatch/internal/session"
	"github.com/marisklase/darkwatch/internal/upstream"
)

type Server struct {
	logger   *slog.Logger
	cfg      config.Config
	upstream *upstream.Client
	cache    *cache.Responses // nil when Redis is not configured
	history  *history.Store   // nil when history is disabled

	catalog   *eez.Catalog
	selection *eez.Selection
	coord     *coordinator.Coordinator
	notifier  *notify.Notifier
	session   *session.Session

	configMu     sync.Mutex
	configLoaded bool
	countries    map[string]string
}

func New(logger *slog.Logger, cfg config.Config, up *upstream.Client, responses *cache.Responses, hist *history.Store) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	catalog := eez.NewCatalog()
	coord := coordinator.New(logger, up, cfg.Timeout)
	notifier := notify.New(cfg.ToastDuration)

	var historian session.Historian
	if hist != nil {
		historian = hist
	}
	return &Server{
		logger:    logger,
		cfg:       cfg,
		upstream:  up,
		cache:     responses,
		history:   hist,
		catalog:   catalog,
		selection: eez.NewSelection(catalog),
		coord:     coord,
		notifier:  notifier,
		session:   session.New(logger, coord, up, notifier, historian),
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(s.logger))
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(s.isConfigLoaded))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/console", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Post("/selection", s.handleSetSelection)
		r.Delete("/selection", s.handleClearSelection)
		r.Post("/apply", s.handleApply)
		r.Post("/cancel", s.handleCancel)
		r.Get("/progress", s.handleProgress)
		r.Get("/filters", s.handleFilters)
		r.Get("/layers", s.handleLayers)
		r.Get("/toast", s.handleToast)
		r.Delete("/toast", s.handleDismissToast)
		r.Get("/history", s.handleHistory)
		r.Get("/report", s.handleReport)
	})

	r.Get("/api/eez-boundaries", s.handleBoundaries)
	r.Get("/api/vessels/{vesselID}", s.handleVessel)
	r.Get("/api/vessels/{vesselID}/timeline", s.handleVesselTimeline)
	r.Get("/api/analytics/risk-score/{vesselID}", s.handleRiskScore)
	r.Get("/api/events", s.handleEvents)

	return r
}

// Run serves until ctx is cancelled, then drains with a shutdown grace period.
func Run(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listen", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) isConfigLoaded() bool {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	return s.configLoaded
}

// ensureCatalog loads the EEZ dictionary once, preferring the response cache
// over a backend round trip. The catalog ignores repeat builds, so a race
// between two first requests is harmless.
func (s *Server) ensureCatalog(ctx context.Context) error {
	if s.isConfigLoaded() {
		return nil
	}

	var payload upstream.ConfigsPayload
	if s.cache != nil {
		if b := s.cache.GetConfigs(ctx); b != nil {
			if err := json.Unmarshal(b, &payload); err == nil {
				s.installCatalog(payload)
				return nil
			}
			s.logger.Warn("cached configs unreadable; refetching")
		}
	}

	p, err := s.upstream.Configs(ctx)
	if err != nil {
		return err
	}
	payload = *p
	if s.cache != nil {
		if b, err := json.Marshal(payload); err == nil {
			s.cache.SetConfigs(ctx, b)
		}
	}
	s.installCatalog(payload)
	return nil
}

func (s *Server) installCatalog(p upstream.ConfigsPayload) {
	s.catalog.Build(p.EEZData)
	countries := p.ISO3ToCountry
	if len(countries) == 0 {
		countries = eez.CountryNames(p.EEZData)
	}
	s.configMu.Lock()
	s.configLoaded = true
	s.countries = countries
	s.configMu.Unlock()
}

type catalogOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if err := s.ensureCatalog(r.Context()); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	opts := s.catalog.Options()
	out := make([]catalogOption, len(opts))
	for i, o := range opts {
		out[i] = catalogOption{Value: o.Value, Label: o.Label, Type: string(o.Type)}
	}
	s.configMu.Lock()
	countries := s.countries
	s.configMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"options": out, "countries": countries})
}

type selectionRequest struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	if err := s.ensureCatalog(r.Context()); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid selection body")
		return
	}
	s.selection.SetSelected(req.Value, req.Selected)
	writeJSON(w, http.StatusOK, map[string]any{"resolved_ids": s.selection.ResolvedIDs()})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.selection.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"resolved_ids": []string{}})
}

type applyRequest struct {
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	IncludeClusters bool   `json:"include_clusters"`
	IncludeRoutes   bool   `json:"include_routes"`
	IncludeStats    bool   `json:"include_stats"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if err := s.ensureCatalog(r.Context()); err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid apply body")
		return
	}

	// The upstream call outlives this request; only the lifecycle's own
	// timeout may cancel it.
	ctx := context.WithoutCancel(r.Context())
	lc, err := s.session.Apply(ctx, s.selection, req.StartDate, req.EndDate, model.OptionFlags{
		IncludeClusters: req.IncludeClusters,
		IncludeRoutes:   req.IncludeRoutes,
		IncludeStats:    req.IncludeStats,
	})
	if err != nil {
		var verr *coordinator.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, coordinator.ErrBusy):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"request_id":       lc.ID,
		"total_days":       lc.TotalDays,
		"chunks":           lc.TotalChunks,
		"timeout_seconds":  int(lc.Timeout.Seconds()),
		"progress_tick_ms": s.cfg.ProgressTick.Milliseconds(),
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request) {
	lc := s.coord.Active()
	if lc == nil {
		writeError(w, http.StatusNotFound, "no active query")
		return
	}
	lc.Cancel()
	writeJSON(w, http.StatusOK, map[string]any{"state": lc.State().String()})
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	p := s.session.Progress()
	if st := s.coord.Active(); st != nil && st.State().Terminal() {
		// Polling the terminal state acknowledges it, returning to idle.
		defer s.coord.Acknowledge()
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleFilters(w http.ResponseWriter, _ *http.Request) {
	cur := s.session.CurrentFilters()
	if cur == nil {
		writeJSON(w, http.StatusOK, map[string]any{"filters": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"filters": cur})
}

func (s *Server) handleLayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Layers())
}

func (s *Server) handleToast(w http.ResponseWriter, _ *http.Request) {
	t := s.notifier.Current()
	if t == nil {
		writeJSON(w, http.StatusOK, map[string]any{"toast": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"toast": t})
}

func (s *Server) handleDismissToast(w http.ResponseWriter, _ *http.Request) {
	s.notifier.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, map[string]any{"queries": []history.QueryRecord{}})
		return
	}
	recs, err := s.history.Recent(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": recs})
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.Render(w, "Dark Vessel Activity", s.session.Layers().Detections); err != nil {
		s.logger.Error("report render failed", "err", err)
	}
}

// handleBoundaries serves EEZ boundary geometries with a per-EEZ cache in
// front of the backend. Misses are fetched in one batch call.
func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	ids := upstream.ParseEEZIDs(r.URL.Query()["eez_ids"])
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "missing eez_ids")
		return
	}

	out := model.BoundariesPayload{}
	var misses []string
	for _, id := range ids {
		if s.cache != nil {
			if b := s.cache.GetBoundary(r.Context(), id); b != nil {
				var bd model.Boundary
				if err := json.Unmarshal(b, &bd); err == nil {
					out.Boundaries = append(out.Boundaries, bd)
					continue
				}
			}
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := s.upstream.Boundaries(r.Context(), misses)
		if err != nil {
			s.writeUpstreamError(w, err)
			return
		}
		for _, bd := range fetched.Boundaries {
			out.Boundaries = append(out.Boundaries, bd)
			if s.cache != nil {
				if b, err := json.Marshal(bd); err == nil {
					s.cache.SetBoundary(r.Context(), bd.EEZID, b)
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVessel(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upstream.Vessel(r.Context(), chi.URLParam(r, "vesselID"), r.URL.Query().Get("includes"))
	s.writeRaw(w, raw, err)
}

func (s *Server) handleVesselTimeline(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upstream.VesselTimeline(r.Context(), chi.URLParam(r, "vesselID"), r.URL.Query())
	s.writeRaw(w, raw, err)
}

func (s *Server) handleRiskScore(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upstream.RiskScore(r.Context(), chi.URLParam(r, "vesselID"), r.URL.Query())
	s.writeRaw(w, raw, err)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	raw, err := s.upstream.Events(r.Context(), r.URL.Query())
	s.writeRaw(w, raw, err)
}

func (s *Server) writeRaw(w http.ResponseWriter, raw json.RawMessage, err error) {
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

// writeUpstreamError maps the upstream error taxonomy onto gateway statuses.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	var httpErr *upstream.HTTPError
	if errors.As(err, &httpErr) {
		writeError(w, http.StatusBadGateway, httpErr.Error())
		return
	}
	var parseErr *upstream.ParseError
	if errors.As(err, &parseErr) {
		writeError(w, http.StatusBadGateway, parseErr.Error())
		return
	}
	writeError(w, http.StatusServiceUnavailable, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
