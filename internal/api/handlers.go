package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lan-dot-party/metroflow/internal/dashboard"
	"github.com/lan-dot-party/metroflow/internal/scheduler"
	"github.com/lan-dot-party/metroflow/internal/storage"
	"github.com/lan-dot-party/metroflow/pkg/version"
)

// defaultCycleLimit caps /api/cycles when no limit is given.
const defaultCycleLimit = 100

// Response helpers

type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

type successResponse struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
	version.Info
}

type stateResponse struct {
	dashboard.Snapshot
	Range     dashboard.DateRange `json:"range"`
	Scheduler *scheduler.Status   `json:"scheduler,omitempty"`
}

type cyclesResponse struct {
	Cycles []storage.CycleRecord `json:"cycles"`
	Meta   struct {
		Total  int `json:"total"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	} `json:"meta"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Code:    status,
		Message: message,
	})
}

// Handlers

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Info:   version.Get(),
	})
}

// handleState returns a snapshot of the dashboard page.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{
		Snapshot: s.ctrl.Document().Snapshot(),
		Range:    s.ctrl.LastRange(),
	}
	if s.scheduler != nil {
		status := s.scheduler.GetStatus()
		resp.Scheduler = &status
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleChart serves the image currently painted on a chart surface.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	surface := chi.URLParam(r, "surface")
	img, ok := s.ctrl.Document().Surface(surface)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Chart not rendered")
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img.Data); err != nil {
		s.logger.Debug("Failed to write chart", zap.String("surface", surface), zap.Error(err))
	}
}

// handleApplyFilters copies the submitted dates into the page inputs and
// reloads the dashboard with them. The cycle outlives the request: the page
// is shared, so a disconnecting browser must not abort it halfway.
func (s *Server) handleApplyFilters(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid form")
		return
	}
	filterActions.WithLabelValues(dashboard.TriggerApply).Inc()

	doc := s.ctrl.Document()
	from := strings.TrimSpace(r.PostFormValue(dashboard.InputFrom))
	to := strings.TrimSpace(r.PostFormValue(dashboard.InputTo))
	if err := doc.SetInput(dashboard.InputFrom, from); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := doc.SetInput(dashboard.InputTo, to); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.redirectAfter(w, r, s.ctrl.ApplyFilters(context.WithoutCancel(r.Context())))
}

// handleResetFilters clears the dates and reloads the unfiltered dashboard.
func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	filterActions.WithLabelValues(dashboard.TriggerReset).Inc()
	s.redirectAfter(w, r, s.ctrl.ResetFilters(context.WithoutCancel(r.Context())))
}

// redirectAfter sends the browser back to the page. Cycle failures are
// logged and journaled by the controller and never shown on the page.
func (s *Server) redirectAfter(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil && !errors.Is(err, dashboard.ErrSuperseded) {
		s.logger.Debug("Filter action left the page unchanged",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleGetCycles returns journaled load cycles with optional filtering.
func (s *Server) handleGetCycles(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Journal not configured")
		return
	}

	q := r.URL.Query()
	filter := storage.CycleFilter{
		Outcome: storage.Outcome(q.Get("outcome")),
		Trigger: q.Get("trigger"),
		Limit:   defaultCycleLimit,
	}

	if since := q.Get("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			filter.Since = t
		} else if d, err := storage.ParsePeriod(since); err == nil {
			filter.Since = time.Now().Add(-d)
		} else {
			s.writeError(w, http.StatusBadRequest, "Invalid since")
			return
		}
	}

	if until := q.Get("until"); until != "" {
		if t, err := time.Parse(time.RFC3339, until); err == nil {
			filter.Until = t
		}
	}

	if limit := q.Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			filter.Limit = l
		}
	}

	if offset := q.Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	cycles, err := s.storage.GetCycles(r.Context(), filter)
	if err != nil {
		s.logger.Error("Failed to get cycles", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve cycles")
		return
	}
	if cycles == nil {
		cycles = []storage.CycleRecord{}
	}

	response := cyclesResponse{Cycles: cycles}
	response.Meta.Total = len(cycles)
	response.Meta.Limit = filter.Limit
	response.Meta.Offset = filter.Offset

	s.writeJSON(w, http.StatusOK, response)
}

// handleGetCycle returns a single cycle by ID.
func (s *Server) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Journal not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid cycle ID")
		return
	}

	cycle, err := s.storage.GetCycle(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Cycle not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to get cycle", zap.Stringer("id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve cycle")
		return
	}

	s.writeJSON(w, http.StatusOK, successResponse{
		Status: "ok",
		Data:   cycle,
	})
}

// handleGetCycleStats returns cycle statistics for a period (default 24h).
func (s *Server) handleGetCycleStats(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Journal not configured")
		return
	}

	period := 24 * time.Hour
	if p := r.URL.Query().Get("period"); p != "" {
		d, err := storage.ParsePeriod(p)
		if err != nil || d == 0 {
			s.writeError(w, http.StatusBadRequest, "Invalid period")
			return
		}
		period = d
	}

	stats, err := s.storage.GetStats(r.Context(), period)
	if err != nil {
		s.logger.Error("Failed to get stats", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve statistics")
		return
	}

	s.writeJSON(w, http.StatusOK, successResponse{
		Status: "ok",
		Data:   stats,
	})
}
