package api

import "net/http"

type endpointDoc struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

var endpointDocs = []endpointDoc{
	{"GET", "/", "Dashboard page"},
	{"POST", "/filters/apply", "Reload with the date-from and date-to form values"},
	{"POST", "/filters/reset", "Clear the dates and reload"},
	{"GET", "/charts/{surface}", "Chart currently painted on chart-trend or chart-lines"},
	{"GET", "/api/state", "Snapshot of the dashboard page"},
	{"GET", "/api/cycles", "Journaled load cycles (limit, offset, since, until, outcome, trigger)"},
	{"GET", "/api/cycles/stats", "Cycle statistics (period, default 24h)"},
	{"GET", "/api/cycles/{id}", "Single journaled cycle"},
	{"GET", "/health", "Health check"},
	{"GET", "/metrics", "Prometheus metrics"},
}

// handleAPIIndex lists the served endpoints.
func (s *Server) handleAPIIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, successResponse{
		Status: "ok",
		Data:   endpointDocs,
	})
}
