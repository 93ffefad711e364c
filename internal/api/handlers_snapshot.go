package api

import (
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

// handleGetSnapshots handles GET /api/snapshots?from=&to= - snapshot history
func (s *Server) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from := now.AddDate(0, -1, 0)
	to := now

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "from must be formatted as YYYY-MM-DD", nil)
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "to must be formatted as YYYY-MM-DD", nil)
			return
		}
		to = parsed
	}
	if from.After(to) {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "from must not be after to", nil)
		return
	}

	snapshots, err := s.snapshotService.GetSnapshots(r.Context(), from, to)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// handleCaptureSnapshot handles POST /api/snapshots - capture a snapshot
// now, or for an explicit date. Capturing an existing date overwrites it.
func (s *Server) handleCaptureSnapshot(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()

	if r.ContentLength > 0 {
		var req struct {
			Date string `json:"date"`
		}
		if err := parseJSONBody(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
			return
		}
		if req.Date != "" {
			parsed, err := time.Parse(dateLayout, req.Date)
			if err != nil {
				respondError(w, http.StatusBadRequest, "INVALID_INPUT", "date must be formatted as YYYY-MM-DD", nil)
				return
			}
			date = parsed
		}
	}

	snapshot, err := s.snapshotService.Capture(r.Context(), date)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// handleRefreshPrices handles POST /api/prices/refresh - refresh stored
// marks for all open positions
func (s *Server) handleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	report, err := s.priceService.RefreshPrices(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, report)
}
