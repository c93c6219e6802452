package httpapi

import (
	"context"
	"net/http"

	"github.com/fleetops/dt-ingest/internal/pipeline"
)

// handleAdminFetch fires one orchestrator run on a new goroutine and
// responds immediately, mirroring the teacher's pattern of kicking off a
// long-running daemon operation from a handler and letting callers observe
// completion only through later reads (cmd/spacetraders-daemon/main.go's
// background health-monitor goroutine).
func (s *Server) handleAdminFetch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	date, ok := parseQueryDate(q.Get("date"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid or missing date")
		return
	}
	shiftType := pipeline.ShiftType(q.Get("shift"))
	if shiftType != pipeline.Shift1 && shiftType != pipeline.Shift2 {
		writeError(w, http.StatusBadRequest, "shift must be shift1 or shift2")
		return
	}

	if s.Run == nil {
		writeError(w, http.StatusInternalServerError, "admin fetch is not wired to a runner")
		return
	}

	go s.Run(context.Background(), date, shiftType)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
