package handler

import (
	"errors"
	"net/http"

	"github.com/streamcast/streamcast-notify/internal/api/respond"
	"github.com/streamcast/streamcast-notify/internal/dispatch"
)

// RunCycle triggers one dispatch cycle synchronously. This is the entry
// point an external scheduler hits on its cadence; it is also useful for
// ops and testing.
// @Summary Run one notification dispatch cycle
// @Description Selects events in the lookahead window, notifies eligible signups, and returns the cycle summary. 409 when a cycle is already in flight.
// @Tags dispatch
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/dispatch/run [post]
func (h *Handler) RunCycle(w http.ResponseWriter, r *http.Request) {
	result, err := h.coordinator.Run(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrRunInProgress):
			respond.WriteError(w, http.StatusConflict, respond.CodeRunInProgress, "A dispatch cycle is already running")
		case errors.Is(err, dispatch.ErrSelectionFailed):
			respond.WriteError(w, http.StatusInternalServerError, respond.CodeQuerySelectionFailed, "Event selection failed")
		default:
			respond.WriteError(w, http.StatusInternalServerError, respond.CodeInternal, "Dispatch cycle failed")
		}
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"run_id":             result.RunID,
		"events_found":       result.EventsFound,
		"signups_seen":       result.SignupsSeen,
		"eligible":           result.Eligible,
		"sent":               result.Sent,
		"send_failed":        result.SendFailed,
		"skipped":            result.Skipped,
		"state_write_failed": result.StateWriteFailed,
		"duration_ms":        result.Duration.Milliseconds(),
	})
}
