package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/streamcast/streamcast-notify/internal/api/respond"
	"github.com/streamcast/streamcast-notify/internal/rtc"
)

// TokenRequest is the credential-issuance request body.
type TokenRequest struct {
	ChannelName string `json:"channelName"`
	UID         uint32 `json:"uid"`        // optional, 0 = anonymous
	ExpiryTime  uint32 `json:"expiryTime"` // seconds from now
}

// TokenResponse carries the issued token.
type TokenResponse struct {
	Token string `json:"token"`
}

// IssueToken issues a scoped, expiring RTC channel token.
// @Summary Issue RTC channel token
// @Description Builds a publisher token for a channel join request, expiring expiryTime seconds from now.
// @Tags rtc
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Token request"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/rtc/token [post]
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidArgument, "Invalid request body")
		return
	}

	token, err := h.issuer.IssueToken(req.ChannelName, req.UID, req.ExpiryTime)
	if err != nil {
		switch {
		case errors.Is(err, rtc.ErrChannelRequired):
			respond.WriteError(w, http.StatusBadRequest, respond.CodeInvalidArgument, "Channel name is required")
		default:
			// Never leak signing internals to the caller.
			respond.WriteError(w, http.StatusInternalServerError, respond.CodeTokenGenerationFailed, "Could not generate token")
		}
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, TokenResponse{Token: token})
}
