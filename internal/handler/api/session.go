package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/narravid/narravid-go/internal/logger"
	"github.com/narravid/narravid-go/internal/session"
	"github.com/narravid/narravid-go/internal/validation"
)

type SetSessionRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token"`
	Restored     bool   `json:"restored"`
}

type SetSessionResponse struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Event     string    `json:"event"`
}

// SetSessionHandler installs or refreshes the daemon's session. The auth
// flow itself happens elsewhere (the backend auth service); this endpoint
// only receives its outcome and turns it into the right auth transition.
func SetSessionHandler(sig *session.Signal, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request", fmt.Errorf("invalid JSON: %w", err))
			return
		}

		if errs := validation.ValidateStruct(req); errs != nil {
			errsJSON, err := validation.ErrorsToJson(errs)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, "Validation error (could not encode details)", err)
				return
			}
			RespondRawJSON(w, http.StatusBadRequest, []byte(errsJSON))
			logger.Warnf(r.Context(), "❌  Validation failed: %s", errsJSON)
			return
		}

		sess, err := session.ParseAccessToken(req.AccessToken, jwtSecret)
		if err != nil {
			WriteError(w, http.StatusUnauthorized, "Invalid access token", err)
			return
		}
		sess.RefreshToken = req.RefreshToken

		prev := sig.Current()
		kind := session.SignedIn
		switch {
		case req.Restored:
			kind = session.Restored
		case prev.Authenticated() && prev.UserID == sess.UserID:
			kind = session.TokenRefreshed
		}
		sig.Set(kind, sess)

		RespondJSON(w, http.StatusOK, SetSessionResponse{
			UserID:    sess.UserID.String(),
			ExpiresAt: sess.ExpiresAt,
			Event:     string(kind),
		})
		logger.Infof(r.Context(), "✅  Session %s for user #%s", kind, sess.UserID)
	}
}

// ClearSessionHandler signs the daemon out.
func ClearSessionHandler(sig *session.Signal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sig.Set(session.SignedOut, session.Session{})
		w.WriteHeader(http.StatusNoContent)
		logger.Info(r.Context(), "✅  Session cleared")
	}
}
