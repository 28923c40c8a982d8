package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/narravid/narravid-go/internal/backend"
	"github.com/narravid/narravid-go/internal/logger"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/session"
	"github.com/narravid/narravid-go/internal/store"
	"github.com/narravid/narravid-go/internal/validation"
)

type CreateGenerationRequest struct {
	Prompt string `json:"prompt" validate:"required,max=1000"`
	Voice  string `json:"voice" validate:"required,max=64"`
}

// CreateGenerationHandler submits a new text-to-video job. At most one job
// may be queued or processing per user; this is a UX guard, the backend
// enforces it authoritatively. The request is bounded by its own deadline so
// a hung backend surfaces as a timeout rather than a generic failure.
func CreateGenerationHandler(creator port.GenerationCreator, videos port.VideoStore, sig *session.Signal, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGenerationRequest
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

		sess := sig.Current()
		if !sess.Authenticated() {
			WriteError(w, http.StatusUnauthorized, "Not signed in", nil)
			return
		}
		if videos.HasActiveGeneration() {
			WriteError(w, http.StatusConflict, "A generation is already in progress", store.ErrGenerationActive)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		err := creator.CreateGeneration(ctx, port.CreateGenerationInput{
			Prompt:       req.Prompt,
			Voice:        req.Voice,
			RefreshToken: sess.RefreshToken,
		})
		if err != nil {
			var creationErr *backend.CreationError
			if errors.As(err, &creationErr) {
				switch creationErr.Kind {
				case backend.CreationTimeout:
					WriteError(w, http.StatusGatewayTimeout, "Generation request timed out", err)
				case backend.CreationRejected:
					WriteError(w, http.StatusUnprocessableEntity, creationErr.Message, err)
				default:
					WriteError(w, http.StatusBadGateway, "Generation request failed", err)
				}
				return
			}
			WriteError(w, http.StatusInternalServerError, "Generation request failed", err)
			return
		}

		// Accepted: the resulting row arrives later via realtime insert.
		RespondJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
		logger.Info(r.Context(), "✅  Generation request accepted")
	}
}
