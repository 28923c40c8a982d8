package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/narravid/narravid-go/internal/logger"
	"github.com/narravid/narravid-go/internal/store"
	"github.com/narravid/narravid-go/internal/validation"
)

type BalanceResponse struct {
	Balance *float64 `json:"balance"`
}

// GetBalanceHandler returns the cached balance; a fetch is triggered when
// nothing is cached yet.
func GetBalanceHandler(balance *store.Balance) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if balance.Current() == nil {
			balance.Fetch(r.Context())
		}
		RespondJSON(w, http.StatusOK, BalanceResponse{Balance: balance.Current()})
	}
}

type TopUpRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// TopUpHandler credits the balance and appends a top-up history row.
func TopUpHandler(balance *store.Balance) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TopUpRequest
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

		next, err := balance.TopUp(r.Context(), req.Amount)
		if err != nil {
			if errors.Is(err, store.ErrNotAuthenticated) {
				WriteError(w, http.StatusUnauthorized, "Not signed in", nil)
				return
			}
			WriteError(w, http.StatusBadGateway, "Top-up failed", err)
			return
		}

		RespondJSON(w, http.StatusOK, BalanceResponse{Balance: &next})
		logger.Infof(r.Context(), "✅  Successfully topped up balance by %.2f", req.Amount)
	}
}
