package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/narravid/narravid-go/internal/api_context"
	"github.com/narravid/narravid-go/internal/logger"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/store"
	"github.com/narravid/narravid-go/internal/uuid"
)

// ListVideosHandler returns the store's current snapshot. The daemon keeps
// the collection fresh through realtime; this read never touches the
// backend.
func ListVideosHandler(videos port.VideoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, videos.Snapshot())
	}
}

// GetVideoHandler returns one record from the snapshot.
func GetVideoHandler(videos port.VideoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := api_context.VideoIDFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		v, found := videos.Get(id)
		if !found {
			WriteError(w, http.StatusNotFound, "Video not found", nil)
			return
		}
		RespondJSON(w, http.StatusOK, v)
	}
}

// RefreshVideosHandler triggers an authoritative reset fetch.
func RefreshVideosHandler(videos port.VideoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos.FetchPage(r.Context(), true)
		RespondJSON(w, http.StatusOK, videos.Snapshot())
	}
}

// LoadMoreHandler appends the next page, if any.
func LoadMoreHandler(videos port.VideoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos.LoadMore(r.Context())
		RespondJSON(w, http.StatusOK, videos.Snapshot())
	}
}

// RefreshSignedURLHandler re-resolves the signed URL for one record, used by
// consumers when a cached URL nears expiry.
func RefreshSignedURLHandler(videos port.VideoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := api_context.VideoIDFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		url, err := videos.RefreshSignedURL(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				WriteError(w, http.StatusNotFound, "Video not found", nil)
			case errors.Is(err, store.ErrNotResolvable):
				WriteError(w, http.StatusConflict, "Video has no completed asset", nil)
			default:
				WriteError(w, http.StatusBadGateway, "Could not refresh signed URL", err)
			}
			return
		}
		RespondJSON(w, http.StatusOK, map[string]string{"url": url})
	}
}

// DeleteVideoHandler deletes one video, server-confirmed first.
func DeleteVideoHandler(videos port.VideoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := api_context.VideoIDFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		if err := videos.DeleteVideo(r.Context(), id); err != nil {
			writeDeleteError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		logger.Infof(r.Context(), "✅  Successfully deleted video #%s", id)
	}
}

type DeleteVideosRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// DeleteVideosHandler deletes a set of videos in one backend call.
func DeleteVideosHandler(videos port.VideoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeleteVideosRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request", fmt.Errorf("invalid JSON: %w", err))
			return
		}
		if len(req.IDs) == 0 {
			WriteError(w, http.StatusBadRequest, "ids is required", nil)
			return
		}

		if err := videos.DeleteVideos(r.Context(), req.IDs); err != nil {
			writeDeleteError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		logger.Infof(r.Context(), "✅  Successfully deleted %d videos", len(req.IDs))
	}
}

func writeDeleteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotAuthenticated):
		WriteError(w, http.StatusUnauthorized, "Not signed in", nil)
	case errors.Is(err, store.ErrDeleteFailed):
		WriteError(w, http.StatusBadGateway, "Failed to delete video", err)
	default:
		WriteError(w, http.StatusInternalServerError, "Failed to delete video", err)
	}
}
