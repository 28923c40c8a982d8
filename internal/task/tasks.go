package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TypeRefreshSignedURL = "video:refresh_signed_url"

type RefreshSignedURLPayload struct {
	VideoID string `json:"video_id"`
}

// NewRefreshSignedURLTask creates an Asynq task re-resolving the signed URL
// of a video by ID.
func NewRefreshSignedURLTask(videoID string) (*asynq.Task, error) {
	p := RefreshSignedURLPayload{VideoID: videoID}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not marshal refresh-signed-url payload: %w", err)
	}
	return asynq.NewTask(TypeRefreshSignedURL, data), nil
}

// ParseRefreshSignedURLPayload parses the task payload to RefreshSignedURLPayload.
func ParseRefreshSignedURLPayload(t *asynq.Task) (RefreshSignedURLPayload, error) {
	var p RefreshSignedURLPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return RefreshSignedURLPayload{}, fmt.Errorf("could not unmarshal payload: %w", err)
	}
	return p, nil
}
