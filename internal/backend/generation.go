package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/narravid/narravid-go/internal/port"
)

type createGenerationRequest struct {
	Prompt       string `json:"prompt"`
	RefreshToken string `json:"refreshToken"`
	Voice        string `json:"voice"`
}

type createGenerationResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// CreateGeneration submits a text-to-video job to the generation edge
// function. A 2xx with ok=true only signals acceptance; the resulting row
// arrives later as a realtime insert. The caller bounds the request with a
// deadline context so a hung call surfaces as a timeout, not a generic
// network error.
func (c *Client) CreateGeneration(ctx context.Context, in port.CreateGenerationInput) error {
	payload, err := json.Marshal(createGenerationRequest{
		Prompt:       in.Prompt,
		RefreshToken: in.RefreshToken,
		Voice:        in.Voice,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/functions/v1/generate-video", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var out createGenerationResponse
	if err := c.do(req, &out); err != nil {
		return creationError(ctx, err)
	}
	if !out.OK {
		msg := out.Message
		if msg == "" {
			msg = "generation request was not accepted"
		}
		return &CreationError{Kind: CreationRejected, Message: msg}
	}
	return nil
}

func creationError(ctx context.Context, err error) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		msg := statusErr.Body
		var body createGenerationResponse
		if jsonErr := json.Unmarshal([]byte(statusErr.Body), &body); jsonErr == nil && body.Message != "" {
			msg = body.Message
		}
		return &CreationError{Kind: CreationRejected, Message: msg}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &CreationError{Kind: CreationTimeout, Message: "generation request timed out"}
	}
	return &CreationError{Kind: CreationNetwork, Message: err.Error()}
}
