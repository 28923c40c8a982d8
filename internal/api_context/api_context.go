package api_context

import (
	"context"

	"github.com/narravid/narravid-go/internal/uuid"
)

type ctxKey string

const (
	VideoIDKey    ctxKey = "videoID"
	AuthUserIDKey ctxKey = "authUserID"
	AuthTokenKey  ctxKey = "authToken"
)

func VideoIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(VideoIDKey).(uuid.UUID)
	return id, ok
}

func AuthUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(AuthUserIDKey).(uuid.UUID)
	return id, ok
}

func AuthTokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(AuthTokenKey).(string)
	return tok, ok
}
