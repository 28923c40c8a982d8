package mock

import (
	"context"
	"time"

	"github.com/narravid/narravid-go/internal/uuid"
)

// URLCache implements signed-URL caching for tests.
type URLCache struct {
	// stored values
	URLOut string

	// errors
	GetErr error
	DelErr error

	// call flags
	GetCalled bool
	SetCalled bool
	DelCalled bool

	SetURL        string
	SetValidUntil time.Time
	DelIDs        []uuid.UUID
}

func (c *URLCache) GetSignedURL(ctx context.Context, id uuid.UUID) (string, error) {
	c.GetCalled = true
	if c.GetErr != nil {
		return "", c.GetErr
	}
	return c.URLOut, nil
}

func (c *URLCache) SetSignedURL(ctx context.Context, id uuid.UUID, url string, validUntil time.Time) {
	c.SetCalled = true
	c.SetURL = url
	c.SetValidUntil = validUntil
}

func (c *URLCache) DeleteSignedURL(ctx context.Context, id uuid.UUID) error {
	c.DelCalled = true
	c.DelIDs = append(c.DelIDs, id)
	return c.DelErr
}
