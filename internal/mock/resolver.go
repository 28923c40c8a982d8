package mock

import (
	"context"

	"github.com/narravid/narravid-go/internal/port"
)

// URLResolver implements signed-URL resolution for tests.
type URLResolver struct {
	URLOut     string
	ResolveErr error

	ResolveCalled bool
	ResolveCount  int
	ResolveIn     port.ResolveInput
}

func (m *URLResolver) ResolveDownloadURL(ctx context.Context, in port.ResolveInput) (string, error) {
	m.ResolveCalled = true
	m.ResolveCount++
	m.ResolveIn = in
	if m.ResolveErr != nil {
		return "", m.ResolveErr
	}
	return m.URLOut, nil
}
