package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"

	"github.com/narravid/narravid-go/internal/port"
)

type resolveRequest struct {
	Bucket   string `json:"bucket"`
	Path     string `json:"path"`
	Expires  int    `json:"expires"`
	Filename string `json:"filename"`
}

type resolveResponse struct {
	URL string `json:"url"`
}

// ResolveDownloadURL asks the signing edge function for a time-limited
// download URL. No internal retries; the refresh worker and the store decide
// when to try again.
func (c *Client) ResolveDownloadURL(ctx context.Context, in port.ResolveInput) (string, error) {
	filename := in.Filename
	if filename == "" {
		filename = path.Base(in.Path)
	}
	bucket := in.Bucket
	if bucket == "" {
		bucket = c.bucket
	}
	payload, err := json.Marshal(resolveRequest{
		Bucket:   bucket,
		Path:     in.Path,
		Expires:  int(in.Expires.Seconds()),
		Filename: filename,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/functions/v1/sign-download-url", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out resolveResponse
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("resolve download url for %q: %w", in.Path, err)
	}
	if out.URL == "" {
		return "", ErrMissingURL
	}
	return out.URL, nil
}

// compile-time check: *Client must satisfy port.URLResolver
var _ port.URLResolver = (*Client)(nil)
