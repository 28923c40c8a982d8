package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/narravid/narravid-go/internal/model"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/uuid"
)

// TokenSource returns the current access token, or "" when unauthenticated.
// Anonymous calls fall back to the project key.
type TokenSource func() string

// Client talks to the backend's REST rows and edge functions. It is
// constructed once at process start with validated config and injected into
// each store.
type Client struct {
	baseURL string
	anonKey string
	bucket  string
	http    *http.Client
	token   TokenSource
}

// compile-time checks
var (
	_ port.VideoAPI          = (*Client)(nil)
	_ port.BalanceAPI        = (*Client)(nil)
	_ port.GenerationCreator = (*Client)(nil)
)

// New builds a client. bucket is the storage bucket video assets live in,
// used when a resolution request does not name one explicitly.
func New(baseURL, anonKey, bucket string, token TokenSource, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrNotConfigured
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		bucket:  bucket,
		http:    &http.Client{Timeout: timeout},
		token:   token,
	}, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("apikey", c.anonKey)
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	} else if c.anonKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
}

func (c *Client) do(req *http.Request, out any) error {
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &StatusError{Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) restURL(table string, query url.Values) string {
	return c.baseURL + "/rest/v1/" + table + "?" + query.Encode()
}

// ListVideos fetches one page of the caller's videos in the authoritative
// ordering (created_at desc, id desc).
func (c *Client) ListVideos(ctx context.Context, in port.ListVideosInput) ([]model.Video, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+in.UserID.String())
	q.Set("order", "created_at.desc,id.desc")
	q.Set("offset", strconv.Itoa(in.Offset))
	q.Set("limit", strconv.Itoa(in.Limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restURL("videos", q), nil)
	if err != nil {
		return nil, err
	}

	var rows []model.Video
	if err := c.do(req, &rows); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return rows, nil
}

// GetVideo fetches the authoritative row for one id, used to backfill after
// partial realtime events.
func (c *Client) GetVideo(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	q := url.Values{}
	q.Set("id", "eq."+id.String())
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restURL("videos", q), nil)
	if err != nil {
		return nil, err
	}

	var rows []model.Video
	if err := c.do(req, &rows); err != nil {
		return nil, fmt.Errorf("get video %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// DeleteVideos removes the given rows. The store only drops local entries
// once this returns without error.
func (c *Client) DeleteVideos(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	q := url.Values{}
	q.Set("user_id", "eq."+userID.String())
	q.Set("id", "in.("+strings.Join(strs, ",")+")")

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.restURL("videos", q), nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("delete videos: %w", err)
	}
	return nil
}

// GetBalance reads the single balance scalar from the caller's profile row.
func (c *Client) GetBalance(ctx context.Context, userID uuid.UUID) (float64, error) {
	q := url.Values{}
	q.Set("id", "eq."+userID.String())
	q.Set("select", "balance")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.restURL("profiles", q), nil)
	if err != nil {
		return 0, err
	}

	var rows []struct {
		Balance float64 `json:"balance"`
	}
	if err := c.do(req, &rows); err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	if len(rows) == 0 {
		return 0, ErrNotFound
	}
	return rows[0].Balance, nil
}

// SetBalance writes the absolute balance value.
func (c *Client) SetBalance(ctx context.Context, userID uuid.UUID, balance float64) error {
	q := url.Values{}
	q.Set("id", "eq."+userID.String())

	payload, err := json.Marshal(map[string]float64{"balance": balance})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.restURL("profiles", q), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

// InsertTopUp appends one row to the top-up history.
func (c *Client) InsertTopUp(ctx context.Context, in port.TopUpInput) error {
	payload, err := json.Marshal(map[string]any{
		"user_id": in.UserID.String(),
		"amount":  in.Amount,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.restURL("topups", url.Values{}), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("insert top-up: %w", err)
	}
	return nil
}
