package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/narravid/narravid-go/internal/backend"
	"github.com/narravid/narravid-go/internal/logger"
	"github.com/narravid/narravid-go/internal/model"
	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/realtime"
	"github.com/narravid/narravid-go/internal/session"
	"github.com/narravid/narravid-go/internal/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// PageSize is how many rows one fetch requests.
	PageSize = 10
	// enrichBatchSize caps concurrent signed-URL resolutions per chunk.
	enrichBatchSize = 5
)

// VideoList owns the authoritative in-memory ordered collection of video
// records for the current user. The realtime manager and the resolver never
// mutate it directly; they report events and results, and the list decides
// how to merge.
type VideoList struct {
	api      port.VideoAPI
	resolver port.URLResolver
	urls     port.URLCache
	tasks    port.TaskDispatcher
	sig      *session.Signal

	ttl  time.Duration
	lead time.Duration

	mu            sync.Mutex
	items         []model.Video
	cursor        int
	hasMore       bool
	isInitialLoad bool
	isLoadingMore bool
	fetching      bool
	errMsg        string
}

// compile-time checks
var (
	_ port.VideoStore    = (*VideoList)(nil)
	_ realtime.VideoSink = (*VideoList)(nil)
)

func NewVideoList(api port.VideoAPI, resolver port.URLResolver, urls port.URLCache, tasks port.TaskDispatcher, sig *session.Signal, ttl, lead time.Duration) *VideoList {
	return &VideoList{
		api:           api,
		resolver:      resolver,
		urls:          urls,
		tasks:         tasks,
		sig:           sig,
		ttl:           ttl,
		lead:          lead,
		hasMore:       true,
		isInitialLoad: true,
	}
}

// Snapshot returns a copy of the current read model.
func (s *VideoList) Snapshot() port.VideoSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]model.Video, len(s.items))
	copy(items, s.items)
	return port.VideoSnapshot{
		Items:         items,
		IsInitialLoad: s.isInitialLoad,
		IsLoadingMore: s.isLoadingMore,
		HasMore:       s.hasMore,
		Error:         s.errMsg,
	}
}

// Get returns one record by id from the current collection.
func (s *VideoList) Get(id uuid.UUID) (model.Video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.findLocked(id); idx >= 0 {
		return s.items[idx], true
	}
	return model.Video{}, false
}

// HasActiveGeneration reports whether any record is queued or processing.
// Advisory only; the backend is the source of truth for this constraint too.
func (s *VideoList) HasActiveGeneration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		switch s.items[i].Status {
		case model.StatusQueued, model.StatusProcessing:
			return true
		}
	}
	return false
}

// FetchPage performs a paginated backend fetch. reset replaces the collection
// from offset 0; otherwise the next page is appended at the current cursor.
// A fetch already in flight for the same direction is not restarted.
func (s *VideoList) FetchPage(ctx context.Context, reset bool) {
	sess := s.sig.Current()
	if !sess.Authenticated() {
		s.mu.Lock()
		s.items = nil
		s.cursor = 0
		s.isInitialLoad = false
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if reset {
		if s.fetching {
			s.mu.Unlock()
			return
		}
		s.fetching = true
		s.isInitialLoad = true
		s.errMsg = ""
	} else {
		if s.isLoadingMore {
			s.mu.Unlock()
			return
		}
		s.isLoadingMore = true
	}
	offset := 0
	if !reset {
		offset = s.cursor
	}
	s.mu.Unlock()

	rows, err := s.api.ListVideos(ctx, port.ListVideosInput{UserID: sess.UserID, Offset: offset, Limit: PageSize})
	if err != nil {
		logger.Warnf(ctx, "videos: page fetch failed: %v", err)
		s.mu.Lock()
		s.errMsg = "could not load videos"
		s.releaseFetchLocked(reset)
		s.mu.Unlock()
		return
	}

	sortRows(rows)
	s.enrich(ctx, rows)

	s.mu.Lock()
	if reset {
		s.items = rows
	} else {
		// Guard against double-invocation races: drop any id already merged.
		seen := make(map[uuid.UUID]struct{}, len(s.items))
		for i := range s.items {
			seen[s.items[i].ID] = struct{}{}
		}
		for i := range rows {
			if _, dup := seen[rows[i].ID]; dup {
				continue
			}
			s.items = append(s.items, rows[i])
		}
	}
	// Advance by what is actually in the list, not by the requested page
	// size, so the offset stays correct when duplicates were filtered.
	s.cursor = len(s.items)
	s.hasMore = len(rows) == PageSize
	s.releaseFetchLocked(reset)
	s.mu.Unlock()
}

// releaseFetchLocked clears only the busy flags of the direction that ran, so
// a load-more finishing mid-reset cannot free the reset guard (or vice versa).
func (s *VideoList) releaseFetchLocked(reset bool) {
	if reset {
		s.isInitialLoad = false
		s.fetching = false
	} else {
		s.isLoadingMore = false
	}
}

// LoadMore appends the next page unless exhausted or already loading.
func (s *VideoList) LoadMore(ctx context.Context) {
	s.mu.Lock()
	if !s.hasMore || s.isLoadingMore || s.isInitialLoad {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.FetchPage(ctx, false)
}

// ResetFetch is the authoritative reconciliation triggered when a realtime
// subscription reaches ready.
func (s *VideoList) ResetFetch(ctx context.Context) {
	s.FetchPage(ctx, true)
}

// Clear drops all local state, used on sign-out.
func (s *VideoList) Clear() {
	s.mu.Lock()
	s.items = nil
	s.cursor = 0
	s.hasMore = true
	s.isInitialLoad = false
	s.isLoadingMore = false
	s.fetching = false
	s.errMsg = ""
	s.mu.Unlock()
}

// ApplyInsert merges a realtime insert. Replayed events are deduplicated by
// id: an existing entry is merged in place, a new one is prepended since
// realtime inserts arrive out of fetch-order and are assumed most recent.
func (s *VideoList) ApplyInsert(ctx context.Context, row *realtime.Row) {
	id, ok := row.RecordID()
	if !ok {
		return
	}

	var needResolve bool
	var bucketPath string

	s.mu.Lock()
	if idx := s.findLocked(id); idx >= 0 {
		s.mergeRowLocked(idx, row)
		needResolve, bucketPath = s.markResolvingLocked(idx)
	} else {
		v := defaultedVideo(id, row)
		s.items = append([]model.Video{v}, s.items...)
		s.cursor = len(s.items)
		needResolve, bucketPath = s.markResolvingLocked(0)
	}
	s.mu.Unlock()

	if needResolve {
		go s.resolveAndStore(ctx, id, bucketPath)
	}
	// Critical display fields missing from the payload: backfill from the
	// authoritative row, best-effort.
	if row.Prompt == nil || row.Status == nil {
		go s.backfill(ctx, id)
	}
}

// ApplyUpdate merges a realtime update into an already-known record. Updates
// for unknown ids are ignored: a missed insert is recovered by the next
// reset fetch, not by upserting partial rows.
func (s *VideoList) ApplyUpdate(ctx context.Context, row *realtime.Row) {
	id, ok := row.RecordID()
	if !ok {
		return
	}

	s.mu.Lock()
	idx := s.findLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.mergeRowLocked(idx, row)
	needResolve, bucketPath := s.markResolvingLocked(idx)
	s.mu.Unlock()

	if needResolve {
		go s.resolveAndStore(ctx, id, bucketPath)
	}
	if shouldBackfill(row) {
		go s.backfill(ctx, id)
	}
}

// ApplyDelete removes the entry if present. Idempotent.
func (s *VideoList) ApplyDelete(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	s.removeLocked(id)
	s.mu.Unlock()

	if err := s.urls.DeleteSignedURL(ctx, id); err != nil {
		logger.Debugf(ctx, "videos: could not drop cached url for %s: %v", id, err)
	}
}

// DeleteVideo removes one record, server-confirmed first.
func (s *VideoList) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	return s.DeleteVideos(ctx, []uuid.UUID{id})
}

// DeleteVideos issues a backend delete and only drops local entries once the
// backend confirms. On failure local state is untouched.
func (s *VideoList) DeleteVideos(ctx context.Context, ids []uuid.UUID) error {
	sess := s.sig.Current()
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}
	if err := s.api.DeleteVideos(ctx, sess.UserID, ids); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}

	s.mu.Lock()
	for _, id := range ids {
		s.removeLocked(id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.urls.DeleteSignedURL(ctx, id); err != nil {
			logger.Debugf(ctx, "videos: could not drop cached url for %s: %v", id, err)
		}
	}
	return nil
}

// RefreshSignedURL re-resolves a fresh URL for one record, bypassing the
// cache. Used proactively when a cached URL nears its expiry window. Records
// not paged in locally (the refresh worker holds none) are looked up on the
// backend instead.
func (s *VideoList) RefreshSignedURL(ctx context.Context, id uuid.UUID) (string, error) {
	s.mu.Lock()
	idx := s.findLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return s.refreshDetached(ctx, id)
	}
	v := s.items[idx]
	if !v.Resolvable() {
		s.mu.Unlock()
		return "", ErrNotResolvable
	}
	s.items[idx].SignedURLLoading = true
	bucketPath := *v.BucketPath
	s.mu.Unlock()

	url, err := s.resolver.ResolveDownloadURL(ctx, port.ResolveInput{
		RecordID: id,
		Path:     bucketPath,
		Expires:  s.ttl,
	})

	now := time.Now().UTC()
	s.mu.Lock()
	if idx := s.findLocked(id); idx >= 0 {
		s.items[idx].SignedURLLoading = false
		if err == nil {
			s.items[idx].SignedURL = &url
			s.items[idx].SignedURLCreatedAt = &now
		}
	}
	s.mu.Unlock()

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	s.urls.SetSignedURL(ctx, id, url, now.Add(s.ttl))
	s.scheduleRefresh(ctx, id, now)
	return url, nil
}

// refreshDetached resolves a fresh URL straight from the authoritative row,
// without touching the collection.
func (s *VideoList) refreshDetached(ctx context.Context, id uuid.UUID) (string, error) {
	full, err := s.api.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}
	if !full.Resolvable() {
		return "", ErrNotResolvable
	}

	now := time.Now().UTC()
	url, err := s.resolver.ResolveDownloadURL(ctx, port.ResolveInput{
		RecordID: id,
		Path:     *full.BucketPath,
		Expires:  s.ttl,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrResolutionFailed, err)
	}

	s.urls.SetSignedURL(ctx, id, url, now.Add(s.ttl))
	s.scheduleRefresh(ctx, id, now)
	return url, nil
}

// --- internals ---

// enrich resolves signed URLs for every completed row, in fixed-size chunks
// so a large page does not overwhelm the backend. Failures keep the record
// with its previous URL (possibly none) and never fail the page.
func (s *VideoList) enrich(ctx context.Context, rows []model.Video) {
	// Carry forward whatever we already resolved, so a failed re-resolution
	// does not lose a still-valid URL.
	prev := make(map[uuid.UUID]model.Video)
	s.mu.Lock()
	for i := range s.items {
		prev[s.items[i].ID] = s.items[i]
	}
	s.mu.Unlock()

	for start := 0; start < len(rows); start += enrichBatchSize {
		end := start + enrichBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				s.enrichOne(ctx, &rows[i], prev[rows[i].ID])
				return nil
			})
		}
		_ = g.Wait()
	}
}

func (s *VideoList) enrichOne(ctx context.Context, v *model.Video, old model.Video) {
	if !v.Resolvable() {
		v.ClearSignedURL()
		return
	}
	url, createdAt, err := s.resolveURL(ctx, v.ID, *v.BucketPath)
	if err != nil {
		logger.Warnf(ctx, "videos: enrichment failed for %s: %v", v.ID, err)
		v.SignedURL = old.SignedURL
		v.SignedURLCreatedAt = old.SignedURLCreatedAt
		v.SignedURLLoading = false
		return
	}
	v.SignedURL = &url
	v.SignedURLCreatedAt = &createdAt
	v.SignedURLLoading = false
}

// resolveURL goes through the cache first, then the resolver, then caches
// and schedules the proactive refresh.
func (s *VideoList) resolveURL(ctx context.Context, id uuid.UUID, bucketPath string) (string, time.Time, error) {
	now := time.Now().UTC()
	if cached, err := s.urls.GetSignedURL(ctx, id); err == nil && cached != "" {
		return cached, now, nil
	}

	url, err := s.resolver.ResolveDownloadURL(ctx, port.ResolveInput{
		RecordID: id,
		Path:     bucketPath,
		Expires:  s.ttl,
	})
	if err != nil {
		return "", time.Time{}, err
	}

	s.urls.SetSignedURL(ctx, id, url, now.Add(s.ttl))
	s.scheduleRefresh(ctx, id, now)
	return url, now, nil
}

// resolveAndStore resolves asynchronously after a realtime transition to
// completed, then merges the result in. Writes are keyed by id, so a later
// update for the same record naturally overwrites.
func (s *VideoList) resolveAndStore(ctx context.Context, id uuid.UUID, bucketPath string) {
	url, createdAt, err := s.resolveURL(ctx, id, bucketPath)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findLocked(id)
	if idx < 0 {
		return
	}
	s.items[idx].SignedURLLoading = false
	if err != nil {
		logger.Warnf(ctx, "videos: resolution failed for %s: %v", id, err)
		return
	}
	if s.items[idx].Status != model.StatusCompleted {
		// Status moved away from completed while we were resolving.
		s.items[idx].ClearSignedURL()
		return
	}
	s.items[idx].SignedURL = &url
	s.items[idx].SignedURLCreatedAt = &createdAt
}

func (s *VideoList) scheduleRefresh(ctx context.Context, id uuid.UUID, resolvedAt time.Time) {
	if s.tasks == nil {
		return
	}
	notBefore := resolvedAt.Add(s.ttl - s.lead)
	if err := s.tasks.EnqueueRefreshSignedURL(ctx, id, notBefore); err != nil {
		logger.Debugf(ctx, "videos: could not schedule url refresh for %s: %v", id, err)
	}
}

// backfill replaces the local entry's row fields with the authoritative row,
// best-effort: on failure the partial record stays as-is.
func (s *VideoList) backfill(ctx context.Context, id uuid.UUID) {
	full, err := s.api.GetVideo(ctx, id)
	if err != nil {
		logger.Debugf(ctx, "videos: backfill failed for %s: %v", id, err)
		return
	}

	s.mu.Lock()
	idx := s.findLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	v := &s.items[idx]
	v.UserID = full.UserID
	v.Prompt = full.Prompt
	v.Status = full.Status
	v.BucketPath = full.BucketPath
	v.Duration = full.Duration
	if !full.CreatedAt.IsZero() {
		v.CreatedAt = full.CreatedAt
	}
	v.CompletedAt = full.CompletedAt
	v.ErrorMessage = full.ErrorMessage
	if v.Status != model.StatusCompleted {
		v.ClearSignedURL()
	}
	needResolve, bucketPath := s.markResolvingLocked(idx)
	s.mu.Unlock()

	if needResolve {
		go s.resolveAndStore(ctx, id, bucketPath)
	}
}

func (s *VideoList) findLocked(id uuid.UUID) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *VideoList) removeLocked(id uuid.UUID) {
	idx := s.findLocked(id)
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.cursor = len(s.items)
}

// mergeRowLocked shallowly merges the fields present in the event payload;
// the payload wins over stale local fields.
func (s *VideoList) mergeRowLocked(idx int, row *realtime.Row) {
	v := &s.items[idx]
	if row.UserID != nil {
		if uid, err := uuid.Parse(*row.UserID); err == nil {
			v.UserID = uid
		}
	}
	if row.Prompt != nil {
		v.Prompt = *row.Prompt
	}
	if row.Status != nil && model.Status(*row.Status).IsValid() {
		v.Status = model.Status(*row.Status)
	}
	if row.BucketPath != nil {
		v.BucketPath = row.BucketPath
	}
	if row.Duration != nil {
		v.Duration = row.Duration
	}
	if row.CreatedAt != nil {
		v.CreatedAt = *row.CreatedAt
	}
	if row.CompletedAt != nil {
		v.CompletedAt = row.CompletedAt
	}
	if row.ErrorMessage != nil {
		v.ErrorMessage = row.ErrorMessage
	}
	if v.Status != model.StatusCompleted {
		v.ClearSignedURL()
	}
}

// markResolvingLocked flips the loading flag when a completed record still
// lacks a URL, and reports whether the caller should start a resolution.
func (s *VideoList) markResolvingLocked(idx int) (bool, string) {
	v := &s.items[idx]
	if v.Resolvable() && v.SignedURL == nil && !v.SignedURLLoading {
		v.SignedURLLoading = true
		return true, *v.BucketPath
	}
	return false, ""
}

func shouldBackfill(row *realtime.Row) bool {
	// Partial broadcasts are only trusted for benign transitions; terminal
	// states and anything missing display fields go back to the
	// authoritative row.
	if row.Prompt == nil || row.Duration == nil {
		return true
	}
	if row.Status != nil && model.Status(*row.Status).IsTerminal() {
		return true
	}
	return row.BucketPath != nil
}

func defaultedVideo(id uuid.UUID, row *realtime.Row) model.Video {
	v := model.Video{
		ID:        id,
		Status:    model.StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if row.UserID != nil {
		if uid, err := uuid.Parse(*row.UserID); err == nil {
			v.UserID = uid
		}
	}
	if row.Prompt != nil {
		v.Prompt = *row.Prompt
	}
	if row.Status != nil && model.Status(*row.Status).IsValid() {
		v.Status = model.Status(*row.Status)
	}
	v.BucketPath = row.BucketPath
	v.Duration = row.Duration
	if row.CreatedAt != nil {
		v.CreatedAt = *row.CreatedAt
	}
	v.CompletedAt = row.CompletedAt
	v.ErrorMessage = row.ErrorMessage
	return v
}

// sortRows enforces the authoritative ordering (created_at desc, id desc)
// locally, so a backend that ignores the order hint cannot corrupt
// pagination.
func sortRows(rows []model.Video) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID.String() > rows[j].ID.String()
	})
}
