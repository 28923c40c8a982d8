package store

import "errors"

var (
	// ErrNotAuthenticated means the operation needs a signed-in user.
	ErrNotAuthenticated = errors.New("store: not authenticated")
	// ErrNotFound means the record is not in the local collection.
	ErrNotFound = errors.New("store: video not found")
	// ErrNotResolvable means the record has no completed asset to sign.
	ErrNotResolvable = errors.New("store: video has no completed asset")
	// ErrDeleteFailed wraps a backend delete rejection; local state is left
	// untouched when it is returned.
	ErrDeleteFailed = errors.New("store: delete failed")
	// ErrResolutionFailed wraps a signed-URL resolution failure.
	ErrResolutionFailed = errors.New("store: signed url resolution failed")
	// ErrGenerationActive means a generation is already queued or running
	// for this user.
	ErrGenerationActive = errors.New("store: a generation is already in progress")
)
