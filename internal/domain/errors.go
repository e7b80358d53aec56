package domain

import "errors"

// Error taxonomy shared by every layer. Callers wrap these with %w and
// classify with errors.Is at the boundary nearest the user action.
var (
	ErrAuthRequired     = errors.New("authentication required")
	ErrAlreadyTracked   = errors.New("symbol already tracked")
	ErrSyncFailed       = errors.New("remote sync failed")
	ErrFetchFailed      = errors.New("fetch failed")
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
)
