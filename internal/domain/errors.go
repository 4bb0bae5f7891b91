package domain

import "errors"

var (
	// ErrValidation marks rejected input: non-positive stakes or amounts,
	// odds at or below 1.0, malformed quotes. Nothing is partially processed.
	ErrValidation = errors.New("validation failed")
	// ErrIncompleteMarket marks a market the caller declared complete whose
	// quotes do not cover every selection. The group is skipped, other groups
	// in the batch still process.
	ErrIncompleteMarket = errors.New("incomplete market")
	// ErrAdvisoryUnavailable marks a failed or timed-out advisory call. The
	// rule-based decision is used unchanged.
	ErrAdvisoryUnavailable = errors.New("advisory unavailable")
	// ErrConfiguration marks invalid startup configuration. Fatal.
	ErrConfiguration = errors.New("invalid configuration")

	ErrNotFound = errors.New("not found")
)
