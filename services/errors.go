// services/errors.go
package services

import (
	"errors"
	"time"
)

var (
	// ErrValidation — malformed input, rejected before any mutation
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientBalance — debit exceeds the account balance
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrReserveExhausted — the hub reserve cannot cover a reward; the reward is
	// denied, never partially applied. Logged for operator attention, not retried.
	ErrReserveExhausted = errors.New("hub reserve exhausted")
	// ErrNotFound — unknown account, badge, rule or transaction
	ErrNotFound = errors.New("not found")
	// ErrConcurrencyConflict — optimistic-lock miss; retried transparently a
	// bounded number of times before surfacing
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

const conflictRetryAttempts = 3

// withConflictRetry reruns fn while it fails with ErrConcurrencyConflict,
// backing off a little more on each attempt. Any other outcome is returned
// immediately.
func withConflictRetry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= conflictRetryAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, ErrConcurrencyConflict) {
			return err
		}
		time.Sleep(time.Duration(attempt) * 25 * time.Millisecond)
	}
	return err
}
