package domain

import "time"

// Overdue is a virtual state overlaid on Active: it is recomputed from the
// wall clock on every read and never persisted, so it can never drift out
// of sync with time.

// IsOverdue reports whether an active request is past its expected return.
func IsOverdue(status Status, expectedReturn, now time.Time) bool {
	return status.IsActive() && now.After(expectedReturn)
}

// DaysOverdue returns the number of whole days past the expected return,
// clamped to zero.
func DaysOverdue(expectedReturn, now time.Time) int {
	if !now.After(expectedReturn) {
		return 0
	}
	return int(now.Sub(expectedReturn).Hours() / 24)
}
