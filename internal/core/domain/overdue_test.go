package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsOverdue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	tests := []struct {
		name     string
		status   Status
		expected time.Time
		want     bool
	}{
		{"active past due", StatusActive, yesterday, true},
		{"partially returned past due", StatusPartiallyReturned, yesterday, true},
		{"active not yet due", StatusActive, tomorrow, false},
		{"active due exactly now", StatusActive, now, false},
		{"closed past due is not overdue", StatusClosed, yesterday, false},
		{"canceled past due is not overdue", StatusCanceled, yesterday, false},
		{"approved past due is not overdue", StatusApproved, yesterday, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsOverdue(tt.status, tt.expected, now))
		})
	}
}

func TestDaysOverdue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysOverdue(now.AddDate(0, 0, 3), now))
	assert.Equal(t, 0, DaysOverdue(now, now))
	assert.Equal(t, 1, DaysOverdue(now.AddDate(0, 0, -1), now))
	assert.Equal(t, 10, DaysOverdue(now.AddDate(0, 0, -10), now))
}
