package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensionPolicy_Validate(t *testing.T) {
	t.Parallel()

	policy := ExtensionPolicy{MaxExtensions: 2, MaxExtensionDays: 30}
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		state    ExtensionState
		newDate  time.Time
		reason   string
		wantRule string
		wantPre  bool
	}{
		{
			name:    "first extension within limit",
			state:   ExtensionState{Status: StatusActive, ExpectedReturn: due, ExtensionCount: 0},
			newDate: due.AddDate(0, 0, 14),
			reason:  "project phase slipped",
		},
		{
			name:    "extension while partially returned",
			state:   ExtensionState{Status: StatusPartiallyReturned, ExpectedReturn: due, ExtensionCount: 1},
			newDate: due.AddDate(0, 0, 7),
			reason:  "remaining units still in use",
		},
		{
			name:    "not active",
			state:   ExtensionState{Status: StatusApproved, ExpectedReturn: due},
			newDate: due.AddDate(0, 0, 7),
			reason:  "x",
			wantPre: true,
		},
		{
			name:     "missing reason",
			state:    ExtensionState{Status: StatusActive, ExpectedReturn: due},
			newDate:  due.AddDate(0, 0, 7),
			reason:   "   ",
			wantRule: RuleReasonRequired,
		},
		{
			name:     "new date not after current",
			state:    ExtensionState{Status: StatusActive, ExpectedReturn: due},
			newDate:  due,
			reason:   "x",
			wantRule: RuleInvalidDate,
		},
		{
			name:     "third extension over the limit of two",
			state:    ExtensionState{Status: StatusActive, ExpectedReturn: due, ExtensionCount: 2},
			newDate:  due.AddDate(0, 0, 7),
			reason:   "still needed",
			wantRule: RuleExtensionLimit,
		},
		{
			name:     "extension longer than thirty days",
			state:    ExtensionState{Status: StatusActive, ExpectedReturn: due},
			newDate:  due.AddDate(0, 0, 45),
			reason:   "long haul",
			wantRule: RuleExtensionTooLong,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := policy.Validate(tt.state, tt.newDate, tt.reason)

			switch {
			case tt.wantPre:
				require.Error(t, err)
				assert.True(t, IsPrecondition(err))
			case tt.wantRule != "":
				require.Error(t, err)
				var bre *BusinessRuleError
				require.True(t, errors.As(err, &bre))
				assert.Equal(t, tt.wantRule, bre.Rule)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtensionPolicy_LimitMessageNamesBounds(t *testing.T) {
	t.Parallel()

	policy := ExtensionPolicy{MaxExtensions: 2, MaxExtensionDays: 30}
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	err := policy.Validate(ExtensionState{
		Status:         StatusActive,
		ExpectedReturn: due,
		ExtensionCount: 2,
	}, due.AddDate(0, 0, 5), "need more time")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2")
}
