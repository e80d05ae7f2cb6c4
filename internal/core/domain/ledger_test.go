package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReturns(t *testing.T) {
	t.Parallel()

	lines := func() []Line {
		return []Line{
			{ID: 1, Requested: 5, Returned: 0},
			{ID: 2, Requested: 3, Returned: 3},
			{ID: 3, Requested: 10, Returned: 4},
		}
	}

	tests := []struct {
		name       string
		submission []ReturnLine
		wantErr    bool
		wantRules  map[uint]string
		check      func(t *testing.T, got []Line)
	}{
		{
			name:       "full return of one line",
			submission: []ReturnLine{{LineItemID: 1, Quantity: 5}},
			check: func(t *testing.T, got []Line) {
				assert.Equal(t, 5, got[0].Returned)
				assert.True(t, got[0].IsFullyReturned())
			},
		},
		{
			name:       "partial return leaves remainder",
			submission: []ReturnLine{{LineItemID: 3, Quantity: 2}},
			check: func(t *testing.T, got []Line) {
				assert.Equal(t, 6, got[2].Returned)
				assert.Equal(t, 4, got[2].Remaining())
			},
		},
		{
			name:       "over-return is rejected",
			submission: []ReturnLine{{LineItemID: 1, Quantity: 6}},
			wantErr:    true,
			wantRules:  map[uint]string{1: RuleOverReturn},
		},
		{
			name:       "zero quantity is rejected",
			submission: []ReturnLine{{LineItemID: 1, Quantity: 0}},
			wantErr:    true,
			wantRules:  map[uint]string{1: RuleNonPositiveQuantity},
		},
		{
			name:       "negative quantity is rejected",
			submission: []ReturnLine{{LineItemID: 3, Quantity: -1}},
			wantErr:    true,
			wantRules:  map[uint]string{3: RuleNonPositiveQuantity},
		},
		{
			name:       "return against an exhausted line is rejected",
			submission: []ReturnLine{{LineItemID: 2, Quantity: 1}},
			wantErr:    true,
			wantRules:  map[uint]string{2: RuleAlreadyReturned},
		},
		{
			name:       "unknown line is rejected",
			submission: []ReturnLine{{LineItemID: 99, Quantity: 1}},
			wantErr:    true,
			wantRules:  map[uint]string{99: RuleOverReturn},
		},
		{
			name: "one bad line fails the whole submission",
			submission: []ReturnLine{
				{LineItemID: 1, Quantity: 2},
				{LineItemID: 3, Quantity: 20},
			},
			wantErr:   true,
			wantRules: map[uint]string{3: RuleOverReturn},
		},
		{
			name: "all line errors are collected",
			submission: []ReturnLine{
				{LineItemID: 1, Quantity: 6},
				{LineItemID: 2, Quantity: 1},
				{LineItemID: 3, Quantity: 0},
			},
			wantErr: true,
			wantRules: map[uint]string{
				1: RuleOverReturn,
				2: RuleAlreadyReturned,
				3: RuleNonPositiveQuantity,
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			before := lines()
			got, err := ApplyReturns(before, tt.submission)

			if tt.wantErr {
				require.Error(t, err)
				var rve *ReturnValidationError
				require.True(t, errors.As(err, &rve))
				require.Len(t, rve.Lines, len(tt.wantRules))
				for _, le := range rve.Lines {
					assert.Equal(t, tt.wantRules[le.LineItemID], le.Rule, "line %d", le.LineItemID)
				}
				// No partial application on failure.
				assert.Equal(t, lines(), before)
				return
			}

			require.NoError(t, err)
			// The input slice is never mutated.
			assert.Equal(t, lines(), before)
			tt.check(t, got)
		})
	}
}

func TestApplyReturns_DuplicateLineInSubmission(t *testing.T) {
	t.Parallel()

	lines := []Line{{ID: 1, Requested: 5, Returned: 0}}
	_, err := ApplyReturns(lines, []ReturnLine{
		{LineItemID: 1, Quantity: 2},
		{LineItemID: 1, Quantity: 2},
	})
	require.Error(t, err)
	var rve *ReturnValidationError
	require.True(t, errors.As(err, &rve))
}

func TestAllReturned(t *testing.T) {
	t.Parallel()

	assert.True(t, AllReturned([]Line{
		{ID: 1, Requested: 5, Returned: 5},
		{ID: 2, Requested: 3, Returned: 3},
	}))
	assert.False(t, AllReturned([]Line{
		{ID: 1, Requested: 5, Returned: 5},
		{ID: 2, Requested: 3, Returned: 2},
	}))
	assert.True(t, AllReturned(nil))
}
