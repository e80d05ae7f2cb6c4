package domain

import "fmt"

// Line is the ledger's view of a line item: how much went out and how much
// came back. Remaining never goes negative.
type Line struct {
	ID        uint
	Requested int
	Returned  int
}

// Remaining returns the quantity still out in the field.
func (l Line) Remaining() int {
	return l.Requested - l.Returned
}

// IsFullyReturned reports whether nothing remains out.
func (l Line) IsFullyReturned() bool {
	return l.Remaining() == 0
}

// ReturnLine is one line of a return submission.
type ReturnLine struct {
	LineItemID  uint
	Quantity    int
	ConditionIn string
}

// ApplyReturns validates and applies a return submission against the ledger.
// Validation is all-or-nothing: if any line is invalid, nothing is applied
// and a single ReturnValidationError lists every offending line. On success
// the returned slice holds the updated lines; the input is not mutated and
// the caller persists.
func ApplyReturns(lines []Line, submission []ReturnLine) ([]Line, error) {
	byID := make(map[uint]int, len(lines))
	for i, l := range lines {
		byID[l.ID] = i
	}

	var bad []LineError
	seen := make(map[uint]bool, len(submission))
	for _, ret := range submission {
		if seen[ret.LineItemID] {
			bad = append(bad, LineError{
				LineItemID: ret.LineItemID,
				Rule:       RuleNonPositiveQuantity,
				Detail:     "line listed more than once in one submission",
			})
			continue
		}
		seen[ret.LineItemID] = true

		idx, ok := byID[ret.LineItemID]
		if !ok {
			bad = append(bad, LineError{
				LineItemID: ret.LineItemID,
				Rule:       RuleOverReturn,
				Detail:     "line item does not belong to this request",
			})
			continue
		}
		line := lines[idx]

		if ret.Quantity <= 0 {
			bad = append(bad, LineError{
				LineItemID: ret.LineItemID,
				Rule:       RuleNonPositiveQuantity,
				Detail:     fmt.Sprintf("quantity %d must be positive", ret.Quantity),
			})
			continue
		}
		if line.IsFullyReturned() {
			bad = append(bad, LineError{
				LineItemID: ret.LineItemID,
				Rule:       RuleAlreadyReturned,
				Detail:     fmt.Sprintf("all %d units already returned", line.Requested),
			})
			continue
		}
		if ret.Quantity > line.Remaining() {
			bad = append(bad, LineError{
				LineItemID: ret.LineItemID,
				Rule:       RuleOverReturn,
				Detail:     fmt.Sprintf("quantity %d exceeds remaining %d", ret.Quantity, line.Remaining()),
			})
		}
	}
	if len(bad) > 0 {
		return nil, &ReturnValidationError{Lines: bad}
	}

	updated := make([]Line, len(lines))
	copy(updated, lines)
	for _, ret := range submission {
		idx := byID[ret.LineItemID]
		updated[idx].Returned += ret.Quantity
	}
	return updated, nil
}

// AllReturned reports whether every line in the ledger is fully returned.
func AllReturned(lines []Line) bool {
	for _, l := range lines {
		if !l.IsFullyReturned() {
			return false
		}
	}
	return true
}
