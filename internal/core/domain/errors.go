package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors
var (
	ErrNotFound = errors.New("request not found")
	ErrConflict = errors.New("concurrent update conflict, please retry")
)

// Business rule names surfaced in BusinessRuleError.Rule
const (
	RuleOverReturn          = "over_return"
	RuleNonPositiveQuantity = "non_positive_quantity"
	RuleExtensionLimit      = "extension_limit_exceeded"
	RuleExtensionTooLong    = "extension_too_long"
	RuleInvalidDate         = "invalid_date"
	RuleReasonRequired      = "reason_required"
	RuleAlreadyReturned     = "already_fully_returned"
)

// ValidationError reports malformed input. Never partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PreconditionError reports a transition whose guard was not met.
// Guard names the exact unmet condition so callers never see a generic failure.
type PreconditionError struct {
	Action Action
	Guard  string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for %s: %s", e.Action, e.Guard)
}

// BusinessRuleError reports a violated business rule. Detail always carries
// the specific numeric bound that was violated.
type BusinessRuleError struct {
	Rule   string
	Detail string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Detail)
}

// LineError is a single offending line inside a batch return submission.
type LineError struct {
	LineItemID uint
	Rule       string
	Detail     string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s (%s)", e.LineItemID, e.Rule, e.Detail)
}

// ReturnValidationError aggregates every offending line of a return
// submission. If this is returned, no line was applied.
type ReturnValidationError struct {
	Lines []LineError
}

func (e *ReturnValidationError) Error() string {
	msgs := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		msgs = append(msgs, l.Error())
	}
	return "return rejected: " + strings.Join(msgs, "; ")
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsBusinessRule reports whether err is a BusinessRuleError or an aggregated
// ReturnValidationError.
func IsBusinessRule(err error) bool {
	var be *BusinessRuleError
	var re *ReturnValidationError
	return errors.As(err, &be) || errors.As(err, &re)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
