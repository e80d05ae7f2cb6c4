package domain

import (
	"fmt"
	"strings"
	"time"
)

// ExtensionPolicy validates due-date extensions under count and duration
// limits. Limits are injected configuration.
type ExtensionPolicy struct {
	MaxExtensions    int
	MaxExtensionDays int
}

// ExtensionState is the policy's view of a request.
type ExtensionState struct {
	Status         Status
	ExpectedReturn time.Time
	ExtensionCount int
}

// Validate checks every extension guard. Each failure names the specific
// violated bound; the request is not mutated here, the caller applies the
// new date after a nil result.
func (p ExtensionPolicy) Validate(state ExtensionState, newDate time.Time, reason string) error {
	if !state.Status.IsActive() {
		return &PreconditionError{
			Action: ActionExtend,
			Guard:  fmt.Sprintf("request is %s, only active requests can be extended", state.Status),
		}
	}
	if strings.TrimSpace(reason) == "" {
		return &BusinessRuleError{Rule: RuleReasonRequired, Detail: "an extension reason must be provided"}
	}
	if !newDate.After(state.ExpectedReturn) {
		return &BusinessRuleError{
			Rule: RuleInvalidDate,
			Detail: fmt.Sprintf("new date %s must be after current expected return %s",
				newDate.Format("2006-01-02"), state.ExpectedReturn.Format("2006-01-02")),
		}
	}
	if state.ExtensionCount >= p.MaxExtensions {
		return &BusinessRuleError{
			Rule:   RuleExtensionLimit,
			Detail: fmt.Sprintf("request already extended %d of %d allowed times", state.ExtensionCount, p.MaxExtensions),
		}
	}
	if days := int(newDate.Sub(state.ExpectedReturn).Hours() / 24); days > p.MaxExtensionDays {
		return &BusinessRuleError{
			Rule:   RuleExtensionTooLong,
			Detail: fmt.Sprintf("extension of %d days exceeds the %d-day limit", days, p.MaxExtensionDays),
		}
	}
	return nil
}
