package domain

// Criticality decides whether a request takes the full MVA chain or the
// streamlined auto-approved path. Computed once at creation, immutable after.
type Criticality string

const (
	CriticalityBasic    Criticality = "BASIC"
	CriticalityCritical Criticality = "CRITICAL"
)

// ItemValue is the classifier's view of a line item.
type ItemValue struct {
	UnitValue float64
	Category  string
}

// CriticalityPolicy holds the injected classification rule. The borrowing
// and maintenance subsystems carry independent cost thresholds; the
// divergence is deliberate policy, not drift.
type CriticalityPolicy struct {
	CostThreshold      float64
	CriticalCategories map[string]bool
}

// IsCritical classifies a single item: critical when its unit value exceeds
// the threshold or its category is in the critical set.
func (p CriticalityPolicy) IsCritical(item ItemValue) bool {
	if item.UnitValue > p.CostThreshold {
		return true
	}
	return p.CriticalCategories[item.Category]
}

// Classify classifies a whole request: critical if any member item is.
// Pure function, no side effects.
func (p CriticalityPolicy) Classify(items []ItemValue) Criticality {
	for _, item := range items {
		if p.IsCritical(item) {
			return CriticalityCritical
		}
	}
	return CriticalityBasic
}
