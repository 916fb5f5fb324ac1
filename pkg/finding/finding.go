// Package finding defines the Vulnerability (Finding) entity produced by
// the lookup ports and scored by the HDFM engine.
package finding

import "strings"

// Priority is the distribution-aware label the HDFM engine assigns
// after scoring (spec.md §4.6). Ordering mirrors the teacher's
// Severity enum in pkg/core/findings/severity.go.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Score returns a numeric rank for sorting (higher = more urgent).
func (p Priority) Score() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// IsAtLeast reports whether p is at least as urgent as other.
func (p Priority) IsAtLeast(other Priority) bool {
	return p.Score() >= other.Score()
}

// Placeholder ids synthesized by the orchestrator for components with
// no findings (spec.md §4.7).
const (
	IDHealthy    = "HEALTHY"
	IDDeprecated = "DEPRECATED"
)

// DescriptionMaxLen is the truncation limit from spec.md §3.
const DescriptionMaxLen = 500

// Finding is a single vulnerability associated with one component.
type Finding struct {
	ID          string
	Aliases     []string
	ComponentRef  string
	ComponentName string

	CVSSScore  float64
	CVSSVector string
	Description string

	// Derived HDFM metrics, each in [0,1] unless noted.
	Severity       float64
	TCS            float64
	VEI            float64
	EPSS           float64
	KEV            bool
	Exploitability float64
	HDFMScore      float64

	Priority Priority
}

// New builds a Finding with Severity derived from CVSSScore and the
// description truncated to spec.md's 500-character limit.
func New(id, componentRef, componentName string, cvssScore float64, cvssVector, description string) *Finding {
	return &Finding{
		ID:            id,
		ComponentRef:  componentRef,
		ComponentName: componentName,
		CVSSScore:     cvssScore,
		CVSSVector:    cvssVector,
		Description:   TruncateDescription(description),
		Severity:      cvssScore / 10.0,
		Priority:      PriorityLow,
	}
}

// TruncateDescription enforces the 500-character cap from spec.md §3.
func TruncateDescription(s string) string {
	if len(s) <= DescriptionMaxLen {
		return s
	}
	return s[:DescriptionMaxLen]
}

// PreferredID chooses the representative id for a set of aliased ids
// using the preference order CVE > GHSA > first-seen (spec.md §3, §4.2).
func PreferredID(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	for _, id := range ids {
		if strings.HasPrefix(id, "CVE-") {
			return id
		}
	}
	for _, id := range ids {
		if strings.HasPrefix(id, "GHSA-") {
			return id
		}
	}
	return ids[0]
}

// IsPlaceholder reports whether this finding is a synthesized
// HEALTHY/DEPRECATED stand-in rather than a real vulnerability.
func (f *Finding) IsPlaceholder() bool {
	return f.ID == IDHealthy || f.ID == IDDeprecated
}
