// Package component defines the Component entity ingested from an SBOM
// and the derived maintenance-risk signal the orchestrator attaches to it.
package component

import (
	"strings"
	"time"

	"github.com/hdfm-sec/prioritizer/pkg/finding"
)

// Scope mirrors the CycloneDX component scope field.
type Scope string

const (
	ScopeRequired Scope = "required"
	ScopeOptional Scope = "optional"
	ScopeExcluded Scope = "excluded"
	ScopeUnknown  Scope = ""
)

// Component is a single SBOM entry, hydrated with vulnerabilities and
// maintenance signals over the course of one analysis.
type Component struct {
	BOMRef      string
	Name        string
	Version     string
	Purl        string
	Scope       Scope
	PublishedAt time.Time
	IsDeprecated bool

	// MaintenanceRiskScore is derived by the orchestrator from
	// PublishedAt/IsDeprecated; never supplied by an SBOM.
	MaintenanceRiskScore float64

	Vulnerabilities []*finding.Finding
}

// PurlType returns the "type" segment of a `pkg:type/name@version` PURL,
// or "" if the component has no PURL or it isn't well-formed.
func (c *Component) PurlType() string {
	if !strings.HasPrefix(c.Purl, "pkg:") {
		return ""
	}
	rest := c.Purl[len("pkg:"):]
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return ""
	}
	return rest[:idx]
}

// SupportedMetadataEcosystems lists the PURL types the metadata port
// recognizes (spec.md §4.3).
var SupportedMetadataEcosystems = map[string]bool{
	"npm":   true,
	"pypi":  true,
	"maven": true,
	"go":    true,
	"cargo": true,
	"nuget": true,
}

// EligibleForMetadataLookup reports whether this component has a PURL
// of a type the metadata port recognizes.
func (c *Component) EligibleForMetadataLookup() bool {
	if c.Purl == "" {
		return false
	}
	return SupportedMetadataEcosystems[c.PurlType()]
}

// ApplyMaintenanceSignal derives MaintenanceRiskScore from published_at
// and is_deprecated per spec.md §4.3:
//
//	0.7 * is_deprecated + age_bonus
//	age_bonus = 0.3 if age > 3y, 0.1 if 2y < age <= 3y, else 0
//
// clipped to 1.0. now is injected so the computation stays deterministic
// across a single analysis run.
func (c *Component) ApplyMaintenanceSignal(now time.Time) {
	var risk float64
	if c.IsDeprecated {
		risk += 0.7
	}
	if !c.PublishedAt.IsZero() {
		ageYears := now.Sub(c.PublishedAt).Hours() / (24 * 365)
		switch {
		case ageYears > 3:
			risk += 0.3
		case ageYears > 2:
			risk += 0.1
		}
	}
	if risk > 1.0 {
		risk = 1.0
	}
	c.MaintenanceRiskScore = risk
}

// ScopePriority implements the scope_priority(c) term of spec.md §4.5.
// Per the documented Open Question decision (SPEC_FULL.md §8a), scope
// "excluded" is NOT special-cased: both excluded and unknown/absent
// scope fall through to the 0.6 uncertainty fallback, and it is a
// component's structural position (in-degree) that does the demoting.
func (s Scope) ScopePriority() float64 {
	switch s {
	case ScopeRequired:
		return 1.0
	case ScopeOptional:
		return 0.5
	default:
		return 0.6
	}
}
