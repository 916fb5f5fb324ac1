// Package sbom validates and normalizes an inbound CycloneDX document
// into the component and dependency-edge shapes the rest of the
// pipeline consumes (spec.md §4.1).
package sbom

import (
	"strconv"
	"strings"

	"github.com/hdfm-sec/prioritizer/pkg/component"
	coreerrors "github.com/hdfm-sec/prioritizer/pkg/core/errors"
	"github.com/hdfm-sec/prioritizer/pkg/core/cyclonedx"
	"github.com/hdfm-sec/prioritizer/pkg/finding"
)

// Dependency is a single node's outgoing edges in the dependency DAG.
type Dependency struct {
	Ref       string
	DependsOn []string
}

// Normalized is the output of Normalize: an ordered component set plus
// the dependency edge list, both keyed by bom_ref.
type Normalized struct {
	Components   []*component.Component
	Dependencies []Dependency
}

// Normalize validates a CycloneDX document and extracts components and
// dependency edges. It fails with an InvalidSBOM error if the
// components array is absent or empty (spec.md §4.1).
func Normalize(doc *cyclonedx.BOM) (*Normalized, error) {
	if len(doc.Components) == 0 {
		return nil, coreerrors.InvalidSBOM("components array is absent or empty")
	}

	out := &Normalized{
		Dependencies: make([]Dependency, 0, len(doc.Dependencies)),
	}

	seenRefs := make(map[string]bool, len(doc.Components))
	for _, raw := range doc.Components {
		bomRef := chooseBOMRef(raw)
		if bomRef == "" {
			continue
		}
		if seenRefs[bomRef] {
			continue
		}
		seenRefs[bomRef] = true

		c := &component.Component{
			BOMRef:       bomRef,
			Name:         raw.Name,
			Version:      raw.Version,
			Purl:         raw.Purl,
			Scope:        component.Scope(raw.Scope),
			IsDeprecated: deprecatedFromProperties(raw.Properties),
		}
		out.Components = append(out.Components, c)
	}

	for _, d := range doc.Dependencies {
		out.Dependencies = append(out.Dependencies, Dependency{
			Ref:       d.Ref,
			DependsOn: append([]string(nil), d.DependsOn...),
		})
	}

	byRef := make(map[string]*component.Component, len(out.Components))
	for _, c := range out.Components {
		byRef[c.BOMRef] = c
	}

	inline := extractInlineFindings(doc, byRef)
	for ref, findings := range inline {
		byRef[ref].Vulnerabilities = append(byRef[ref].Vulnerabilities, findings...)
	}

	return out, nil
}

// deprecatedFromProperties looks for an inline "deprecated"/
// "is_deprecated" property on a component and coerces its value,
// letting an SBOM that already carries the flag pre-seed it ahead of
// the metadata port (spec.md §3: is_deprecated "absent ≡ false";
// §4.3 only overrides it when the port has an answer for that
// bom_ref). CycloneDX property values are strings, coerced per §9's
// dynamic-coercion rule (e.g. "true", "1", "yes").
func deprecatedFromProperties(props []cyclonedx.Property) bool {
	for _, p := range props {
		switch strings.ToLower(p.Name) {
		case "deprecated", "is_deprecated":
			return CoerceBool(p.Value)
		}
	}
	return false
}

// chooseBOMRef picks bom-ref, else purl, else name (spec.md §4.1).
func chooseBOMRef(c cyclonedx.Component) string {
	if c.BOMRef != "" {
		return c.BOMRef
	}
	if c.Purl != "" {
		return c.Purl
	}
	return c.Name
}

// extractInlineFindings builds pre-seeded findings from the document's
// top-level vulnerabilities[], keyed by the bom-ref of each affected
// component. CVSS score/vector come from ratings[0]; severity is
// derived from score per finding.New.
func extractInlineFindings(doc *cyclonedx.BOM, byRef map[string]*component.Component) map[string][]*finding.Finding {
	out := make(map[string][]*finding.Finding)
	for _, v := range doc.Vulnerabilities {
		var score float64
		var vector string
		if len(v.Ratings) > 0 {
			score = CoerceFloat(v.Ratings[0].Score)
			vector = v.Ratings[0].Vector
		}
		for _, affect := range v.Affects {
			c, ok := byRef[affect.Ref]
			if !ok {
				continue
			}
			f := finding.New(v.ID, affect.Ref, c.Name, score, vector, v.Description)
			out[affect.Ref] = append(out[affect.Ref], f)
		}
	}
	return out
}

// CoerceFloat implements the dynamic numeric coercion rule of spec.md
// §9 Design Note: string-valued numeric fields are accepted and
// coerced, with empty or invalid input mapping to 0.0.
func CoerceFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0.0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

// CoerceBool implements the boolean half of the same coercion rule:
// "true"/"1"/"t"/"yes" (case-insensitive) coerce to true; everything
// else, including empty or invalid strings, coerces to false.
func CoerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "t", "yes":
			return true
		default:
			return false
		}
	default:
		return false
	}
}
