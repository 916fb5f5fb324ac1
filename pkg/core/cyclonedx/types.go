// Package cyclonedx provides the CycloneDX document types the SBOM
// normalizer parses. Only the subset of the 1.4+ specification the
// prioritization pipeline actually consumes is modeled here: component
// inventory, the dependency graph, and inline vulnerabilities.
package cyclonedx

import (
	"encoding/json"
)

// SpecVersion is the CycloneDX specification version this module
// targets for input documents.
const SpecVersion = "1.4"

// BOM represents a CycloneDX Bill of Materials document.
type BOM struct {
	BOMFormat       string          `json:"bomFormat"`
	SpecVersion     string          `json:"specVersion"`
	SerialNumber    string          `json:"serialNumber,omitempty"`
	Version         int             `json:"version"`
	Metadata        *Metadata       `json:"metadata,omitempty"`
	Components      []Component     `json:"components,omitempty"`
	Dependencies    []Dependency    `json:"dependencies,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
}

// Metadata contains BOM metadata.
type Metadata struct {
	Timestamp string     `json:"timestamp,omitempty"`
	Tools     *Tools     `json:"tools,omitempty"`
	Component *Component `json:"component,omitempty"`
}

// Tools contains tool information in CycloneDX 1.5-style component
// form. Earlier 1.4 documents may instead send a bare array; see
// UnmarshalJSON below.
type Tools struct {
	Components []ToolComponent `json:"components,omitempty"`
}

// ToolComponent represents a tool that produced the BOM.
type ToolComponent struct {
	Type         string     `json:"type,omitempty"`
	Name         string     `json:"name,omitempty"`
	Version      string     `json:"version,omitempty"`
	Manufacturer *OrgEntity `json:"manufacturer,omitempty"`
}

// legacyTool is the CycloneDX 1.4 array-of-tools shape:
// metadata.tools: [{"vendor": "...", "name": "...", "version": "..."}]
type legacyTool struct {
	Vendor  string `json:"vendor,omitempty"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// UnmarshalJSON accepts both the 1.4 bare-array tools shape and the
// 1.5+ {"components": [...]} shape.
func (t *Tools) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Components []ToolComponent `json:"components"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Components) > 0 {
		t.Components = wrapped.Components
		return nil
	}

	var legacy []legacyTool
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	for _, lt := range legacy {
		t.Components = append(t.Components, ToolComponent{
			Name:    lt.Name,
			Version: lt.Version,
			Manufacturer: &OrgEntity{
				Name: lt.Vendor,
			},
		})
	}
	return nil
}

// Author represents a person credited on the BOM.
type Author struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// OrgEntity represents an organization.
type OrgEntity struct {
	Name string `json:"name,omitempty"`
}

// Component represents a single inventory entry in the BOM.
type Component struct {
	Type         string          `json:"type"`
	BOMRef       string          `json:"bom-ref,omitempty"`
	Name         string          `json:"name"`
	Version      string          `json:"version,omitempty"`
	Group        string          `json:"group,omitempty"`
	Description  string          `json:"description,omitempty"`
	Scope        string          `json:"scope,omitempty"` // required, optional, excluded
	Purl         string          `json:"purl,omitempty"`
	Licenses     []LicenseChoice `json:"licenses,omitempty"`
	Properties   []Property      `json:"properties,omitempty"`
	ExternalRefs []ExternalRef   `json:"externalReferences,omitempty"`
	Components   []Component     `json:"components,omitempty"`
}

// ComponentType constants.
const (
	ComponentTypeApplication = "application"
	ComponentTypeFramework   = "framework"
	ComponentTypeLibrary     = "library"
	ComponentTypeContainer   = "container"
	ComponentTypeOS          = "operating-system"
	ComponentTypeFile        = "file"
)

// LicenseChoice represents a license or expression.
type LicenseChoice struct {
	License    *License `json:"license,omitempty"`
	Expression string   `json:"expression,omitempty"`
}

// License represents an SPDX license.
type License struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Property represents a key-value property attached to a component.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ExternalRef represents an external reference.
type ExternalRef struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ExternalRefType constants.
const (
	ExternalRefVCS        = "vcs"
	ExternalRefAdvisories = "advisories"
	ExternalRefWebsite    = "website"
)

// Dependency represents one node's outgoing edges in the dependency
// graph: ref depends on each entry in DependsOn.
type Dependency struct {
	Ref       string   `json:"ref"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

// Vulnerability represents a security vulnerability inlined in the
// BOM rather than looked up from an external source.
type Vulnerability struct {
	ID          string       `json:"id"`
	Source      *VulnSource  `json:"source,omitempty"`
	Ratings     []VulnRating `json:"ratings,omitempty"`
	Description string       `json:"description,omitempty"`
	Affects     []VulnAffect `json:"affects,omitempty"`
}

// VulnSource identifies where a vulnerability record came from.
type VulnSource struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// VulnRating represents one severity rating of a vulnerability. Score
// is decoded as `any` rather than float64: real-world producers are
// known to emit it as a JSON string, and the spec's dynamic-numeric-
// coercion rule (spec.md §9) requires that to degrade to 0.0 through
// sbom.CoerceFloat rather than abort JSON decoding of the whole
// document.
type VulnRating struct {
	Source   *VulnSource `json:"source,omitempty"`
	Score    any         `json:"score,omitempty"`
	Severity string      `json:"severity,omitempty"`
	Method   string      `json:"method,omitempty"` // CVSSv2, CVSSv3, CVSSv31, CVSSv4, other
	Vector   string      `json:"vector,omitempty"`
}

// VulnAffect names the component(s) a vulnerability applies to.
type VulnAffect struct {
	Ref string `json:"ref"`
}

// ToJSON serializes the BOM to indented JSON.
func (b *BOM) ToJSON() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// FromJSON deserializes a BOM from JSON.
func FromJSON(data []byte) (*BOM, error) {
	var bom BOM
	if err := json.Unmarshal(data, &bom); err != nil {
		return nil, err
	}
	return &bom, nil
}
