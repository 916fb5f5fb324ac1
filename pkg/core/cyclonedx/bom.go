package cyclonedx

import (
	"fmt"

	"github.com/google/uuid"
)

// ToolName identifies this module when it builds fixture or test BOMs.
const ToolName = "hdfm-prioritizer"

// NewBOM creates a new CycloneDX BOM with default metadata, for
// assembling a document in memory (as the package tests do).
func NewBOM() *BOM {
	return &BOM{
		BOMFormat:    "CycloneDX",
		SpecVersion:  SpecVersion,
		SerialNumber: generateUUID(),
		Version:      1,
		Metadata: &Metadata{
			Timestamp: "",
			Tools: &Tools{
				Components: []ToolComponent{
					{
						Type:    "application",
						Name:    ToolName,
						Version: "1.0.0",
					},
				},
			},
		},
		Components: []Component{},
	}
}

// WithSerialNumber sets the BOM serial number.
func (b *BOM) WithSerialNumber(serial string) *BOM {
	b.SerialNumber = serial
	return b
}

// WithComponent adds a single component to the BOM.
func (b *BOM) WithComponent(c Component) *BOM {
	b.Components = append(b.Components, c)
	return b
}

// WithComponents adds multiple components to the BOM.
func (b *BOM) WithComponents(components []Component) *BOM {
	b.Components = append(b.Components, components...)
	return b
}

// WithVulnerability adds an inline vulnerability to the BOM.
func (b *BOM) WithVulnerability(v Vulnerability) *BOM {
	b.Vulnerabilities = append(b.Vulnerabilities, v)
	return b
}

// WithDependency adds a dependency edge.
func (b *BOM) WithDependency(d Dependency) *BOM {
	b.Dependencies = append(b.Dependencies, d)
	return b
}

// AddProperty adds a property to a component.
func (c *Component) AddProperty(name, value string) {
	c.Properties = append(c.Properties, Property{Name: name, Value: value})
}

// AddExternalRef adds an external reference to a component.
func (c *Component) AddExternalRef(refType, url string) {
	c.ExternalRefs = append(c.ExternalRefs, ExternalRef{Type: refType, URL: url})
}

// AddLicense adds a license to a component.
func (c *Component) AddLicense(id string) {
	c.Licenses = append(c.Licenses, LicenseChoice{
		License: &License{ID: id},
	})
}

// NewComponent creates a new component with the given type and name.
func NewComponent(componentType, name string) Component {
	return Component{
		Type:   componentType,
		Name:   name,
		BOMRef: fmt.Sprintf("%s/%s", componentType, name),
	}
}

// generateUUID generates a URN UUID for serial numbers.
func generateUUID() string {
	return fmt.Sprintf("urn:uuid:%s", uuid.NewString())
}
