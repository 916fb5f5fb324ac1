package cyclonedx

import (
	"encoding/json"
	"testing"
)

func TestNewBOM(t *testing.T) {
	bom := NewBOM()

	if bom.BOMFormat != "CycloneDX" {
		t.Errorf("expected BOMFormat 'CycloneDX', got '%s'", bom.BOMFormat)
	}
	if bom.SpecVersion != SpecVersion {
		t.Errorf("expected SpecVersion '%s', got '%s'", SpecVersion, bom.SpecVersion)
	}
	if bom.Version != 1 {
		t.Errorf("expected Version 1, got %d", bom.Version)
	}
	if bom.Metadata == nil || bom.Metadata.Tools == nil || len(bom.Metadata.Tools.Components) == 0 {
		t.Error("expected Tools to be set")
	}
}

func TestWithComponent(t *testing.T) {
	bom := NewBOM()
	component := NewComponent(ComponentTypeLibrary, "test-lib")
	component.Version = "1.0.0"

	bom.WithComponent(component)

	if len(bom.Components) != 1 {
		t.Errorf("expected 1 component, got %d", len(bom.Components))
	}
	if bom.Components[0].Name != "test-lib" {
		t.Errorf("expected name 'test-lib', got '%s'", bom.Components[0].Name)
	}
}

func TestWithVulnerability(t *testing.T) {
	bom := NewBOM()
	vuln := Vulnerability{
		ID:          "CVE-2024-1234",
		Description: "Test vulnerability",
		Ratings: []VulnRating{
			{Severity: "high", Method: "CVSSv31"},
		},
	}

	bom.WithVulnerability(vuln)

	if len(bom.Vulnerabilities) != 1 {
		t.Errorf("expected 1 vulnerability, got %d", len(bom.Vulnerabilities))
	}
	if bom.Vulnerabilities[0].ID != "CVE-2024-1234" {
		t.Errorf("expected ID 'CVE-2024-1234', got '%s'", bom.Vulnerabilities[0].ID)
	}
}

func TestAddProperty(t *testing.T) {
	c := NewComponent(ComponentTypeLibrary, "test")
	c.AddProperty("key1", "value1")
	c.AddProperty("key2", "value2")

	if len(c.Properties) != 2 {
		t.Errorf("expected 2 properties, got %d", len(c.Properties))
	}
	if c.Properties[0].Name != "key1" || c.Properties[0].Value != "value1" {
		t.Error("first property not set correctly")
	}
}

func TestAddExternalRef(t *testing.T) {
	c := NewComponent(ComponentTypeLibrary, "test")
	c.AddExternalRef(ExternalRefWebsite, "https://example.com")

	if len(c.ExternalRefs) != 1 {
		t.Errorf("expected 1 external ref, got %d", len(c.ExternalRefs))
	}
	if c.ExternalRefs[0].Type != ExternalRefWebsite {
		t.Errorf("expected type '%s', got '%s'", ExternalRefWebsite, c.ExternalRefs[0].Type)
	}
}

func TestAddLicense(t *testing.T) {
	c := NewComponent(ComponentTypeLibrary, "test")
	c.AddLicense("MIT")

	if len(c.Licenses) != 1 {
		t.Errorf("expected 1 license, got %d", len(c.Licenses))
	}
	if c.Licenses[0].License == nil || c.Licenses[0].License.ID != "MIT" {
		t.Error("license not set correctly")
	}
}

func TestBOMToJSON(t *testing.T) {
	bom := NewBOM()
	bom.WithComponent(NewComponent(ComponentTypeLibrary, "test-lib"))

	data, err := bom.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("ToJSON produced invalid JSON: %v", err)
	}
	if parsed["bomFormat"] != "CycloneDX" {
		t.Error("bomFormat not found in JSON")
	}
	if parsed["specVersion"] != SpecVersion {
		t.Error("specVersion not found in JSON")
	}
}

func TestFromJSON(t *testing.T) {
	original := NewBOM()
	original.WithComponent(NewComponent(ComponentTypeLibrary, "test-lib"))

	data, _ := original.ToJSON()

	parsed, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if parsed.BOMFormat != original.BOMFormat {
		t.Errorf("BOMFormat mismatch: expected '%s', got '%s'", original.BOMFormat, parsed.BOMFormat)
	}
	if len(parsed.Components) != 1 {
		t.Errorf("expected 1 component, got %d", len(parsed.Components))
	}
}

func TestToolsUnmarshalLegacyArray(t *testing.T) {
	doc := []byte(`{
		"bomFormat": "CycloneDX",
		"specVersion": "1.4",
		"version": 1,
		"metadata": {
			"tools": [{"vendor": "acme", "name": "sbom-gen", "version": "2.0"}]
		},
		"components": []
	}`)

	bom, err := FromJSON(doc)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if bom.Metadata == nil || bom.Metadata.Tools == nil || len(bom.Metadata.Tools.Components) != 1 {
		t.Fatal("expected one tool parsed from the legacy array shape")
	}
	tool := bom.Metadata.Tools.Components[0]
	if tool.Name != "sbom-gen" || tool.Version != "2.0" {
		t.Errorf("tool = %+v, want name sbom-gen version 2.0", tool)
	}
	if tool.Manufacturer == nil || tool.Manufacturer.Name != "acme" {
		t.Errorf("tool manufacturer = %+v, want acme", tool.Manufacturer)
	}
}

func TestToolsUnmarshalComponentsShape(t *testing.T) {
	doc := []byte(`{
		"bomFormat": "CycloneDX",
		"specVersion": "1.5",
		"version": 1,
		"metadata": {
			"tools": {"components": [{"type": "application", "name": "sbom-gen", "version": "3.0"}]}
		},
		"components": []
	}`)

	bom, err := FromJSON(doc)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if len(bom.Metadata.Tools.Components) != 1 || bom.Metadata.Tools.Components[0].Name != "sbom-gen" {
		t.Fatalf("tools = %+v, want one component named sbom-gen", bom.Metadata.Tools)
	}
}
