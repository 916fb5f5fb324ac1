// Package orchestrator composes the full prioritization pipeline
// (spec.md §4.7): normalize, hydrate, analyze, score, and assemble.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/hdfm-sec/prioritizer/pkg/component"
	"github.com/hdfm-sec/prioritizer/pkg/core/cyclonedx"
	coreerrors "github.com/hdfm-sec/prioritizer/pkg/core/errors"
	"github.com/hdfm-sec/prioritizer/pkg/core/logging"
	"github.com/hdfm-sec/prioritizer/pkg/finding"
	"github.com/hdfm-sec/prioritizer/pkg/graph"
	"github.com/hdfm-sec/prioritizer/pkg/metadata"
	"github.com/hdfm-sec/prioritizer/pkg/sbom"
	"github.com/hdfm-sec/prioritizer/pkg/scoring"
	"github.com/hdfm-sec/prioritizer/pkg/vulnlookup"
)

// AnalysisResult is the aggregate the pipeline emits (spec.md §3).
type AnalysisResult struct {
	SBOMID               string
	Timestamp            time.Time
	TotalComponents      int
	TotalVulnerabilities int
	CriticalFindings     int
	HubComponents        int
	MaxDepth             int
	Vulnerabilities      []*finding.Finding
	EntropyWeights       map[scoring.MetricKey]float64

	baseline scoring.Baseline
}

// Baseline returns eta, the median EPSS across the finding population
// computed for this analysis (spec.md §4.6, §9 Open Question (b)). Not
// consumed by the HDFM branching rule, but exposed for callers that
// want it for contextual checks.
func (r *AnalysisResult) Baseline() float64 {
	return r.baseline.Value()
}

// VulnLookupPort is the subset of vulnlookup.Client the orchestrator
// depends on, kept as an interface so tests can substitute a fake. The
// returned errors are chunk-level lookup failures (spec.md §4.2); the
// orchestrator records them as faults rather than aborting the run.
type VulnLookupPort interface {
	BatchLookupByPURL(ctx context.Context, components []*component.Component) (map[string][]*finding.Finding, []error)
}

// MetadataPort is the subset of metadata.Client the orchestrator needs.
// Returned errors are per-component lookup failures (spec.md §4.3).
type MetadataPort interface {
	GetMetadata(ctx context.Context, components []*component.Component) (map[string]metadata.Result, []error)
}

// ThreatIntelPort is the subset of threatintel.Client the orchestrator
// needs; is_kev/get_epss_score are each called exactly once per
// finding per analysis (spec.md §4.4). GetEPSSScore's error is nil for
// a non-CVE id (out of scope, not a failure) and non-nil only on a
// genuine lookup failure.
type ThreatIntelPort interface {
	GetEPSSScore(ctx context.Context, cveID string) (float64, error)
	IsKEV(cveID string) bool
}

// Orchestrator drives the pipeline described in spec.md §2 and §5.
type Orchestrator struct {
	VulnLookup VulnLookupPort
	Metadata   MetadataPort
	ThreatIntel ThreatIntelPort
	Logger     *logging.Logger
	Now        func() time.Time
}

// New builds an Orchestrator. now defaults to time.Now when nil, so
// tests can inject a fixed clock for deterministic maintenance-risk
// computation.
func New(vulnLookup VulnLookupPort, meta MetadataPort, threatIntel ThreatIntelPort, logger *logging.Logger, now func() time.Time) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{VulnLookup: vulnLookup, Metadata: meta, ThreatIntel: threatIntel, Logger: logger, Now: now}
}

// Analyze runs the complete pipeline against a parsed CycloneDX
// document and returns the assembled AnalysisResult.
func (o *Orchestrator) Analyze(ctx context.Context, sbomID string, doc *cyclonedx.BOM) (result *AnalysisResult, faults *coreerrors.Fault, err error) {
	faults = &coreerrors.Fault{}

	defer func() {
		if r := recover(); r != nil {
			err = coreerrors.AnalysisInternal("orchestrator", sbomID, fmt.Errorf("panic: %v", r))
		}
	}()

	timing := logging.Timing(o.Logger.WithSBOM(sbomID).WithOperation("analyze"), "analysis")
	defer timing()

	norm, err := sbom.Normalize(doc)
	if err != nil {
		return nil, faults, err
	}

	// Step 1: all lookups complete before TCS is computed (spec.md §5).
	o.hydrateVulnerabilities(ctx, norm.Components, faults)
	o.hydrateMaintenance(ctx, norm.Components, faults)

	analysis := graph.Analyze(norm.Dependencies)

	allFindings := o.collectFindings(norm.Components, analysis)

	// Step 2: per-finding enrichment completes before entropy weights.
	o.enrichFindings(ctx, allFindings, faults)

	// Step 3: weights and eta computed before per-finding raw scores.
	weights := scoring.CalculateEntropyWeights(allFindings)
	baseline := scoring.NewBaseline(allFindings) // eta computed and exposed, not consumed by branching (spec.md §4.6)

	for _, f := range allFindings {
		f.HDFMScore = scoring.CalculateHDFMScore(f, weights)
	}

	// Step 4: per-component collapse before percentile thresholds.
	collapsed := scoring.CollapseByComponent(allFindings)
	scoring.AssignPriorities(collapsed)

	hubComponents := 0
	for _, c := range norm.Components {
		if analysis.TCS(c) > 0.7 {
			hubComponents++
		}
	}

	criticalFindings := 0
	for _, f := range collapsed {
		if f.Priority == finding.PriorityCritical {
			criticalFindings++
		}
	}

	result = &AnalysisResult{
		SBOMID:               sbomID,
		Timestamp:            o.Now(),
		TotalComponents:      len(norm.Components),
		TotalVulnerabilities: len(allFindings),
		CriticalFindings:     criticalFindings,
		HubComponents:        hubComponents,
		MaxDepth:             analysis.MaxDepth,
		Vulnerabilities:      collapsed,
		EntropyWeights:       weights,
		baseline:             baseline,
	}
	return result, faults, nil
}

// hydrateVulnerabilities merges OSV findings into each component. A
// chunk-level lookup failure is recorded as a fault; the components in
// that chunk simply surface no OSV findings (spec.md §4.2, §7).
func (o *Orchestrator) hydrateVulnerabilities(ctx context.Context, components []*component.Component, faults *coreerrors.Fault) {
	if o.VulnLookup == nil {
		return
	}
	byRef, errs := o.VulnLookup.BatchLookupByPURL(ctx, components)
	for _, err := range errs {
		faults.Record("vulnlookup", err)
	}
	for _, c := range components {
		if fs, ok := byRef[c.BOMRef]; ok {
			c.Vulnerabilities = fs
		}
	}
}

// hydrateMaintenance applies the metadata port's published_at/
// is_deprecated signal to derive maintenance_risk_score. A
// per-component lookup failure is recorded as a fault; that component
// falls back to its zero-valued maintenance signal (spec.md §4.3, §7).
func (o *Orchestrator) hydrateMaintenance(ctx context.Context, components []*component.Component, faults *coreerrors.Fault) {
	now := o.Now()
	if o.Metadata == nil {
		for _, c := range components {
			c.ApplyMaintenanceSignal(now)
		}
		return
	}
	results, errs := o.Metadata.GetMetadata(ctx, components)
	for _, err := range errs {
		faults.Record("metadata", err)
	}
	for _, c := range components {
		if r, ok := results[c.BOMRef]; ok {
			c.PublishedAt = r.PublishedAt
			c.IsDeprecated = r.IsDeprecated
		}
		c.ApplyMaintenanceSignal(now)
	}
}

// collectFindings gathers every component's findings, synthesizing a
// HEALTHY/DEPRECATED placeholder for components with none so every
// component surfaces in the final report (spec.md §4.7). Placeholders
// carry no CVE, so TCS is left at its zero value rather than picking
// up the component's real topological position -- matching the
// original's dummy-vuln branch, which never assigns tcs/vei/epss/
// exploitability (original_source/application/service/
// prioritization_service.py), so a placeholder's base score is forced
// to 0 and it falls to rule D / priority LOW regardless of how
// structurally central its component is.
func (o *Orchestrator) collectFindings(components []*component.Component, analysis *graph.Analysis) []*finding.Finding {
	var all []*finding.Finding
	for _, c := range components {
		if len(c.Vulnerabilities) == 0 {
			placeholderID := finding.IDHealthy
			if c.IsDeprecated {
				placeholderID = finding.IDDeprecated
			}
			c.Vulnerabilities = []*finding.Finding{
				finding.New(placeholderID, c.BOMRef, c.Name, 0, "", ""),
			}
		}
		for _, f := range c.Vulnerabilities {
			f.ComponentName = c.Name
			f.ComponentRef = c.BOMRef
			if !f.IsPlaceholder() {
				f.TCS = analysis.TCS(c)
			}
			all = append(all, f)
		}
	}
	return all
}

// enrichFindings applies VEI and the threat-intel exploitability
// fusion to every finding, calling get_epss_score/is_kev exactly once
// per finding (spec.md §4.4), skipping placeholders which carry no CVE
// (spec.md §4.7: they stay at score 0 under rule D). A per-finding
// EPSS lookup failure is recorded as a fault; that finding falls back
// to epss=0.0 (spec.md §7).
func (o *Orchestrator) enrichFindings(ctx context.Context, findings []*finding.Finding, faults *coreerrors.Fault) {
	for _, f := range findings {
		if f.IsPlaceholder() {
			f.Exploitability = scoring.CalculateExploitabilityFusion(0, false)
			continue
		}
		f.VEI = scoring.CalculateVEI(f.CVSSVector)
		if o.ThreatIntel == nil {
			f.Exploitability = scoring.CalculateExploitabilityFusion(0, false)
			continue
		}
		epss, err := o.ThreatIntel.GetEPSSScore(ctx, f.ID)
		if err != nil {
			faults.Record("threatintel", fmt.Errorf("%s: %w", f.ID, err))
		}
		f.EPSS = epss
		f.KEV = o.ThreatIntel.IsKEV(f.ID)
		f.Exploitability = scoring.CalculateExploitabilityFusion(f.EPSS, f.KEV)
	}
}
