// Package vulnlookup implements the Vulnerability Lookup Port
// (spec.md §4.2): batched OSV-style queries by PURL, hydration of
// slim records, alias-closure deduplication, and CVSS extraction.
package vulnlookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hdfm-sec/prioritizer/pkg/component"
	"github.com/hdfm-sec/prioritizer/pkg/core/errors"
	"github.com/hdfm-sec/prioritizer/pkg/core/logging"
	"github.com/hdfm-sec/prioritizer/pkg/finding"
	"github.com/hdfm-sec/prioritizer/pkg/scoring"
)

const (
	batchTimeout  = 30 * time.Second
	singleTimeout = 10 * time.Second
	batchChunk    = 1000
)

// severityLabelScores is the database-specific severity label
// fallback used when no CVSS vector is present (spec.md §4.2).
var severityLabelScores = map[string]float64{
	"CRITICAL": 9.5,
	"HIGH":     7.5,
	"MODERATE": 5.0,
	"MEDIUM":   5.0,
	"LOW":      2.5,
}

// osvRecord is the slim shape returned by /v1/querybatch and the
// fuller shape returned by /v1/vulns/{id}.
type osvRecord struct {
	ID       string         `json:"id"`
	Aliases  []string       `json:"aliases,omitempty"`
	Summary  string         `json:"summary,omitempty"`
	Severity []osvSeverity  `json:"severity,omitempty"`
	Database map[string]any `json:"database_specific,omitempty"`
}

type osvSeverity struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}

type osvQuery struct {
	Package osvPackage `json:"package"`
}

type osvPackage struct {
	Purl string `json:"purl"`
}

type osvBatchRequest struct {
	Queries []osvQuery `json:"queries"`
}

type osvBatchResponseEntry struct {
	Vulns []osvRecord `json:"vulns"`
}

type osvBatchResponse struct {
	Results []osvBatchResponseEntry `json:"results"`
}

// Client queries an OSV-style vulnerability database.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger

	cacheMu sync.Mutex
	cache   map[string]osvRecord
}

// NewClient creates a client against the given OSV-compatible base URL
// (e.g. "https://api.osv.dev").
func NewClient(baseURL string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
		cache:      make(map[string]osvRecord),
	}
}

// BatchLookupByPURL implements the batch_lookup_by_purl contract of
// spec.md §4.2: components -> map<bom_ref, []Finding>, deduplicated
// per component and merged id-for-id against any inline findings the
// normalizer already attached. A chunk that fails is logged and
// skipped (its components simply surface no OSV findings) but the
// failure is also returned so the caller can record it as a fault.
func (c *Client) BatchLookupByPURL(ctx context.Context, components []*component.Component) (map[string][]*finding.Finding, []error) {
	eligible := make([]*component.Component, 0, len(components))
	for _, comp := range components {
		if comp.Purl != "" {
			eligible = append(eligible, comp)
		}
	}

	var errs []error
	purlToRef := make(map[string]string, len(eligible))
	records := make(map[string][]osvRecord)
	for i := 0; i < len(eligible); i += batchChunk {
		end := i + batchChunk
		if end > len(eligible) {
			end = len(eligible)
		}
		chunk := eligible[i:end]
		chunkResults, err := c.queryChunk(ctx, chunk)
		if err != nil {
			c.logger.WithError(err).Warn("osv batch chunk failed, skipping")
			errs = append(errs, err)
			continue
		}
		for j, comp := range chunk {
			purlToRef[comp.Purl] = comp.BOMRef
			records[comp.BOMRef] = chunkResults[j]
		}
	}

	out := make(map[string][]*finding.Finding, len(records))
	for ref, recs := range records {
		hydrated := c.hydrateAll(ctx, recs)
		out[ref] = c.toFindings(ref, hydrated)
	}

	// Merge inline findings last: inline wins over OSV on id collision
	// (spec.md §4.2).
	for _, comp := range components {
		if len(comp.Vulnerabilities) == 0 {
			continue
		}
		existing := out[comp.BOMRef]
		byID := make(map[string]*finding.Finding, len(existing))
		for _, f := range existing {
			byID[f.ID] = f
		}
		for _, inline := range comp.Vulnerabilities {
			byID[inline.ID] = inline
		}
		merged := make([]*finding.Finding, 0, len(byID))
		for _, f := range byID {
			merged = append(merged, f)
		}
		out[comp.BOMRef] = merged
	}

	return out, errs
}

// queryChunk POSTs one chunk of PURL queries to /v1/querybatch.
func (c *Client) queryChunk(ctx context.Context, chunk []*component.Component) ([][]osvRecord, error) {
	req := osvBatchRequest{Queries: make([]osvQuery, len(chunk))}
	for i, comp := range chunk {
		req.Queries[i] = osvQuery{Package: osvPackage{Purl: comp.Purl}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling osv batch request")
	}

	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/querybatch", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building osv batch request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.DependencyError("osv querybatch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.DependencyError("osv querybatch", fmt.Errorf("status %d", resp.StatusCode))
	}

	var batchResp osvBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&batchResp); err != nil {
		return nil, errors.Wrap(err, "decoding osv batch response")
	}

	out := make([][]osvRecord, len(chunk))
	for i := range chunk {
		if i < len(batchResp.Results) {
			out[i] = batchResp.Results[i].Vulns
		}
	}
	return out, nil
}

// hydrateAll fetches the full record for any slim entry missing
// aliases, using the per-process id cache.
func (c *Client) hydrateAll(ctx context.Context, recs []osvRecord) []osvRecord {
	out := make([]osvRecord, len(recs))
	for i, r := range recs {
		if len(r.Aliases) > 0 {
			out[i] = r
			continue
		}
		hydrated, err := c.hydrateOne(ctx, r.ID)
		if err != nil {
			c.logger.WithFinding(r.ID).WithError(err).Debug("osv hydration failed, using slim record")
			out[i] = r
			continue
		}
		out[i] = hydrated
	}
	return out
}

func (c *Client) hydrateOne(ctx context.Context, id string) (osvRecord, error) {
	c.cacheMu.Lock()
	if cached, ok := c.cache[id]; ok {
		c.cacheMu.Unlock()
		return cached, nil
	}
	c.cacheMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, singleTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/vulns/%s", c.baseURL, id), nil)
	if err != nil {
		return osvRecord{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return osvRecord{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return osvRecord{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	var rec osvRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return osvRecord{}, err
	}

	c.cacheMu.Lock()
	// write-once-per-id: a concurrent writer that lost the race simply
	// overwrites with an identical value (spec.md §5).
	c.cache[id] = rec
	c.cacheMu.Unlock()

	return rec, nil
}

// toFindings deduplicates raw OSV records into alias-equivalence
// classes and converts each representative into a Finding.
func (c *Client) toFindings(bomRef string, recs []osvRecord) []*finding.Finding {
	classes := DeduplicateByAlias(recs)

	out := make([]*finding.Finding, 0, len(classes))
	for _, class := range classes {
		rep := representative(class)
		score, vector := extractCVSS(rep)
		f := finding.New(rep.ID, bomRef, "", score, vector, rep.Summary)
		f.Aliases = aliasesOf(class)
		out = append(out, f)
	}
	return out
}

// extractCVSS implements the CVSS extraction rule of spec.md §4.2: a
// CVSS_V3* severity entry whose score starts with "CVSS:" is kept as
// the vector (with the numeric score computed by the vector
// heuristic elsewhere); otherwise fall back to the database-specific
// severity label map.
func extractCVSS(rec osvRecord) (float64, string) {
	for _, sev := range rec.Severity {
		if strings.HasPrefix(sev.Type, "CVSS_V3") && strings.HasPrefix(sev.Score, "CVSS:") {
			return scoring.FallbackCVSSFromVector(sev.Score), sev.Score
		}
	}

	label, _ := rec.Database["severity"].(string)
	if score, ok := severityLabelScores[label]; ok {
		return score, ""
	}
	return 0, ""
}
