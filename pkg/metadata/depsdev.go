// Package metadata implements the Component Metadata Port (spec.md
// §4.3): a Deps.dev-style per-package lookup of publish date and
// deprecation status, used by the orchestrator to derive a
// component's maintenance risk.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hdfm-sec/prioritizer/pkg/component"
	"github.com/hdfm-sec/prioritizer/pkg/core/errors"
	"github.com/hdfm-sec/prioritizer/pkg/core/logging"
)

const lookupTimeout = 2 * time.Second

// ecosystemToSystem maps a PURL type to the deps.dev "system" path
// segment, mirroring the teacher's liveapi.NormalizeEcosystem table.
var ecosystemToSystem = map[string]string{
	"npm":   "NPM",
	"pypi":  "PYPI",
	"go":    "GO",
	"maven": "MAVEN",
	"cargo": "CARGO",
	"nuget": "NUGET",
}

// Result is the {published_at, is_deprecated} pair returned per
// eligible component.
type Result struct {
	PublishedAt  time.Time
	IsDeprecated bool
}

type versionDetails struct {
	PublishedAt  time.Time `json:"publishedAt"`
	IsDeprecated bool      `json:"isDeprecated"`
}

// Client queries a deps.dev-compatible package metadata API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a client against the given deps.dev-compatible
// base URL (e.g. "https://api.deps.dev/v3alpha").
func NewClient(baseURL string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// GetMetadata implements the get_metadata contract of spec.md §4.3:
// components lacking a PURL, or whose PURL type falls outside the
// supported ecosystems, are silently skipped, and an individual
// lookup failure must not abort the rest of the map -- it is instead
// collected and returned alongside the partial result so the caller
// can record it as a fault.
func (c *Client) GetMetadata(ctx context.Context, components []*component.Component) (map[string]Result, []error) {
	out := make(map[string]Result)
	var errs []error
	for _, comp := range components {
		if !comp.EligibleForMetadataLookup() {
			continue
		}
		system, ok := ecosystemToSystem[comp.PurlType()]
		if !ok {
			continue
		}

		res, err := c.getVersionDetails(ctx, system, comp.Name, comp.Version)
		if err != nil {
			c.logger.WithComponent(comp.BOMRef).WithError(err).Debug("metadata lookup failed, skipping")
			errs = append(errs, err)
			continue
		}
		out[comp.BOMRef] = res
	}
	return out, errs
}

func (c *Client) getVersionDetails(ctx context.Context, system, name, version string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	path := fmt.Sprintf("%s/systems/%s/packages/%s/versions/%s",
		c.baseURL,
		url.PathEscape(system),
		url.PathEscape(name),
		url.PathEscape(version),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return Result{}, errors.Wrap(err, "building deps.dev request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, errors.DependencyError("deps.dev", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, errors.DependencyError("deps.dev", fmt.Errorf("status %d", resp.StatusCode))
	}

	var details versionDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return Result{}, errors.Wrap(err, "decoding deps.dev response")
	}

	return Result{PublishedAt: details.PublishedAt, IsDeprecated: details.IsDeprecated}, nil
}
