// Package threatintel implements the Threat Intelligence Port (spec.md
// §4.4): per-CVE EPSS scoring and a periodically-refreshed CISA KEV
// set, grounded on the teacher's feed synchronization pattern
// (frequency-gated refresh, never failing open to an empty cache).
package threatintel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hdfm-sec/prioritizer/pkg/core/errors"
	"github.com/hdfm-sec/prioritizer/pkg/core/logging"
)

const (
	epssTimeout = 5 * time.Second
	kevTimeout  = 10 * time.Second
)

// Frequency gates how often the KEV set refreshes, mirroring the
// teacher's feeds.Frequency/ShouldSync pattern.
type Frequency string

const (
	FreqAlways Frequency = "always"
	FreqHourly Frequency = "hourly"
	FreqDaily  Frequency = "daily"
)

func (f Frequency) duration() time.Duration {
	switch f {
	case FreqHourly:
		return time.Hour
	case FreqDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// ShouldSync reports whether a refresh is due given the last sync time.
func (f Frequency) ShouldSync(lastSync time.Time) bool {
	if f == FreqAlways {
		return true
	}
	if lastSync.IsZero() {
		return true
	}
	return time.Since(lastSync) > f.duration()
}

type epssResponse struct {
	Data []struct {
		CVE  string `json:"cve"`
		EPSS string `json:"epss"`
	} `json:"data"`
}

type kevCatalog struct {
	Vulnerabilities []struct {
		CveID string `json:"cveID"`
	} `json:"vulnerabilities"`
}

// Client is the Threat Intelligence Port: EPSS scoring plus a
// refreshable KEV membership set.
type Client struct {
	epssBaseURL string
	kevURL      string
	frequency   Frequency
	httpClient  *http.Client
	logger      *logging.Logger

	mu       sync.RWMutex
	kevSet   map[string]bool
	lastSync time.Time
}

// NewClient creates a threat-intel client. epssBaseURL is the EPSS API
// root (e.g. "https://api.first.org/data/v1"); kevURL is the CISA KEV
// catalog JSON endpoint.
func NewClient(epssBaseURL, kevURL string, frequency Frequency, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		epssBaseURL: epssBaseURL,
		kevURL:      kevURL,
		frequency:   frequency,
		httpClient:  &http.Client{},
		logger:      logger,
		kevSet:      make(map[string]bool),
	}
}

// GetEPSSScore implements get_epss_score of spec.md §4.4: 0.0 on any
// failure or non-CVE id. A non-CVE id is out of scope, not a failure,
// and returns a nil error; a genuine request/decode failure returns
// its error alongside the 0.0 fallback so the caller can record it as
// a fault.
func (c *Client) GetEPSSScore(ctx context.Context, cveID string) (float64, error) {
	if !strings.HasPrefix(cveID, "CVE-") {
		return 0.0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, epssTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/epss?cve=%s", c.epssBaseURL, cveID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.WithFinding(cveID).WithError(err).Debug("building epss request failed")
		return 0.0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithFinding(cveID).WithError(err).Debug("epss request failed")
		return 0.0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFinding(cveID).Debug("epss request returned non-2xx")
		return 0.0, fmt.Errorf("epss request for %s: status %d", cveID, resp.StatusCode)
	}

	var parsed epssResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.WithFinding(cveID).WithError(err).Debug("decoding epss response failed")
		return 0.0, err
	}
	if len(parsed.Data) == 0 {
		return 0.0, nil
	}

	var score float64
	if _, err := fmt.Sscanf(parsed.Data[0].EPSS, "%f", &score); err != nil {
		return 0.0, err
	}
	return score, nil
}

// IsKEV implements is_kev of spec.md §4.4 against the last-synced set.
func (c *Client) IsKEV(cveID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kevSet[cveID]
}

// SyncIfNeeded refreshes the KEV set only when the configured
// frequency says it's due, per the teacher's ShouldSync gate.
func (c *Client) SyncIfNeeded(ctx context.Context) error {
	c.mu.RLock()
	due := c.frequency.ShouldSync(c.lastSync)
	c.mu.RUnlock()
	if !due {
		return nil
	}
	return c.SyncData(ctx)
}

// SyncData implements sync_data of spec.md §4.4: on failure, the prior
// cache is retained; the set never fails open to empty.
func (c *Client) SyncData(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, kevTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.kevURL, nil)
	if err != nil {
		return errors.Wrap(err, "building kev request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.DependencyError("cisa-kev", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.DependencyError("cisa-kev", fmt.Errorf("status %d", resp.StatusCode))
	}

	var catalog kevCatalog
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return errors.Wrap(err, "decoding kev catalog")
	}

	fresh := make(map[string]bool, len(catalog.Vulnerabilities))
	for _, v := range catalog.Vulnerabilities {
		fresh[v.CveID] = true
	}

	c.mu.Lock()
	c.kevSet = fresh
	c.lastSync = time.Now()
	c.mu.Unlock()

	return nil
}
