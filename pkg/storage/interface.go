// Package storage provides the Persistence Port (spec.md §4.8): storing
// and retrieving analysis snapshots, keyed by the originating SBOM.
package storage

import (
	"context"
	"time"

	"github.com/hdfm-sec/prioritizer/pkg/finding"
)

// Store defines the storage interface for analysis snapshots.
// Implementations include SQLite (local).
type Store interface {
	// SaveSnapshot persists a completed analysis alongside the raw SBOM
	// payload that produced it, joined by SBOMID (spec.md §6, §7).
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error

	// GetSnapshot retrieves one historical snapshot by its id.
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)

	// LatestSnapshot retrieves the most recent snapshot for an SBOM id,
	// ordered by timestamp descending (spec.md §7 get_latest_analysis).
	LatestSnapshot(ctx context.Context, sbomID string) (*Snapshot, error)

	// ListSnapshots lists snapshots, optionally filtered to one SBOM id,
	// most recent first (spec.md §7 get_all_analyses/list_sboms).
	ListSnapshots(ctx context.Context, opts ListOptions) ([]*Snapshot, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
}

// ListOptions provides pagination and filtering for ListSnapshots.
type ListOptions struct {
	SBOMID string // restrict to one SBOM id; empty lists across all SBOMs
	Limit  int
	Offset int
}

// Snapshot is one historical row of the persistence port: an
// AnalysisResult plus the raw SBOM payload that produced it (spec.md §3,
// §6, §7).
type Snapshot struct {
	ID                   string
	SBOMID               string
	Timestamp            time.Time
	RawSBOM              []byte
	TotalComponents      int
	TotalVulnerabilities int
	CriticalFindings     int
	HubComponents        int
	MaxDepth             int
	Vulnerabilities      []*finding.Finding
}
