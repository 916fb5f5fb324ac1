package sqlite

import (
	"context"
	"fmt"
	"sort"
)

// Migrate runs all database migrations.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY,
			version INTEGER NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var currentVersion int
	err = s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("getting current migration version: %w", err)
	}

	versions := make([]int, 0, len(migrations))
	for version := range migrations {
		versions = append(versions, version)
	}
	sort.Ints(versions)

	for _, version := range versions {
		if version <= currentVersion {
			continue
		}

		if _, err := s.db.ExecContext(ctx, migrations[version]); err != nil {
			return fmt.Errorf("running migration %d: %w", version, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
	}

	return nil
}

// migrations is an ordered map of version -> SQL.
var migrations = map[int]string{
	1: migration001,
}

const migration001 = `
-- Analysis snapshots: one row per completed run of the pipeline, the
-- raw SBOM payload retained alongside the derived result (spec.md §7).
CREATE TABLE IF NOT EXISTS analysis_snapshots (
    id TEXT PRIMARY KEY,
    sbom_id TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    raw_sbom BLOB NOT NULL,
    total_components INTEGER DEFAULT 0,
    total_vulnerabilities INTEGER DEFAULT 0,
    critical_findings INTEGER DEFAULT 0,
    hub_components INTEGER DEFAULT 0,
    max_depth INTEGER DEFAULT 0,
    findings_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_sbom ON analysis_snapshots(sbom_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON analysis_snapshots(timestamp DESC);
`
