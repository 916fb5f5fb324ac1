// Package sqlite provides a SQLite implementation of the storage.Store
// interface (spec.md §4.8): analysis snapshots keyed by SBOM id.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/google/uuid"

	"github.com/hdfm-sec/prioritizer/pkg/finding"
	"github.com/hdfm-sec/prioritizer/pkg/storage"
)

// Store implements storage.Store using SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
}

// New creates a new SQLite store at the given path.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db, dbPath: dbPath}

	if err := store.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

// Ping checks if the database is accessible.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot persists a completed analysis alongside the raw SBOM
// payload that produced it (spec.md §6, §7).
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *storage.Snapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}

	findingsJSON, err := json.Marshal(snapshot.Vulnerabilities)
	if err != nil {
		return fmt.Errorf("marshaling findings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_snapshots (
			id, sbom_id, timestamp, raw_sbom, total_components,
			total_vulnerabilities, critical_findings, hub_components,
			max_depth, findings_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snapshot.ID, snapshot.SBOMID, snapshot.Timestamp, snapshot.RawSBOM,
		snapshot.TotalComponents, snapshot.TotalVulnerabilities, snapshot.CriticalFindings,
		snapshot.HubComponents, snapshot.MaxDepth, findingsJSON,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves one historical snapshot by its id.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*storage.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, snapshotSelectQuery+" WHERE id = ?", id)
	return scanSnapshot(row)
}

// LatestSnapshot retrieves the most recent snapshot for an SBOM id.
func (s *Store) LatestSnapshot(ctx context.Context, sbomID string) (*storage.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, snapshotSelectQuery+" WHERE sbom_id = ? ORDER BY timestamp DESC LIMIT 1", sbomID)
	return scanSnapshot(row)
}

// ListSnapshots lists snapshots, optionally filtered to one SBOM id,
// most recent first.
func (s *Store) ListSnapshots(ctx context.Context, opts storage.ListOptions) ([]*storage.Snapshot, error) {
	query := snapshotSelectQuery
	var args []interface{}

	if opts.SBOMID != "" {
		query += " WHERE sbom_id = ?"
		args = append(args, opts.SBOMID)
	}

	query += " ORDER BY timestamp DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []*storage.Snapshot
	for rows.Next() {
		snap, err := scanSnapshotRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

const snapshotSelectQuery = `SELECT id, sbom_id, timestamp, raw_sbom, total_components,
	total_vulnerabilities, critical_findings, hub_components, max_depth, findings_json
	FROM analysis_snapshots`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*storage.Snapshot, error) {
	return scanInto(row)
}

func scanSnapshotRows(rows *sql.Rows) (*storage.Snapshot, error) {
	return scanInto(rows)
}

func scanInto(row rowScanner) (*storage.Snapshot, error) {
	snap := &storage.Snapshot{}
	var findingsJSON []byte
	err := row.Scan(
		&snap.ID, &snap.SBOMID, &snap.Timestamp, &snap.RawSBOM, &snap.TotalComponents,
		&snap.TotalVulnerabilities, &snap.CriticalFindings, &snap.HubComponents,
		&snap.MaxDepth, &findingsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning snapshot: %w", err)
	}

	var findings []*finding.Finding
	if err := json.Unmarshal(findingsJSON, &findings); err != nil {
		return nil, fmt.Errorf("unmarshaling findings: %w", err)
	}
	snap.Vulnerabilities = findings
	return snap, nil
}
