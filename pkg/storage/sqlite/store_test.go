package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hdfm-sec/prioritizer/pkg/finding"
	"github.com/hdfm-sec/prioritizer/pkg/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSnapshot(sbomID string, ts time.Time) *storage.Snapshot {
	return &storage.Snapshot{
		SBOMID:               sbomID,
		Timestamp:            ts,
		RawSBOM:              []byte(`{"bomFormat":"CycloneDX"}`),
		TotalComponents:      2,
		TotalVulnerabilities: 1,
		CriticalFindings:     1,
		HubComponents:        1,
		MaxDepth:             1,
		Vulnerabilities: []*finding.Finding{
			finding.New("CVE-2024-0001", "django", "django", 9.8, "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", "a critical bug"),
		},
	}
}

func TestNew_RunsMigrations(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSaveThenGetSnapshot_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := sampleSnapshot("sbom-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("SaveSnapshot should assign an id")
	}

	got, err := store.GetSnapshot(ctx, snap.ID)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if got.SBOMID != "sbom-1" {
		t.Errorf("SBOMID = %q, want sbom-1", got.SBOMID)
	}
	if got.TotalComponents != 2 {
		t.Errorf("TotalComponents = %d, want 2", got.TotalComponents)
	}
	if len(got.Vulnerabilities) != 1 || got.Vulnerabilities[0].ID != "CVE-2024-0001" {
		t.Errorf("Vulnerabilities = %+v, want one CVE-2024-0001 finding", got.Vulnerabilities)
	}
	if string(got.RawSBOM) != `{"bomFormat":"CycloneDX"}` {
		t.Errorf("RawSBOM = %q, not round-tripped", got.RawSBOM)
	}
}

func TestLatestSnapshot_ReturnsMostRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := sampleSnapshot("sbom-2", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := sampleSnapshot("sbom-2", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	if err := store.SaveSnapshot(ctx, older); err != nil {
		t.Fatalf("SaveSnapshot older: %v", err)
	}
	if err := store.SaveSnapshot(ctx, newer); err != nil {
		t.Fatalf("SaveSnapshot newer: %v", err)
	}

	got, err := store.LatestSnapshot(ctx, "sbom-2")
	if err != nil {
		t.Fatalf("LatestSnapshot: %v", err)
	}
	if got.ID != newer.ID {
		t.Errorf("LatestSnapshot returned %s, want the newer snapshot %s", got.ID, newer.ID)
	}
}

func TestListSnapshots_FiltersBySBOMAndOrdersDescending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := sampleSnapshot("sbom-a", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := sampleSnapshot("sbom-a", time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC))
	c := sampleSnapshot("sbom-b", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	for _, s := range []*storage.Snapshot{a, b, c} {
		if err := store.SaveSnapshot(ctx, s); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}

	got, err := store.ListSnapshots(ctx, storage.ListOptions{SBOMID: "sbom-a"})
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots for sbom-a, got %d", len(got))
	}
	if got[0].ID != b.ID {
		t.Errorf("expected the newer snapshot first, got %s", got[0].ID)
	}

	all, err := store.ListSnapshots(ctx, storage.ListOptions{})
	if err != nil {
		t.Fatalf("ListSnapshots (all): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 snapshots across all SBOMs, got %d", len(all))
	}
}

func TestListSnapshots_RespectsLimitAndOffset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		snap := sampleSnapshot("sbom-page", time.Date(2026, 1, i+1, 0, 0, 0, 0, time.UTC))
		if err := store.SaveSnapshot(ctx, snap); err != nil {
			t.Fatalf("SaveSnapshot: %v", err)
		}
	}

	page, err := store.ListSnapshots(ctx, storage.ListOptions{SBOMID: "sbom-page", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected 1 result with Limit=1, got %d", len(page))
	}
}

func TestGetSnapshot_UnknownIDReturnsNoRows(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetSnapshot(context.Background(), "does-not-exist")
	if err == nil {
		t.Fatal("expected an error for an unknown snapshot id")
	}
}
