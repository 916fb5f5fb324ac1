package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hdfm-sec/prioritizer/pkg/core/cyclonedx"
	"github.com/hdfm-sec/prioritizer/pkg/core/logging"
	"github.com/hdfm-sec/prioritizer/pkg/metadata"
	"github.com/hdfm-sec/prioritizer/pkg/orchestrator"
	"github.com/hdfm-sec/prioritizer/pkg/storage"
	"github.com/hdfm-sec/prioritizer/pkg/storage/sqlite"
	"github.com/hdfm-sec/prioritizer/pkg/threatintel"
	"github.com/hdfm-sec/prioritizer/pkg/vulnlookup"
)

var (
	analyzeSBOMID string
	analyzeJSON   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <sbom-file>",
	Short: "Analyze a CycloneDX SBOM and rank its vulnerabilities",
	Long: `Reads a CycloneDX SBOM document from disk, hydrates it against
the vulnerability, metadata, and threat-intelligence ports, scores
every finding with the Hybrid Decision-Fusion Model, and prints the
ranked result.

Examples:
  hdfmctl analyze sbom.json
  hdfmctl analyze sbom.json --sbom-id my-app-v1.2.0
  hdfmctl analyze sbom.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeSBOMID, "sbom-id", "", "Identifier for this SBOM (generated if omitted)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output the ranked result as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := cyclonedx.FromJSON(raw)
	if err != nil {
		return fmt.Errorf("parsing SBOM: %w", err)
	}

	sbomID := analyzeSBOMID
	if sbomID == "" {
		sbomID = uuid.NewString()
	}

	logger := logging.Default()
	if !verbose {
		logger = logging.NewNop()
	}

	vulnClient := vulnlookup.NewClient(cfg.OSV.BaseURL, logger)
	metaClient := metadata.NewClient(cfg.DepsDev.BaseURL, logger)
	tiClient := threatintel.NewClient(cfg.EPSS.BaseURL, cfg.KEV.BaseURL, cfg.KEVFrequency, logger)

	ctx := cmd.Context()
	if err := tiClient.SyncIfNeeded(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: KEV sync failed, proceeding with a stale or empty set: %v\n", err)
	}

	o := orchestrator.New(vulnClient, metaClient, tiClient, logger, nil)

	result, faults, err := o.Analyze(ctx, sbomID, doc)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	for _, f := range faults.Faults() {
		fmt.Fprintf(os.Stderr, "warning: %v\n", f)
	}

	if err := persistResult(ctx, sbomID, raw, result); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not persist analysis: %v\n", err)
	}

	if analyzeJSON {
		return printJSON(result)
	}
	printTable(result)
	return nil
}

func persistResult(ctx context.Context, sbomID string, rawSBOM []byte, result *orchestrator.AnalysisResult) error {
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.SaveSnapshot(ctx, &storage.Snapshot{
		SBOMID:               sbomID,
		Timestamp:            result.Timestamp,
		RawSBOM:              rawSBOM,
		TotalComponents:      result.TotalComponents,
		TotalVulnerabilities: result.TotalVulnerabilities,
		CriticalFindings:     result.CriticalFindings,
		HubComponents:        result.HubComponents,
		MaxDepth:             result.MaxDepth,
		Vulnerabilities:      result.Vulnerabilities,
	})
}

func printJSON(result *orchestrator.AnalysisResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func printTable(result *orchestrator.AnalysisResult) {
	fmt.Printf("SBOM %s analyzed at %s\n", result.SBOMID, result.Timestamp.Format(time.RFC3339))
	fmt.Printf("components=%d vulnerabilities=%d critical=%d hub_components=%d max_depth=%d\n\n",
		result.TotalComponents, result.TotalVulnerabilities, result.CriticalFindings,
		result.HubComponents, result.MaxDepth)

	fmt.Printf("%-8s %-24s %-22s %8s %8s\n", "PRIORITY", "COMPONENT", "FINDING", "HDFM", "CVSS")
	for _, f := range result.Vulnerabilities {
		fmt.Printf("%-8s %-24s %-22s %8.2f %8.1f\n", f.Priority, f.ComponentName, f.ID, f.HDFMScore, f.CVSSScore)
	}
}
