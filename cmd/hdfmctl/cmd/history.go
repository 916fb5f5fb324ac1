package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hdfm-sec/prioritizer/pkg/storage"
	"github.com/hdfm-sec/prioritizer/pkg/storage/sqlite"
)

var (
	historyLimit int
	historyJSON  bool
	historyAll   bool
)

var historyCmd = &cobra.Command{
	Use:   "history [sbom-id]",
	Short: "Show prior analyses of an SBOM",
	Long: `Lists historical analysis snapshots, most recent first. Pass an
SBOM id to restrict to its history, or --all to list across every
SBOM this database has seen (spec.md's supplemented
get_all_analyses/list_sboms retrieval).

Examples:
  hdfmctl history my-app-v1.2.0
  hdfmctl history my-app-v1.2.0 --limit 5
  hdfmctl history --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of snapshots to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	historyCmd.Flags().BoolVar(&historyAll, "all", false, "List across every SBOM")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !historyAll {
		return fmt.Errorf("an sbom-id is required unless --all is set")
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := storage.ListOptions{Limit: historyLimit}
	if len(args) == 1 {
		opts.SBOMID = args[0]
	}

	snapshots, err := store.ListSnapshots(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	if len(snapshots) == 0 {
		fmt.Println("No analysis history found.")
		return nil
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshots)
	}

	fmt.Printf("%-36s %-20s %-24s %10s %10s\n", "ID", "SBOM", "TIMESTAMP", "VULNS", "CRITICAL")
	for _, s := range snapshots {
		fmt.Printf("%-36s %-20s %-24s %10d %10d\n",
			s.ID, s.SBOMID, s.Timestamp.Format("2006-01-02T15:04:05"), s.TotalVulnerabilities, s.CriticalFindings)
	}
	return nil
}
