// Package cmd implements the hdfmctl CLI commands.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hdfm-sec/prioritizer/pkg/config"
)

var (
	verbose    bool
	configPath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hdfmctl",
	Short: "Prioritize SBOM vulnerabilities with the Hybrid Decision-Fusion Model",
	Long: `hdfmctl analyzes a CycloneDX SBOM and ranks its vulnerabilities by
severity, topological criticality, vector exposure, and real-world
exploitability.

Quick Start:
  hdfmctl analyze sbom.json         Analyze an SBOM and print the ranking
  hdfmctl history <sbom-id>         Show prior analyses of an SBOM`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "hdfmctl.yaml", "Path to config file")
}
