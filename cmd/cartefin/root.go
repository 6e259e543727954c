package main

import (
	"github.com/spf13/cobra"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/api"
	"github.com/Amazighozn-ti/Synthese-carte-financement/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "cartefin",
	Short: "French financing document analysis pipeline",
	Long: `Cartefin analyzes French financing dossiers. It reads uploaded PDFs
and scans, classifies each document against a fixed catalog of French
financing document types, extracts structured fields with an LLM, and
aggregates everything into a carte de financement.

The pipeline includes:
  - OCR with native PDF text detection
  - Catalog-constrained document classification with keyword fallback
  - Schema-driven structured extraction
  - Financing profile synthesis and Markdown reports`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.cartefin/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "cartefin home directory (default: ~/.cartefin)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
