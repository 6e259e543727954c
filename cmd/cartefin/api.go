package main

import (
	"github.com/spf13/cobra"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running cartefin server via HTTP.

These commands require a running server (cartefin serve).
Use --server to specify a custom server URL.

Examples:
  cartefin api health                       # Check server health
  cartefin api documents process doc.pdf    # Process a document
  cartefin api syntheses create             # Build a financing profile`,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Document processing commands",
}

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Document type catalog commands",
}

var synthesesCmd = &cobra.Command{
	Use:   "syntheses",
	Short: "Financing synthesis commands",
}

var llmcallsCmd = &cobra.Command{
	Use:   "llmcalls",
	Short: "LLM call history commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8380", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatsEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerUIEndpoint{}).Command(getServerURL))

	// Documents as subcommand group
	documentsCmd.AddCommand((&endpoints.ProcessDocumentsEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.ListDocumentsEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.GetDocumentEndpoint{}).Command(getServerURL))
	documentsCmd.AddCommand((&endpoints.DeleteDocumentEndpoint{}).Command(getServerURL))

	// Type catalog as subcommand group
	typesCmd.AddCommand((&endpoints.ListDocumentTypesEndpoint{}).Command(getServerURL))
	typesCmd.AddCommand((&endpoints.ReloadDocumentTypesEndpoint{}).Command(getServerURL))

	// Syntheses as subcommand group
	synthesesCmd.AddCommand((&endpoints.CreateSynthesisEndpoint{}).Command(getServerURL))
	synthesesCmd.AddCommand((&endpoints.ListSynthesesEndpoint{}).Command(getServerURL))
	synthesesCmd.AddCommand((&endpoints.GetSynthesisEndpoint{}).Command(getServerURL))
	synthesesCmd.AddCommand((&endpoints.SynthesisReportEndpoint{}).Command(getServerURL))

	// LLM calls as subcommand group
	llmcallsCmd.AddCommand((&endpoints.ListLLMCallsEndpoint{}).Command(getServerURL))
	llmcallsCmd.AddCommand((&endpoints.LLMCallStatsEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(documentsCmd)
	apiCmd.AddCommand(typesCmd)
	apiCmd.AddCommand(synthesesCmd)
	apiCmd.AddCommand(llmcallsCmd)
	rootCmd.AddCommand(apiCmd)
}
