package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quorumhq/quorum/internal/config"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Show completion backend status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Active backend: %s\n\n", cfg.Backend)

		url := cfg.Local.URL
		if url == "" {
			url = "http://localhost:11434 (default)"
		}
		model := cfg.Local.Model
		if model == "" {
			model = "llama3.2 (default)"
		}
		fmt.Fprintf(os.Stdout, "local:\n  url:   %s\n  model: %s\n", url, model)

		azureState := "not configured"
		if cfg.Azure.ClientID != "" && cfg.Azure.ClientSecret != "" {
			azureState = "configured"
		}
		fmt.Fprintf(os.Stdout, "azure:\n  status:     %s\n  deployment: %s\n", azureState, cfg.Azure.Deployment)
		return nil
	},
}
