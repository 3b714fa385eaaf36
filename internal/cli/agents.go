package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quorumhq/quorum/internal/agent"
	"github.com/quorumhq/quorum/internal/config"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the review agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		enabled := make(map[agent.Category]bool)
		if len(cfg.Agents) > 0 {
			cats, err := agent.ParseCategories(cfg.Agents)
			if err != nil {
				return err
			}
			for _, c := range cats {
				enabled[c] = true
			}
		} else {
			for _, c := range agent.AllCategories() {
				enabled[c] = true
			}
		}

		bold := color.New(color.Bold)
		for _, c := range agent.AllCategories() {
			status := "disabled"
			if enabled[c] {
				status = "enabled"
			}
			bold.Fprintf(os.Stdout, "%-14s", c)
			fmt.Fprintf(os.Stdout, " %s\n", status)
		}
		return nil
	},
}
