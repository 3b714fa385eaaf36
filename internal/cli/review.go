package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quorumhq/quorum/internal/agent"
	"github.com/quorumhq/quorum/internal/backend"
	"github.com/quorumhq/quorum/internal/config"
	"github.com/quorumhq/quorum/internal/logging"
	"github.com/quorumhq/quorum/internal/orchestrator"
	"github.com/quorumhq/quorum/internal/output"
	"github.com/quorumhq/quorum/internal/redact"
)

// Shared review flags
var (
	flagBackend      string
	flagLocal        bool
	flagAgents       string
	flagTemperature  float64
	flagSequential   bool
	flagFormat       string
	flagCommentsJSON bool
	flagOut          string
	flagFailOn       string
	flagTimeout      int
	flagNoRedact     bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagBackend, "backend", "", "Completion backend (local, azure)")
	cmd.Flags().BoolVar(&flagLocal, "local", false, "Shorthand for --backend local")
	cmd.Flags().StringVar(&flagAgents, "agents", "", "Agents to run (comma-separated, default: all)")
	cmd.Flags().Float64Var(&flagTemperature, "temperature", -1, "Sampling temperature [0.0, 1.0]")
	cmd.Flags().BoolVar(&flagSequential, "sequential", false, "Run agents one at a time instead of in parallel")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, markdown, json, comments)")
	cmd.Flags().BoolVar(&flagCommentsJSON, "comments-json", false, "Shorthand for --format comments")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, low, medium, high, critical)")
	cmd.Flags().IntVar(&flagTimeout, "timeout", 0, "Per-agent timeout in seconds")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagLocal {
		m["backend"] = "local"
	}
	if flagBackend != "" {
		m["backend"] = flagBackend
	}
	if flagAgents != "" {
		m["agents"] = flagAgents
	}
	if flagTemperature >= 0 {
		m["temperature"] = fmt.Sprintf("%g", flagTemperature)
	}
	if flagSequential {
		m["parallel"] = "false"
	}
	if flagCommentsJSON {
		m["format"] = "comments"
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagTimeout > 0 {
		m["timeoutSeconds"] = fmt.Sprintf("%d", flagTimeout)
	}
	return m
}

func runReview(payload, primaryPath string, diffOnly bool, cfg config.Config) {
	if flagNoRedact {
		cfg.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}
	if cfg.RedactSecrets {
		payload = redact.Secrets(payload)
	}

	logger, err := logging.New(flagDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	defer logger.Sync() //nolint:errcheck

	registry := backend.NewRegistry(cfg, logger)
	orch, err := orchestrator.New(registry, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}

	// The spinner shares stderr with debug logs; only one of them runs.
	var spin *spinner.Spinner
	if !flagDebug {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = fmt.Sprintf(" reviewing with %d agents...", len(orch.Enabled()))
		spin.Start()
	}

	res, err := orch.RunCycle(context.Background(), orchestrator.CycleRequest{
		Payload:     payload,
		DiffOnly:    diffOnly,
		Parallel:    cfg.Parallel,
		PrimaryPath: primaryPath,
	})

	if spin != nil {
		spin.Stop()
	}

	if err != nil {
		if backend.IsConfigError(err) || backend.IsAuthError(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitAuthError
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if cfg.Format == "text" && flagOut == "" {
		printStatusLine(res)
	}

	report := &output.Report{
		Review:   res.Review,
		Comments: res.Comments,
		Degraded: res.Degraded,
	}
	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if meetsFailThreshold(res, flagFailOn) {
		exitCode = ExitFindings
	}
}

// printStatusLine writes a colored one-line verdict to stderr before the
// report body.
func printStatusLine(res *orchestrator.CycleResult) {
	score := res.Review.OverallScore
	var c *color.Color
	switch {
	case score >= 8:
		c = color.New(color.FgGreen)
	case score >= 5:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed)
	}
	c.Fprintf(os.Stderr, "Review complete: score %d/10, %d critical issue(s)\n",
		score, len(res.Review.CriticalIssues))
	if res.Degraded {
		color.New(color.FgYellow).Fprintln(os.Stderr, "Partial results: some stages degraded")
	}
}

func meetsFailThreshold(res *orchestrator.CycleResult, failOn string) bool {
	failOn = strings.ToLower(strings.TrimSpace(failOn))
	if failOn == "" || failOn == "none" {
		return false
	}
	threshold := agent.SeverityRank(agent.Severity(failOn))
	if threshold == 0 {
		return false
	}
	for sev, n := range res.Review.SeverityDistribution {
		if n > 0 && agent.SeverityRank(sev) >= threshold {
			return true
		}
	}
	return false
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code with the agent panel",
	Long:  "Review code with the agent panel. Use subcommands to specify what to review.",
}

var reviewFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Review a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runReview(string(data), filepath.ToSlash(args[0]), false, cfg)
		return nil
	},
}

var flagDiffContext string

var reviewDiffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Review a unified diff (from a file or stdin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		var data []byte
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading diff: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		payload := string(data)
		if flagDiffContext != "" {
			full, err := os.ReadFile(flagDiffContext)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading context file: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			payload = diffWithContext(payload, string(full))
		}

		runReview(payload, "diff", true, cfg)
		return nil
	},
}

// diffWithContext frames the payload so the reviewers see the diff to
// analyze and the surrounding file as context only.
func diffWithContext(diff, full string) string {
	return "DIFF TO REVIEW:\n" + diff + "\n\nFULL FILE CONTEXT (do not review, context only):\n" + full
}

var flagCodePath string

var reviewCodeCmd = &cobra.Command{
	Use:   "code",
	Short: "Review code from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		path := flagCodePath
		if path == "" {
			path = "stdin"
		}
		runReview(string(data), path, false, cfg)
		return nil
	},
}

func init() {
	reviewCmd.AddCommand(reviewFileCmd)
	reviewCmd.AddCommand(reviewDiffCmd)
	reviewCmd.AddCommand(reviewCodeCmd)

	for _, cmd := range []*cobra.Command{reviewFileCmd, reviewDiffCmd, reviewCodeCmd} {
		addReviewFlags(cmd)
	}

	reviewDiffCmd.Flags().StringVar(&flagDiffContext, "diff-context", "", "Full file to include as non-reviewed context")
	reviewCodeCmd.Flags().StringVar(&flagCodePath, "path", "", "File path to anchor comments to")
}
