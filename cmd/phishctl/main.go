package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"phishguard/internal/app"
	"phishguard/internal/config"
	"phishguard/internal/domain"
	"phishguard/internal/logging"
	"phishguard/internal/output"
)

var version = "dev"

var (
	outputFormat string
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "phishctl",
		Short:         "Assess URLs for phishing risk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log evaluator activity to stderr")

	checkCmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Assess a single URL",
		Long: `Runs every evaluator against the URL and prints the assessment.
Exit status is 2 for a HIGH risk level and 1 for MEDIUM.`,
		Args: cobra.ExactArgs(1),
		RunE: runCheck,
	}
	checkCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table, json)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, _ := config.Load()
	logCfg := logging.Config{Level: "error", Format: "text", Output: io.Discard}
	if verbose {
		logCfg = logging.Config{Level: "debug", Format: "text", Output: os.Stderr}
	}
	logger := logging.New(logCfg)

	engine, err := app.NewEngine(cfg, logger, nil, nil)
	if err != nil {
		return err
	}
	a, err := engine.Assessor.Assess(context.Background(), args[0])
	if err != nil {
		return err
	}
	logger.Debug("assessed", slog.String("id", a.ID.String()))

	out, err := output.GetFormatter(output.FormatterType(outputFormat)).Format(a)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	os.Exit(exitCode(a.Tier))
	return nil
}

func exitCode(tier domain.Tier) int {
	switch tier {
	case domain.TierHigh:
		return 2
	case domain.TierMedium:
		return 1
	default:
		return 0
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "phishctl version %s\n", version)
		},
	}
}
