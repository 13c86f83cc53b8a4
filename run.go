package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AndrewH15/BulkLitigationHoldManager/internal/config"
	"github.com/AndrewH15/BulkLitigationHoldManager/internal/exchange"
	"github.com/AndrewH15/BulkLitigationHoldManager/internal/history"
	"github.com/AndrewH15/BulkLitigationHoldManager/internal/holdrun"
	"github.com/AndrewH15/BulkLitigationHoldManager/internal/reportfile"
)

// Run command flags.
var (
	flagDryRun           bool
	flagYes              bool
	flagBatchSize        int
	flagConcurrency      int
	flagMaxErrors        int
	flagContinueOnErrors bool
	flagUPNPrefix        string
	flagLicensesFile     string
	flagReportDir        string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan the tenant and enable litigation hold where needed",
		Long: `Scan the mailbox population, reconcile litigation-hold status in batches,
and enable the hold on every licensed mailbox that does not have it yet.

With --dry-run the intended actions are computed and reported without any
mutating call. Live mode asks for confirmation before changing anything;
pass --yes to skip the prompt (required for non-interactive use).

Exits 0 on success or operator cancellation, 1 on a fatal condition
(missing credentials, error threshold exceeded).`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}

	cmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "report intended actions without mutating")
	cmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip the live-mode confirmation prompt")
	cmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "read batch size (0 = auto)")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "mutation concurrency limit (0 = auto)")
	cmd.Flags().IntVar(&flagMaxErrors, "max-errors", 0, "halt after this many errors (0 = config default)")
	cmd.Flags().BoolVar(&flagContinueOnErrors, "continue-on-errors", false, "never halt on the error threshold")
	cmd.Flags().StringVar(&flagUPNPrefix, "filter", "", "restrict to UPNs with this prefix")
	cmd.Flags().StringVar(&flagLicensesFile, "licenses", "", "license eligibility table file")
	cmd.Flags().StringVar(&flagReportDir, "report-dir", "", "directory for CSV/JSON reports")

	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := buildLogger(cfg)
	applyRunFlags(cmd, cfg)

	ctx := shutdownContext(cmd.Context(), logger)

	creds := exchange.Credentials{
		TenantID:     cfg.Auth.TenantID,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: config.ClientSecret(),
	}

	token, err := exchange.NewTokenSource(ctx, creds)
	if err != nil {
		return fmt.Errorf("%w: set auth config and %s", err, config.EnvClientSecret)
	}

	client := exchange.NewClient(
		cfg.API.BaseURL,
		&http.Client{Timeout: cfg.APITimeout()},
		token,
		logger,
	)

	table := config.LoadLicenseTable(cfg.Run.LicensesFile, logger)

	runner := holdrun.NewRunner(client, client, holdrun.RunConfig{
		BatchSize:         cfg.Run.BatchSize,
		Concurrency:       cfg.Run.Concurrency,
		MemoryHintMB:      cfg.Run.MemoryHintMB,
		BandwidthHintMbps: cfg.Run.BandwidthHintMbps,
		Preview:           flagDryRun,
		MaxErrors:         cfg.Run.MaxErrors,
		ContinueOnErrors:  cfg.Run.ContinueOnErrors,
		EligibleSKUs:      table.EligibleSKUs(),
		UPNPrefix:         flagUPNPrefix,
		RunID:             uuid.NewString(),
	}, logger)

	runner.Progress = func(done, total int) {
		statusf("\rReconciling status: %s/%s", formatCount(done), formatCount(total))
		if done == total {
			statusf("\n")
		}
	}
	runner.Confirm = confirmLiveRun

	report, runErr := runner.Run(ctx)

	if report != nil {
		finishRun(ctx, cfg, report, logger)
	}

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, holdrun.ErrCanceled):
		statusf("Run canceled; nothing was changed.\n")

		return nil
	case errors.Is(runErr, context.Canceled):
		statusf("Run interrupted; holds already enabled remain in place.\n")

		return nil
	default:
		return runErr
	}
}

// applyRunFlags overlays changed run flags onto the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("batch-size") {
		cfg.Run.BatchSize = flagBatchSize
	}

	if cmd.Flags().Changed("concurrency") {
		cfg.Run.Concurrency = flagConcurrency
	}

	if cmd.Flags().Changed("max-errors") {
		cfg.Run.MaxErrors = flagMaxErrors
	}

	if cmd.Flags().Changed("continue-on-errors") {
		cfg.Run.ContinueOnErrors = flagContinueOnErrors
	}

	if cmd.Flags().Changed("licenses") {
		cfg.Run.LicensesFile = flagLicensesFile
	}

	if cmd.Flags().Changed("report-dir") {
		cfg.Run.ReportDir = flagReportDir
	}
}

// finishRun writes report files, records history, and prints the summary.
// Reporting failures are logged, not fatal: the run itself already
// happened and its outcome must reach the operator.
func finishRun(ctx context.Context, cfg *config.Config, report *holdrun.Report, logger *slog.Logger) {
	if _, _, err := reportfile.Write(cfg.Run.ReportDir, report, logger); err != nil {
		logger.Warn("writing report files failed", "error", err)
	}

	if store, err := history.Open(cfg.Run.HistoryDB, logger); err != nil {
		logger.Warn("opening history store failed", "error", err)
	} else {
		if err := store.RecordRun(ctx, report.Summary); err != nil {
			logger.Warn("recording run history failed", "error", err)
		}

		_ = store.Close()
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report.Summary)

		return
	}

	printSummary(os.Stdout, report.Summary)
}

// confirmLiveRun asks the operator before mutating. Non-interactive
// sessions must pass --yes; refusing there keeps a cron job from
// half-running silently.
func confirmLiveRun(needsAction int) bool {
	if flagYes {
		return true
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		fmt.Fprintln(os.Stderr, "Refusing to enable litigation hold without --yes in a non-interactive session.")

		return false
	}

	fmt.Fprintf(os.Stderr, "Enable litigation hold on %s mailboxes? [y/N]: ", formatCount(needsAction))

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
