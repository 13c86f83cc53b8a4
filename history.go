package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AndrewH15/BulkLitigationHoldManager/internal/history"
)

var flagHistoryLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous runs from the local history database",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}

	cmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "maximum number of runs to show")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := buildLogger(cfg)

	store, err := history.Open(cfg.Run.HistoryDB, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), flagHistoryLimit)
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(runs); err != nil {
			return fmt.Errorf("encoding JSON output: %w", err)
		}

		return nil
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")

		return nil
	}

	headers := []string{"STARTED", "RUN ID", "MODE", "ELIGIBLE", "ENABLED", "FAILED", "ERRORS", "ELAPSED"}

	rows := make([][]string, 0, len(runs))

	for _, run := range runs {
		mode := "live"
		if run.Preview {
			mode = "preview"
		}

		if run.HaltedEarly {
			mode += " (halted)"
		}

		rows = append(rows, []string{
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.RunID,
			mode,
			formatCount(run.TotalEligible),
			formatCount(run.NewlyEnabled),
			strconv.Itoa(run.Failed),
			strconv.FormatInt(run.TotalErrors, 10),
			run.Elapsed,
		})
	}

	printTable(os.Stdout, headers, rows)

	return nil
}
