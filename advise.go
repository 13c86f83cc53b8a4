package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AndrewH15/BulkLitigationHoldManager/internal/holdrun"
)

// Advise command flags.
var (
	flagAdviseTotal     int
	flagAdviseMemoryMB  int
	flagAdviseBandwidth int
)

func newAdviseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Recommend batch and concurrency settings for a population size",
		Long: `Print the batch size, concurrency limit, and throttle settings the run
would pick for a given mailbox count, optionally adjusted for memory and
bandwidth constraints. Useful for planning before a large run.`,
		Args: cobra.NoArgs,
		RunE: runAdvise,
	}

	cmd.Flags().IntVar(&flagAdviseTotal, "total", 0, "mailbox population size")
	cmd.Flags().IntVar(&flagAdviseMemoryMB, "memory-mb", 0, "available memory hint in MB")
	cmd.Flags().IntVar(&flagAdviseBandwidth, "bandwidth-mbps", 0, "available bandwidth hint in Mbps")
	_ = cmd.MarkFlagRequired("total")

	return cmd
}

func runAdvise(_ *cobra.Command, _ []string) error {
	if flagAdviseTotal < 0 {
		return fmt.Errorf("--total must not be negative, got %d", flagAdviseTotal)
	}

	advice := holdrun.Advise(flagAdviseTotal, flagAdviseMemoryMB, flagAdviseBandwidth)

	if flagJSON {
		return printAdviceJSON(advice)
	}

	printAdviceText(os.Stdout, flagAdviseTotal, advice)

	return nil
}

func printAdviceJSON(advice holdrun.Advice) error {
	out := struct {
		BatchSize         int      `json:"batch_size"`
		Concurrency       int      `json:"concurrency"`
		CleanupInterval   int      `json:"cleanup_interval"`
		ThrottleDelayMs   int64    `json:"throttle_delay_ms"`
		RecommendedWindow string   `json:"recommended_window"`
		Warnings          []string `json:"warnings"`
	}{
		BatchSize:         advice.BatchSize,
		Concurrency:       advice.Concurrency,
		CleanupInterval:   advice.CleanupInterval,
		ThrottleDelayMs:   advice.ThrottleDelay.Milliseconds(),
		RecommendedWindow: advice.RecommendedWindow,
		Warnings:          advice.Warnings,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}

func printAdviceText(w io.Writer, total int, advice holdrun.Advice) {
	fmt.Fprintf(w, "Recommendation for %s mailboxes:\n", formatCount(total))
	fmt.Fprintf(w, "  Batch size:         %d\n", advice.BatchSize)
	fmt.Fprintf(w, "  Concurrency limit:  %d\n", advice.Concurrency)
	fmt.Fprintf(w, "  Cleanup interval:   every %d batches\n", advice.CleanupInterval)

	if advice.ThrottleDelay > 0 {
		fmt.Fprintf(w, "  Throttle delay:     %s between batches\n", advice.ThrottleDelay)
	}

	fmt.Fprintf(w, "  Recommended window: %s\n", advice.RecommendedWindow)

	for _, warning := range advice.Warnings {
		fmt.Fprintf(w, "  Warning: %s\n", warning)
	}
}
