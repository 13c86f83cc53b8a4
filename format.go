package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/AndrewH15/BulkLitigationHoldManager/internal/holdrun"
)

// countPrinter renders large counts with thousands separators; mailbox
// populations regularly run six digits.
var countPrinter = message.NewPrinter(language.English)

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// formatCount returns n with thousands separators.
func formatCount[T int | int64](n T) string {
	return countPrinter.Sprintf("%d", int64(n))
}

// printTable writes aligned columns to the given writer.
// headers and each row must have the same length.
func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow(w, headers, widths)

	for _, row := range rows {
		printRow(w, row, widths)
	}
}

// printRow writes a single padded row.
func printRow(w io.Writer, cells []string, widths []int) {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}

	fmt.Fprintln(w, strings.Join(parts, "  "))
}

// printSummary writes the human-readable run summary to w.
func printSummary(w io.Writer, summary holdrun.Summary) {
	mode := "live"
	if summary.Preview {
		mode = "preview"
	}

	fmt.Fprintf(w, "Run %s (%s)\n", summary.RunID, mode)

	enabledLabel := "Newly enabled:"
	if summary.Preview {
		enabledLabel = "Would enable:"
	}

	lines := []struct {
		label string
		value string
	}{
		{"Eligible mailboxes:", formatCount(summary.TotalEligible)},
		{"Already on hold:", formatCount(summary.AlreadyOnHold)},
		{enabledLabel, formatCount(summary.NewlyEnabled)},
		{"Failed:", formatCount(summary.Failed)},
		{"No mailbox:", formatCount(summary.NoMailbox)},
		{"Total errors:", formatCount(summary.TotalErrors)},
		{"Elapsed:", summary.Elapsed},
	}

	for _, line := range lines {
		fmt.Fprintf(w, "  %-20s %s\n", line.label, line.value)
	}

	if summary.HaltedEarly {
		fmt.Fprintln(w, "  NOTE: run halted early on the error threshold; results are partial.")
	}
}
