// Package reportfile writes run reports to disk: a CSV with one row per
// mailbox and a JSON summary document alongside it.
package reportfile

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AndrewH15/BulkLitigationHoldManager/internal/holdrun"
)

// csvHeader defines the detail-report columns. Order is part of the file
// contract; append new columns at the end.
var csvHeader = []string{
	"user_principal_name",
	"display_name",
	"licenses",
	"hold_enabled",
	"has_mailbox",
	"action",
	"error",
	"timestamp",
}

// Write persists the report under dir, which is created if missing.
// Returns the paths of the CSV detail file and the JSON summary file.
func Write(dir string, report *holdrun.Report, logger *slog.Logger) (csvPath, summaryPath string, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", fmt.Errorf("reportfile: creating report dir: %w", err)
	}

	stem := fmt.Sprintf("holdrun_%s_%s",
		report.Summary.StartedAt.UTC().Format("20060102T150405Z"),
		report.Summary.RunID,
	)

	csvPath = filepath.Join(dir, stem+".csv")
	summaryPath = filepath.Join(dir, stem+"_summary.json")

	if err := writeDetail(csvPath, report.Subjects); err != nil {
		return "", "", err
	}

	if err := writeSummary(summaryPath, report.Summary); err != nil {
		return "", "", err
	}

	logger.Info("report written",
		slog.String("csv", csvPath),
		slog.String("summary", summaryPath),
		slog.Int("rows", len(report.Subjects)),
	)

	return csvPath, summaryPath, nil
}

// writeDetail writes the per-mailbox CSV.
func writeDetail(path string, subjects []holdrun.SubjectReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("reportfile: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("reportfile: writing header: %w", err)
	}

	for _, s := range subjects {
		timestamp := ""
		if !s.Timestamp.IsZero() {
			timestamp = s.Timestamp.UTC().Format(time.RFC3339)
		}

		row := []string{
			s.UPN,
			s.DisplayName,
			strings.Join(s.LicenseSKUs, ";"),
			strconv.FormatBool(s.HoldEnabled),
			strconv.FormatBool(s.HasMailbox),
			string(s.Action),
			s.ErrMsg,
			timestamp,
		}

		if err := w.Write(row); err != nil {
			return fmt.Errorf("reportfile: writing row for %s: %w", s.UPN, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("reportfile: flushing %s: %w", path, err)
	}

	return nil
}

// writeSummary writes the run summary as indented JSON.
func writeSummary(path string, summary holdrun.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("reportfile: creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("reportfile: encoding summary: %w", err)
	}

	return nil
}
