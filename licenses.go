package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AndrewH15/BulkLitigationHoldManager/internal/config"
)

var flagLicensesPath string

func newLicensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "licenses",
		Short: "Show the license eligibility table",
		Long: `Print the SKU table the run uses to decide which mailboxes are eligible
for litigation hold. With --file, shows the effective table after loading
the external file, including the built-in fallback if the file is unusable.`,
		Args: cobra.NoArgs,
		RunE: runLicenses,
	}

	cmd.Flags().StringVar(&flagLicensesPath, "file", "", "external license table to load")

	return cmd
}

func runLicenses(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := buildLogger(cfg)

	path := cfg.Run.LicensesFile
	if flagLicensesPath != "" {
		path = flagLicensesPath
	}

	table := config.LoadLicenseTable(path, logger)

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if err := enc.Encode(table); err != nil {
			return fmt.Errorf("encoding JSON output: %w", err)
		}

		return nil
	}

	headers := []string{"CATEGORY", "SKU", "DISPLAY NAME", "LITIGATION HOLD"}

	var rows [][]string

	for _, category := range table.Categories() {
		skus := make([]string, 0, len(table[category]))
		for sku := range table[category] {
			skus = append(skus, sku)
		}

		sort.Strings(skus)

		for _, sku := range skus {
			entry := table[category][sku]

			eligible := "no"
			if entry.LitigationHold {
				eligible = "yes"
			}

			rows = append(rows, []string{category, sku, entry.DisplayName, eligible})
		}
	}

	printTable(os.Stdout, headers, rows)

	return nil
}
