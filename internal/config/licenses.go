package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// LicenseEntry describes one SKU in the eligibility table.
type LicenseEntry struct {
	DisplayName    string `toml:"display_name"`
	LitigationHold bool   `toml:"litigation_hold"`
}

// LicenseTable maps category -> SKU part number -> entry. A mailbox is
// eligible for litigation hold when it carries at least one SKU whose
// entry has LitigationHold set.
type LicenseTable map[string]map[string]LicenseEntry

// licenseFile is the TOML shape of an external table file.
type licenseFile struct {
	Licenses LicenseTable `toml:"licenses"`
}

// EligibleSKUs flattens the table into skuPartNumber -> display name for
// SKUs that support litigation hold.
func (t LicenseTable) EligibleSKUs() map[string]string {
	skus := make(map[string]string)

	for _, category := range t {
		for sku, entry := range category {
			if entry.LitigationHold {
				skus[sku] = entry.DisplayName
			}
		}
	}

	return skus
}

// Categories returns the table's category names in sorted order.
func (t LicenseTable) Categories() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// DefaultLicenseTable is the built-in eligibility table, used when no
// external table is configured or the configured one is unusable.
// Litigation hold requires an Exchange Online Plan 2 entitlement.
func DefaultLicenseTable() LicenseTable {
	return LicenseTable{
		"enterprise": {
			"ENTERPRISEPACK":    {DisplayName: "Office 365 E3", LitigationHold: true},
			"ENTERPRISEPREMIUM": {DisplayName: "Office 365 E5", LitigationHold: true},
			"SPE_E3":            {DisplayName: "Microsoft 365 E3", LitigationHold: true},
			"SPE_E5":            {DisplayName: "Microsoft 365 E5", LitigationHold: true},
			"STANDARDPACK":      {DisplayName: "Office 365 E1", LitigationHold: false},
		},
		"exchange": {
			"EXCHANGEENTERPRISE": {DisplayName: "Exchange Online (Plan 2)", LitigationHold: true},
			"EXCHANGESTANDARD":   {DisplayName: "Exchange Online (Plan 1)", LitigationHold: false},
			"EXCHANGEARCHIVE":    {DisplayName: "Exchange Online Archiving", LitigationHold: false},
		},
		"education": {
			"M365EDU_A3_FACULTY": {DisplayName: "Microsoft 365 A3 for Faculty", LitigationHold: true},
			"M365EDU_A5_FACULTY": {DisplayName: "Microsoft 365 A5 for Faculty", LitigationHold: true},
		},
	}
}

// LoadLicenseTable reads an eligibility table from path. A missing,
// malformed, or empty table is not fatal: the built-in default is
// substituted and a warning logged, so a typo in an optional table file
// never blocks a compliance run. An empty path selects the default table
// silently.
func LoadLicenseTable(path string, logger *slog.Logger) LicenseTable {
	if path == "" {
		return DefaultLicenseTable()
	}

	table, err := parseLicenseTable(path)
	if err != nil {
		logger.Warn("license table unusable, falling back to built-in table",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return DefaultLicenseTable()
	}

	return table
}

// parseLicenseTable decodes and sanity-checks an external table file.
func parseLicenseTable(path string) (LicenseTable, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("license table: %w", err)
	}

	var file licenseFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("parsing license table: %w", err)
	}

	if len(file.Licenses) == 0 {
		return nil, fmt.Errorf("license table %s defines no categories", path)
	}

	for category, skus := range file.Licenses {
		if len(skus) == 0 {
			return nil, fmt.Errorf("license category %q is empty", category)
		}

		for sku, entry := range skus {
			if entry.DisplayName == "" {
				return nil, fmt.Errorf("license %s/%s has no display_name", category, sku)
			}
		}
	}

	return file.Licenses, nil
}
