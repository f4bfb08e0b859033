package cleaner

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Lookups holds the product-specific constants of the cleaning layer:
// sentinel markers, category synonyms, the stage letter map, and the status
// vocabularies. They are data, not code, so deployments can adjust them
// without a rebuild.
type Lookups struct {
	// SentinelOwners are placeholder account names whose rows are template
	// artifacts, not business data.
	SentinelOwners []string `yaml:"sentinel_owners"`
	// SentinelStatuses / SentinelStages / SentinelSectors are header-repeat
	// values that appear embedded in board data.
	SentinelStatuses []string `yaml:"sentinel_statuses"`
	SentinelStages   []string `yaml:"sentinel_stages"`
	SentinelSectors  []string `yaml:"sentinel_sectors"`

	// SectorSynonyms maps lowercased raw sector values to canonical names.
	SectorSynonyms map[string]string `yaml:"sector_synonyms"`

	// StageMap expands stage letter codes to canonical labels.
	StageMap map[string]string `yaml:"stage_map"`

	OpenStatuses   []string `yaml:"open_statuses"`
	WonStatuses    []string `yaml:"won_statuses"`
	DeadStatuses   []string `yaml:"dead_statuses"`
	OnHoldStatuses []string `yaml:"on_hold_statuses"`

	CompletedWorkStatuses []string `yaml:"completed_work_statuses"`
	OngoingWorkStatuses   []string `yaml:"ongoing_work_statuses"`
}

// DefaultLookups returns the built-in lookup table.
func DefaultLookups() *Lookups {
	return &Lookups{
		SentinelOwners:   []string{"template"},
		SentinelStatuses: []string{"deal status", "deal_status"},
		SentinelStages:   []string{"deal stage", "deal_stage"},
		SentinelSectors:  []string{"sector/service", "sector"},
		SectorSynonyms: map[string]string{
			"gis":          "GIS",
			"mining":       "Mining",
			"solar":        "Solar",
			"wind":         "Wind",
			"construction": "Construction",
			"o&g":          "Oil & Gas",
			"oil & gas":    "Oil & Gas",
			"oil and gas":  "Oil & Gas",
			"surveying":    "Surveying",
			"agriculture":  "Agriculture",
		},
		StageMap: map[string]string{
			"a": "A – Lead Generated",
			"b": "B – Sales Qualified Lead",
			"c": "C – Demo Done",
			"d": "D – Feasibility",
			"e": "E – Proposal/Commercials Sent",
			"f": "F – Negotiations",
			"g": "G – Project Won",
			"h": "H – Work Order Received",
			"i": "I – POC",
			"j": "J – Invoice Sent",
			"k": "K – Amount Accrued",
			"l": "L – Project Lost",
			"m": "M – Projects On Hold",
			"n": "N – Not Relevant At The Moment",
			"o": "O – Not Relevant At All",
		},
		OpenStatuses:   []string{"open"},
		WonStatuses:    []string{"won"},
		DeadStatuses:   []string{"dead", "lost", "project lost"},
		OnHoldStatuses: []string{"on hold", "hold"},
		CompletedWorkStatuses: []string{"completed"},
		OngoingWorkStatuses: []string{
			"ongoing", "in progress", "executed until current month",
			"partial completed", "pause / struck",
			"details pending from client",
		},
	}
}

// LoadLookups reads a YAML lookup table from path. Fields absent from the
// file keep their defaults.
func LoadLookups(path string) (*Lookups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read lookups file")
	}
	lookups := DefaultLookups()
	if err := yaml.Unmarshal(data, lookups); err != nil {
		return nil, errors.Wrapf(err, "parse lookups file %s", path)
	}
	return lookups, nil
}

// matches reports whether value (case-insensitively, trimmed) is in the set.
func matches(set []string, value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return false
	}
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
