package cleaner

import (
	"sort"
	"strconv"
	"strings"
)

// Row is one raw record keyed by field label, as returned by the board API.
type Row = map[string]any

// Deal is a cleaned, enriched sales-pipeline record.
type Deal struct {
	Name               string  `json:"deal_name"`
	OwnerCode          string  `json:"owner_code,omitempty"`
	ClientCode         string  `json:"client_code,omitempty"`
	Status             string  `json:"status,omitempty"`
	Stage              string  `json:"stage,omitempty"`
	StageGroup         string  `json:"stage_group,omitempty"`
	Sector             string  `json:"sector,omitempty"`
	Product            string  `json:"product,omitempty"`
	ClosureProbability string  `json:"closure_probability,omitempty"`
	TentativeCloseDate string  `json:"tentative_close_date,omitempty"`
	CreatedDate        string  `json:"created_date,omitempty"`
	Value              float64 `json:"deal_value"`
	HasValue           bool    `json:"has_value"`
	IsOpen             bool    `json:"is_open"`
	IsWon              bool    `json:"is_won"`
	IsDead             bool    `json:"is_dead"`
	IsOnHold           bool    `json:"is_on_hold"`
}

// dealField maps a raw column label to its canonical deal field, or ""
// when the column has no canonical meaning.
func dealField(label string) string {
	lc := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))
	switch {
	case lc == "deal_name" || lc == "_name":
		return "deal_name"
	case strings.Contains(lc, "owner"):
		return "owner_code"
	case strings.Contains(lc, "client") || strings.Contains(lc, "company"):
		return "client_code"
	case lc == "deal_status" || lc == "status":
		return "status"
	case strings.Contains(lc, "close_date") && !strings.Contains(lc, "tentative") && !strings.Contains(lc, "actual"):
		return "close_date_actual"
	case strings.Contains(lc, "probability"):
		return "closure_probability"
	case strings.Contains(lc, "deal_value") || strings.Contains(lc, "value"):
		return "deal_value"
	case strings.Contains(lc, "tentative") && strings.Contains(lc, "close"):
		return "tentative_close_date"
	case lc == "deal_stage" || lc == "stage":
		return "stage"
	case strings.Contains(lc, "product"):
		return "product"
	case strings.Contains(lc, "sector") || strings.Contains(lc, "service"):
		return "sector"
	case strings.Contains(lc, "created"):
		return "created_date"
	}
	return ""
}

// CleanDeals normalizes raw deal rows into typed records plus a quality
// report. Sentinel rows (template artifacts and embedded header repeats)
// are dropped; field-level parse failures zero the field and are recorded,
// never dropping the record.
func CleanDeals(rows []Row, lookups *Lookups) ([]Deal, *Report) {
	if lookups == nil {
		lookups = DefaultLookups()
	}
	report := newReport("deals", len(rows))

	var deals []Deal
	var missingValue, missingSector, missingStage int
	unknownSectors := map[string]int{}

	for i, row := range rows {
		fields := canonicalize(row, dealField)

		if isDealSentinel(fields, lookups) {
			continue
		}

		d := Deal{
			Name:               fields["deal_name"],
			OwnerCode:          fields["owner_code"],
			ClientCode:         fields["client_code"],
			Status:             titleCase(fields["status"]),
			Product:            fields["product"],
			ClosureProbability: titleCase(fields["closure_probability"]),
			TentativeCloseDate: fields["tentative_close_date"],
			CreatedDate:        fields["created_date"],
		}

		d.Stage = NormalizeStage(lookups, fields["stage"])
		d.StageGroup = StageGroup(d.Stage)

		sector, known := NormalizeSector(lookups, fields["sector"])
		d.Sector = sector
		if !known {
			unknownSectors[sector]++
		}

		if raw := fields["deal_value"]; raw != "" {
			v, err := ParseCurrency(raw)
			if err != nil {
				report.addParseError(i, "deal_value", raw)
			} else {
				d.Value = v
				d.HasValue = true
			}
		}

		status := strings.ToLower(d.Status)
		d.IsOpen = matches(lookups.OpenStatuses, status)
		d.IsWon = matches(lookups.WonStatuses, status)
		d.IsDead = matches(lookups.DeadStatuses, status)
		d.IsOnHold = matches(lookups.OnHoldStatuses, status)

		if !d.HasValue {
			missingValue++
		}
		if d.Sector == "" {
			missingSector++
		}
		if d.Stage == "" {
			missingStage++
		}
		report.observeCells(countFilled(
			d.Name, d.OwnerCode, d.ClientCode, d.Status, d.Stage, d.Sector,
			d.ClosureProbability, boolToField(d.HasValue),
		), 8)

		deals = append(deals, d)
	}

	report.addCountIssue(missingValue, "%d deals have no deal value")
	report.addCountIssue(missingSector, "%d deals have no sector")
	report.addCountIssue(missingStage, "%d deals have no stage")
	for _, sector := range sortedKeys(unknownSectors) {
		report.addIssue("unrecognized sector %q on %d deals", sector, unknownSectors[sector])
	}
	report.finalize(len(deals))
	return deals, report
}

func isDealSentinel(fields map[string]string, lookups *Lookups) bool {
	return fields["deal_name"] == "" ||
		matches(lookups.SentinelOwners, fields["owner_code"]) ||
		matches(lookups.SentinelStatuses, fields["status"]) ||
		matches(lookups.SentinelStages, fields["stage"]) ||
		matches(lookups.SentinelSectors, fields["sector"])
}

// canonicalize flattens a raw row into canonical-field → value. Raw labels
// are visited in sorted order so duplicate mappings resolve
// deterministically; a non-empty value is never overwritten by an empty one.
func canonicalize(row Row, fieldFor func(string) string) map[string]string {
	labels := make([]string, 0, len(row))
	for label := range row {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	fields := map[string]string{}
	for _, label := range labels {
		field := fieldFor(label)
		if field == "" {
			continue
		}
		value := stringValue(row[label])
		if value != "" || fields[field] == "" {
			fields[field] = value
		}
	}
	return fields
}

func stringValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case int:
		return strconv.Itoa(tv)
	case bool:
		return strconv.FormatBool(tv)
	default:
		return ""
	}
}

func countFilled(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}

func boolToField(b bool) string {
	if b {
		return "1"
	}
	return ""
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
