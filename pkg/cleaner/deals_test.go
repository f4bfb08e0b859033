package cleaner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDeals_DropsTemplateOwnerRows(t *testing.T) {
	rows := []Row{
		{"_name": "Intro Deal", "Owner": "Template", "Deal Value": "₹0"},
		{"_name": "Survey Contract", "Owner": "Asha", "Deal Value": "₹1,50,000"},
	}

	deals, report := CleanDeals(rows, nil)

	require.Len(t, deals, 1)
	assert.Equal(t, "Survey Contract", deals[0].Name)
	assert.InDelta(t, 150000, deals[0].Value, 1e-9)
	assert.True(t, deals[0].HasValue)
	assert.Equal(t, 2, report.RawRows)
	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, 1, report.DroppedSentinels)
}

func TestCleanDeals_DropsHeaderRepeatRows(t *testing.T) {
	rows := []Row{
		{"_name": "header", "Deal Status": "Deal Status", "Deal Stage": "Deal Stage", "Sector/Service": "Sector/service"},
		{"_name": "", "Deal Status": "Open"},
		{"_name": "Real Deal", "Deal Status": "open", "Deal Stage": "e", "Sector/Service": "mining", "Deal Value": "₹2,00,000"},
	}

	deals, report := CleanDeals(rows, nil)

	require.Len(t, deals, 1)
	d := deals[0]
	assert.Equal(t, "Real Deal", d.Name)
	assert.Equal(t, "Open", d.Status)
	assert.True(t, d.IsOpen)
	assert.Equal(t, "E – Proposal/Commercials Sent", d.Stage)
	assert.Equal(t, "Active Pursuit", d.StageGroup)
	assert.Equal(t, "Mining", d.Sector)
	assert.Equal(t, 2, report.DroppedSentinels)
}

func TestCleanDeals_ParseFailureKeepsRecord(t *testing.T) {
	rows := []Row{
		{"_name": "Vague Deal", "Owner": "Ravi", "Deal Value": "TBD", "Deal Status": "Open"},
	}

	deals, report := CleanDeals(rows, nil)

	require.Len(t, deals, 1)
	assert.False(t, deals[0].HasValue)
	assert.Zero(t, deals[0].Value)
	require.Len(t, report.ParseErrors, 1)
	assert.Equal(t, "deal_value", report.ParseErrors[0].Field)
	assert.Equal(t, "TBD", report.ParseErrors[0].Value)
	assert.Contains(t, report.Issues, "1 deals have no deal value")
}

func TestCleanDeals_FlagsUnknownSectors(t *testing.T) {
	rows := []Row{
		{"_name": "Deal A", "Sector/Service": "submarine cables", "Deal Value": "100"},
	}

	deals, report := CleanDeals(rows, nil)

	require.Len(t, deals, 1)
	assert.Equal(t, "Submarine Cables", deals[0].Sector)
	assert.Contains(t, report.Issues, `unrecognized sector "Submarine Cables" on 1 deals`)
}

func TestCleanDeals_StatusClassification(t *testing.T) {
	rows := []Row{
		{"_name": "A", "Deal Status": "won", "Deal Value": "1"},
		{"_name": "B", "Deal Status": "Project Lost", "Deal Value": "1"},
		{"_name": "C", "Deal Status": "On Hold", "Deal Value": "1"},
	}

	deals, _ := CleanDeals(rows, nil)
	require.Len(t, deals, 3)
	assert.True(t, deals[0].IsWon)
	assert.True(t, deals[1].IsDead)
	assert.True(t, deals[2].IsOnHold)
}

func TestCleanWorkOrders_ParsesFinancials(t *testing.T) {
	rows := []Row{
		{
			"_name":                    "WO-1 Solar Survey",
			"Customer Name":            "CUST-9",
			"Execution Status":         "Completed",
			"Sector":                   "solar",
			"Amount Excl GST":          "₹12,00,000",
			"Billed Value (Incl GST)":  "₹14,16,000",
			"Collected Amount":         "₹10,00,000",
			"Amount Receivable":        "₹4,16,000",
		},
		{
			"_name":            "WO-2 Mine Mapping",
			"Execution Status": "In Progress",
			"Sector":           "mining",
			"Amount Excl GST":  "not agreed",
		},
	}

	orders, report := CleanWorkOrders(rows, nil)

	require.Len(t, orders, 2)
	first := orders[0]
	assert.InDelta(t, 1200000, first.AmountExclGST, 1e-9)
	assert.InDelta(t, 1416000, first.BilledInclGST, 1e-9)
	assert.InDelta(t, 1000000, first.Collected, 1e-9)
	assert.InDelta(t, 416000, first.Receivable, 1e-9)
	assert.True(t, first.IsCompleted)
	assert.Equal(t, "Solar", first.Sector)

	second := orders[1]
	assert.Zero(t, second.AmountExclGST)
	assert.True(t, second.IsOngoing)
	require.Len(t, report.ParseErrors, 1)
	assert.Equal(t, "amount_excl_gst", report.ParseErrors[0].Field)
	assert.Contains(t, report.Issues, "1 work orders have ₹0 / missing amount")
}

func TestCleanWorkOrders_DropsSentinels(t *testing.T) {
	rows := []Row{
		{"_name": "", "Execution Status": "Completed"},
		{"_name": "Real WO", "Personnel": "Template"},
		{"_name": "Kept WO", "Execution Status": "Ongoing"},
	}

	orders, report := CleanWorkOrders(rows, nil)
	require.Len(t, orders, 1)
	assert.Equal(t, "Kept WO", orders[0].Name)
	assert.Equal(t, 2, report.DroppedSentinels)
}

func TestLoadLookups_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookups.yaml")
	content := []byte("sentinel_owners:\n  - template\n  - demo account\nsector_synonyms:\n  rail: Railways\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	lookups, err := LoadLookups(path)
	require.NoError(t, err)

	assert.Contains(t, lookups.SentinelOwners, "demo account")
	assert.Equal(t, "Railways", lookups.SectorSynonyms["rail"])
	// untouched sections keep defaults
	assert.Equal(t, "E – Proposal/Commercials Sent", lookups.StageMap["e"])
}

func TestLoadLookups_MissingFile(t *testing.T) {
	_, err := LoadLookups(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
