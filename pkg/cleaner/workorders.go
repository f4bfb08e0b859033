package cleaner

import "strings"

// WorkOrder is a cleaned execution/billing record.
type WorkOrder struct {
	Name             string  `json:"deal_name"`
	CustomerCode     string  `json:"customer_code,omitempty"`
	SerialNo         string  `json:"serial_no,omitempty"`
	NatureOfWork     string  `json:"nature_of_work,omitempty"`
	TypeOfWork       string  `json:"type_of_work,omitempty"`
	ExecutionStatus  string  `json:"execution_status,omitempty"`
	BillingStatus    string  `json:"billing_status,omitempty"`
	CollectionStatus string  `json:"collection_status,omitempty"`
	Sector           string  `json:"sector,omitempty"`
	PersonnelCode    string  `json:"personnel_code,omitempty"`
	PODate           string  `json:"po_date,omitempty"`
	LastInvoiceDate  string  `json:"last_invoice_date,omitempty"`
	AmountExclGST    float64 `json:"amount_excl_gst"`
	AmountInclGST    float64 `json:"amount_incl_gst"`
	BilledInclGST    float64 `json:"billed_incl_gst"`
	Collected        float64 `json:"collected"`
	Receivable       float64 `json:"receivable"`
	IsCompleted      bool    `json:"is_completed"`
	IsOngoing        bool    `json:"is_ongoing"`
}

func workOrderField(label string) string {
	lc := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))
	switch {
	case strings.Contains(lc, "deal_name") || lc == "_name":
		return "deal_name"
	case strings.Contains(lc, "customer") || (strings.Contains(lc, "company") && strings.Contains(lc, "name")):
		return "customer_code"
	case strings.Contains(lc, "serial"):
		return "serial_no"
	case strings.Contains(lc, "nature"):
		return "nature_of_work"
	case strings.Contains(lc, "execution_status"):
		return "execution_status"
	case strings.Contains(lc, "sector"):
		return "sector"
	case strings.Contains(lc, "type_of_work"):
		return "type_of_work"
	case strings.Contains(lc, "amount") && strings.Contains(lc, "excl") && !strings.Contains(lc, "billed"):
		return "amount_excl_gst"
	case strings.Contains(lc, "amount") && strings.Contains(lc, "incl") && !strings.Contains(lc, "billed") && !strings.Contains(lc, "collected"):
		return "amount_incl_gst"
	case strings.Contains(lc, "billed") && strings.Contains(lc, "excl"):
		return "billed_excl_gst"
	case strings.Contains(lc, "billed") && strings.Contains(lc, "incl"):
		return "billed_incl_gst"
	case strings.Contains(lc, "collected"):
		return "collected"
	case strings.Contains(lc, "receivable"):
		return "receivable"
	case strings.Contains(lc, "collection") && strings.Contains(lc, "status"):
		return "collection_status"
	case strings.Contains(lc, "billing_status"):
		return "billing_status"
	case strings.Contains(lc, "personnel") || strings.Contains(lc, "kam"):
		return "personnel_code"
	case strings.Contains(lc, "po_") || strings.Contains(lc, "loi"):
		return "po_date"
	case strings.Contains(lc, "invoice") && strings.Contains(lc, "date"):
		return "last_invoice_date"
	}
	return ""
}

// CleanWorkOrders normalizes raw work-order rows. Financial fields parse
// through ParseCurrency and default to 0 so aggregation never trips on a
// missing cell; every parse failure is recorded in the report.
func CleanWorkOrders(rows []Row, lookups *Lookups) ([]WorkOrder, *Report) {
	if lookups == nil {
		lookups = DefaultLookups()
	}
	report := newReport("workorders", len(rows))

	var orders []WorkOrder
	var zeroAmount, zeroCollected int
	unknownSectors := map[string]int{}

	for i, row := range rows {
		fields := canonicalize(row, workOrderField)

		if isWorkOrderSentinel(fields, lookups) {
			continue
		}

		wo := WorkOrder{
			Name:             fields["deal_name"],
			CustomerCode:     fields["customer_code"],
			SerialNo:         fields["serial_no"],
			NatureOfWork:     fields["nature_of_work"],
			TypeOfWork:       fields["type_of_work"],
			ExecutionStatus:  strings.TrimSpace(fields["execution_status"]),
			BillingStatus:    fields["billing_status"],
			CollectionStatus: fields["collection_status"],
			PersonnelCode:    fields["personnel_code"],
			PODate:           fields["po_date"],
			LastInvoiceDate:  fields["last_invoice_date"],
		}

		sector, known := NormalizeSector(lookups, fields["sector"])
		wo.Sector = sector
		if !known {
			unknownSectors[sector]++
		}

		parseMoney := func(field string, dst *float64) {
			raw := fields[field]
			if raw == "" {
				return
			}
			v, err := ParseCurrency(raw)
			if err != nil {
				report.addParseError(i, field, raw)
				return
			}
			*dst = v
		}
		parseMoney("amount_excl_gst", &wo.AmountExclGST)
		parseMoney("amount_incl_gst", &wo.AmountInclGST)
		parseMoney("billed_incl_gst", &wo.BilledInclGST)
		parseMoney("collected", &wo.Collected)
		parseMoney("receivable", &wo.Receivable)

		execStatus := strings.ToLower(wo.ExecutionStatus)
		wo.IsCompleted = matches(lookups.CompletedWorkStatuses, execStatus)
		wo.IsOngoing = matches(lookups.OngoingWorkStatuses, execStatus)

		if wo.AmountExclGST == 0 {
			zeroAmount++
		}
		if wo.Collected == 0 {
			zeroCollected++
		}
		report.observeCells(countFilled(
			wo.Name, wo.CustomerCode, wo.ExecutionStatus, wo.Sector,
			boolToField(wo.AmountExclGST != 0), boolToField(wo.Collected != 0),
		), 6)

		orders = append(orders, wo)
	}

	report.addCountIssue(zeroAmount, "%d work orders have ₹0 / missing amount")
	report.addCountIssue(zeroCollected, "%d work orders show ₹0 collected")
	for _, sector := range sortedKeys(unknownSectors) {
		report.addIssue("unrecognized sector %q on %d work orders", sector, unknownSectors[sector])
	}
	report.finalize(len(orders))
	return orders, report
}

func isWorkOrderSentinel(fields map[string]string, lookups *Lookups) bool {
	return fields["deal_name"] == "" ||
		matches(lookups.SentinelOwners, fields["personnel_code"]) ||
		matches(lookups.SentinelSectors, fields["sector"])
}
