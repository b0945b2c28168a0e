package service

import (
	"fmt"
	"strings"

	"deliveryops-backend/internal/domains/importer/model"
	"deliveryops-backend/internal/shared/utils"
)

// DetectPayloadDuplicates flags rows that duplicate another row within the
// same batch. The comparison key is (normalized mobile, product name,
// quantity, unit price). Scanning in row order, the first occurrence of a
// key is clean; every later row sharing it is flagged with matched_index
// pointing at the first. Deterministic and read-only: rows are never
// mutated, warnings are a side artifact for the confirmation UI.
//
// positions maps each row to its index in the full preview, so warnings on
// a filtered subset still report preview indexes; nil means the rows are
// the preview itself.
//
// Duplicates against already-stored orders are the backend's call: they
// arrive only through the precheck response and are never guessed here.
func DetectPayloadDuplicates(rows []*model.ImportedOrderRow, positions []int) []model.Warning {
	at := func(i int) int {
		if positions == nil {
			return i
		}
		return positions[i]
	}

	firstSeen := make(map[string]int, len(rows))
	var warnings []model.Warning

	for i, row := range rows {
		key := payloadKey(row)
		first, seen := firstSeen[key]
		if !seen {
			firstSeen[key] = i
			continue
		}

		matched := at(first)
		warnings = append(warnings, model.Warning{
			Type:         model.WarningPayloadDuplicate,
			Index:        at(i),
			MatchedIndex: &matched,
			Message:      fmt.Sprintf("row %d repeats the order on row %d", at(i)+1, matched+1),
		})
	}

	return warnings
}

func payloadKey(row *model.ImportedOrderRow) string {
	qty := row.QuantityRaw
	if row.Quantity != nil {
		qty = fmt.Sprintf("%d", *row.Quantity)
	}
	price := row.UnitPriceRaw
	if row.UnitPrice != nil {
		price = row.UnitPrice.String()
	}

	return strings.Join([]string{
		utils.NormalizeMobile(row.CustomerMobile),
		strings.ToLower(strings.TrimSpace(row.ProductName)),
		qty,
		price,
	}, "\x1f")
}
