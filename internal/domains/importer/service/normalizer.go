package service

import (
	"strconv"
	"strings"

	"deliveryops-backend/internal/domains/importer/model"
	"deliveryops-backend/internal/shared/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MapRowsToOrders combines the raw matrix and the column mapping into typed
// candidate rows. One ImportedOrderRow per raw row, no grouping yet. Parse
// failures never abort the batch: the offending field is annotated and the
// raw cell kept for the preview.
func MapRowsToOrders(rows [][]string, mapping model.ColumnMapping) []*model.ImportedOrderRow {
	out := make([]*model.ImportedOrderRow, 0, len(rows))

	for _, raw := range rows {
		cell := func(f model.Field) string {
			if idx, ok := mapping.Column(f); ok && idx < len(raw) {
				return strings.TrimSpace(raw[idx])
			}
			return ""
		}

		row := &model.ImportedOrderRow{
			ID:              uuid.New(),
			OrderRef:        cell(model.FieldOrderRef),
			CustomerName:    cell(model.FieldCustomerName),
			CustomerMobile:  cell(model.FieldCustomerMobile),
			CustomerAddress: cell(model.FieldCustomerAddress),
			Governorate:     cell(model.FieldGovernorate),
			City:            cell(model.FieldCity),
			ProductName:     cell(model.FieldProductName),
			QuantityRaw:     cell(model.FieldQuantity),
			UnitPriceRaw:    cell(model.FieldUnitPrice),
			PaymentMethod:   normalizePaymentMethod(cell(model.FieldPaymentMethod)),
			VendorNotes:     cell(model.FieldVendorNotes),
			Errors:          make(map[model.Field]model.ErrorCode),
		}

		if row.QuantityRaw != "" {
			if qty, err := parseQuantity(row.QuantityRaw); err == nil {
				row.Quantity = &qty
			} else {
				row.Errors[model.FieldQuantity] = model.ErrCodeQtyInvalid
			}
		}

		if row.UnitPriceRaw != "" {
			if price, err := parsePrice(row.UnitPriceRaw); err == nil {
				row.UnitPrice = &price
			} else {
				row.Errors[model.FieldUnitPrice] = model.ErrCodePriceInvalid
			}
		}

		out = append(out, row)
	}

	return out
}

func parseQuantity(s string) (int, error) {
	return strconv.Atoi(utils.NormalizeDigits(strings.TrimSpace(s)))
}

// parsePrice parses a money cell with locale-aware separator handling:
// "1,250.50", "1.250,50", "1 250,50" and arabic-indic digits all parse to
// the same decimal.
func parsePrice(s string) (decimal.Decimal, error) {
	s = utils.NormalizeDigits(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		// Both present: the rightmost one is the decimal separator.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		// Comma only: decimal separator unless it reads as thousands
		// grouping ("1,250" style with exactly three trailing digits).
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	return decimal.NewFromString(s)
}

// normalizePaymentMethod maps the loose spellings exports use onto the
// backend's payment method enum. Unrecognized values pass through trimmed;
// the backend is the final authority on what it accepts.
func normalizePaymentMethod(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case "cod", "cash", "cash on delivery":
		return model.PaymentMethodCOD
	case "prepaid", "paid", "online":
		return model.PaymentMethodPrepaid
	case "wallet":
		return model.PaymentMethodWallet
	case "bank", "bank transfer", "transfer":
		return model.PaymentMethodBankTransfer
	default:
		return strings.TrimSpace(s)
	}
}
