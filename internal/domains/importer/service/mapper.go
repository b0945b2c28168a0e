package service

import (
	"strings"

	"deliveryops-backend/internal/domains/importer/model"
	"deliveryops-backend/internal/shared/utils"
)

// fieldSynonyms lists, per canonical field, the normalized header spellings
// seen across vendor exports. Binding order is decided by column position
// (first match wins), not by position in these lists.
var fieldSynonyms = map[model.Field][]string{
	model.FieldCustomerName: {
		"customer name", "customer", "client name", "name", "اسم العميل",
	},
	model.FieldCustomerMobile: {
		"customer mobile", "customer phone", "mobile", "phone", "phone number",
		"mobile number", "tel", "telephone", "رقم الهاتف", "موبايل",
	},
	model.FieldCustomerAddress: {
		"customer address", "address", "delivery address", "street", "العنوان",
	},
	model.FieldGovernorate: {
		"governorate", "gov", "province", "region", "المحافظة",
	},
	model.FieldCity: {
		"city", "area", "district", "town", "المدينة",
	},
	model.FieldProductName: {
		"product name", "product", "item", "item name", "sku description", "المنتج",
	},
	model.FieldQuantity: {
		"quantity", "qty", "count", "pieces", "الكمية",
	},
	model.FieldUnitPrice: {
		"unit price", "price", "amount", "cod amount", "السعر",
	},
	model.FieldPaymentMethod: {
		"payment method", "payment", "payment type", "طريقة الدفع",
	},
	model.FieldOrderRef: {
		"order ref", "order reference", "order no", "order number", "order id",
		"reference", "ref", "رقم الطلب",
	},
	model.FieldVendorNotes: {
		"notes", "note", "vendor notes", "comment", "comments", "remarks", "ملاحظات",
	},
}

const (
	tierExact     = 1
	tierSubstring = 2
)

// AutoMapColumns heuristically binds spreadsheet headers to canonical
// fields. Exact synonym matches are tried first, substring matches only for
// fields still unbound. Columns are scanned left to right; the first header
// matching a field wins and the field is never reassigned. A later header
// that matches with the same strength is reported as a collision so the
// caller can surface the ambiguity instead of silently picking one.
func AutoMapColumns(headers []string) model.ColumnMapping {
	mapping := model.ColumnMapping{Columns: make(map[model.Field]int)}
	boundTier := make(map[model.Field]int)

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = utils.NormalizeHeader(h)
	}

	for _, tier := range []int{tierExact, tierSubstring} {
		for col, header := range normalized {
			if header == "" {
				continue
			}
			for _, field := range model.AllFields {
				if !matches(tier, header, fieldSynonyms[field]) {
					continue
				}
				bind(&mapping, boundTier, tier, field, col, headers[col])
				break
			}
		}
	}

	return mapping
}

func bind(mapping *model.ColumnMapping, boundTier map[model.Field]int, tier int, field model.Field, col int, rawHeader string) {
	if existing, bound := mapping.Columns[field]; bound {
		// An equally-strong later match is an ambiguity worth surfacing.
		if existing != col && boundTier[field] == tier {
			mapping.Collisions = append(mapping.Collisions, model.HeaderCollision{
				Field:  field,
				Column: col,
				Header: rawHeader,
			})
		}
		return
	}
	// A column feeds at most one field.
	for _, idx := range mapping.Columns {
		if idx == col {
			return
		}
	}
	mapping.Columns[field] = col
	boundTier[field] = tier
}

func matches(tier int, header string, synonyms []string) bool {
	for _, syn := range synonyms {
		s := utils.NormalizeHeader(syn)
		if s == "" {
			continue
		}
		switch tier {
		case tierExact:
			if header == s {
				return true
			}
		case tierSubstring:
			if strings.Contains(header, s) || strings.Contains(s, header) {
				return true
			}
		}
	}
	return false
}
