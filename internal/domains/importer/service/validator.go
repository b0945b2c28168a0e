package service

import (
	"regexp"

	"deliveryops-backend/internal/domains/importer/model"
	"deliveryops-backend/internal/shared/utils"
)

// Egyptian national mobile format: 010/011/012/015 followed by 8 digits,
// matched after digit normalization and prefix stripping.
var mobilePattern = regexp.MustCompile(`^01[0125][0-9]{8}$`)

// ValidateAllRows applies the per-field rules to every row. Validation only
// annotates: each run rebuilds the row's error map from scratch, so
// re-running on unmodified rows is idempotent and edits clear stale codes.
func ValidateAllRows(rows []*model.ImportedOrderRow) {
	for _, row := range rows {
		ValidateRow(row)
	}
}

// ValidateRow validates one row in place. Group semantics do not relax
// per-row validation; every row must stand on its own.
func ValidateRow(row *model.ImportedOrderRow) {
	errs := make(map[model.Field]model.ErrorCode)

	if row.CustomerName == "" {
		errs[model.FieldCustomerName] = model.ErrCodeNameRequired
	}

	switch mobile := utils.NormalizeMobile(row.CustomerMobile); {
	case row.CustomerMobile == "":
		errs[model.FieldCustomerMobile] = model.ErrCodeMobileRequired
	case !mobilePattern.MatchString(mobile):
		errs[model.FieldCustomerMobile] = model.ErrCodeMobileInvalid
	}

	if row.CustomerAddress == "" {
		errs[model.FieldCustomerAddress] = model.ErrCodeAddressRequired
	}

	if row.ProductName == "" {
		errs[model.FieldProductName] = model.ErrCodeProductRequired
	}

	switch {
	case row.QuantityRaw == "":
		errs[model.FieldQuantity] = model.ErrCodeQtyRequired
	case row.Quantity == nil, row.Quantity != nil && *row.Quantity <= 0:
		errs[model.FieldQuantity] = model.ErrCodeQtyInvalid
	}

	switch {
	case row.UnitPriceRaw == "":
		errs[model.FieldUnitPrice] = model.ErrCodePriceRequired
	case row.UnitPrice == nil, row.UnitPrice != nil && row.UnitPrice.IsNegative():
		errs[model.FieldUnitPrice] = model.ErrCodePriceInvalid
	}

	row.Errors = errs
}
