package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field identifies a canonical business column that spreadsheet headers
// are mapped onto. The set is closed: validation error maps are keyed by
// these values only.
type Field string

const (
	FieldCustomerName    Field = "customerName"
	FieldCustomerMobile  Field = "customerMobile"
	FieldCustomerAddress Field = "customerAddress"
	FieldGovernorate     Field = "governorate"
	FieldCity            Field = "city"
	FieldProductName     Field = "productName"
	FieldQuantity        Field = "quantity"
	FieldUnitPrice       Field = "unitPrice"
	FieldPaymentMethod   Field = "paymentMethod"
	FieldOrderRef        Field = "orderRef"
	FieldVendorNotes     Field = "vendorNotes"
)

// AllFields lists every canonical field in template column order.
var AllFields = []Field{
	FieldOrderRef,
	FieldCustomerName,
	FieldCustomerMobile,
	FieldCustomerAddress,
	FieldGovernorate,
	FieldCity,
	FieldProductName,
	FieldQuantity,
	FieldUnitPrice,
	FieldPaymentMethod,
	FieldVendorNotes,
}

// ErrorCode is a per-field validation error code.
type ErrorCode string

const (
	ErrCodeNameRequired    ErrorCode = "name_required"
	ErrCodeMobileRequired  ErrorCode = "mobile_required"
	ErrCodeMobileInvalid   ErrorCode = "mobile_invalid"
	ErrCodeAddressRequired ErrorCode = "address_required"
	ErrCodeProductRequired ErrorCode = "product_required"
	ErrCodeQtyRequired     ErrorCode = "qty_required"
	ErrCodeQtyInvalid      ErrorCode = "qty_invalid"
	ErrCodePriceRequired   ErrorCode = "price_required"
	ErrCodePriceInvalid    ErrorCode = "price_invalid"
)

// RawSheet is the decoded upload: one header row plus the data rows in
// file order. Produced once per upload and never mutated afterwards.
type RawSheet struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ColumnMapping maps canonical fields to source column indices. A field
// absent from Columns was not matched by any header.
type ColumnMapping struct {
	Columns    map[Field]int     `json:"columns"`
	Collisions []HeaderCollision `json:"collisions,omitempty"`
}

// HeaderCollision records a header that also matched a canonical field
// already bound to an earlier column. First match wins; the collision is
// surfaced so the user can double-check the auto-mapping.
type HeaderCollision struct {
	Field  Field  `json:"field"`
	Column int    `json:"column"`
	Header string `json:"header"`
}

// Column returns the bound source column for a field.
func (m ColumnMapping) Column(f Field) (int, bool) {
	idx, ok := m.Columns[f]
	return idx, ok
}

// ImportedOrderRow is the mutable working unit of an import session.
// Quantity and UnitPrice stay nil when the raw cell failed to parse; the
// raw strings are kept so the validator can distinguish "missing" from
// "unparseable" on every re-run.
type ImportedOrderRow struct {
	ID       uuid.UUID `json:"id"`
	OrderRef string    `json:"order_ref,omitempty"`

	CustomerName    string `json:"customer_name"`
	CustomerMobile  string `json:"customer_mobile"`
	CustomerAddress string `json:"customer_address"`

	Governorate   string `json:"governorate,omitempty"`
	City          string `json:"city,omitempty"`
	GovernorateID *int64 `json:"governorate_id,omitempty"`
	CityID        *int64 `json:"city_id,omitempty"`

	ProductName   string           `json:"product_name"`
	Quantity      *int             `json:"quantity,omitempty"`
	QuantityRaw   string           `json:"quantity_raw,omitempty"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	UnitPriceRaw  string           `json:"unit_price_raw,omitempty"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	VendorNotes   string           `json:"vendor_notes,omitempty"`

	// Errors maps failing fields to error codes. Empty map = valid row.
	Errors map[Field]ErrorCode `json:"errors"`

	// LocationWarnings holds informational resolution messages. An
	// unresolved governorate/city never blocks submission.
	LocationWarnings []string `json:"location_warnings,omitempty"`
}

// IsValid reports whether the row passed the last validation run.
func (r *ImportedOrderRow) IsValid() bool {
	return len(r.Errors) == 0
}

// GroupKey returns the key rows are merged on: the order reference when
// present, else the row's own id so ungrouped rows become singleton orders.
func (r *ImportedOrderRow) GroupKey() string {
	if r.OrderRef != "" {
		return r.OrderRef
	}
	return r.ID.String()
}
