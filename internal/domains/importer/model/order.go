package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// Payment methods accepted by the orders backend.
const (
	PaymentMethodCOD          = "cod"
	PaymentMethodPrepaid      = "prepaid"
	PaymentMethodWallet       = "wallet"
	PaymentMethodBankTransfer = "bank_transfer"
)

// WarningType tags a duplicate warning with its origin.
type WarningType string

const (
	WarningPayloadDuplicate       WarningType = "payload_duplicate"
	WarningExistingOrderDuplicate WarningType = "existing_order_duplicate"
)

// Warning is an advisory duplicate notice. It is shown to the user for
// confirmation and never persisted.
type Warning struct {
	Type               WarningType `json:"type"`
	Index              int         `json:"index"`
	MatchedIndex       *int        `json:"matched_index,omitempty"`
	MatchedOrderNumber *string     `json:"matched_order_number,omitempty"`
	Message            string      `json:"message"`
}

// OrderItem is one line item of a grouped order.
type OrderItem struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest is the wire-level unit submitted to the orders
// backend: one customer plus one or more line items. Built once per
// confirmed row group and immutable after construction.
type CreateOrderRequest struct {
	CustomerName    string      `json:"customer_name"`
	CustomerMobile  string      `json:"customer_mobile"`
	CustomerAddress string      `json:"customer_address"`
	GovernorateID   *int64      `json:"governorate_id,omitempty"`
	CityID          *int64      `json:"city_id,omitempty"`
	PaymentMethod   string      `json:"payment_method,omitempty"`
	VendorNotes     *string     `json:"vendor_notes,omitempty"`
	Items           []OrderItem `json:"items"`
}

// Validate validates CreateOrderRequest before it goes on the wire.
func (req CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.CustomerName, validation.Required),
		validation.Field(&req.CustomerMobile, validation.Required),
		validation.Field(&req.CustomerAddress, validation.Required),
		validation.Field(&req.PaymentMethod, validation.In(
			PaymentMethodCOD,
			PaymentMethodPrepaid,
			PaymentMethodWallet,
			PaymentMethodBankTransfer,
		)),
		validation.Field(&req.Items, validation.Required, validation.Length(1, 0)),
	)
}

// ImportOrdersRequest is the body of POST /orders/import on the backend
// collaborator. CheckOnly=true is the duplicate precheck; ApproveDuplicates
// carries the user's explicit override on the real commit.
type ImportOrdersRequest struct {
	Orders            []CreateOrderRequest `json:"orders"`
	CheckOnly         bool                 `json:"check_only,omitempty"`
	ApproveDuplicates bool                 `json:"approve_duplicates,omitempty"`
}

// ImportResult is the backend's answer to an import or precheck call.
type ImportResult struct {
	SuccessCount         int       `json:"success_count"`
	Warnings             []Warning `json:"warnings"`
	RequiresConfirmation bool      `json:"requires_confirmation"`
}
