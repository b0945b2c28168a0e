package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SessionState is the orchestrator state visible to the UI. There is no
// separate upload state: CreateSession parses the file before the session
// exists, so sessions are born in preview.
type SessionState string

const (
	StatePreview    SessionState = "preview"
	StateSubmitting SessionState = "submitting"
	StateClosed     SessionState = "closed"
)

// SubmitStatus tells the UI what the submit action needs next.
type SubmitStatus string

const (
	// SubmitNeedsSkipConfirmation: some rows are invalid; the user must
	// confirm skipping them before anything is sent to the backend.
	SubmitNeedsSkipConfirmation SubmitStatus = "needs_skip_confirmation"
	// SubmitNeedsDuplicateConfirmation: the precheck reported duplicate
	// warnings; the user must approve before the real commit.
	SubmitNeedsDuplicateConfirmation SubmitStatus = "needs_duplicate_confirmation"
	// SubmitCompleted: the backend accepted the orders.
	SubmitCompleted SubmitStatus = "completed"
)

// =====================================================
// SESSION SNAPSHOT
// =====================================================

type SessionResponse struct {
	SessionID string              `json:"session_id"`
	State     SessionState        `json:"state"`
	Mapping   *ColumnMapping      `json:"mapping,omitempty"`
	Rows      []*ImportedOrderRow `json:"rows,omitempty"`
}

// =====================================================
// ROW EDIT REQUEST
// =====================================================

// EditRowRequest is a partial manual edit of one preview row. Nil fields
// are left untouched; the row is re-validated after the edit is applied.
type EditRowRequest struct {
	OrderRef        *string `json:"order_ref,omitempty"`
	CustomerName    *string `json:"customer_name,omitempty"`
	CustomerMobile  *string `json:"customer_mobile,omitempty"`
	CustomerAddress *string `json:"customer_address,omitempty"`
	Governorate     *string `json:"governorate,omitempty"`
	City            *string `json:"city,omitempty"`
	GovernorateID   *int64  `json:"governorate_id,omitempty"`
	CityID          *int64  `json:"city_id,omitempty"`
	ProductName     *string `json:"product_name,omitempty"`
	Quantity        *string `json:"quantity,omitempty"`
	UnitPrice       *string `json:"unit_price,omitempty"`
	PaymentMethod   *string `json:"payment_method,omitempty"`
	VendorNotes     *string `json:"vendor_notes,omitempty"`
}

// Validate validates EditRowRequest.
func (req EditRowRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.PaymentMethod, validation.NilOrNotEmpty, validation.By(func(v interface{}) error {
			p, _ := v.(*string)
			if p == nil {
				return nil
			}
			return validation.Validate(*p, validation.In(
				PaymentMethodCOD,
				PaymentMethodPrepaid,
				PaymentMethodWallet,
				PaymentMethodBankTransfer,
			))
		})),
	)
}

// =====================================================
// SUBMIT / CONFIRM
// =====================================================

// ConfirmRequest carries the user's explicit approvals when resuming a
// paused submission.
type ConfirmRequest struct {
	SkipInvalid       bool `json:"skip_invalid"`
	ApproveDuplicates bool `json:"approve_duplicates"`
}

// InvalidRowReport lists one invalid row for the skip-confirmation prompt.
type InvalidRowReport struct {
	Index  int                 `json:"index"`
	Errors map[Field]ErrorCode `json:"errors"`
}

// SubmitOutcome is returned by the submit and confirm actions. Exactly one
// of the optional sections is populated depending on Status.
type SubmitOutcome struct {
	Status SubmitStatus `json:"status"`

	// needs_skip_confirmation
	SkippedCount int                `json:"skipped_count,omitempty"`
	ValidCount   int                `json:"valid_count,omitempty"`
	InvalidRows  []InvalidRowReport `json:"invalid_rows,omitempty"`

	// needs_duplicate_confirmation
	Warnings []Warning `json:"warnings,omitempty"`

	// completed
	Result *ImportResult `json:"result,omitempty"`
}
