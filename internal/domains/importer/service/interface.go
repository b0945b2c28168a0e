package service

import (
	"context"
	"io"

	"deliveryops-backend/internal/domains/importer/model"
)

// OrdersGateway is the backend collaborator that stores orders. The same
// endpoint serves the duplicate precheck (CheckOnly=true) and the real
// commit; the backend is the sole authority on existing-order duplicates.
type OrdersGateway interface {
	ImportOrders(ctx context.Context, req model.ImportOrdersRequest) (*model.ImportResult, error)
}

// ImportServiceInterface is the import session API consumed by the HTTP
// handlers. One session per open import dialog; sessions own their rows
// exclusively and are discarded on close.
type ImportServiceInterface interface {
	// CreateSession parses an uploaded spreadsheet, auto-maps its columns
	// and opens a preview session.
	CreateSession(ctx context.Context, filename string, r io.Reader, size int64) (*model.SessionResponse, error)

	// Session returns a snapshot of the session's state, mapping and rows.
	Session(id string) (*model.SessionResponse, error)

	// EditRow applies a manual edit to one preview row and re-validates it.
	EditRow(ctx context.Context, id string, index int, req model.EditRowRequest) (*model.SessionResponse, error)

	// Submit starts the two-phase submission for the session's rows.
	Submit(ctx context.Context, id string) (*model.SubmitOutcome, error)

	// Confirm resumes a paused submission with the user's approvals.
	Confirm(ctx context.Context, id string, req model.ConfirmRequest) (*model.SubmitOutcome, error)

	// Close cancels the session and discards its rows unconditionally.
	Close(id string) error
}
