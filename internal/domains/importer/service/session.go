package service

import (
	"context"
	"errors"
	"io"
	"sync"

	"deliveryops-backend/internal/domains/importer/model"
	locationService "deliveryops-backend/internal/domains/location/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// importSession owns the working row set of one open import dialog. It is
// created on upload, mutated only under its mutex (the HTTP handlers stand
// in for the single UI writer) and discarded on close or submit success.
type importSession struct {
	mu      sync.Mutex
	id      string
	state   model.SessionState
	mapping model.ColumnMapping
	rows    []*model.ImportedOrderRow

	// ctx is the session lifetime context. Close cancels it, which tears
	// down any in-flight precheck/submit call instead of letting a stale
	// result arrive at a dead session.
	ctx    context.Context
	cancel context.CancelFunc
}

type importService struct {
	mu       sync.RWMutex
	sessions map[string]*importSession

	gateway OrdersGateway
	refs    locationService.ReferenceServiceInterface
}

// NewImportService creates the import session service.
func NewImportService(gateway OrdersGateway, refs locationService.ReferenceServiceInterface) ImportServiceInterface {
	return &importService{
		sessions: make(map[string]*importSession),
		gateway:  gateway,
		refs:     refs,
	}
}

// CreateSession runs the upload pipeline (parse, auto-map, normalize,
// resolve locations when reference data is reachable, validate) and opens
// a preview session over the result.
func (m *importService) CreateSession(ctx context.Context, filename string, r io.Reader, size int64) (*model.SessionResponse, error) {
	sheet, err := ParseImportFile(filename, r, size)
	if err != nil {
		return nil, err
	}

	mapping := AutoMapColumns(sheet.Headers)
	rows := MapRowsToOrders(sheet.Rows, mapping)

	// Location resolution is best-effort at upload time; it re-runs on
	// row edits once reference data is reachable.
	m.resolveLocations(ctx, rows)
	ValidateAllRows(rows)

	sessionCtx, cancel := context.WithCancel(context.Background())
	s := &importSession{
		id:      uuid.New().String(),
		state:   model.StatePreview,
		mapping: mapping,
		rows:    rows,
		ctx:     sessionCtx,
		cancel:  cancel,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	log.Info().
		Str("session_id", s.id).
		Str("file_name", filename).
		Int("rows", len(rows)).
		Int("mapped_fields", len(mapping.Columns)).
		Int("collisions", len(mapping.Collisions)).
		Msg("Import session opened")

	return s.snapshot(), nil
}

// Session returns a snapshot of the session.
func (m *importService) Session(id string) (*model.SessionResponse, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(), nil
}

// EditRow applies a manual edit to one row, reparses the numeric cells,
// re-resolves the row's location and re-validates it.
func (m *importService) EditRow(ctx context.Context, id string, index int, req model.EditRowRequest) (*model.SessionResponse, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSubmittable(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.rows) {
		return nil, model.ErrRowIndexOutOfRange
	}

	row := s.rows[index]
	applyEdit(row, req)

	// Governorate/city text may have changed; recompute the ids from the
	// current text when reference data is reachable.
	if req.Governorate != nil || req.City != nil {
		m.resolveLocations(ctx, s.rows[index:index+1])
	}
	ValidateRow(row)

	return s.snapshotLocked(), nil
}

// Submit runs validation and starts the two-phase submission. Invalid rows
// pause the flow for a skip confirmation before anything reaches the
// backend.
func (m *importService) Submit(ctx context.Context, id string) (*model.SubmitOutcome, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSubmittable(); err != nil {
		return nil, err
	}

	ValidateAllRows(s.rows)
	valid, positions := validRows(s.rows)
	if len(valid) < len(s.rows) {
		return skipConfirmationOutcome(s.rows), nil
	}
	if len(valid) == 0 {
		return nil, model.ErrNothingToSubmit
	}

	return m.submitLocked(ctx, s, valid, positions, false)
}

// Confirm resumes a paused submission. SkipInvalid proceeds with only the
// valid subset; ApproveDuplicates skips the precheck and commits with the
// user's explicit duplicate override.
func (m *importService) Confirm(ctx context.Context, id string, req model.ConfirmRequest) (*model.SubmitOutcome, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSubmittable(); err != nil {
		return nil, err
	}

	ValidateAllRows(s.rows)
	valid, positions := validRows(s.rows)
	if len(valid) < len(s.rows) && !req.SkipInvalid {
		// Rows went (or stayed) invalid since the prompt; re-prompt rather
		// than silently dropping them.
		return skipConfirmationOutcome(s.rows), nil
	}
	if len(valid) == 0 {
		return nil, model.ErrNothingToSubmit
	}

	return m.submitLocked(ctx, s, valid, positions, req.ApproveDuplicates)
}

// Close cancels the session and discards the working row set. Safe to call
// on an already-closed session id.
func (m *importService) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return model.ErrSessionNotFound
	}

	s.mu.Lock()
	s.state = model.StateClosed
	s.rows = nil
	s.mu.Unlock()
	s.cancel()

	log.Info().Str("session_id", id).Msg("Import session closed")
	return nil
}

// submitLocked drives precheck and commit. Called with s.mu held; the lock
// is released around each backend call and the session re-checked after
// reacquiring it, since Close may have won the race meanwhile.
func (m *importService) submitLocked(ctx context.Context, s *importSession, validRows []*model.ImportedOrderRow, positions []int, approveDuplicates bool) (*model.SubmitOutcome, error) {
	orders := BuildOrderRequests(GroupRows(validRows))

	if !approveDuplicates {
		// positions keeps duplicate warnings in the same index space as
		// the skip-confirmation report when invalid rows were filtered out.
		payloadWarnings := DetectPayloadDuplicates(validRows, positions)

		result, err := m.callGateway(ctx, s, model.ImportOrdersRequest{
			Orders:    orders,
			CheckOnly: true,
		})
		if errors.Is(err, model.ErrSessionClosed) {
			return nil, err
		}
		if err != nil {
			return nil, &model.SubmissionError{Stage: "precheck", Err: err}
		}

		warnings := append(payloadWarnings, result.Warnings...)
		if len(warnings) > 0 || result.RequiresConfirmation {
			log.Info().
				Str("session_id", s.id).
				Int("warnings", len(warnings)).
				Msg("Precheck found duplicates, awaiting confirmation")
			return &model.SubmitOutcome{
				Status:   model.SubmitNeedsDuplicateConfirmation,
				Warnings: warnings,
			}, nil
		}
	}

	result, err := m.callGateway(ctx, s, model.ImportOrdersRequest{
		Orders:            orders,
		ApproveDuplicates: approveDuplicates,
	})
	if errors.Is(err, model.ErrSessionClosed) {
		return nil, err
	}
	if err != nil {
		// Non-destructive: the session stays in preview with every row
		// intact for retry.
		return nil, &model.SubmissionError{Stage: "submit", Err: err}
	}

	s.state = model.StateClosed
	s.rows = nil
	s.cancel()
	m.mu.Lock()
	delete(m.sessions, s.id)
	m.mu.Unlock()

	log.Info().
		Str("session_id", s.id).
		Int("success_count", result.SuccessCount).
		Int("warnings", len(result.Warnings)).
		Msg("Import submitted")

	return &model.SubmitOutcome{
		Status: model.SubmitCompleted,
		Result: result,
	}, nil
}

// callGateway performs one backend call with the session in the submitting
// state, dropping the session lock for the duration of the call.
func (m *importService) callGateway(ctx context.Context, s *importSession, req model.ImportOrdersRequest) (*model.ImportResult, error) {
	s.state = model.StateSubmitting
	s.mu.Unlock()

	callCtx, stop := sessionCallContext(ctx, s.ctx)
	result, err := m.gateway.ImportOrders(callCtx, req)
	stop()

	s.mu.Lock()
	if s.state == model.StateClosed {
		// Closed while the call was in flight; the result is dead.
		return nil, model.ErrSessionClosed
	}
	s.state = model.StatePreview
	return result, err
}

// sessionCallContext derives a call context from the HTTP request context
// that is additionally cancelled when the session is closed.
func sessionCallContext(ctx, sessionCtx context.Context) (context.Context, func()) {
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(sessionCtx, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

func (m *importService) get(id string) (*importSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s, nil
}

// resolveLocations resolves the rows against reference data, skipping
// silently when the lookup service is unreachable. Resolution is advisory
// and must never block the preview.
func (m *importService) resolveLocations(ctx context.Context, rows []*model.ImportedOrderRow) {
	governorates, cities, err := m.refs.ReferenceData(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Location reference data unavailable, skipping resolution")
		return
	}
	locationService.ResolveLocationIDs(rows, governorates, cities)
}

func (s *importSession) checkSubmittable() error {
	switch s.state {
	case model.StateSubmitting:
		return model.ErrSubmitInProgress
	case model.StateClosed:
		return model.ErrSessionClosed
	}
	if len(s.rows) == 0 {
		return model.ErrNoFileAttached
	}
	return nil
}

func (s *importSession) snapshot() *model.SessionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *importSession) snapshotLocked() *model.SessionResponse {
	rows := make([]*model.ImportedOrderRow, len(s.rows))
	copy(rows, s.rows)
	mapping := s.mapping
	return &model.SessionResponse{
		SessionID: s.id,
		State:     s.state,
		Mapping:   &mapping,
		Rows:      rows,
	}
}

// validRows returns the valid subset along with each row's index in the
// full preview.
func validRows(rows []*model.ImportedOrderRow) ([]*model.ImportedOrderRow, []int) {
	valid := make([]*model.ImportedOrderRow, 0, len(rows))
	positions := make([]int, 0, len(rows))
	for i, row := range rows {
		if row.IsValid() {
			valid = append(valid, row)
			positions = append(positions, i)
		}
	}
	return valid, positions
}

func skipConfirmationOutcome(rows []*model.ImportedOrderRow) *model.SubmitOutcome {
	outcome := &model.SubmitOutcome{Status: model.SubmitNeedsSkipConfirmation}
	for i, row := range rows {
		if row.IsValid() {
			outcome.ValidCount++
			continue
		}
		outcome.SkippedCount++
		outcome.InvalidRows = append(outcome.InvalidRows, model.InvalidRowReport{
			Index:  i,
			Errors: row.Errors,
		})
	}
	return outcome
}

func applyEdit(row *model.ImportedOrderRow, req model.EditRowRequest) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&row.OrderRef, req.OrderRef)
	setString(&row.CustomerName, req.CustomerName)
	setString(&row.CustomerMobile, req.CustomerMobile)
	setString(&row.CustomerAddress, req.CustomerAddress)
	setString(&row.Governorate, req.Governorate)
	setString(&row.City, req.City)
	setString(&row.ProductName, req.ProductName)
	setString(&row.PaymentMethod, req.PaymentMethod)
	setString(&row.VendorNotes, req.VendorNotes)

	if req.GovernorateID != nil {
		id := *req.GovernorateID
		row.GovernorateID = &id
	}
	if req.CityID != nil {
		id := *req.CityID
		row.CityID = &id
	}

	if req.Quantity != nil {
		row.QuantityRaw = *req.Quantity
		row.Quantity = nil
		if qty, err := parseQuantity(row.QuantityRaw); err == nil {
			row.Quantity = &qty
		}
	}
	if req.UnitPrice != nil {
		row.UnitPriceRaw = *req.UnitPrice
		row.UnitPrice = nil
		if price, err := parsePrice(row.UnitPriceRaw); err == nil {
			row.UnitPrice = &price
		}
	}
}
