package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"deliveryops-backend/internal/domains/importer/model"
	locationModel "deliveryops-backend/internal/domains/location/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	mu             sync.Mutex
	calls          []model.ImportOrdersRequest
	precheckResult model.ImportResult
	precheckErr    error
	submitErr      error
}

func (g *stubGateway) ImportOrders(ctx context.Context, req model.ImportOrdersRequest) (*model.ImportResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()

	if req.CheckOnly {
		if g.precheckErr != nil {
			return nil, g.precheckErr
		}
		result := g.precheckResult
		return &result, nil
	}

	if g.submitErr != nil {
		return nil, g.submitErr
	}
	return &model.ImportResult{SuccessCount: len(req.Orders)}, nil
}

type stubRefs struct {
	governorates []locationModel.Governorate
	cities       []locationModel.City
	err          error
}

func (s *stubRefs) ReferenceData(ctx context.Context) ([]locationModel.Governorate, []locationModel.City, error) {
	return s.governorates, s.cities, s.err
}

func (s *stubRefs) Invalidate(ctx context.Context) error { return nil }

const importHeader = "Order Ref,Customer Name,Customer Mobile,Customer Address,Governorate,City,Product Name,Quantity,Unit Price,Payment Method,Notes\n"

func newTestService(gateway *stubGateway, refs *stubRefs) ImportServiceInterface {
	if refs == nil {
		refs = &stubRefs{err: errors.New("reference data unavailable")}
	}
	return NewImportService(gateway, refs)
}

func uploadCSV(t *testing.T, svc ImportServiceInterface, csvData string) *model.SessionResponse {
	t.Helper()
	session, err := svc.CreateSession(context.Background(), "orders.csv", strings.NewReader(csvData), int64(len(csvData)))
	require.NoError(t, err)
	return session
}

func TestImportFlow_SkipInvalidThenAutoSubmit(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(gateway, nil)

	csvData := importHeader +
		"A1,Ahmed,01012345678,12 Tahrir St,,,T-Shirt,1,100,cod,\n" +
		"A2,Mona,,5 Nile St,,,Cap,2,50,cod,\n" + // missing mobile
		"A3,Omar,01198765432,8 Ramses St,,,Jeans,1,300,cod,\n"

	session := uploadCSV(t, svc, csvData)
	assert.Equal(t, model.StatePreview, session.State)
	require.Len(t, session.Rows, 3)

	// Invalid row pauses the flow before anything reaches the backend.
	outcome, err := svc.Submit(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmitNeedsSkipConfirmation, outcome.Status)
	assert.Equal(t, 1, outcome.SkippedCount)
	assert.Equal(t, 2, outcome.ValidCount)
	require.Len(t, outcome.InvalidRows, 1)
	assert.Equal(t, 1, outcome.InvalidRows[0].Index)
	assert.Equal(t, model.ErrCodeMobileRequired, outcome.InvalidRows[0].Errors[model.FieldCustomerMobile])
	assert.Empty(t, gateway.calls)

	// Confirming the skip prechecks, and with zero warnings the real
	// submit is issued automatically.
	outcome, err = svc.Confirm(context.Background(), session.SessionID, model.ConfirmRequest{SkipInvalid: true})
	require.NoError(t, err)
	assert.Equal(t, model.SubmitCompleted, outcome.Status)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, 2, outcome.Result.SuccessCount)

	require.Len(t, gateway.calls, 2)
	assert.True(t, gateway.calls[0].CheckOnly)
	assert.Len(t, gateway.calls[0].Orders, 2)
	assert.False(t, gateway.calls[1].CheckOnly)
	assert.False(t, gateway.calls[1].ApproveDuplicates)

	// Success discards the session.
	_, err = svc.Session(session.SessionID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestImportFlow_ExistingDuplicateNeedsApproval(t *testing.T) {
	orderNo := "ORD-991"
	gateway := &stubGateway{
		precheckResult: model.ImportResult{
			Warnings: []model.Warning{{
				Type:               model.WarningExistingOrderDuplicate,
				Index:              0,
				MatchedOrderNumber: &orderNo,
				Message:            "order already exists",
			}},
			RequiresConfirmation: true,
		},
	}
	svc := newTestService(gateway, nil)

	session := uploadCSV(t, svc, importHeader+
		"A1,Ahmed,01012345678,12 Tahrir St,,,T-Shirt,1,100,cod,\n")

	outcome, err := svc.Submit(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmitNeedsDuplicateConfirmation, outcome.Status)
	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, model.WarningExistingOrderDuplicate, outcome.Warnings[0].Type)
	assert.Equal(t, orderNo, *outcome.Warnings[0].MatchedOrderNumber)

	// The session stays in preview with the payload discarded.
	snapshot, err := svc.Session(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatePreview, snapshot.State)

	// The user's explicit approval skips the precheck and commits.
	outcome, err = svc.Confirm(context.Background(), session.SessionID, model.ConfirmRequest{ApproveDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, model.SubmitCompleted, outcome.Status)

	last := gateway.calls[len(gateway.calls)-1]
	assert.False(t, last.CheckOnly)
	assert.True(t, last.ApproveDuplicates)
}

func TestImportFlow_PayloadDuplicateSurfacedBeforeCommit(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(gateway, nil)

	line := "Ahmed,01012345678,12 Tahrir St,,,T-Shirt,1,100,cod,\n"
	session := uploadCSV(t, svc, importHeader+","+line+","+line)

	outcome, err := svc.Submit(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmitNeedsDuplicateConfirmation, outcome.Status)
	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, model.WarningPayloadDuplicate, outcome.Warnings[0].Type)
	assert.Equal(t, 0, *outcome.Warnings[0].MatchedIndex)
	assert.Equal(t, 1, outcome.Warnings[0].Index)
}

func TestImportFlow_DuplicateWarningsUsePreviewIndexes(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(gateway, nil)

	// Row 0 is invalid and gets skipped; rows 1 and 2 duplicate each
	// other. The duplicate warning must point at rows 1 and 2 of the
	// preview, the same index space the invalid-row report uses.
	session := uploadCSV(t, svc, importHeader+
		"A0,Mona,,5 Nile St,,,Cap,2,50,cod,\n"+
		",Ahmed,01012345678,12 Tahrir St,,,T-Shirt,1,100,cod,\n"+
		",Ahmed,01012345678,12 Tahrir St,,,T-Shirt,1,100,cod,\n")

	outcome, err := svc.Submit(context.Background(), session.SessionID)
	require.NoError(t, err)
	require.Equal(t, model.SubmitNeedsSkipConfirmation, outcome.Status)

	outcome, err = svc.Confirm(context.Background(), session.SessionID, model.ConfirmRequest{SkipInvalid: true})
	require.NoError(t, err)
	assert.Equal(t, model.SubmitNeedsDuplicateConfirmation, outcome.Status)
	require.Len(t, outcome.Warnings, 1)
	assert.Equal(t, 2, outcome.Warnings[0].Index)
	require.NotNil(t, outcome.Warnings[0].MatchedIndex)
	assert.Equal(t, 1, *outcome.Warnings[0].MatchedIndex)
}

// blockingGateway parks every call until released, so tests can observe a
// session mid-submission.
type blockingGateway struct {
	entered chan struct{}
	release chan struct{}
}

func newBlockingGateway() *blockingGateway {
	return &blockingGateway{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (g *blockingGateway) ImportOrders(ctx context.Context, req model.ImportOrdersRequest) (*model.ImportResult, error) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return &model.ImportResult{SuccessCount: len(req.Orders)}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSubmit_SecondSubmitWhileInFlightRejected(t *testing.T) {
	gateway := newBlockingGateway()
	svc := NewImportService(gateway, &stubRefs{err: errors.New("reference data unavailable")})

	session := uploadCSV(t, svc, importHeader+
		"A1,Ahmed,01012345678,addr,,,Tee,1,10,cod,\n")

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), session.SessionID)
		done <- err
	}()
	<-gateway.entered

	_, err := svc.Submit(context.Background(), session.SessionID)
	assert.ErrorIs(t, err, model.ErrSubmitInProgress)

	_, err = svc.EditRow(context.Background(), session.SessionID, 0, model.EditRowRequest{})
	assert.ErrorIs(t, err, model.ErrSubmitInProgress)

	close(gateway.release)
	require.NoError(t, <-done)
}

func TestClose_TearsDownInFlightSubmit(t *testing.T) {
	gateway := newBlockingGateway()
	svc := NewImportService(gateway, &stubRefs{err: errors.New("reference data unavailable")})

	session := uploadCSV(t, svc, importHeader+
		"A1,Ahmed,01012345678,addr,,,Tee,1,10,cod,\n")

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), session.SessionID)
		done <- err
	}()
	<-gateway.entered

	// Closing cancels the session context, which aborts the parked
	// gateway call; the waiting Submit must not report a stale result.
	require.NoError(t, svc.Close(session.SessionID))
	assert.ErrorIs(t, <-done, model.ErrSessionClosed)

	_, err := svc.Session(session.SessionID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestImportFlow_BackendFailureKeepsRows(t *testing.T) {
	gateway := &stubGateway{submitErr: errors.New("connection refused")}
	svc := newTestService(gateway, nil)

	session := uploadCSV(t, svc, importHeader+
		"A1,Ahmed,01012345678,12 Tahrir St,,,T-Shirt,1,100,cod,\n")

	_, err := svc.Submit(context.Background(), session.SessionID)

	var submitErr *model.SubmissionError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "submit", submitErr.Stage)

	// Nothing is lost: the session is back in preview with its rows.
	snapshot, err := svc.Session(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatePreview, snapshot.State)
	assert.Len(t, snapshot.Rows, 1)

	// Retry after the backend recovers.
	gateway.submitErr = nil
	outcome, err := svc.Submit(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmitCompleted, outcome.Status)
}

func TestImportFlow_PrecheckFailureKeepsRows(t *testing.T) {
	gateway := &stubGateway{precheckErr: errors.New("timeout")}
	svc := newTestService(gateway, nil)

	session := uploadCSV(t, svc, importHeader+
		"A1,Ahmed,01012345678,12 Tahrir St,,,T-Shirt,1,100,cod,\n")

	_, err := svc.Submit(context.Background(), session.SessionID)

	var submitErr *model.SubmissionError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "precheck", submitErr.Stage)

	snapshot, err := svc.Session(session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.StatePreview, snapshot.State)
}

func TestEditRow_Revalidates(t *testing.T) {
	svc := newTestService(&stubGateway{}, nil)

	session := uploadCSV(t, svc, importHeader+
		"A1,Ahmed,123,12 Tahrir St,,,T-Shirt,1,100,cod,\n")
	require.Equal(t, model.ErrCodeMobileInvalid, session.Rows[0].Errors[model.FieldCustomerMobile])

	mobile := "01012345678"
	updated, err := svc.EditRow(context.Background(), session.SessionID, 0, model.EditRowRequest{
		CustomerMobile: &mobile,
	})
	require.NoError(t, err)
	assert.NotContains(t, updated.Rows[0].Errors, model.FieldCustomerMobile)
}

func TestEditRow_ReparsesNumericCells(t *testing.T) {
	svc := newTestService(&stubGateway{}, nil)

	session := uploadCSV(t, svc, importHeader+
		"A1,Ahmed,01012345678,12 Tahrir St,,,T-Shirt,zz,100,cod,\n")
	require.Equal(t, model.ErrCodeQtyInvalid, session.Rows[0].Errors[model.FieldQuantity])

	qty := "3"
	updated, err := svc.EditRow(context.Background(), session.SessionID, 0, model.EditRowRequest{Quantity: &qty})
	require.NoError(t, err)
	require.NotNil(t, updated.Rows[0].Quantity)
	assert.Equal(t, 3, *updated.Rows[0].Quantity)
	assert.NotContains(t, updated.Rows[0].Errors, model.FieldQuantity)
}

func TestEditRow_OutOfRange(t *testing.T) {
	svc := newTestService(&stubGateway{}, nil)
	session := uploadCSV(t, svc, importHeader+
		"A1,Ahmed,01012345678,addr,,,Tee,1,10,cod,\n")

	_, err := svc.EditRow(context.Background(), session.SessionID, 5, model.EditRowRequest{})
	assert.ErrorIs(t, err, model.ErrRowIndexOutOfRange)
}

func TestCreateSession_ResolvesLocationsWhenReferenceAvailable(t *testing.T) {
	refs := &stubRefs{
		governorates: []locationModel.Governorate{{ID: 1, NameEN: "Cairo", NameAR: "القاهرة"}},
		cities:       []locationModel.City{{ID: 10, GovernorateID: 1, NameEN: "Nasr City", NameAR: "مدينة نصر"}},
	}
	svc := newTestService(&stubGateway{}, refs)

	session := uploadCSV(t, svc, importHeader+
		"A1,Ahmed,01012345678,addr,Cairo,Nasr City,Tee,1,10,cod,\n")

	row := session.Rows[0]
	require.NotNil(t, row.GovernorateID)
	assert.Equal(t, int64(1), *row.GovernorateID)
	require.NotNil(t, row.CityID)
	assert.Equal(t, int64(10), *row.CityID)
}

func TestClose_DiscardsSession(t *testing.T) {
	svc := newTestService(&stubGateway{}, nil)
	session := uploadCSV(t, svc, importHeader+
		"A1,Ahmed,01012345678,addr,,,Tee,1,10,cod,\n")

	require.NoError(t, svc.Close(session.SessionID))

	_, err := svc.Session(session.SessionID)
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	assert.ErrorIs(t, svc.Close(session.SessionID), model.ErrSessionNotFound)
}

func TestSubmit_NothingToSubmitWhenAllRowsInvalid(t *testing.T) {
	svc := newTestService(&stubGateway{}, nil)
	session := uploadCSV(t, svc, importHeader+
		"A1,,123,,,,,,,,\n")

	outcome, err := svc.Submit(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmitNeedsSkipConfirmation, outcome.Status)

	_, err = svc.Confirm(context.Background(), session.SessionID, model.ConfirmRequest{SkipInvalid: true})
	assert.ErrorIs(t, err, model.ErrNothingToSubmit)
}

func TestSubmit_GroupedRowsShareOneOrder(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(gateway, nil)

	session := uploadCSV(t, svc, importHeader+
		"G1,Ahmed,01012345678,addr,,,T-Shirt,1,100,cod,\n"+
		"G1,Ahmed,01012345678,addr,,,Jeans,2,300,cod,\n")

	outcome, err := svc.Submit(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmitCompleted, outcome.Status)
	assert.Equal(t, 1, outcome.Result.SuccessCount)

	require.Len(t, gateway.calls[0].Orders, 1)
	assert.Len(t, gateway.calls[0].Orders[0].Items, 2)
}

func TestSubmit_UnknownSession(t *testing.T) {
	svc := newTestService(&stubGateway{}, nil)
	_, err := svc.Submit(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func makeCSVRows(n int) string {
	var b strings.Builder
	b.WriteString(importHeader)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "R%d,Name%d,0101234%04d,addr %d,,,Product %d,1,10,cod,\n", i, i, i, i, i)
	}
	return b.String()
}

func TestSubmit_LargeBatchStaysOrdered(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(gateway, nil)

	session := uploadCSV(t, svc, makeCSVRows(200))
	require.Len(t, session.Rows, 200)

	outcome, err := svc.Submit(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmitCompleted, outcome.Status)

	orders := gateway.calls[0].Orders
	require.Len(t, orders, 200)
	assert.Equal(t, "Product 0", orders[0].Items[0].ProductName)
	assert.Equal(t, "Product 199", orders[199].Items[0].ProductName)
}
