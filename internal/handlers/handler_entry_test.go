package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/dto"
	"github.com/openledger-app/openledger/internal/handlers"
	"github.com/openledger-app/openledger/internal/middleware"
)

// --- Mock EntryService ---
type MockEntryService struct {
	mock.Mock
}

func (m *MockEntryService) CreateDraft(ctx context.Context, orgID string, req dto.CreateEntryRequest, creatorID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, orgID, req, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockEntryService) UpdateDraft(ctx context.Context, orgID, entryID string, req dto.UpdateDraftRequest, updaterID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, orgID, entryID, req, updaterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockEntryService) DeleteDraft(ctx context.Context, orgID, entryID string, deleterID string) error {
	args := m.Called(ctx, orgID, entryID, deleterID)
	return args.Error(0)
}

func (m *MockEntryService) Post(ctx context.Context, orgID, entryID string, posterID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, orgID, entryID, posterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockEntryService) GetEntry(ctx context.Context, orgID, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, orgID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockEntryService) ListEntries(ctx context.Context, orgID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, orgID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}

var _ portssvc.EntrySvcFacade = (*MockEntryService)(nil)

// --- Mock ReversalService ---
type MockReversalService struct {
	mock.Mock
}

func (m *MockReversalService) Reverse(ctx context.Context, orgID, entryID string, req dto.ReverseEntryRequest, actorID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, orgID, entryID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockReversalService) ScheduleAutoReverse(ctx context.Context, orgID, entryID string, req dto.ScheduleAutoReverseRequest, actorID string) error {
	args := m.Called(ctx, orgID, entryID, req, actorID)
	return args.Error(0)
}

func (m *MockReversalService) CancelAutoReverse(ctx context.Context, orgID, entryID string, actorID string) error {
	args := m.Called(ctx, orgID, entryID, actorID)
	return args.Error(0)
}

func (m *MockReversalService) RunAutoReversalSweep(ctx context.Context, asOf time.Time) (*domain.AutoReversalSweepResult, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AutoReversalSweepResult), args.Error(1)
}

func (m *MockReversalService) CreateCorrection(ctx context.Context, orgID, entryID string, req dto.CreateCorrectionRequest, actorID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, orgID, entryID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

var _ portssvc.ReversalSvcFacade = (*MockReversalService)(nil)

// --- Mock BalanceService ---
type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) AccountBalance(ctx context.Context, orgID, accountID string, asOf time.Time) (*domain.AccountBalanceResult, error) {
	args := m.Called(ctx, orgID, accountID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountBalanceResult), args.Error(1)
}

func (m *MockBalanceService) TrialBalance(ctx context.Context, orgID string, params dto.TrialBalanceParams) (*domain.TrialBalanceReport, error) {
	args := m.Called(ctx, orgID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalanceReport), args.Error(1)
}

func (m *MockBalanceService) ComparativeTrialBalance(ctx context.Context, orgID string, params dto.ComparativeTrialBalanceParams) (*domain.ComparativeTrialBalance, error) {
	args := m.Called(ctx, orgID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ComparativeTrialBalance), args.Error(1)
}

func (m *MockBalanceService) PeriodBalance(ctx context.Context, orgID, accountID, periodID string) (*domain.AccountPeriodBalance, error) {
	args := m.Called(ctx, orgID, accountID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountPeriodBalance), args.Error(1)
}

func (m *MockBalanceService) PeriodBalances(ctx context.Context, orgID, accountID string) ([]domain.AccountPeriodBalance, error) {
	args := m.Called(ctx, orgID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountPeriodBalance), args.Error(1)
}

var _ portssvc.BalanceSvcFacade = (*MockBalanceService)(nil)

// --- Mock WorkspaceService ---
type MockWorkspaceService struct {
	mock.Mock
}

func (m *MockWorkspaceService) CreateWorkspace(ctx context.Context, orgID string, req dto.CreateWorkspaceRequest, creatorID string) (*domain.WorkingTrialBalance, error) {
	args := m.Called(ctx, orgID, req, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkingTrialBalance), args.Error(1)
}

func (m *MockWorkspaceService) GetWorkspace(ctx context.Context, orgID, workspaceID string) (*domain.WorkingTrialBalance, error) {
	args := m.Called(ctx, orgID, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkingTrialBalance), args.Error(1)
}

func (m *MockWorkspaceService) AddColumn(ctx context.Context, orgID, workspaceID string, req dto.AddColumnRequest) (*domain.AdjustmentColumn, error) {
	args := m.Called(ctx, orgID, workspaceID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdjustmentColumn), args.Error(1)
}

func (m *MockWorkspaceService) RecordAdjustment(ctx context.Context, orgID, workspaceID string, req dto.RecordAdjustmentRequest, actorID string) (*domain.WorkingTrialBalance, error) {
	args := m.Called(ctx, orgID, workspaceID, req, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkingTrialBalance), args.Error(1)
}

func (m *MockWorkspaceService) LockWorkspace(ctx context.Context, orgID, workspaceID string, actorID string) (*domain.WorkingTrialBalance, error) {
	args := m.Called(ctx, orgID, workspaceID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkingTrialBalance), args.Error(1)
}

var _ portssvc.WorkspaceSvcFacade = (*MockWorkspaceService)(nil)

// --- Test Suite ---
type EntryHandlerTestSuite struct {
	suite.Suite
	router        *gin.Engine
	mockEntry     *MockEntryService
	mockReversal  *MockReversalService
	mockBalance   *MockBalanceService
	mockWorkspace *MockWorkspaceService

	orgID   string
	actorID string
}

func (suite *EntryHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	dto.RegisterValidations()

	suite.router = gin.New()
	suite.router.Use(middleware.ActorMiddleware())

	suite.mockEntry = new(MockEntryService)
	suite.mockReversal = new(MockReversalService)
	suite.mockBalance = new(MockBalanceService)
	suite.mockWorkspace = new(MockWorkspaceService)

	handlers.RegisterRoutes(suite.router, &portssvc.ServiceContainer{
		Entry:     suite.mockEntry,
		Reversal:  suite.mockReversal,
		Balance:   suite.mockBalance,
		Workspace: suite.mockWorkspace,
	})

	suite.orgID = uuid.NewString()
	suite.actorID = uuid.NewString()
}

func (suite *EntryHandlerTestSuite) sampleDraft() *domain.JournalEntry {
	return &domain.JournalEntry{
		EntryID:     uuid.NewString(),
		OrgID:       suite.orgID,
		PeriodID:    uuid.NewString(),
		EntryDate:   time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC),
		Kind:        domain.KindStandard,
		Status:      domain.Draft,
		Description: "Office supplies on account",
		Lines: []domain.JournalLine{
			{
				LineID:       uuid.NewString(),
				LineNo:       1,
				AccountID:    uuid.NewString(),
				Debit:        decimal.NewFromInt(120),
				CurrencyCode: "USD",
				ExchangeRate: decimal.NewFromInt(1),
				BaseDebit:    decimal.NewFromInt(120),
			},
			{
				LineID:       uuid.NewString(),
				LineNo:       2,
				AccountID:    uuid.NewString(),
				Credit:       decimal.NewFromInt(120),
				CurrencyCode: "USD",
				ExchangeRate: decimal.NewFromInt(1),
				BaseCredit:   decimal.NewFromInt(120),
			},
		},
	}
}

func (suite *EntryHandlerTestSuite) createDraftBody() map[string]any {
	return map[string]any{
		"date":        "2024-01-17T00:00:00Z",
		"kind":        "STANDARD",
		"description": "Office supplies on account",
		"lines": []map[string]any{
			{"accountID": uuid.NewString(), "debit": "120", "currencyCode": "USD"},
			{"accountID": uuid.NewString(), "credit": "120", "currencyCode": "USD"},
		},
	}
}

func (suite *EntryHandlerTestSuite) doJSON(method, url string, body any, withActor bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if withActor {
		req.Header.Set("X-Actor-ID", suite.actorID)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *EntryHandlerTestSuite) TestCreateDraft_Success() {
	expected := suite.sampleDraft()

	suite.mockEntry.On("CreateDraft",
		mock.Anything,
		suite.orgID,
		mock.MatchedBy(func(req dto.CreateEntryRequest) bool {
			return req.Kind == domain.KindStandard &&
				req.Description == "Office supplies on account" &&
				len(req.Lines) == 2
		}),
		suite.actorID,
	).Return(expected, nil).Once()

	url := fmt.Sprintf("/api/v1/orgs/%s/entries", suite.orgID)
	w := suite.doJSON(http.MethodPost, url, suite.createDraftBody(), true)

	suite.Equal(http.StatusCreated, w.Code)

	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expected.EntryID, resp.EntryID)
	suite.Equal("DRAFT", resp.Status)
	suite.Nil(resp.EntryNumber)
	suite.Len(resp.Lines, 2)

	suite.mockEntry.AssertExpectations(suite.T())
}

func (suite *EntryHandlerTestSuite) TestCreateDraft_MissingActorHeader() {
	url := fmt.Sprintf("/api/v1/orgs/%s/entries", suite.orgID)
	w := suite.doJSON(http.MethodPost, url, suite.createDraftBody(), false)

	suite.Equal(http.StatusUnauthorized, w.Code)

	var resp map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("X-Actor-ID header is required", resp["error"])

	suite.mockEntry.AssertNotCalled(suite.T(), "CreateDraft",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EntryHandlerTestSuite) TestCreateDraft_UnknownKindRejectedAtBinding() {
	body := suite.createDraftBody()
	body["kind"] = "SPECULATIVE"

	url := fmt.Sprintf("/api/v1/orgs/%s/entries", suite.orgID)
	w := suite.doJSON(http.MethodPost, url, body, true)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockEntry.AssertNotCalled(suite.T(), "CreateDraft",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EntryHandlerTestSuite) TestCreateDraft_SingleLineRejectedAtBinding() {
	body := suite.createDraftBody()
	body["lines"] = []map[string]any{
		{"accountID": uuid.NewString(), "debit": "120", "currencyCode": "USD"},
	}

	url := fmt.Sprintf("/api/v1/orgs/%s/entries", suite.orgID)
	w := suite.doJSON(http.MethodPost, url, body, true)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockEntry.AssertNotCalled(suite.T(), "CreateDraft",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EntryHandlerTestSuite) TestGetEntry_Success() {
	expected := suite.sampleDraft()

	suite.mockEntry.On("GetEntry", mock.Anything, suite.orgID, expected.EntryID).
		Return(expected, nil).Once()

	url := fmt.Sprintf("/api/v1/orgs/%s/entries/%s", suite.orgID, expected.EntryID)
	w := suite.doJSON(http.MethodGet, url, nil, true)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expected.EntryID, resp.EntryID)
	suite.Equal(expected.Description, resp.Description)

	suite.mockEntry.AssertExpectations(suite.T())
}

func (suite *EntryHandlerTestSuite) TestGetEntry_NotFound() {
	entryID := uuid.NewString()

	suite.mockEntry.On("GetEntry", mock.Anything, suite.orgID, entryID).
		Return(nil, fmt.Errorf("entry %s: %w", entryID, apperrors.ErrNotFound)).Once()

	url := fmt.Sprintf("/api/v1/orgs/%s/entries/%s", suite.orgID, entryID)
	w := suite.doJSON(http.MethodGet, url, nil, true)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockEntry.AssertExpectations(suite.T())
}

func (suite *EntryHandlerTestSuite) TestPostEntry_Success() {
	posted := suite.sampleDraft()
	posted.Status = domain.Posted
	number := "GEN-2024-01-000042"
	posted.EntryNumber = &number
	now := time.Date(2024, 1, 18, 9, 30, 0, 0, time.UTC)
	posted.PostedAt = &now

	suite.mockEntry.On("Post", mock.Anything, suite.orgID, posted.EntryID, suite.actorID).
		Return(posted, nil).Once()

	url := fmt.Sprintf("/api/v1/orgs/%s/entries/%s/post", suite.orgID, posted.EntryID)
	w := suite.doJSON(http.MethodPost, url, nil, true)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("POSTED", resp.Status)
	suite.Require().NotNil(resp.EntryNumber)
	suite.Equal(number, *resp.EntryNumber)

	suite.mockEntry.AssertExpectations(suite.T())
}

func (suite *EntryHandlerTestSuite) TestPostEntry_AlreadyPostedConflict() {
	entryID := uuid.NewString()

	suite.mockEntry.On("Post", mock.Anything, suite.orgID, entryID, suite.actorID).
		Return(nil, fmt.Errorf("entry %s: %w", entryID, apperrors.ErrAlreadyPosted)).Once()

	url := fmt.Sprintf("/api/v1/orgs/%s/entries/%s/post", suite.orgID, entryID)
	w := suite.doJSON(http.MethodPost, url, nil, true)

	suite.Equal(http.StatusConflict, w.Code)
	suite.mockEntry.AssertExpectations(suite.T())
}

func (suite *EntryHandlerTestSuite) TestListEntries_PassesQueryParams() {
	expected := &dto.ListEntriesResponse{
		Entries: []dto.EntryResponse{dto.ToEntryResponse(suite.sampleDraft())},
	}

	suite.mockEntry.On("ListEntries",
		mock.Anything,
		suite.orgID,
		mock.MatchedBy(func(p dto.ListEntriesParams) bool {
			return p.Limit == 5 && p.Status != nil && *p.Status == "POSTED"
		}),
	).Return(expected, nil).Once()

	url := fmt.Sprintf("/api/v1/orgs/%s/entries?limit=5&status=POSTED", suite.orgID)
	w := suite.doJSON(http.MethodGet, url, nil, true)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.ListEntriesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Entries, 1)
	suite.Nil(resp.NextToken)

	suite.mockEntry.AssertExpectations(suite.T())
}

func (suite *EntryHandlerTestSuite) TestDeleteDraft_Success() {
	entryID := uuid.NewString()

	suite.mockEntry.On("DeleteDraft", mock.Anything, suite.orgID, entryID, suite.actorID).
		Return(nil).Once()

	url := fmt.Sprintf("/api/v1/orgs/%s/entries/%s", suite.orgID, entryID)
	w := suite.doJSON(http.MethodDelete, url, nil, true)

	suite.Equal(http.StatusNoContent, w.Code)
	suite.mockEntry.AssertExpectations(suite.T())
}

// --- Run Test Suite ---
func TestEntryHandler(t *testing.T) {
	suite.Run(t, new(EntryHandlerTestSuite))
}
