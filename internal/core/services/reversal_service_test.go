package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/core/services"
	"github.com/openledger-app/openledger/internal/dto"
)

type ReversalServiceTestSuite struct {
	suite.Suite
	mockEntryRepo  *MockEntryRepository
	mockAccounts   *MockAccountRegistry
	mockPeriods    *MockPeriodDirectory
	mockAudit      *MockAuditSink
	mockNotifier   *MockNotifier
	service        portssvc.ReversalSvcFacade
	orgID          string
	actorID        string
	cashAccount    domain.Account
	accrualAccount domain.Account
	januaryPeriod  domain.FiscalPeriod
	februaryPeriod domain.FiscalPeriod
}

func (suite *ReversalServiceTestSuite) SetupTest() {
	suite.mockEntryRepo = new(MockEntryRepository)
	suite.mockAccounts = new(MockAccountRegistry)
	suite.mockPeriods = new(MockPeriodDirectory)
	suite.mockAudit = new(MockAuditSink)
	suite.mockNotifier = new(MockNotifier)
	suite.service = services.NewReversalService(suite.mockEntryRepo, suite.mockAccounts, suite.mockPeriods, suite.mockAudit, suite.mockNotifier)

	suite.orgID = uuid.NewString()
	suite.actorID = uuid.NewString()

	suite.cashAccount = domain.Account{
		AccountID:     uuid.NewString(),
		OrgID:         suite.orgID,
		Code:          "1000",
		Name:          "Cash",
		Class:         1,
		NormalBalance: domain.SideDebit,
		CurrencyCode:  "USD",
		IsActive:      true,
		AllowsPosting: true,
	}
	suite.accrualAccount = domain.Account{
		AccountID:     uuid.NewString(),
		OrgID:         suite.orgID,
		Code:          "2100",
		Name:          "Accrued Expenses",
		Class:         2,
		NormalBalance: domain.SideCredit,
		CurrencyCode:  "USD",
		IsActive:      true,
		AllowsPosting: true,
	}
	suite.januaryPeriod = domain.FiscalPeriod{
		PeriodID:  uuid.NewString(),
		OrgID:     suite.orgID,
		Name:      "2024-01",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}
	suite.februaryPeriod = domain.FiscalPeriod{
		PeriodID:  uuid.NewString(),
		OrgID:     suite.orgID,
		Name:      "2024-02",
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}

	suite.mockAudit.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

func (suite *ReversalServiceTestSuite) accountsMap() map[string]domain.Account {
	return map[string]domain.Account{
		suite.cashAccount.AccountID:    suite.cashAccount,
		suite.accrualAccount.AccountID: suite.accrualAccount,
	}
}

// postedAccrual builds a posted January accrual: debit cash 250, credit
// accrued expenses 250.
func (suite *ReversalServiceTestSuite) postedAccrual() *domain.JournalEntry {
	entryID := uuid.NewString()
	number := "GEN-2024-01-000007"
	postedAt := time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC)
	return &domain.JournalEntry{
		EntryID:     entryID,
		OrgID:       suite.orgID,
		PeriodID:    suite.januaryPeriod.PeriodID,
		EntryNumber: &number,
		EntryDate:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Kind:        domain.KindStandard,
		Status:      domain.Posted,
		Description: "Month-end accrual",
		PostedAt:    &postedAt,
		AuditFields: domain.AuditFields{CreatedBy: suite.actorID},
	}
}

func (suite *ReversalServiceTestSuite) accrualLines(entryID string) []domain.JournalLine {
	return []domain.JournalLine{
		{
			LineID: uuid.NewString(), EntryID: entryID, LineNo: 1,
			AccountID: suite.cashAccount.AccountID,
			Debit:     decimal.NewFromInt(250), Credit: decimal.Zero,
			CurrencyCode: "USD", ExchangeRate: decimal.NewFromInt(1),
			BaseDebit: decimal.NewFromInt(250), BaseCredit: decimal.Zero,
		},
		{
			LineID: uuid.NewString(), EntryID: entryID, LineNo: 2,
			AccountID: suite.accrualAccount.AccountID,
			Debit:     decimal.Zero, Credit: decimal.NewFromInt(250),
			CurrencyCode: "USD", ExchangeRate: decimal.NewFromInt(1),
			BaseDebit: decimal.Zero, BaseCredit: decimal.NewFromInt(250),
		},
	}
}

// --- Reverse ---

func (suite *ReversalServiceTestSuite) TestReverse_MirrorsLines() {
	ctx := context.Background()
	source := suite.postedAccrual()
	lines := suite.accrualLines(source.EntryID)
	reversalDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	suite.mockEntryRepo.On("FindEntryByID", ctx, source.EntryID).Return(source, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, source.EntryID).Return(lines, nil).Once()
	suite.mockPeriods.On("FindPeriod", ctx, suite.orgID, reversalDate).Return(&suite.februaryPeriod, nil).Once()
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.orgID, mock.Anything).Return(suite.accountsMap(), nil).Once()

	var capturedOriginal, capturedReversing domain.JournalEntry
	var capturedKey domain.SequenceKey
	suite.mockEntryRepo.On("ReverseEntry", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			capturedOriginal = args.Get(1).(domain.JournalEntry)
			capturedReversing = args.Get(2).(domain.JournalEntry)
			capturedKey = args.Get(5).(domain.SequenceKey)
		}).
		Return("REV-2024-02-000001", nil).Once()

	reversing, err := suite.service.Reverse(ctx, suite.orgID, source.EntryID, dto.ReverseEntryRequest{
		Date:   reversalDate,
		Reason: "accrual unwound",
	}, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(domain.KindReversing, reversing.Kind)
	suite.Equal(domain.Posted, reversing.Status)
	suite.Require().NotNil(reversing.ReversedEntryID)
	suite.Equal(source.EntryID, *reversing.ReversedEntryID)
	suite.Equal(suite.februaryPeriod.PeriodID, reversing.PeriodID)
	suite.Require().NotNil(reversing.EntryNumber)
	suite.Equal("REV-2024-02-000001", *reversing.EntryNumber)

	// Debit and credit swap sides; amounts, order and line numbers carry over.
	suite.Require().Len(capturedReversing.Lines, 2)
	suite.Equal(1, capturedReversing.Lines[0].LineNo)
	suite.Equal(suite.cashAccount.AccountID, capturedReversing.Lines[0].AccountID)
	suite.True(capturedReversing.Lines[0].Debit.IsZero())
	suite.True(capturedReversing.Lines[0].Credit.Equal(decimal.NewFromInt(250)))
	suite.True(capturedReversing.Lines[0].BaseCredit.Equal(decimal.NewFromInt(250)))
	suite.Equal(suite.accrualAccount.AccountID, capturedReversing.Lines[1].AccountID)
	suite.True(capturedReversing.Lines[1].Debit.Equal(decimal.NewFromInt(250)))
	suite.True(capturedReversing.Lines[1].Credit.IsZero())

	suite.Equal(source.EntryID, capturedOriginal.EntryID)
	suite.Equal("REV", capturedKey.Prefix)
	suite.Equal(2, capturedKey.Month)

	suite.mockEntryRepo.AssertExpectations(suite.T())
}

func (suite *ReversalServiceTestSuite) TestReverse_DateBeforeEntryRejected() {
	ctx := context.Background()
	source := suite.postedAccrual()
	lines := suite.accrualLines(source.EntryID)

	suite.mockEntryRepo.On("FindEntryByID", ctx, source.EntryID).Return(source, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, source.EntryID).Return(lines, nil).Once()

	_, err := suite.service.Reverse(ctx, suite.orgID, source.EntryID, dto.ReverseEntryRequest{
		Date:   time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), // before Jan 15
		Reason: "too early",
	}, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDateOrder)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "ReverseEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReversalServiceTestSuite) TestReverse_AlreadyReversed() {
	ctx := context.Background()
	source := suite.postedAccrual()
	source.Status = domain.Reversed

	suite.mockEntryRepo.On("FindEntryByID", ctx, source.EntryID).Return(source, nil).Once()

	_, err := suite.service.Reverse(ctx, suite.orgID, source.EntryID, dto.ReverseEntryRequest{
		Date:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Reason: "again",
	}, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAlreadyReversed)
}

func (suite *ReversalServiceTestSuite) TestReverse_ReversalOfReversalRejected() {
	ctx := context.Background()
	source := suite.postedAccrual()
	otherID := uuid.NewString()
	source.ReversedEntryID = &otherID // this entry is itself a reversal

	suite.mockEntryRepo.On("FindEntryByID", ctx, source.EntryID).Return(source, nil).Once()

	_, err := suite.service.Reverse(ctx, suite.orgID, source.EntryID, dto.ReverseEntryRequest{
		Date:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Reason: "chain",
	}, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

func (suite *ReversalServiceTestSuite) TestReverse_ClosedPeriod() {
	ctx := context.Background()
	source := suite.postedAccrual()
	lines := suite.accrualLines(source.EntryID)
	reversalDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	closed := suite.februaryPeriod
	closed.Status = domain.PeriodClosed

	suite.mockEntryRepo.On("FindEntryByID", ctx, source.EntryID).Return(source, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, source.EntryID).Return(lines, nil).Once()
	suite.mockPeriods.On("FindPeriod", ctx, suite.orgID, reversalDate).Return(&closed, nil).Once()

	_, err := suite.service.Reverse(ctx, suite.orgID, source.EntryID, dto.ReverseEntryRequest{
		Date:   reversalDate,
		Reason: "late",
	}, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrPeriodClosed)
}

// --- Auto-reverse scheduling ---

func (suite *ReversalServiceTestSuite) TestScheduleAutoReverse_Success() {
	ctx := context.Background()
	source := suite.postedAccrual()
	lines := suite.accrualLines(source.EntryID)
	reverseDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	suite.mockEntryRepo.On("FindEntryByID", ctx, source.EntryID).Return(source, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, source.EntryID).Return(lines, nil).Once()
	suite.mockEntryRepo.On("SetAutoReverseDate", ctx, source.EntryID, &reverseDate, suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.ScheduleAutoReverse(ctx, suite.orgID, source.EntryID, dto.ScheduleAutoReverseRequest{Date: reverseDate}, suite.actorID)

	suite.Require().NoError(err)
	suite.mockEntryRepo.AssertExpectations(suite.T())
}

func (suite *ReversalServiceTestSuite) TestScheduleAutoReverse_DateNotAfterEntry() {
	ctx := context.Background()
	source := suite.postedAccrual()
	lines := suite.accrualLines(source.EntryID)

	suite.mockEntryRepo.On("FindEntryByID", ctx, source.EntryID).Return(source, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, source.EntryID).Return(lines, nil).Once()

	err := suite.service.ScheduleAutoReverse(ctx, suite.orgID, source.EntryID, dto.ScheduleAutoReverseRequest{
		Date: source.EntryDate, // same day, must be strictly after
	}, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDateOrder)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "SetAutoReverseDate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReversalServiceTestSuite) TestCancelAutoReverse_NothingPending() {
	ctx := context.Background()
	source := suite.postedAccrual()

	suite.mockEntryRepo.On("FindEntryByID", ctx, source.EntryID).Return(source, nil).Once()

	err := suite.service.CancelAutoReverse(ctx, suite.orgID, source.EntryID, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
}

// --- Sweep ---

func (suite *ReversalServiceTestSuite) TestRunAutoReversalSweep_FailureIsolation() {
	ctx := context.Background()
	asOf := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

	okEntry := suite.postedAccrual()
	okDate := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	okEntry.AutoReverseDate = &okDate

	failEntry := suite.postedAccrual()
	failDate := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	failEntry.AutoReverseDate = &failDate

	suite.mockEntryRepo.On("ListDueAutoReversals", ctx, asOf).Return([]domain.JournalEntry{*okEntry, *failEntry}, nil).Once()

	// First entry reverses cleanly.
	suite.mockEntryRepo.On("FindEntryByID", ctx, okEntry.EntryID).Return(okEntry, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, okEntry.EntryID).Return(suite.accrualLines(okEntry.EntryID), nil).Once()
	suite.mockPeriods.On("FindPeriod", ctx, suite.orgID, okDate).Return(&suite.februaryPeriod, nil).Once()
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.orgID, mock.Anything).Return(suite.accountsMap(), nil).Once()
	suite.mockEntryRepo.On("ReverseEntry", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("REV-2024-02-000002", nil).Once()
	suite.mockEntryRepo.On("SetAutoReverseDate", ctx, okEntry.EntryID, (*time.Time)(nil), "system", mock.AnythingOfType("time.Time")).Return(nil).Once()

	// Second entry lands in a closed period and fails in isolation.
	closed := suite.februaryPeriod
	closed.Status = domain.PeriodClosed
	suite.mockEntryRepo.On("FindEntryByID", ctx, failEntry.EntryID).Return(failEntry, nil).Once()
	suite.mockEntryRepo.On("FindLinesByEntryID", ctx, failEntry.EntryID).Return(suite.accrualLines(failEntry.EntryID), nil).Once()
	suite.mockPeriods.On("FindPeriod", ctx, suite.orgID, failDate).Return(&closed, nil).Once()

	suite.mockNotifier.On("Send", ctx, "auto_reversal_completed", []string{suite.actorID}, mock.Anything).Return(nil).Once()
	suite.mockNotifier.On("Send", ctx, "auto_reversal_failed", []string{suite.actorID}, mock.Anything).Return(nil).Once()

	result, err := suite.service.RunAutoReversalSweep(ctx, asOf)

	suite.Require().NoError(err)
	suite.Equal(2, result.Processed)
	suite.Equal(1, result.Successful)
	suite.Equal(1, result.Failed)
	suite.Require().Len(result.Results, 2)
	suite.True(result.Results[0].Reversed)
	suite.NotNil(result.Results[0].ReversingEntryID)
	suite.False(result.Results[1].Reversed)
	suite.Contains(result.Results[1].Error, "closed")

	suite.mockEntryRepo.AssertExpectations(suite.T())
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *ReversalServiceTestSuite) TestRunAutoReversalSweep_Empty() {
	ctx := context.Background()
	asOf := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)

	suite.mockEntryRepo.On("ListDueAutoReversals", ctx, asOf).Return([]domain.JournalEntry{}, nil).Once()

	result, err := suite.service.RunAutoReversalSweep(ctx, asOf)

	suite.Require().NoError(err)
	suite.Equal(0, result.Processed)
	suite.Empty(result.Results)
	suite.mockNotifier.AssertNotCalled(suite.T(), "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Corrections ---

func (suite *ReversalServiceTestSuite) TestCreateCorrection_Success() {
	ctx := context.Background()
	original := suite.postedAccrual()
	correctionDate := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	req := dto.CreateCorrectionRequest{
		Date:   correctionDate,
		Reason: "accrual was 50 short",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.cashAccount.AccountID, Debit: decimal.NewFromInt(50), CurrencyCode: "USD"},
			{AccountID: suite.accrualAccount.AccountID, Credit: decimal.NewFromInt(50), CurrencyCode: "USD"},
		},
	}

	suite.mockEntryRepo.On("FindEntryByID", ctx, original.EntryID).Return(original, nil).Once()
	suite.mockPeriods.On("FindPeriod", ctx, suite.orgID, correctionDate).Return(&suite.februaryPeriod, nil).Once()
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.orgID, mock.Anything).Return(suite.accountsMap(), nil).Once()

	var capturedCorrection domain.JournalEntry
	var capturedKey domain.SequenceKey
	suite.mockEntryRepo.On("PostEntry", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			capturedCorrection = args.Get(1).(domain.JournalEntry)
			capturedKey = args.Get(4).(domain.SequenceKey)
		}).
		Return("ADJ-2024-000003", nil).Once()

	correction, err := suite.service.CreateCorrection(ctx, suite.orgID, original.EntryID, req, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(domain.KindAdjusting, correction.Kind)
	suite.Equal(domain.Posted, correction.Status)
	suite.Require().NotNil(correction.CorrectedEntryID)
	suite.Equal(original.EntryID, *correction.CorrectedEntryID)
	suite.Require().NotNil(correction.EntryNumber)
	suite.Equal("ADJ-2024-000003", *correction.EntryNumber)
	suite.Contains(correction.Description, *original.EntryNumber)

	// Corrections carry only the delta; the original is untouched.
	suite.Require().Len(capturedCorrection.Lines, 2)
	suite.True(capturedCorrection.Lines[0].Debit.Equal(decimal.NewFromInt(50)))

	// Adjusting entries draw from the yearly sequence.
	suite.Equal("ADJ", capturedKey.Prefix)
	suite.Equal(0, capturedKey.Month)

	suite.mockEntryRepo.AssertExpectations(suite.T())
}

func (suite *ReversalServiceTestSuite) TestCreateCorrection_DraftRejected() {
	ctx := context.Background()
	original := suite.postedAccrual()
	original.Status = domain.Draft

	suite.mockEntryRepo.On("FindEntryByID", ctx, original.EntryID).Return(original, nil).Once()

	_, err := suite.service.CreateCorrection(ctx, suite.orgID, original.EntryID, dto.CreateCorrectionRequest{
		Date:   time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		Reason: "n/a",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.cashAccount.AccountID, Debit: decimal.NewFromInt(50), CurrencyCode: "USD"},
			{AccountID: suite.accrualAccount.AccountID, Credit: decimal.NewFromInt(50), CurrencyCode: "USD"},
		},
	}, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "PostEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReversalServiceTestSuite) TestCreateCorrection_UnbalancedRejected() {
	ctx := context.Background()
	original := suite.postedAccrual()

	suite.mockEntryRepo.On("FindEntryByID", ctx, original.EntryID).Return(original, nil).Once()
	suite.mockPeriods.On("FindPeriod", ctx, suite.orgID, mock.Anything).Return(&suite.februaryPeriod, nil).Once()

	_, err := suite.service.CreateCorrection(ctx, suite.orgID, original.EntryID, dto.CreateCorrectionRequest{
		Date:   time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		Reason: "off",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.cashAccount.AccountID, Debit: decimal.NewFromInt(50), CurrencyCode: "USD"},
			{AccountID: suite.accrualAccount.AccountID, Credit: decimal.NewFromInt(40), CurrencyCode: "USD"},
		},
	}, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestReversalService(t *testing.T) {
	suite.Run(t, new(ReversalServiceTestSuite))
}
