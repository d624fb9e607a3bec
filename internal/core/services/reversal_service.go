package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portsrepo "github.com/openledger-app/openledger/internal/core/ports/repositories"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/dto"
	"github.com/openledger-app/openledger/internal/middleware"
	"github.com/openledger-app/openledger/internal/utils/accounting"
)

const (
	notifyAutoReverseDone   = "auto_reversal_completed"
	notifyAutoReverseFailed = "auto_reversal_failed"

	// sweepActorID stamps audit fields of entries created by the sweep.
	sweepActorID = "system"
)

// reversalService owns the reversal/correction protocol and the auto-reversal
// sweep.
type reversalService struct {
	entryRepo portsrepo.EntryRepositoryFacade
	accounts  portssvc.AccountRegistry
	periods   portssvc.PeriodDirectory
	audit     portssvc.AuditSink
	notifier  portssvc.Notifier
}

// NewReversalService creates a new ReversalSvcFacade.
func NewReversalService(entryRepo portsrepo.EntryRepositoryFacade, accounts portssvc.AccountRegistry, periods portssvc.PeriodDirectory, audit portssvc.AuditSink, notifier portssvc.Notifier) portssvc.ReversalSvcFacade {
	return &reversalService{
		entryRepo: entryRepo,
		accounts:  accounts,
		periods:   periods,
		audit:     audit,
		notifier:  notifier,
	}
}

var _ portssvc.ReversalSvcFacade = (*reversalService)(nil)

// validateReversalSource loads the source entry with lines and checks every
// reversal precondition that does not depend on the reversal date.
func (s *reversalService) validateReversalSource(ctx context.Context, orgID, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.OrgID != orgID {
		return nil, apperrors.ErrNotFound
	}
	switch entry.Status {
	case domain.Reversed:
		return nil, fmt.Errorf("%w: entry %s", apperrors.ErrAlreadyReversed, entryID)
	case domain.Draft:
		return nil, fmt.Errorf("%w: entry %s is a draft; delete it instead of reversing", apperrors.ErrInvalidState, entryID)
	}
	if entry.ReversedEntryID != nil {
		return nil, fmt.Errorf("%w: entry %s is itself a reversal", apperrors.ErrInvalidState, entryID)
	}

	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
	}
	entry.Lines = lines
	return entry, nil
}

// mirrorLines builds the reversal lines: debit and credit swap sides,
// amounts, currency and rate carried through unchanged, base amounts likewise
// swapped. Line order is preserved.
func mirrorLines(reversingEntryID string, source []domain.JournalLine) []domain.JournalLine {
	mirrored := make([]domain.JournalLine, len(source))
	for i, l := range source {
		mirrored[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      reversingEntryID,
			LineNo:       l.LineNo,
			AccountID:    l.AccountID,
			Debit:        l.Credit,
			Credit:       l.Debit,
			CurrencyCode: l.CurrencyCode,
			ExchangeRate: l.ExchangeRate,
			BaseDebit:    l.BaseCredit,
			BaseCredit:   l.BaseDebit,
			Memo:         l.Memo,
		}
	}
	return mirrored
}

// reverse is the shared implementation behind Reverse and the sweep.
func (s *reversalService) reverse(ctx context.Context, source *domain.JournalEntry, reversalDate time.Time, reason, actorID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if reversalDate.Before(source.EntryDate) {
		return nil, fmt.Errorf("%w: reversal date %s precedes entry date %s",
			apperrors.ErrDateOrder, reversalDate.Format("2006-01-02"), source.EntryDate.Format("2006-01-02"))
	}

	period, err := s.periods.FindPeriod(ctx, source.OrgID, reversalDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrValidation, reversalDate.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("failed to resolve fiscal period: %w", err)
	}
	if !period.IsOpen() {
		return nil, fmt.Errorf("%w: period %s is closed for %s", apperrors.ErrPeriodClosed, period.Name, reversalDate.Format("2006-01-02"))
	}

	accountIDs := make([]string, len(source.Lines))
	for i, l := range source.Lines {
		accountIDs[i] = l.AccountID
	}
	accountsMap, err := s.accounts.GetAccountsByIDs(ctx, source.OrgID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for reversal: %w", err)
	}

	now := time.Now().UTC()
	reversingID := uuid.NewString()
	sourceRef := source.EntryID
	if source.EntryNumber != nil {
		sourceRef = *source.EntryNumber
	}

	reversing := domain.JournalEntry{
		EntryID:         reversingID,
		OrgID:           source.OrgID,
		PeriodID:        period.PeriodID,
		EntryDate:       reversalDate,
		Kind:            domain.KindReversing,
		Status:          domain.Posted,
		Description:     fmt.Sprintf("Reversal of %s: %s", sourceRef, reason),
		ReversedEntryID: &source.EntryID,
		PostedAt:        &now,
		Lines:           mirrorLines(reversingID, source.Lines),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	postings, deltas, err := buildMaterialization(reversing, accountsMap, now)
	if err != nil {
		return nil, err
	}

	key := domain.SequenceKeyFor(source.OrgID, domain.KindReversing, reversalDate)
	number, err := s.entryRepo.ReverseEntry(ctx, *source, reversing, postings, deltas, key)
	if err != nil {
		logger.Error("Failed to reverse entry", slog.String("error", err.Error()), slog.String("entry_id", source.EntryID))
		return nil, err
	}
	reversing.EntryNumber = &number

	recordAudit(ctx, s.audit, "entry.reversed", "journal_entry", source.EntryID, map[string]any{
		"orgID": source.OrgID, "reversingEntryID": reversingID, "reversingNumber": number, "reason": reason,
	})
	logger.Info("Entry reversed", slog.String("entry_id", source.EntryID), slog.String("reversing_entry_id", reversingID))
	return &reversing, nil
}

// Reverse posts a mirror entry and flips the source to REVERSED, atomically.
func (s *reversalService) Reverse(ctx context.Context, orgID, entryID string, req dto.ReverseEntryRequest, actorID string) (*domain.JournalEntry, error) {
	source, err := s.validateReversalSource(ctx, orgID, entryID)
	if err != nil {
		return nil, err
	}
	return s.reverse(ctx, source, req.Date, req.Reason, actorID)
}

// ScheduleAutoReverse stores a future auto-reversal date on a posted entry.
func (s *reversalService) ScheduleAutoReverse(ctx context.Context, orgID, entryID string, req dto.ScheduleAutoReverseRequest, actorID string) error {
	entry, err := s.validateReversalSource(ctx, orgID, entryID)
	if err != nil {
		return err
	}
	if !req.Date.After(entry.EntryDate) {
		return fmt.Errorf("%w: auto-reverse date %s must follow entry date %s",
			apperrors.ErrDateOrder, req.Date.Format("2006-01-02"), entry.EntryDate.Format("2006-01-02"))
	}

	now := time.Now().UTC()
	if err := s.entryRepo.SetAutoReverseDate(ctx, entryID, &req.Date, actorID, now); err != nil {
		return fmt.Errorf("failed to schedule auto-reversal: %w", err)
	}

	recordAudit(ctx, s.audit, "entry.auto_reverse_scheduled", "journal_entry", entryID, map[string]any{
		"orgID": orgID, "date": req.Date,
	})
	return nil
}

// CancelAutoReverse clears a pending auto-reversal date.
func (s *reversalService) CancelAutoReverse(ctx context.Context, orgID, entryID string, actorID string) error {
	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.OrgID != orgID {
		return apperrors.ErrNotFound
	}
	if entry.AutoReverseDate == nil {
		return fmt.Errorf("%w: entry %s has no pending auto-reversal", apperrors.ErrInvalidState, entryID)
	}

	now := time.Now().UTC()
	if err := s.entryRepo.SetAutoReverseDate(ctx, entryID, nil, actorID, now); err != nil {
		return fmt.Errorf("failed to cancel auto-reversal: %w", err)
	}

	recordAudit(ctx, s.audit, "entry.auto_reverse_cancelled", "journal_entry", entryID, map[string]any{"orgID": orgID})
	return nil
}

// RunAutoReversalSweep reverses every posted entry whose auto-reverse date is
// at or before asOf. Each entry is an independent unit of work with its own
// failure boundary: one closed period or race does not abort the sweep.
func (s *reversalService) RunAutoReversalSweep(ctx context.Context, asOf time.Time) (*domain.AutoReversalSweepResult, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	due, err := s.entryRepo.ListDueAutoReversals(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list due auto-reversals: %w", err)
	}

	result := &domain.AutoReversalSweepResult{
		AsOf:    asOf,
		Results: make([]domain.SweepEntryResult, 0, len(due)),
	}

	for _, header := range due {
		result.Processed++
		entryResult := domain.SweepEntryResult{
			EntryID:   header.EntryID,
			CreatedBy: header.CreatedBy,
		}
		if header.EntryNumber != nil {
			entryResult.EntryNumber = *header.EntryNumber
		}

		reversing, err := s.sweepOne(ctx, header)
		if err != nil {
			result.Failed++
			entryResult.Error = err.Error()
			logger.Warn("Auto-reversal failed for entry",
				slog.String("entry_id", header.EntryID),
				slog.String("error", err.Error()))
			s.notify(ctx, notifyAutoReverseFailed, header, map[string]any{"error": err.Error()})
		} else {
			result.Successful++
			entryResult.Reversed = true
			entryResult.ReversingEntryID = &reversing.EntryID
			s.notify(ctx, notifyAutoReverseDone, header, map[string]any{"reversingEntryID": reversing.EntryID})
		}
		result.Results = append(result.Results, entryResult)
	}

	logger.Info("Auto-reversal sweep finished",
		slog.Int("processed", result.Processed),
		slog.Int("successful", result.Successful),
		slog.Int("failed", result.Failed))
	return result, nil
}

// sweepOne reverses one due entry on its scheduled date and clears the
// schedule on success.
func (s *reversalService) sweepOne(ctx context.Context, header domain.JournalEntry) (*domain.JournalEntry, error) {
	if header.AutoReverseDate == nil {
		return nil, fmt.Errorf("%w: entry %s has no auto-reverse date", apperrors.ErrInvalidState, header.EntryID)
	}
	reversalDate := *header.AutoReverseDate

	source, err := s.validateReversalSource(ctx, header.OrgID, header.EntryID)
	if err != nil {
		return nil, err
	}
	reversing, err := s.reverse(ctx, source, reversalDate, "scheduled auto-reversal", sweepActorID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.entryRepo.SetAutoReverseDate(ctx, header.EntryID, nil, sweepActorID, now); err != nil {
		// The reversal itself committed; a stale schedule is harmless because
		// the entry is no longer POSTED and will not match the next sweep.
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to clear auto-reverse date after reversal",
			slog.String("entry_id", header.EntryID), slog.String("error", err.Error()))
	}
	return reversing, nil
}

// notify sends a sweep notification to the entry's originator. Failures are
// logged, never retried synchronously.
func (s *reversalService) notify(ctx context.Context, notificationType string, entry domain.JournalEntry, data map[string]any) {
	if s.notifier == nil || entry.CreatedBy == "" {
		return
	}
	payload := map[string]any{"entryID": entry.EntryID}
	if entry.EntryNumber != nil {
		payload["entryNumber"] = *entry.EntryNumber
	}
	for k, v := range data {
		payload[k] = v
	}
	if err := s.notifier.Send(ctx, notificationType, []string{entry.CreatedBy}, payload); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to send sweep notification",
			slog.String("type", notificationType),
			slog.String("entry_id", entry.EntryID),
			slog.String("error", err.Error()))
	}
}

// CreateCorrection posts a supplementary balanced entry linked to a posted
// original. The original's status is untouched; the correction carries only
// the delta.
func (s *reversalService) CreateCorrection(ctx context.Context, orgID, entryID string, req dto.CreateCorrectionRequest, actorID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if original.OrgID != orgID {
		return nil, apperrors.ErrNotFound
	}
	if original.Status != domain.Posted {
		return nil, fmt.Errorf("%w: entry %s is %s, only posted entries can be corrected", apperrors.ErrInvalidState, entryID, original.Status)
	}

	period, err := s.periods.FindPeriod(ctx, orgID, req.Date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrValidation, req.Date.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("failed to resolve fiscal period: %w", err)
	}
	if !period.IsOpen() {
		return nil, fmt.Errorf("%w: period %s is closed for %s", apperrors.ErrPeriodClosed, period.Name, req.Date.Format("2006-01-02"))
	}

	correctionID := uuid.NewString()
	lines := buildLines(correctionID, req.Lines)
	if err := accounting.ValidateEntryLines(lines); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	accountIDs := make([]string, len(lines))
	for i, l := range lines {
		accountIDs[i] = l.AccountID
	}
	accountsMap, err := s.accounts.GetAccountsByIDs(ctx, orgID, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for correction: %w", err)
	}
	for _, l := range lines {
		acc, ok := accountsMap[l.AccountID]
		if !ok || acc.OrgID != orgID {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, l.AccountID)
		}
		if !acc.Postable() {
			return nil, fmt.Errorf("%w: account %s is not postable", apperrors.ErrValidation, acc.Code)
		}
	}

	originalRef := original.EntryID
	if original.EntryNumber != nil {
		originalRef = *original.EntryNumber
	}

	now := time.Now().UTC()
	correction := domain.JournalEntry{
		EntryID:          correctionID,
		OrgID:            orgID,
		PeriodID:         period.PeriodID,
		EntryDate:        req.Date,
		Kind:             domain.KindAdjusting,
		Status:           domain.Posted,
		Description:      fmt.Sprintf("Correction of %s: %s", originalRef, req.Reason),
		CorrectedEntryID: &original.EntryID,
		PostedAt:         &now,
		Lines:            lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	postings, deltas, err := buildMaterialization(correction, accountsMap, now)
	if err != nil {
		return nil, err
	}

	key := domain.SequenceKeyFor(orgID, domain.KindAdjusting, req.Date)
	number, err := s.entryRepo.PostEntry(ctx, correction, postings, deltas, key)
	if err != nil {
		logger.Error("Failed to post correction entry", slog.String("error", err.Error()), slog.String("original_entry_id", entryID))
		return nil, err
	}
	correction.EntryNumber = &number

	recordAudit(ctx, s.audit, "entry.corrected", "journal_entry", entryID, map[string]any{
		"orgID": orgID, "correctionEntryID": correctionID, "correctionNumber": number, "reason": req.Reason,
	})
	logger.Info("Correction entry posted", slog.String("original_entry_id", entryID), slog.String("correction_entry_id", correctionID))
	return &correction, nil
}
