package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portsrepo "github.com/openledger-app/openledger/internal/core/ports/repositories"
	portssvc "github.com/openledger-app/openledger/internal/core/ports/services"
	"github.com/openledger-app/openledger/internal/dto"
	"github.com/openledger-app/openledger/internal/middleware"
	"github.com/openledger-app/openledger/internal/utils/accounting"
)

// entryService owns the journal entry lifecycle: drafts, posting, reads.
type entryService struct {
	entryRepo portsrepo.EntryRepositoryFacade
	accounts  portssvc.AccountRegistry
	periods   portssvc.PeriodDirectory
	audit     portssvc.AuditSink
}

// NewEntryService creates a new EntrySvcFacade.
func NewEntryService(entryRepo portsrepo.EntryRepositoryFacade, accounts portssvc.AccountRegistry, periods portssvc.PeriodDirectory, audit portssvc.AuditSink) portssvc.EntrySvcFacade {
	return &entryService{
		entryRepo: entryRepo,
		accounts:  accounts,
		periods:   periods,
		audit:     audit,
	}
}

var _ portssvc.EntrySvcFacade = (*entryService)(nil)

// recordAudit forwards an audit event and logs a degraded-mode warning on
// failure. Audit failures never block the underlying financial mutation.
func recordAudit(ctx context.Context, sink portssvc.AuditSink, action, entityType, entityID string, details map[string]any) {
	if sink == nil {
		return
	}
	if err := sink.Record(ctx, action, entityType, entityID, details); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Audit record failed; continuing in degraded mode",
			slog.String("action", action),
			slog.String("entity_id", entityID),
			slog.String("error", err.Error()))
	}
}

// buildLines converts request lines into domain lines, computing base-currency
// amounts from the exchange rate. Line numbers are 1-based and preserved
// end-to-end.
func buildLines(entryID string, reqLines []dto.CreateLineRequest) []domain.JournalLine {
	lines := make([]domain.JournalLine, len(reqLines))
	for i, lr := range reqLines {
		rate := lr.ExchangeRate
		if rate.IsZero() {
			rate = decimal.NewFromInt(1)
		}
		lines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			LineNo:       i + 1,
			AccountID:    lr.AccountID,
			Debit:        lr.Debit,
			Credit:       lr.Credit,
			CurrencyCode: lr.CurrencyCode,
			ExchangeRate: rate,
			BaseDebit:    accounting.ToBaseAmount(lr.Debit, rate),
			BaseCredit:   accounting.ToBaseAmount(lr.Credit, rate),
			Memo:         lr.Memo,
		}
	}
	return lines
}

// resolveOpenPeriod finds the period enclosing the date and requires it to be
// open for posting.
func (s *entryService) resolveOpenPeriod(ctx context.Context, orgID string, date time.Time) (*domain.FiscalPeriod, error) {
	period, err := s.periods.FindPeriod(ctx, orgID, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no fiscal period covers %s", apperrors.ErrValidation, date.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("failed to resolve fiscal period: %w", err)
	}
	if !period.IsOpen() {
		return nil, fmt.Errorf("%w: period %s is closed for %s", apperrors.ErrPeriodClosed, period.Name, date.Format("2006-01-02"))
	}
	return period, nil
}

// validateAccounts fetches the referenced accounts and checks every one is
// postable, active and belongs to the organization. Returns the accounts map
// for downstream sign/materialization use.
func (s *entryService) validateAccounts(ctx context.Context, orgID string, lines []domain.JournalLine) (map[string]domain.Account, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; !ok {
			seen[l.AccountID] = struct{}{}
			ids = append(ids, l.AccountID)
		}
	}
	if len(ids) < 2 {
		return nil, fmt.Errorf("%w: entry must affect at least two different accounts", apperrors.ErrValidation)
	}

	accountsMap, err := s.accounts.GetAccountsByIDs(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range ids {
		acc, found := accountsMap[id]
		if !found || acc.OrgID != orgID {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s (%s) is inactive", apperrors.ErrValidation, acc.Code, id)
		}
		if !acc.AllowsPosting {
			return nil, fmt.Errorf("%w: account %s (%s) does not allow direct posting", apperrors.ErrValidation, acc.Code, id)
		}
	}
	return accountsMap, nil
}

// CreateDraft validates and persists a new draft entry. The entry carries no
// number until it is posted.
func (s *entryService) CreateDraft(ctx context.Context, orgID string, req dto.CreateEntryRequest, creatorID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown entry kind %q", apperrors.ErrValidation, req.Kind)
	}
	if req.Description == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}

	period, err := s.resolveOpenPeriod(ctx, orgID, req.Date)
	if err != nil {
		return nil, err
	}

	entryID := uuid.NewString()
	lines := buildLines(entryID, req.Lines)
	if err := accounting.ValidateEntryLines(lines); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if _, err := s.validateAccounts(ctx, orgID, lines); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := domain.JournalEntry{
		EntryID:     entryID,
		OrgID:       orgID,
		PeriodID:    period.PeriodID,
		EntryDate:   req.Date,
		Kind:        req.Kind,
		Status:      domain.Draft,
		Description: req.Description,
		Lines:       lines,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorID,
		},
	}

	if err := s.entryRepo.SaveDraft(ctx, entry); err != nil {
		logger.Error("Failed to save draft entry", slog.String("error", err.Error()), slog.String("org_id", orgID))
		return nil, fmt.Errorf("failed to save draft entry: %w", err)
	}

	recordAudit(ctx, s.audit, "entry.draft_created", "journal_entry", entryID, map[string]any{
		"orgID": orgID, "date": req.Date, "kind": req.Kind, "lines": len(lines),
	})
	logger.Info("Draft entry created", slog.String("entry_id", entryID), slog.String("org_id", orgID))
	return &entry, nil
}

// loadOrgEntry fetches an entry header and verifies it belongs to the
// organization, obscuring cross-org existence as not-found.
func (s *entryService) loadOrgEntry(ctx context.Context, orgID, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.OrgID != orgID {
		return nil, apperrors.ErrNotFound
	}
	return entry, nil
}

// UpdateDraft replaces a draft's lines wholesale and re-validates balance.
func (s *entryService) UpdateDraft(ctx context.Context, orgID, entryID string, req dto.UpdateDraftRequest, updaterID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.loadOrgEntry(ctx, orgID, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsDraft() {
		return nil, fmt.Errorf("%w: entry %s is %s, only drafts are mutable", apperrors.ErrInvalidState, entryID, entry.Status)
	}

	if req.Date != nil {
		period, err := s.resolveOpenPeriod(ctx, orgID, *req.Date)
		if err != nil {
			return nil, err
		}
		entry.EntryDate = *req.Date
		entry.PeriodID = period.PeriodID
	}
	if req.Description != nil {
		entry.Description = *req.Description
	}

	if len(req.Lines) > 0 {
		lines := buildLines(entryID, req.Lines)
		if err := accounting.ValidateEntryLines(lines); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		if _, err := s.validateAccounts(ctx, orgID, lines); err != nil {
			return nil, err
		}
		entry.Lines = lines
	} else {
		existing, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
		if err != nil {
			return nil, fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
		}
		entry.Lines = existing
	}

	now := time.Now().UTC()
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = updaterID

	if err := s.entryRepo.ReplaceDraftLines(ctx, *entry); err != nil {
		logger.Error("Failed to update draft entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to update draft entry: %w", err)
	}

	recordAudit(ctx, s.audit, "entry.draft_updated", "journal_entry", entryID, map[string]any{"orgID": orgID})
	logger.Info("Draft entry updated", slog.String("entry_id", entryID))
	return entry, nil
}

// DeleteDraft removes a draft entry and its lines.
func (s *entryService) DeleteDraft(ctx context.Context, orgID, entryID string, deleterID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.loadOrgEntry(ctx, orgID, entryID)
	if err != nil {
		return err
	}
	if !entry.IsDraft() {
		return fmt.Errorf("%w: entry %s is %s, only drafts may be deleted", apperrors.ErrInvalidState, entryID, entry.Status)
	}

	if err := s.entryRepo.DeleteDraft(ctx, entryID); err != nil {
		logger.Error("Failed to delete draft entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return fmt.Errorf("failed to delete draft entry: %w", err)
	}

	recordAudit(ctx, s.audit, "entry.draft_deleted", "journal_entry", entryID, map[string]any{"orgID": orgID, "deletedBy": deleterID})
	logger.Info("Draft entry deleted", slog.String("entry_id", entryID))
	return nil
}

// Post transitions a draft to POSTED. Balance and period-open status are
// re-validated at post time since drafts may sit unposted across a period
// close. Number allocation, posting rows, balance increments and the status
// flip are one atomic repository transaction.
func (s *entryService) Post(ctx context.Context, orgID, entryID string, posterID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.loadOrgEntry(ctx, orgID, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsDraft() {
		return nil, fmt.Errorf("%w: entry %s is %s", apperrors.ErrAlreadyPosted, entryID, entry.Status)
	}

	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
	}
	entry.Lines = lines

	if err := accounting.ValidateEntryLines(lines); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnbalanced, err)
	}
	period, err := s.resolveOpenPeriod(ctx, orgID, entry.EntryDate)
	if err != nil {
		return nil, err
	}
	entry.PeriodID = period.PeriodID

	accountsMap, err := s.validateAccounts(ctx, orgID, lines)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	postings, deltas, err := buildMaterialization(*entry, accountsMap, now)
	if err != nil {
		return nil, err
	}

	key := domain.SequenceKeyFor(orgID, entry.Kind, entry.EntryDate)
	entry.Status = domain.Posted
	entry.PostedAt = &now
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = posterID

	number, err := s.entryRepo.PostEntry(ctx, *entry, postings, deltas, key)
	if err != nil {
		logger.Error("Failed to post entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, err
	}
	entry.EntryNumber = &number

	recordAudit(ctx, s.audit, "entry.posted", "journal_entry", entryID, map[string]any{
		"orgID": orgID, "entryNumber": number, "postings": len(postings),
	})
	logger.Info("Entry posted", slog.String("entry_id", entryID), slog.String("entry_number", number))
	return entry, nil
}

// GetEntry retrieves an entry with its lines.
func (s *entryService) GetEntry(ctx context.Context, orgID, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.loadOrgEntry(ctx, orgID, entryID)
	if err != nil {
		return nil, err
	}
	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
	}
	entry.Lines = lines
	return entry, nil
}

// ListEntries retrieves a paginated list of entries for an organization.
func (s *entryService) ListEntries(ctx context.Context, orgID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	filter := portsrepo.EntryListFilter{}
	if params.Status != nil {
		status := domain.EntryStatus(*params.Status)
		filter.Status = &status
	}
	if params.Kind != nil {
		kind := domain.EntryKind(*params.Kind)
		filter.Kind = &kind
	}

	entries, nextToken, err := s.entryRepo.ListEntriesByOrg(ctx, orgID, limit, params.NextToken, filter)
	if err != nil {
		logger.Error("Failed to list entries", slog.String("error", err.Error()), slog.String("org_id", orgID))
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	responses := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		if params.IncludeLines {
			lines, err := s.entryRepo.FindLinesByEntryID(ctx, entries[i].EntryID)
			if err != nil {
				logger.Warn("Failed to hydrate lines for entry", slog.String("entry_id", entries[i].EntryID), slog.String("error", err.Error()))
			} else {
				entries[i].Lines = lines
			}
		}
		responses[i] = dto.ToEntryResponse(&entries[i])
	}

	return &dto.ListEntriesResponse{Entries: responses, NextToken: nextToken}, nil
}
