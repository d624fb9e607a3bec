package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
)

// buildMaterialization converts a to-be-posted entry's lines, in line order,
// into immutable ledger postings plus the balance deltas to apply to each
// touched (account, period) cell. It is pure: the atomic application happens
// in the repository transaction.
//
// Base totals must balance exactly after per-line rounding; a residual here
// would silently drift the ledger, so it is rejected rather than tolerated.
func buildMaterialization(entry domain.JournalEntry, accounts map[string]domain.Account, postedAt time.Time) ([]domain.LedgerPosting, []domain.BalanceDelta, error) {
	if !entry.BaseTotalDebit().Equal(entry.BaseTotalCredit()) {
		return nil, nil, fmt.Errorf("%w: base debits sum is %s and base credits sum is %s",
			apperrors.ErrUnbalanced, entry.BaseTotalDebit().String(), entry.BaseTotalCredit().String())
	}

	postings := make([]domain.LedgerPosting, 0, len(entry.Lines))
	deltaIndex := make(map[string]int)
	deltas := make([]domain.BalanceDelta, 0, len(entry.Lines))

	for _, line := range entry.Lines {
		account, ok := accounts[line.AccountID]
		if !ok {
			return nil, nil, fmt.Errorf("account %s not found during materialization", line.AccountID)
		}

		postings = append(postings, domain.LedgerPosting{
			PostingID:  uuid.NewString(),
			OrgID:      entry.OrgID,
			EntryID:    entry.EntryID,
			LineID:     line.LineID,
			LineNo:     line.LineNo,
			AccountID:  line.AccountID,
			PeriodID:   entry.PeriodID,
			Date:       entry.EntryDate,
			BaseDebit:  line.BaseDebit,
			BaseCredit: line.BaseCredit,
			PostedAt:   postedAt,
		})

		// Deltas are aggregated per (account, period) cell in first-touch
		// order so concurrent posters contend on one upsert per cell.
		cellKey := line.AccountID + "|" + entry.PeriodID
		idx, seen := deltaIndex[cellKey]
		if !seen {
			deltaIndex[cellKey] = len(deltas)
			deltas = append(deltas, domain.BalanceDelta{
				AccountID:  line.AccountID,
				PeriodID:   entry.PeriodID,
				NormalSide: account.NormalBalance,
				Debit:      line.BaseDebit,
				Credit:     line.BaseCredit,
			})
			continue
		}
		deltas[idx].Debit = deltas[idx].Debit.Add(line.BaseDebit)
		deltas[idx].Credit = deltas[idx].Credit.Add(line.BaseCredit)
	}

	return postings, deltas, nil
}
