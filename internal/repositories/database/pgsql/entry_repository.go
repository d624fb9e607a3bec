package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openledger-app/openledger/internal/apperrors"
	"github.com/openledger-app/openledger/internal/core/domain"
	portsrepo "github.com/openledger-app/openledger/internal/core/ports/repositories"
	"github.com/openledger-app/openledger/internal/utils/pagination"
)

type PgxEntryRepository struct {
	BaseRepository
}

// newPgxEntryRepository creates a new repository for journal entry data.
func newPgxEntryRepository(pool *pgxpool.Pool) portsrepo.EntryRepositoryFacade {
	return &PgxEntryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.EntryRepositoryFacade = (*PgxEntryRepository)(nil)

const entryColumns = `
	entry_id, org_id, period_id, entry_number, entry_date, kind, status, description,
	reversed_entry_id, reversing_entry_id, corrected_entry_id, auto_reverse_date, posted_at,
	created_at, created_by, last_updated_at, last_updated_by
`

// scanEntry scans one journal entry header row.
func scanEntry(row pgx.Row) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	var entryNumber, reversedID, reversingID, correctedID sql.NullString
	var autoReverse, postedAt sql.NullTime

	err := row.Scan(
		&e.EntryID,
		&e.OrgID,
		&e.PeriodID,
		&entryNumber,
		&e.EntryDate,
		&e.Kind,
		&e.Status,
		&e.Description,
		&reversedID,
		&reversingID,
		&correctedID,
		&autoReverse,
		&postedAt,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	if entryNumber.Valid {
		e.EntryNumber = &entryNumber.String
	}
	if reversedID.Valid {
		e.ReversedEntryID = &reversedID.String
	}
	if reversingID.Valid {
		e.ReversingEntryID = &reversingID.String
	}
	if correctedID.Valid {
		e.CorrectedEntryID = &correctedID.String
	}
	if autoReverse.Valid {
		e.AutoReverseDate = &autoReverse.Time
	}
	if postedAt.Valid {
		e.PostedAt = &postedAt.Time
	}
	return e, nil
}

// FindEntryByID retrieves an entry header by its ID.
func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`

	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find entry by ID "+entryID, err)
	}
	return &entry, nil
}

// FindLinesByEntryID retrieves all lines of an entry in line order.
func (r *PgxEntryRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, entry_id, line_no, account_id, debit, credit, currency_code,
		       exchange_rate, base_debit, base_credit, memo
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY line_no;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query lines for entry "+entryID, err)
	}
	defer rows.Close()

	lines := []domain.JournalLine{}
	for rows.Next() {
		var l domain.JournalLine
		if err := rows.Scan(
			&l.LineID,
			&l.EntryID,
			&l.LineNo,
			&l.AccountID,
			&l.Debit,
			&l.Credit,
			&l.CurrencyCode,
			&l.ExchangeRate,
			&l.BaseDebit,
			&l.BaseCredit,
			&l.Memo,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan line row for entry "+entryID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating line rows for entry "+entryID, err)
	}
	return lines, nil
}

// ListEntriesByOrg retrieves a keyset-paginated list of entry headers for an
// organization, newest first. Ordering is (entry_date DESC, entry_id DESC);
// the entry ID tie-breaks equal dates so the cursor is stable.
func (r *PgxEntryRepository) ListEntriesByOrg(ctx context.Context, orgID string, limit int, nextToken *string, filter portsrepo.EntryListFilter) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to learn whether a next page exists.
	fetchLimit := limit + 1

	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE org_id = $1`
	args := []interface{}{orgID}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		query += ` AND kind = $` + strconv.Itoa(len(args))
	}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastEntryID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastDate, lastEntryID)
		query += ` AND (entry_date, entry_id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, fetchLimit)
	query += ` ORDER BY entry_date DESC, entry_id DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query entries for org "+orgID, err)
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan entry row for org "+orgID, scanErr)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating entry rows for org "+orgID, err)
	}

	var nextTokenVal *string
	if len(entries) > limit {
		last := entries[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.EntryID)
		nextTokenVal = &token
		entries = entries[:limit]
	}
	return entries, nextTokenVal, nil
}

// ListDueAutoReversals retrieves headers of posted entries whose auto-reverse
// date is at or before asOf, oldest schedule first.
func (r *PgxEntryRepository) ListDueAutoReversals(ctx context.Context, asOf time.Time) ([]domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE status = 'POSTED' AND auto_reverse_date IS NOT NULL AND auto_reverse_date <= $1
		ORDER BY auto_reverse_date, entry_id;`

	rows, err := r.Pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query due auto-reversals", err)
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan due auto-reversal row", scanErr)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating due auto-reversal rows", err)
	}
	return entries, nil
}

// insertEntryHeader inserts a journal entry header within tx.
func insertEntryHeader(ctx context.Context, tx pgx.Tx, e domain.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := tx.Exec(ctx, query,
		e.EntryID,
		e.OrgID,
		e.PeriodID,
		e.EntryNumber,
		e.EntryDate,
		e.Kind,
		e.Status,
		e.Description,
		e.ReversedEntryID,
		e.ReversingEntryID,
		e.CorrectedEntryID,
		e.AutoReverseDate,
		e.PostedAt,
		e.CreatedAt,
		e.CreatedBy,
		e.LastUpdatedAt,
		e.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert entry "+e.EntryID, err)
	}
	return nil
}

// queueLineInserts adds one insert per line to the batch.
func queueLineInserts(batch *pgx.Batch, lines []domain.JournalLine) {
	query := `
		INSERT INTO journal_lines (line_id, entry_id, line_no, account_id, debit, credit,
			currency_code, exchange_rate, base_debit, base_credit, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	for _, l := range lines {
		batch.Queue(query,
			l.LineID,
			l.EntryID,
			l.LineNo,
			l.AccountID,
			l.Debit,
			l.Credit,
			l.CurrencyCode,
			l.ExchangeRate,
			l.BaseDebit,
			l.BaseCredit,
			l.Memo,
		)
	}
}

// SaveDraft persists a new draft entry header together with its lines.
func (r *PgxEntryRepository) SaveDraft(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertEntryHeader(ctx, tx, entry); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	queueLineInserts(batch, entry.Lines)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert lines for entry "+entry.EntryID, err)
	}

	return r.Commit(ctx, tx)
}

// requireDraft fails with ErrInvalidState when the entry exists but is not a
// draft, or ErrNotFound when it does not exist.
func requireDraft(ctx context.Context, tx pgx.Tx, entryID string) error {
	var status domain.EntryStatus
	err := tx.QueryRow(ctx, `SELECT status FROM journal_entries WHERE entry_id = $1 FOR UPDATE;`, entryID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to check status of entry "+entryID, err)
	}
	if status != domain.Draft {
		return apperrors.ErrInvalidState
	}
	return nil
}

// ReplaceDraftLines replaces a draft entry's header fields and lines
// wholesale. Fails when the entry is no longer a draft.
func (r *PgxEntryRepository) ReplaceDraftLines(ctx context.Context, entry domain.JournalEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := requireDraft(ctx, tx, entry.EntryID); err != nil {
		return err
	}

	updateQuery := `
		UPDATE journal_entries
		SET period_id = $2, entry_date = $3, description = $4, last_updated_at = $5, last_updated_by = $6
		WHERE entry_id = $1;
	`
	if _, err := tx.Exec(ctx, updateQuery,
		entry.EntryID, entry.PeriodID, entry.EntryDate, entry.Description,
		entry.LastUpdatedAt, entry.LastUpdatedBy,
	); err != nil {
		return apperrors.NewAppError(500, "failed to update draft entry "+entry.EntryID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id = $1;`, entry.EntryID); err != nil {
		return apperrors.NewAppError(500, "failed to delete lines of draft entry "+entry.EntryID, err)
	}

	batch := &pgx.Batch{}
	queueLineInserts(batch, entry.Lines)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert replacement lines for entry "+entry.EntryID, err)
	}

	return r.Commit(ctx, tx)
}

// DeleteDraft removes a draft entry and its lines. Fails when the entry is no
// longer a draft.
func (r *PgxEntryRepository) DeleteDraft(ctx context.Context, entryID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := requireDraft(ctx, tx, entryID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id = $1;`, entryID); err != nil {
		return apperrors.NewAppError(500, "failed to delete lines of draft entry "+entryID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = $1;`, entryID); err != nil {
		return apperrors.NewAppError(500, "failed to delete draft entry "+entryID, err)
	}

	return r.Commit(ctx, tx)
}

// allocateEntryNumber fetches-and-increments the sequence row for key within
// tx. The row lock taken by the upsert serializes concurrent posters on the
// same sequence, which is what makes the numbering gapless.
func allocateEntryNumber(ctx context.Context, tx pgx.Tx, key domain.SequenceKey) (string, error) {
	query := `
		INSERT INTO entry_sequences (org_id, prefix, year, month, next_value)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (org_id, prefix, year, month)
		DO UPDATE SET next_value = entry_sequences.next_value + 1
		RETURNING next_value;
	`
	var value int64
	if err := tx.QueryRow(ctx, query, key.OrgID, key.Prefix, key.Year, key.Month).Scan(&value); err != nil {
		return "", apperrors.NewAppError(500, "failed to allocate entry number for prefix "+key.Prefix, err)
	}
	return domain.FormatEntryNumber(key, value), nil
}

// insertPostings appends the immutable posting rows within tx.
func insertPostings(ctx context.Context, tx pgx.Tx, postings []domain.LedgerPosting) error {
	query := `
		INSERT INTO ledger_postings (posting_id, org_id, entry_id, line_id, line_no,
			account_id, period_id, posting_date, base_debit, base_credit, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	batch := &pgx.Batch{}
	for _, p := range postings {
		batch.Queue(query,
			p.PostingID,
			p.OrgID,
			p.EntryID,
			p.LineID,
			p.LineNo,
			p.AccountID,
			p.PeriodID,
			p.Date,
			p.BaseDebit,
			p.BaseCredit,
			p.PostedAt,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert ledger postings", err)
	}
	return nil
}

// applyBalanceDeltas upserts one account_period_balances row per delta. On
// first touch the opening is seeded from the account's closing in the latest
// earlier period; afterwards movements accumulate and closing is maintained
// incrementally under the account's sign convention.
func applyBalanceDeltas(ctx context.Context, tx pgx.Tx, orgID string, deltas []domain.BalanceDelta) error {
	query := `
		WITH prior AS (
			SELECT COALESCE((
				SELECT b.closing
				FROM account_period_balances b
				JOIN fiscal_periods fp ON fp.period_id = b.period_id
				WHERE b.org_id = $1 AND b.account_id = $2
				  AND fp.end_date < (SELECT start_date FROM fiscal_periods WHERE period_id = $3)
				ORDER BY fp.end_date DESC
				LIMIT 1
			), 0) AS opening
		)
		INSERT INTO account_period_balances (org_id, account_id, period_id, normal_side,
			opening, debit_movements, credit_movements, closing)
		SELECT $1, $2, $3, $4, prior.opening, $5, $6,
			CASE WHEN $4 = 'CREDIT'
				THEN prior.opening + $6 - $5
				ELSE prior.opening + $5 - $6
			END
		FROM prior
		ON CONFLICT (org_id, account_id, period_id)
		DO UPDATE SET
			debit_movements = account_period_balances.debit_movements + EXCLUDED.debit_movements,
			credit_movements = account_period_balances.credit_movements + EXCLUDED.credit_movements,
			closing = CASE WHEN account_period_balances.normal_side = 'CREDIT'
				THEN account_period_balances.opening
					+ account_period_balances.credit_movements + EXCLUDED.credit_movements
					- account_period_balances.debit_movements - EXCLUDED.debit_movements
				ELSE account_period_balances.opening
					+ account_period_balances.debit_movements + EXCLUDED.debit_movements
					- account_period_balances.credit_movements - EXCLUDED.credit_movements
			END;
	`
	batch := &pgx.Batch{}
	for _, d := range deltas {
		batch.Queue(query, orgID, d.AccountID, d.PeriodID, string(d.NormalSide), d.Debit, d.Credit)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to apply balance deltas", err)
	}
	return nil
}

// PostEntry transitions an entry to POSTED in a single transaction: allocates
// the next sequence value, writes the ledger postings, applies the balance
// deltas and stamps the entry number. Draft entries are flipped in place;
// entries arriving already POSTED (corrections, which never exist as drafts)
// are inserted with their lines.
func (r *PgxEntryRepository) PostEntry(ctx context.Context, entry domain.JournalEntry, postings []domain.LedgerPosting, deltas []domain.BalanceDelta, key domain.SequenceKey) (string, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer r.Rollback(ctx, tx)

	number, err := allocateEntryNumber(ctx, tx, key)
	if err != nil {
		return "", err
	}

	updateQuery := `
		UPDATE journal_entries
		SET status = $2, entry_number = $3, period_id = $4, posted_at = $5,
		    last_updated_at = $6, last_updated_by = $7
		WHERE entry_id = $1 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, updateQuery,
		entry.EntryID, entry.Status, number, entry.PeriodID, entry.PostedAt,
		entry.LastUpdatedAt, entry.LastUpdatedBy,
	)
	if err != nil {
		return "", apperrors.NewAppError(500, "failed to mark entry "+entry.EntryID+" posted", err)
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_entries WHERE entry_id = $1);`, entry.EntryID).Scan(&exists); err != nil {
			return "", apperrors.NewAppError(500, "failed to check existence of entry "+entry.EntryID, err)
		}
		if exists {
			return "", apperrors.ErrAlreadyPosted
		}
		entry.EntryNumber = &number
		if err := insertEntryHeader(ctx, tx, entry); err != nil {
			return "", err
		}
		batch := &pgx.Batch{}
		queueLineInserts(batch, entry.Lines)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return "", apperrors.NewAppError(500, "failed to insert lines for entry "+entry.EntryID, err)
		}
	}

	if err := insertPostings(ctx, tx, postings); err != nil {
		return "", err
	}
	if err := applyBalanceDeltas(ctx, tx, entry.OrgID, deltas); err != nil {
		return "", err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return "", err
	}
	return number, nil
}

// ReverseEntry posts the reversing entry and flips the original to REVERSED
// with cross-links, all in one transaction. The conditional UPDATE on the
// original's status is what makes concurrent reversals of the same entry
// lose cleanly.
func (r *PgxEntryRepository) ReverseEntry(ctx context.Context, original domain.JournalEntry, reversing domain.JournalEntry, postings []domain.LedgerPosting, deltas []domain.BalanceDelta, key domain.SequenceKey) (string, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer r.Rollback(ctx, tx)

	flipQuery := `
		UPDATE journal_entries
		SET status = 'REVERSED', reversing_entry_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND status = 'POSTED';
	`
	cmdTag, err := tx.Exec(ctx, flipQuery,
		original.EntryID, reversing.EntryID, reversing.LastUpdatedAt, reversing.LastUpdatedBy,
	)
	if err != nil {
		return "", apperrors.NewAppError(500, "failed to mark entry "+original.EntryID+" reversed", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return "", apperrors.ErrAlreadyReversed
	}

	number, err := allocateEntryNumber(ctx, tx, key)
	if err != nil {
		return "", err
	}
	reversing.EntryNumber = &number

	if err := insertEntryHeader(ctx, tx, reversing); err != nil {
		return "", err
	}
	batch := &pgx.Batch{}
	queueLineInserts(batch, reversing.Lines)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return "", apperrors.NewAppError(500, "failed to insert lines for reversing entry "+reversing.EntryID, err)
	}

	if err := insertPostings(ctx, tx, postings); err != nil {
		return "", err
	}
	if err := applyBalanceDeltas(ctx, tx, reversing.OrgID, deltas); err != nil {
		return "", err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return "", err
	}
	return number, nil
}

// SetAutoReverseDate stores or clears an entry's scheduled auto-reversal date.
func (r *PgxEntryRepository) SetAutoReverseDate(ctx context.Context, entryID string, date *time.Time, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET auto_reverse_date = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, entryID, date, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to set auto-reverse date for entry "+entryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
