// Package postgres is the production implementation of the ledger
// repositories on top of a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledger-core/internal/core"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var (
	_ core.AccountRepository = (*Store)(nil)
	_ core.JournalRepository = (*Store)(nil)
)

func (s *Store) ListAccounts(ctx context.Context, scope core.Scope) ([]core.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, company_id, code, name, type, active
		FROM accounts
		WHERE tenant_id = $1 AND company_id = $2
		ORDER BY code
	`, scope.TenantID, scope.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

func (s *Store) AccountsByCode(ctx context.Context, scope core.Scope, codes []string) (map[string]core.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, company_id, code, name, type, active
		FROM accounts
		WHERE tenant_id = $1 AND company_id = $2 AND code = ANY($3)
	`, scope.TenantID, scope.CompanyID, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts by code: %w", err)
	}
	defer rows.Close()

	out := make(map[string]core.Account, len(codes))
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out[a.Code] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return out, nil
}

func scanAccount(rows pgx.Rows) (core.Account, error) {
	var a core.Account
	var accountType string
	if err := rows.Scan(&a.ID, &a.TenantID, &a.CompanyID, &a.Code, &a.Name, &accountType, &a.Active); err != nil {
		return core.Account{}, fmt.Errorf("failed to scan account: %w", err)
	}
	a.Type = core.AccountType(accountType)
	return a, nil
}

// ListPosted reads entry headers and their lines inside one repeatable-read
// transaction so the result is a single consistent snapshot even while
// posts are committing concurrently.
func (s *Store) ListPosted(ctx context.Context, scope core.Scope, from, to time.Time) ([]core.JournalEntry, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, tenant_id, company_id, entry_date, memo,
		       COALESCE(reference, ''), COALESCE(idempotency_key, ''),
		       COALESCE(reverses_entry_id, 0), status
		FROM journal_entries
		WHERE tenant_id = $1 AND company_id = $2
		  AND status = 'POSTED'
		  AND ($3::date IS NULL OR entry_date >= $3)
		  AND ($4::date IS NULL OR entry_date <= $4)
		ORDER BY entry_date, id
	`, scope.TenantID, scope.CompanyID, nullableDate(from), nullableDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}

	var entries []core.JournalEntry
	index := make(map[int]int)
	for rows.Next() {
		var e core.JournalEntry
		var status string
		if err := rows.Scan(&e.ID, &e.TenantID, &e.CompanyID, &e.Date, &e.Memo,
			&e.Reference, &e.IdempotencyKey, &e.ReversesEntryID, &status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.Status = core.EntryStatus(status)
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}

	lineRows, err := tx.Query(ctx, `
		SELECT id, entry_id, account_id, debit, credit
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal lines: %w", err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var l core.JournalLine
		if err := lineRows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Debit, &l.Credit); err != nil {
			return nil, fmt.Errorf("failed to scan journal line: %w", err)
		}
		i := index[l.EntryID]
		entries[i].Lines = append(entries[i].Lines, l)
	}
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal lines: %w", err)
	}
	return entries, nil
}

func (s *Store) GetPosted(ctx context.Context, scope core.Scope, entryID int) (*core.JournalEntry, error) {
	var e core.JournalEntry
	var status string
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, company_id, entry_date, memo,
		       COALESCE(reference, ''), COALESCE(idempotency_key, ''),
		       COALESCE(reverses_entry_id, 0), status
		FROM journal_entries
		WHERE id = $1 AND tenant_id = $2 AND company_id = $3 AND status = 'POSTED'
	`, entryID, scope.TenantID, scope.CompanyID).Scan(
		&e.ID, &e.TenantID, &e.CompanyID, &e.Date, &e.Memo,
		&e.Reference, &e.IdempotencyKey, &e.ReversesEntryID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("posted entry %d not found in scope", entryID)
		}
		return nil, fmt.Errorf("failed to fetch entry %d: %w", entryID, err)
	}
	e.Status = core.EntryStatus(status)

	rows, err := s.pool.Query(ctx, `
		SELECT id, entry_id, account_id, debit, credit
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY id
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %d: %w", entryID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l core.JournalLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.Debit, &l.Credit); err != nil {
			return nil, fmt.Errorf("failed to scan journal line: %w", err)
		}
		e.Lines = append(e.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal lines: %w", err)
	}
	return &e, nil
}

// SavePosted writes the header as a draft, inserts every line, then flips
// the status to POSTED, all in one transaction. The entry is therefore
// either fully visible to ListPosted or not at all.
func (s *Store) SavePosted(ctx context.Context, entry *core.JournalEntry) error {
	if entry.ID != 0 {
		return core.ErrPostedImmutable
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if entry.ReversesEntryID != 0 {
		var count int
		err = tx.QueryRow(ctx, `
			SELECT count(*) FROM journal_entries
			WHERE tenant_id = $1 AND company_id = $2 AND reverses_entry_id = $3
		`, entry.TenantID, entry.CompanyID, entry.ReversesEntryID).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check reversal status: %w", err)
		}
		if count > 0 {
			return core.ErrAlreadyReversed
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO journal_entries (tenant_id, company_id, entry_date, memo, reference, idempotency_key, reverses_entry_id, status, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, 0), 'DRAFT', NOW())
		ON CONFLICT (tenant_id, company_id, idempotency_key) WHERE idempotency_key IS NOT NULL DO NOTHING
		RETURNING id
	`, entry.TenantID, entry.CompanyID, entry.Date, entry.Memo,
		entry.Reference, entry.IdempotencyKey, entry.ReversesEntryID).Scan(&entry.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to insert journal entry: %w", err)
	}

	for i := range entry.Lines {
		line := &entry.Lines[i]
		line.EntryID = entry.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO journal_lines (entry_id, account_id, debit, credit)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, line.EntryID, line.AccountID, line.Debit.StringFixed(2), line.Credit.StringFixed(2)).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("failed to insert journal line: %w", err)
		}
	}

	_, err = tx.Exec(ctx, "UPDATE journal_entries SET status = 'POSTED' WHERE id = $1", entry.ID)
	if err != nil {
		return fmt.Errorf("failed to post entry %d: %w", entry.ID, err)
	}
	entry.Status = core.EntryStatusPosted

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}
	return nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
