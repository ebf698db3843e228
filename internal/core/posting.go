package core

import (
	"context"
	"fmt"
)

// Poster is the ledger posting primitive: the single gate every producer
// of journal entries must pass through. It validates structure, enforces
// the trial-balance invariant, resolves accounts within the draft's
// scope, and persists the entry atomically as POSTED. It never recomputes
// or caches balances.
type Poster struct {
	accounts AccountRepository
	journal  JournalRepository
}

func NewPoster(accounts AccountRepository, journal JournalRepository) *Poster {
	return &Poster{accounts: accounts, journal: journal}
}

// Post validates the draft and commits it. On success the returned entry
// is POSTED with IDs assigned; on failure nothing is written.
//
// Caller-fixable rejections come back as *BalanceError or
// *UnknownAccountError. There is no update path anywhere on this type:
// posted entries are immutable and corrections are new reversing entries.
func (p *Poster) Post(ctx context.Context, draft EntryDraft) (*JournalEntry, error) {
	return p.execute(ctx, draft, true)
}

// Validate runs every gate Post runs — structure, trial balance, account
// resolution — without writing anything.
func (p *Poster) Validate(ctx context.Context, draft EntryDraft) error {
	_, err := p.execute(ctx, draft, false)
	return err
}

func (p *Poster) execute(ctx context.Context, draft EntryDraft, commit bool) (*JournalEntry, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}

	// Trial-balance gate: debits must equal credits to the minor unit.
	debits, credits := draft.totals()
	if diff := debits.Sub(credits); diff.Abs().GreaterThanOrEqual(minorUnit) {
		return nil, &BalanceError{Debits: debits, Credits: credits, UnbalancedBy: diff.Abs()}
	}

	// Resolve every referenced account inside the draft's scope.
	codes := make([]string, 0, len(draft.Lines))
	seen := make(map[string]bool, len(draft.Lines))
	for _, line := range draft.Lines {
		if !seen[line.AccountCode] {
			seen[line.AccountCode] = true
			codes = append(codes, line.AccountCode)
		}
	}
	accounts, err := p.accounts.AccountsByCode(ctx, draft.Scope, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve accounts: %w", err)
	}
	for _, code := range codes {
		a, ok := accounts[code]
		if !ok || !a.Active {
			return nil, &UnknownAccountError{AccountCode: code, Scope: draft.Scope}
		}
	}

	entry, err := buildEntry(draft, accounts)
	if err != nil {
		return nil, err
	}

	if !commit {
		return entry, nil
	}

	if err := p.journal.SavePosted(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to persist entry: %w", err)
	}
	return entry, nil
}

// buildEntry converts a validated draft into a POSTED entry value. The
// DRAFT → POSTED transition happens here, exactly once, and only in
// memory; durability is SavePosted's job.
func buildEntry(draft EntryDraft, accounts map[string]Account) (*JournalEntry, error) {
	date, err := draft.EntryDate()
	if err != nil {
		return nil, fmt.Errorf("invalid entry date: %w", err)
	}

	entry := &JournalEntry{
		TenantID:        draft.Scope.TenantID,
		CompanyID:       draft.Scope.CompanyID,
		Date:            date,
		Memo:            draft.Memo,
		Reference:       draft.Reference,
		IdempotencyKey:  draft.IdempotencyKey,
		ReversesEntryID: draft.ReversesEntryID,
		Status:          EntryStatusPosted,
		Lines:           make([]JournalLine, 0, len(draft.Lines)),
	}
	for _, line := range draft.Lines {
		debit := mustDecimal(line.Debit)
		credit := mustDecimal(line.Credit)
		entry.Lines = append(entry.Lines, JournalLine{
			AccountID: accounts[line.AccountCode].ID,
			Debit:     debit,
			Credit:    credit,
		})
	}
	return entry, nil
}
