package core

import (
	"context"
	"time"
)

// AccountRepository is the read contract the engine consumes for chart
// lookups. Implementations must never widen the scope: a query for one
// tenant/company returns only that tenant/company's accounts.
type AccountRepository interface {
	// ListAccounts returns every account in the scope, active or not,
	// ordered by code.
	ListAccounts(ctx context.Context, scope Scope) ([]Account, error)

	// AccountsByCode resolves the given codes within the scope. Codes
	// with no matching account are simply absent from the result map;
	// the caller decides whether absence is an error.
	AccountsByCode(ctx context.Context, scope Scope, codes []string) (map[string]Account, error)
}

// JournalRepository is the engine's contract with the entry/line store.
//
// ListPosted must return each entry with its complete line set (the
// cash-flow bucketizer inspects sibling lines), and each call must
// observe one consistent snapshot of the store so a statement never mixes
// states from before and after a concurrent post.
type JournalRepository interface {
	// ListPosted returns POSTED entries in the scope whose date falls in
	// [from, to], ordered by date then id. A zero from or to leaves that
	// bound open. DRAFT entries are never returned.
	ListPosted(ctx context.Context, scope Scope, from, to time.Time) ([]JournalEntry, error)

	// GetPosted returns one POSTED entry with its lines.
	GetPosted(ctx context.Context, scope Scope, entryID int) (*JournalEntry, error)

	// SavePosted atomically persists the entry header and all its lines
	// with status POSTED, assigning IDs in place. Either the whole entry
	// commits or nothing does; a partially written entry must never be
	// visible to ListPosted. Implementations return
	// ErrDuplicateIdempotencyKey when entry.IdempotencyKey was already
	// used in the scope, and ErrAlreadyReversed when
	// entry.ReversesEntryID already has a reversal.
	SavePosted(ctx context.Context, entry *JournalEntry) error
}
