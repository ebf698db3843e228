package app

import (
	"context"

	"ledger-core/internal/core"
)

// ApplicationService is the single interface all adapters (HTTP, CLI
// tooling) call. It decouples presentation from the ledger engine.
// Implementations must contain no display logic of any kind.
type ApplicationService interface {
	// PostEntry validates an entry draft and commits it as POSTED.
	PostEntry(ctx context.Context, draft core.EntryDraft) (*EntryResult, error)

	// ValidateEntry runs every posting gate without writing anything.
	ValidateEntry(ctx context.Context, draft core.EntryDraft) error

	// ReverseEntry posts a new entry that mirrors the target with debits
	// and credits swapped. The original is never modified; an entry can be
	// reversed at most once.
	ReverseEntry(ctx context.Context, req ReverseEntryRequest) (*EntryResult, error)

	// GetEntry returns one posted entry with its lines.
	GetEntry(ctx context.Context, scope core.Scope, entryID int) (*EntryResult, error)

	// ListAccounts returns the scope's chart of accounts.
	ListAccounts(ctx context.Context, scope core.Scope) (*AccountListResult, error)

	// GetTrialBalance returns every account's net balance as of a date,
	// split into debit and credit columns. asOfDate is YYYY-MM-DD; empty
	// means today.
	GetTrialBalance(ctx context.Context, scope core.Scope, asOfDate string) (*TrialBalanceResult, error)

	// GetAccountStatement returns a chronological statement for one
	// account with a running balance. fromDate and toDate are optional
	// (empty string means unbounded).
	GetAccountStatement(ctx context.Context, req AccountStatementRequest) (*AccountStatementResult, error)

	// GetBalanceSheet returns the balance sheet as of a date, with
	// optional comparatives. Empty asOfDate means today; empty compareDate
	// omits comparatives.
	GetBalanceSheet(ctx context.Context, scope core.Scope, asOfDate, compareDate string) (*core.BalanceSheet, error)

	// GetProfitAndLoss returns the P&L for [fromDate, toDate], optionally
	// compared against [compareFrom, compareTo].
	GetProfitAndLoss(ctx context.Context, scope core.Scope, fromDate, toDate, compareFrom, compareTo string) (*core.ProfitAndLoss, error)

	// GetCashFlow returns the cash-flow statement for [fromDate, toDate].
	GetCashFlow(ctx context.Context, scope core.Scope, fromDate, toDate string) (*core.CashFlowStatement, error)

	// InterpretEvent sends a natural-language event description to the AI
	// proposer and returns either a validated entry draft or a
	// clarification request. Nothing is posted; the caller commits the
	// draft through PostEntry after approval.
	InterpretEvent(ctx context.Context, scope core.Scope, text string) (*AIResult, error)

	// VerifyIntegrity re-checks the trial-balance invariant on every
	// posted entry in the scope and reports the entries that fail it.
	VerifyIntegrity(ctx context.Context, scope core.Scope) (*IntegrityResult, error)
}
