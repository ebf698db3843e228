package app

import (
	"time"

	"github.com/shopspring/decimal"

	"ledger-core/internal/core"
)

// ReverseEntryRequest is the input for reversing a posted entry.
// Date and Memo are optional: the date defaults to the original entry's
// date, the memo to a generated "Reversal of entry N" description.
type ReverseEntryRequest struct {
	Scope   core.Scope `json:"scope"`
	EntryID int        `json:"entry_id"`
	Date    string     `json:"date,omitempty"`
	Memo    string     `json:"memo,omitempty"`
}

// AccountStatementRequest is the input for GetAccountStatement.
type AccountStatementRequest struct {
	Scope       core.Scope `json:"scope"`
	AccountCode string     `json:"account_code"`
	FromDate    string     `json:"from_date,omitempty"`
	ToDate      string     `json:"to_date,omitempty"`
}

// EntryResult is returned by entry lifecycle operations.
type EntryResult struct {
	Entry *core.JournalEntry `json:"entry"`
}

// AccountListResult is returned by ListAccounts.
type AccountListResult struct {
	Accounts []core.Account `json:"accounts"`
}

// TrialBalanceRow is one account's net balance placed in the debit or
// credit column, whichever side it nets to.
type TrialBalanceRow struct {
	Code   string           `json:"code"`
	Name   string           `json:"name"`
	Type   core.AccountType `json:"type"`
	Debit  decimal.Decimal  `json:"debit"`
	Credit decimal.Decimal  `json:"credit"`
}

// TrialBalanceResult is returned by GetTrialBalance. For an uncorrupted
// ledger TotalDebits always equals TotalCredits.
type TrialBalanceResult struct {
	Scope        core.Scope        `json:"scope"`
	AsOf         time.Time         `json:"as_of"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
}

// StatementLine is one posting touching the statement's account, with
// the signed running balance after it was applied.
type StatementLine struct {
	EntryID int             `json:"entry_id"`
	Date    time.Time       `json:"date"`
	Memo    string          `json:"memo"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Balance decimal.Decimal `json:"balance"`
}

// AccountStatementResult is returned by GetAccountStatement.
type AccountStatementResult struct {
	Account        core.Account    `json:"account"`
	FromDate       *time.Time      `json:"from_date,omitempty"`
	ToDate         *time.Time      `json:"to_date,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Lines          []StatementLine `json:"lines"`
}

// AIResult is returned by InterpretEvent. Exactly one of Draft or
// ClarificationMessage is meaningful, selected by IsClarification.
type AIResult struct {
	IsClarification      bool             `json:"is_clarification"`
	ClarificationMessage string           `json:"clarification_message,omitempty"`
	Draft                *core.EntryDraft `json:"draft,omitempty"`
	Reasoning            string           `json:"reasoning,omitempty"`
	Confidence           float64          `json:"confidence,omitempty"`
	ValidationError      string           `json:"validation_error,omitempty"`
}

// IntegrityResult is returned by VerifyIntegrity.
type IntegrityResult struct {
	Scope          core.Scope            `json:"scope"`
	EntriesChecked int                   `json:"entries_checked"`
	Faults         []core.IntegrityFault `json:"faults,omitempty"`
}
