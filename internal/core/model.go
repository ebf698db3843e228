package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	Asset     AccountType = "asset"
	Liability AccountType = "liability"
	Equity    AccountType = "equity"
	Revenue   AccountType = "revenue"
	Expense   AccountType = "expense"
)

// Valid reports whether t is one of the five known account types.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// Side is the normal balance side of an account.
type Side string

const (
	DebitNormal  Side = "debit"
	CreditNormal Side = "credit"
)

// NormalSide returns the side on which an account of this type increases.
// Assets and expenses are debit-normal; liabilities, equity and revenue
// are credit-normal. Unknown types report debit-normal so their balances
// surface as raw debit − credit in the unclassified bucket.
func (t AccountType) NormalSide() Side {
	switch t {
	case Liability, Equity, Revenue:
		return CreditNormal
	default:
		return DebitNormal
	}
}

// IsFlow reports whether accounts of this type carry period-relative
// balances (revenue/expense) as opposed to cumulative ones.
func (t AccountType) IsFlow() bool {
	return t == Revenue || t == Expense
}

// Scope identifies the tenant and company a call operates on. Every
// repository query and every statement request carries an explicit Scope;
// nothing is ever inferred from ambient state.
type Scope struct {
	TenantID  int `json:"tenant_id"`
	CompanyID int `json:"company_id"`
}

type Account struct {
	ID        int         `json:"id"`
	TenantID  int         `json:"tenant_id"`
	CompanyID int         `json:"company_id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	Active    bool        `json:"active"`
}

type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "DRAFT"
	EntryStatusPosted EntryStatus = "POSTED"
)

// JournalEntry is a dated, balanced transaction. The only transition is
// DRAFT → POSTED; a posted entry is immutable and corrections are made by
// posting a reversing entry (ReversesEntryID links the two).
type JournalEntry struct {
	ID              int           `json:"id"`
	TenantID        int           `json:"tenant_id"`
	CompanyID       int           `json:"company_id"`
	Date            time.Time     `json:"date"`
	Memo            string        `json:"memo"`
	Reference       string        `json:"reference,omitempty"`
	IdempotencyKey  string        `json:"idempotency_key,omitempty"`
	ReversesEntryID int           `json:"reverses_entry_id,omitempty"`
	Status          EntryStatus   `json:"status"`
	Lines           []JournalLine `json:"lines"`
}

// JournalLine belongs to exactly one entry. Debit and Credit are both
// non-negative; a well-formed line carries an amount on exactly one side.
type JournalLine struct {
	ID        int             `json:"id"`
	EntryID   int             `json:"entry_id"`
	AccountID int             `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// Period is a closed date range [Start, End]. An entry dated exactly
// Start or End is inside the period.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether d falls within the period, inclusive on both ends.
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// AccountBalance is the computed, signed balance of one account for one
// window. Positive means the account sits on its normal side. Derived data,
// never persisted.
type AccountBalance struct {
	AccountID   int             `json:"account_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Type        AccountType     `json:"type"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
	Balance     decimal.Decimal `json:"balance"`
}

// minorUnit is the smallest representable amount in the reporting
// currency. Any debit/credit discrepancy at or above this is an imbalance.
var minorUnit = decimal.New(1, -2) // 0.01
