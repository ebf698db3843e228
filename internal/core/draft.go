package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DraftLine is one leg of an entry draft. Amounts arrive as strings so
// producers (HTTP clients, the AI proposer) never round-trip through
// binary floating point; parsing happens once, under Validate.
type DraftLine struct {
	AccountCode string `json:"account_code"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
}

// EntryDraft is what producers hand to the posting primitive. It is not
// yet owned by the ledger: it has no ID and no status until Post accepts it.
type EntryDraft struct {
	Scope           Scope       `json:"scope"`
	Date            string      `json:"date"` // YYYY-MM-DD
	Memo            string      `json:"memo"`
	Reference       string      `json:"reference,omitempty"`
	IdempotencyKey  string      `json:"idempotency_key,omitempty"`
	ReversesEntryID int         `json:"reverses_entry_id,omitempty"`
	Lines           []DraftLine `json:"lines"`
}

// Normalize cleans up common producer formatting issues: stray
// whitespace, "null" strings, and blank amounts.
func (d *EntryDraft) Normalize() {
	d.Date = strings.TrimSpace(d.Date)
	d.Memo = strings.TrimSpace(d.Memo)
	d.IdempotencyKey = strings.TrimSpace(d.IdempotencyKey)

	for i := range d.Lines {
		line := &d.Lines[i]
		line.AccountCode = strings.TrimSpace(line.AccountCode)
		line.Debit = normalizeAmount(line.Debit)
		line.Credit = normalizeAmount(line.Credit)
	}
}

func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return "0"
	}
	return s
}

// Validate enforces the structural rules every draft must satisfy before
// the trial-balance gate even runs: a parseable date, at least two lines,
// an account code on every line, and exactly one positive side per line.
// The balance check itself lives in the Poster so its BalanceError can
// report the exact discrepancy.
func (d *EntryDraft) Validate() error {
	if d.Scope.TenantID == 0 || d.Scope.CompanyID == 0 {
		return errors.New("draft must carry an explicit tenant and company scope")
	}
	if d.Date == "" {
		return errors.New("draft must specify an entry date")
	}
	if _, err := time.Parse("2006-01-02", d.Date); err != nil {
		return fmt.Errorf("invalid entry date %q: %w", d.Date, err)
	}
	if len(d.Lines) < 2 {
		return errors.New("entry must have at least 2 lines")
	}

	for _, line := range d.Lines {
		if line.AccountCode == "" {
			return errors.New("every line must reference an account code")
		}
		debit, err := decimal.NewFromString(line.Debit)
		if err != nil {
			return fmt.Errorf("invalid debit %q for account %s: %w", line.Debit, line.AccountCode, err)
		}
		credit, err := decimal.NewFromString(line.Credit)
		if err != nil {
			return fmt.Errorf("invalid credit %q for account %s: %w", line.Credit, line.AccountCode, err)
		}
		if debit.IsNegative() || credit.IsNegative() {
			return fmt.Errorf("amounts must be non-negative for account %s", line.AccountCode)
		}
		if debit.IsPositive() == credit.IsPositive() {
			return fmt.Errorf("line for account %s must carry exactly one of debit or credit", line.AccountCode)
		}
	}
	return nil
}

// EntryDate returns the parsed entry date. Call only after Validate.
func (d *EntryDraft) EntryDate() (time.Time, error) {
	return time.Parse("2006-01-02", d.Date)
}

// totals sums debit and credit sides across all lines. Amounts are summed
// at full precision; nothing is rounded here.
func (d *EntryDraft) totals() (debits, credits decimal.Decimal) {
	for _, line := range d.Lines {
		if v, err := decimal.NewFromString(line.Debit); err == nil {
			debits = debits.Add(v)
		}
		if v, err := decimal.NewFromString(line.Credit); err == nil {
			credits = credits.Add(v)
		}
	}
	return debits, credits
}

// mustDecimal parses an amount already vetted by Validate.
func mustDecimal(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
