package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Calculator turns the posted-entry stream into signed account balances.
// It holds no state between calls; every computation is a pure function
// of the repository's snapshot at query time, so concurrent calls need no
// synchronization.
type Calculator struct {
	journal JournalRepository
}

func NewCalculator(journal JournalRepository) *Calculator {
	return &Calculator{journal: journal}
}

// BalanceAsOf computes cumulative balances for the given accounts from
// inception through asOf, inclusive. This is the window for stock
// accounts (assets, liabilities, equity).
//
// Every requested account appears in the result exactly once, in input
// order; accounts with no activity carry a zero balance.
func (c *Calculator) BalanceAsOf(ctx context.Context, scope Scope, accounts []Account, asOf time.Time) ([]AccountBalance, error) {
	entries, err := c.journal.ListPosted(ctx, scope, time.Time{}, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list posted entries: %w", err)
	}
	return Tally(accounts, entries)
}

// BalanceForPeriod computes balances restricted to entries dated within
// the period, inclusive on both ends. This is the window for flow
// accounts (revenue, expense), which conceptually reset each period; the
// engine performs no closing, it only windows the query.
func (c *Calculator) BalanceForPeriod(ctx context.Context, scope Scope, accounts []Account, period Period) ([]AccountBalance, error) {
	entries, err := c.journal.ListPosted(ctx, scope, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list posted entries: %w", err)
	}
	return Tally(accounts, entries)
}

// Tally aggregates a set of posted entries into per-account balances.
// It is the pure half of the calculator: callers that already hold a
// consistent entry snapshot (the cash-flow bucketizer does) can reuse it
// without touching storage.
//
// Sign convention: debit-normal accounts report debitTotal − creditTotal,
// credit-normal accounts the inverse, so a positive balance always means
// the account sits on its natural side.
//
// Any POSTED entry that fails the trial-balance invariant is a fatal
// *IntegrityFault — the posting primitive makes this unreachable for
// entries it wrote, so hitting it means corrupted or bypassed storage.
func Tally(accounts []Account, entries []JournalEntry) ([]AccountBalance, error) {
	type totals struct{ debit, credit decimal.Decimal }
	byAccount := make(map[int]*totals, len(accounts))
	for _, a := range accounts {
		byAccount[a.ID] = &totals{}
	}

	for _, e := range entries {
		if err := CheckEntryBalanced(e); err != nil {
			return nil, err
		}
		for _, line := range e.Lines {
			t, ok := byAccount[line.AccountID]
			if !ok {
				// Line for an account outside the requested set; not an
				// error — balance queries may target a subset.
				continue
			}
			t.debit = t.debit.Add(line.Debit)
			t.credit = t.credit.Add(line.Credit)
		}
	}

	out := make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		t := byAccount[a.ID]
		balance := t.debit.Sub(t.credit)
		if a.Type.NormalSide() == CreditNormal {
			balance = t.credit.Sub(t.debit)
		}
		out = append(out, AccountBalance{
			AccountID:   a.ID,
			Code:        a.Code,
			Name:        a.Name,
			Type:        a.Type,
			DebitTotal:  t.debit,
			CreditTotal: t.credit,
			Balance:     balance,
		})
	}
	return out, nil
}

// CheckEntryBalanced re-verifies the trial-balance invariant on a posted
// entry read back from storage. Used by the calculator, the bucketizer,
// and the verify-ledger scan.
func CheckEntryBalanced(e JournalEntry) error {
	if e.Status != EntryStatusPosted {
		return fmt.Errorf("entry %d is not posted", e.ID)
	}
	var debits, credits decimal.Decimal
	for _, line := range e.Lines {
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	if diff := debits.Sub(credits); diff.Abs().GreaterThanOrEqual(minorUnit) {
		return &IntegrityFault{EntryID: e.ID, UnbalancedBy: diff.Abs()}
	}
	return nil
}
