package core_test

import (
	"context"
	"testing"
	"time"

	"ledger-core/internal/core"
	"ledger-core/internal/storage/memory"
)

var testScope = core.Scope{TenantID: 1, CompanyID: 1}

// testFixture wires the full engine against an in-memory store seeded
// with a conventional chart of accounts.
type testFixture struct {
	store     *memory.Store
	poster    *core.Poster
	calc      *core.Calculator
	assembler *core.Assembler
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	store := memory.NewStore()
	chart := []struct {
		code string
		name string
		typ  core.AccountType
	}{
		{"1000", "Cash", core.Asset},
		{"1100", "Accounts Receivable", core.Asset},
		{"1200", "Inventory", core.Asset},
		{"1300", "Equipment", core.Asset},
		{"2000", "Accounts Payable", core.Liability},
		{"2500", "Bank Loan", core.Liability},
		{"3000", "Owner's Equity", core.Equity},
		{"4000", "Sales Revenue", core.Revenue},
		{"5000", "Cost of Goods Sold", core.Expense},
		{"6000", "Rent Expense", core.Expense},
	}
	for _, a := range chart {
		store.AddAccount(core.Account{
			TenantID:  testScope.TenantID,
			CompanyID: testScope.CompanyID,
			Code:      a.code,
			Name:      a.name,
			Type:      a.typ,
			Active:    true,
		})
	}
	// An inactive account to exercise the posting gate.
	store.AddAccount(core.Account{
		TenantID:  testScope.TenantID,
		CompanyID: testScope.CompanyID,
		Code:      "6900",
		Name:      "Retired Expense",
		Type:      core.Expense,
		Active:    false,
	})

	classifier := core.NewClassifier(core.DefaultClassificationTable())
	calc := core.NewCalculator(store)
	assembler := core.NewAssembler(classifier, calc, store, store)
	assembler.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	return &testFixture{
		store:     store,
		poster:    core.NewPoster(store, store),
		calc:      calc,
		assembler: assembler,
	}
}

// post is a fixture shortcut that fails the test on rejection.
func (f *testFixture) post(t *testing.T, date, memo string, lines ...core.DraftLine) *core.JournalEntry {
	t.Helper()
	entry, err := f.poster.Post(context.Background(), core.EntryDraft{
		Scope: testScope,
		Date:  date,
		Memo:  memo,
		Lines: lines,
	})
	if err != nil {
		t.Fatalf("post %q failed: %v", memo, err)
	}
	return entry
}

func (f *testFixture) accounts(t *testing.T) []core.Account {
	t.Helper()
	accounts, err := f.store.ListAccounts(context.Background(), testScope)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	return accounts
}

func (f *testFixture) account(t *testing.T, code string) core.Account {
	t.Helper()
	for _, a := range f.accounts(t) {
		if a.Code == code {
			return a
		}
	}
	t.Fatalf("fixture has no account %s", code)
	return core.Account{}
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func debit(code, amount string) core.DraftLine {
	return core.DraftLine{AccountCode: code, Debit: amount}
}

func credit(code, amount string) core.DraftLine {
	return core.DraftLine{AccountCode: code, Credit: amount}
}
