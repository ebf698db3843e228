package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ledger-core/internal/ai"
	"ledger-core/internal/app"
	"ledger-core/internal/core"
	"ledger-core/internal/storage/memory"
)

var testScope = core.Scope{TenantID: 1, CompanyID: 1}

func newService(t *testing.T, proposer ai.ProposerService) (app.ApplicationService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()

	seed := []core.Account{
		{Code: "1000", Name: "Cash", Type: core.Asset},
		{Code: "1100", Name: "Accounts Receivable", Type: core.Asset},
		{Code: "2000", Name: "Accounts Payable", Type: core.Liability},
		{Code: "3000", Name: "Owner's Equity", Type: core.Equity},
		{Code: "4000", Name: "Sales Revenue", Type: core.Revenue},
		{Code: "6000", Name: "Rent Expense", Type: core.Expense},
	}
	for _, a := range seed {
		a.TenantID = testScope.TenantID
		a.CompanyID = testScope.CompanyID
		a.Active = true
		store.AddAccount(a)
	}

	poster := core.NewPoster(store, store)
	calc := core.NewCalculator(store)
	assembler := core.NewAssembler(core.NewClassifier(core.DefaultClassificationTable()), calc, store, store)
	return app.NewAppService(store, store, poster, calc, assembler, proposer), store
}

func draft(day, memo string, lines ...core.DraftLine) core.EntryDraft {
	return core.EntryDraft{Scope: testScope, Date: day, Memo: memo, Lines: lines}
}

func dr(code, amount string) core.DraftLine { return core.DraftLine{AccountCode: code, Debit: amount} }
func cr(code, amount string) core.DraftLine { return core.DraftLine{AccountCode: code, Credit: amount} }

func TestAppService_PostAndGetEntry(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	posted, err := svc.PostEntry(ctx, draft("2024-01-10", "cash sale", dr("1000", "250.00"), cr("4000", "250.00")))
	if err != nil {
		t.Fatalf("PostEntry failed: %v", err)
	}
	if posted.Entry.ID == 0 || posted.Entry.Status != core.EntryStatusPosted {
		t.Fatalf("posted entry not committed: %+v", posted.Entry)
	}

	got, err := svc.GetEntry(ctx, testScope, posted.Entry.ID)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got.Entry.Memo != "cash sale" || len(got.Entry.Lines) != 2 {
		t.Errorf("GetEntry returned %+v", got.Entry)
	}
}

func TestAppService_PostEntryRejectsUnbalanced(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.PostEntry(context.Background(),
		draft("2024-01-10", "broken", dr("1000", "100.00"), cr("4000", "90.00")))

	var balErr *core.BalanceError
	if !errors.As(err, &balErr) {
		t.Fatalf("expected *BalanceError, got %v", err)
	}
}

func TestAppService_ReverseEntry(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	posted, err := svc.PostEntry(ctx, draft("2024-01-10", "cash sale", dr("1000", "250.00"), cr("4000", "250.00")))
	if err != nil {
		t.Fatalf("PostEntry failed: %v", err)
	}

	reversed, err := svc.ReverseEntry(ctx, app.ReverseEntryRequest{Scope: testScope, EntryID: posted.Entry.ID})
	if err != nil {
		t.Fatalf("ReverseEntry failed: %v", err)
	}
	if reversed.Entry.ReversesEntryID != posted.Entry.ID {
		t.Errorf("ReversesEntryID = %d, want %d", reversed.Entry.ReversesEntryID, posted.Entry.ID)
	}
	if !strings.Contains(reversed.Entry.Memo, "Reversal of entry") {
		t.Errorf("memo = %q, want generated reversal memo", reversed.Entry.Memo)
	}
	if !reversed.Entry.Date.Equal(posted.Entry.Date) {
		t.Errorf("reversal date = %v, want original date %v", reversed.Entry.Date, posted.Entry.Date)
	}

	// Original plus reversal must net to zero everywhere.
	tb, err := svc.GetTrialBalance(ctx, testScope, "2024-12-31")
	if err != nil {
		t.Fatalf("GetTrialBalance failed: %v", err)
	}
	if len(tb.Rows) != 0 {
		t.Errorf("trial balance after reversal has %d rows, want 0: %+v", len(tb.Rows), tb.Rows)
	}

	// Only one reversal per entry.
	_, err = svc.ReverseEntry(ctx, app.ReverseEntryRequest{Scope: testScope, EntryID: posted.Entry.ID})
	if !errors.Is(err, core.ErrAlreadyReversed) {
		t.Fatalf("expected ErrAlreadyReversed, got %v", err)
	}
}

func TestAppService_TrialBalance(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.PostEntry(ctx, draft("2024-01-05", "capital", dr("1000", "1000.00"), cr("3000", "1000.00"))); err != nil {
		t.Fatalf("PostEntry failed: %v", err)
	}
	if _, err := svc.PostEntry(ctx, draft("2024-01-20", "rent", dr("6000", "200.00"), cr("1000", "200.00"))); err != nil {
		t.Fatalf("PostEntry failed: %v", err)
	}

	tb, err := svc.GetTrialBalance(ctx, testScope, "2024-01-31")
	if err != nil {
		t.Fatalf("GetTrialBalance failed: %v", err)
	}

	if !tb.TotalDebits.Equal(tb.TotalCredits) {
		t.Errorf("trial balance out of balance: debits %s, credits %s",
			tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2))
	}
	if got := tb.TotalDebits.StringFixed(2); got != "1000.00" {
		t.Errorf("total debits = %s, want 1000.00", got)
	}

	rows := make(map[string]app.TrialBalanceRow, len(tb.Rows))
	for _, r := range tb.Rows {
		rows[r.Code] = r
	}
	if got := rows["1000"].Debit.StringFixed(2); got != "800.00" {
		t.Errorf("cash debit column = %s, want 800.00", got)
	}
	if got := rows["3000"].Credit.StringFixed(2); got != "1000.00" {
		t.Errorf("equity credit column = %s, want 1000.00", got)
	}
	if got := rows["6000"].Debit.StringFixed(2); got != "200.00" {
		t.Errorf("rent debit column = %s, want 200.00", got)
	}
}

func TestAppService_AccountStatement(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.PostEntry(ctx, draft("2023-12-10", "opening sale", dr("1000", "300.00"), cr("4000", "300.00"))); err != nil {
		t.Fatalf("PostEntry failed: %v", err)
	}
	if _, err := svc.PostEntry(ctx, draft("2024-01-05", "january sale", dr("1000", "150.00"), cr("4000", "150.00"))); err != nil {
		t.Fatalf("PostEntry failed: %v", err)
	}
	if _, err := svc.PostEntry(ctx, draft("2024-01-20", "rent", dr("6000", "100.00"), cr("1000", "100.00"))); err != nil {
		t.Fatalf("PostEntry failed: %v", err)
	}

	stmt, err := svc.GetAccountStatement(ctx, app.AccountStatementRequest{
		Scope:       testScope,
		AccountCode: "1000",
		FromDate:    "2024-01-01",
		ToDate:      "2024-01-31",
	})
	if err != nil {
		t.Fatalf("GetAccountStatement failed: %v", err)
	}

	if got := stmt.OpeningBalance.StringFixed(2); got != "300.00" {
		t.Errorf("opening balance = %s, want 300.00", got)
	}
	if len(stmt.Lines) != 2 {
		t.Fatalf("got %d statement lines, want 2", len(stmt.Lines))
	}
	if got := stmt.Lines[0].Balance.StringFixed(2); got != "450.00" {
		t.Errorf("running balance after first line = %s, want 450.00", got)
	}
	if got := stmt.Lines[1].Balance.StringFixed(2); got != "350.00" {
		t.Errorf("running balance after second line = %s, want 350.00", got)
	}
	if got := stmt.ClosingBalance.StringFixed(2); got != "350.00" {
		t.Errorf("closing balance = %s, want 350.00", got)
	}
}

func TestAppService_AccountStatementUnknownAccount(t *testing.T) {
	svc, _ := newService(t, nil)

	_, err := svc.GetAccountStatement(context.Background(), app.AccountStatementRequest{
		Scope:       testScope,
		AccountCode: "9999",
	})

	var unknown *core.UnknownAccountError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownAccountError, got %v", err)
	}
}

func TestAppService_PeriodValidation(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.GetProfitAndLoss(ctx, testScope, "", "2024-01-31", "", ""); err == nil {
		t.Error("expected an error for a missing from date")
	}
	if _, err := svc.GetProfitAndLoss(ctx, testScope, "2024-01-31", "2024-01-01", "", ""); err == nil {
		t.Error("expected an error for an inverted period")
	}
	if _, err := svc.GetCashFlow(ctx, testScope, "2024-01-01", "not-a-date"); err == nil {
		t.Error("expected an error for a malformed date")
	}
	if _, err := svc.GetBalanceSheet(ctx, testScope, "2024/01/31", ""); err == nil {
		t.Error("expected an error for a malformed as-of date")
	}
}

// fakeProposer returns a canned proposal without calling any API.
type fakeProposer struct {
	proposal *ai.Proposal
	gotCoA   string
}

func (f *fakeProposer) ProposeEntry(ctx context.Context, event, chartOfAccounts string) (*ai.Proposal, error) {
	f.gotCoA = chartOfAccounts
	return f.proposal, nil
}

func TestAppService_InterpretEventDraft(t *testing.T) {
	fake := &fakeProposer{proposal: &ai.Proposal{
		Date:       "2024-01-10",
		Memo:       "Paid office rent",
		Reasoning:  "Rent is an operating expense settled in cash",
		Confidence: 0.95,
		Lines: []ai.ProposalLine{
			{AccountCode: "6000", Debit: "500.00"},
			{AccountCode: "1000", Credit: "500.00"},
		},
	}}
	svc, _ := newService(t, fake)

	result, err := svc.InterpretEvent(context.Background(), testScope, "paid 500 rent in cash")
	if err != nil {
		t.Fatalf("InterpretEvent failed: %v", err)
	}
	if result.IsClarification {
		t.Fatal("expected a draft, got a clarification")
	}
	if result.Draft == nil || len(result.Draft.Lines) != 2 {
		t.Fatalf("unexpected draft: %+v", result.Draft)
	}
	if result.Draft.Scope != testScope {
		t.Errorf("draft scope = %+v, want %+v", result.Draft.Scope, testScope)
	}
	if result.ValidationError != "" {
		t.Errorf("valid proposal flagged: %s", result.ValidationError)
	}
	if !strings.Contains(fake.gotCoA, "6000 Rent Expense (expense)") {
		t.Errorf("chart of accounts prompt missing expected line: %q", fake.gotCoA)
	}
}

func TestAppService_InterpretEventClarification(t *testing.T) {
	fake := &fakeProposer{proposal: &ai.Proposal{
		NeedsClarification: true,
		Clarification:      "What was the amount?",
	}}
	svc, _ := newService(t, fake)

	result, err := svc.InterpretEvent(context.Background(), testScope, "we paid some rent")
	if err != nil {
		t.Fatalf("InterpretEvent failed: %v", err)
	}
	if !result.IsClarification || result.ClarificationMessage != "What was the amount?" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestAppService_InterpretEventFlagsInvalidProposal(t *testing.T) {
	fake := &fakeProposer{proposal: &ai.Proposal{
		Date: "2024-01-10",
		Memo: "Unbalanced nonsense",
		Lines: []ai.ProposalLine{
			{AccountCode: "6000", Debit: "500.00"},
			{AccountCode: "1000", Credit: "450.00"},
		},
	}}
	svc, _ := newService(t, fake)

	result, err := svc.InterpretEvent(context.Background(), testScope, "paid rent")
	if err != nil {
		t.Fatalf("InterpretEvent failed: %v", err)
	}
	if result.ValidationError == "" {
		t.Error("expected the unbalanced proposal to carry a validation error")
	}
}

func TestAppService_InterpretEventWithoutProposer(t *testing.T) {
	svc, _ := newService(t, nil)
	if _, err := svc.InterpretEvent(context.Background(), testScope, "anything"); err == nil {
		t.Fatal("expected an error when no proposer is configured")
	}
}

func TestAppService_VerifyIntegrity(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, err := svc.PostEntry(ctx, draft("2024-01-10", "sale", dr("1000", "100.00"), cr("4000", "100.00"))); err != nil {
		t.Fatalf("PostEntry failed: %v", err)
	}

	result, err := svc.VerifyIntegrity(ctx, testScope)
	if err != nil {
		t.Fatalf("VerifyIntegrity failed: %v", err)
	}
	if result.EntriesChecked != 1 || len(result.Faults) != 0 {
		t.Errorf("checked %d entries with %d faults, want 1 and 0", result.EntriesChecked, len(result.Faults))
	}
}
