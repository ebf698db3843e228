package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger-core/internal/ai"
	"ledger-core/internal/core"
)

type appService struct {
	accounts  core.AccountRepository
	journal   core.JournalRepository
	poster    *core.Poster
	calc      *core.Calculator
	assembler *core.Assembler
	proposer  ai.ProposerService
	now       func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
// proposer may be nil when no AI backend is configured; InterpretEvent
// then returns an error and every other operation works normally.
func NewAppService(
	accounts core.AccountRepository,
	journal core.JournalRepository,
	poster *core.Poster,
	calc *core.Calculator,
	assembler *core.Assembler,
	proposer ai.ProposerService,
) ApplicationService {
	return &appService{
		accounts:  accounts,
		journal:   journal,
		poster:    poster,
		calc:      calc,
		assembler: assembler,
		proposer:  proposer,
		now:       time.Now,
	}
}

func (s *appService) PostEntry(ctx context.Context, draft core.EntryDraft) (*EntryResult, error) {
	entry, err := s.poster.Post(ctx, draft)
	if err != nil {
		return nil, err
	}
	return &EntryResult{Entry: entry}, nil
}

func (s *appService) ValidateEntry(ctx context.Context, draft core.EntryDraft) error {
	return s.poster.Validate(ctx, draft)
}

func (s *appService) ReverseEntry(ctx context.Context, req ReverseEntryRequest) (*EntryResult, error) {
	original, err := s.journal.GetPosted(ctx, req.Scope, req.EntryID)
	if err != nil {
		return nil, err
	}

	codeByID, err := s.accountCodes(ctx, req.Scope)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date == "" {
		date = original.Date.Format("2006-01-02")
	}
	memo := req.Memo
	if memo == "" {
		memo = fmt.Sprintf("Reversal of entry %d: %s", original.ID, original.Memo)
	}

	draft := core.EntryDraft{
		Scope:           req.Scope,
		Date:            date,
		Memo:            memo,
		ReversesEntryID: original.ID,
		Lines:           make([]core.DraftLine, 0, len(original.Lines)),
	}
	for _, line := range original.Lines {
		code, ok := codeByID[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("entry %d references unknown account id %d", original.ID, line.AccountID)
		}
		// Swap sides: the reversal credits what was debited and vice versa.
		inverse := core.DraftLine{AccountCode: code}
		if line.Debit.IsPositive() {
			inverse.Credit = line.Debit.String()
		} else {
			inverse.Debit = line.Credit.String()
		}
		draft.Lines = append(draft.Lines, inverse)
	}

	entry, err := s.poster.Post(ctx, draft)
	if err != nil {
		return nil, err
	}
	return &EntryResult{Entry: entry}, nil
}

func (s *appService) GetEntry(ctx context.Context, scope core.Scope, entryID int) (*EntryResult, error) {
	entry, err := s.journal.GetPosted(ctx, scope, entryID)
	if err != nil {
		return nil, err
	}
	return &EntryResult{Entry: entry}, nil
}

func (s *appService) ListAccounts(ctx context.Context, scope core.Scope) (*AccountListResult, error) {
	accounts, err := s.accounts.ListAccounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	return &AccountListResult{Accounts: accounts}, nil
}

func (s *appService) GetTrialBalance(ctx context.Context, scope core.Scope, asOfDate string) (*TrialBalanceResult, error) {
	asOf, err := s.parseDateOr(asOfDate, s.now())
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.ListAccounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	balances, err := s.calc.BalanceAsOf(ctx, scope, accounts, asOf)
	if err != nil {
		return nil, err
	}

	result := &TrialBalanceResult{Scope: scope, AsOf: asOf}
	for _, b := range balances {
		net := b.DebitTotal.Sub(b.CreditTotal)
		if net.IsZero() {
			continue
		}
		row := TrialBalanceRow{Code: b.Code, Name: b.Name, Type: b.Type}
		if net.IsPositive() {
			row.Debit = net
		} else {
			row.Credit = net.Neg()
		}
		result.Rows = append(result.Rows, row)
		result.TotalDebits = result.TotalDebits.Add(row.Debit)
		result.TotalCredits = result.TotalCredits.Add(row.Credit)
	}
	return result, nil
}

func (s *appService) GetAccountStatement(ctx context.Context, req AccountStatementRequest) (*AccountStatementResult, error) {
	resolved, err := s.accounts.AccountsByCode(ctx, req.Scope, []string{req.AccountCode})
	if err != nil {
		return nil, err
	}
	account, ok := resolved[req.AccountCode]
	if !ok {
		return nil, &core.UnknownAccountError{AccountCode: req.AccountCode, Scope: req.Scope}
	}

	from, err := s.parseOptionalDate(req.FromDate)
	if err != nil {
		return nil, err
	}
	to, err := s.parseOptionalDate(req.ToDate)
	if err != nil {
		return nil, err
	}

	// One snapshot covers both the opening balance and the windowed lines.
	var toBound time.Time
	if to != nil {
		toBound = *to
	}
	entries, err := s.journal.ListPosted(ctx, req.Scope, time.Time{}, toBound)
	if err != nil {
		return nil, err
	}

	result := &AccountStatementResult{Account: account, FromDate: from, ToDate: to}
	running := &result.OpeningBalance
	for _, e := range entries {
		if err := core.CheckEntryBalanced(e); err != nil {
			return nil, err
		}
		inWindow := from == nil || !e.Date.Before(*from)
		for _, line := range e.Lines {
			if line.AccountID != account.ID {
				continue
			}
			delta := line.Debit.Sub(line.Credit)
			if account.Type.NormalSide() == core.CreditNormal {
				delta = line.Credit.Sub(line.Debit)
			}
			if !inWindow {
				*running = running.Add(delta)
				continue
			}
			prev := result.OpeningBalance
			if n := len(result.Lines); n > 0 {
				prev = result.Lines[n-1].Balance
			}
			result.Lines = append(result.Lines, StatementLine{
				EntryID: e.ID,
				Date:    e.Date,
				Memo:    e.Memo,
				Debit:   line.Debit,
				Credit:  line.Credit,
				Balance: prev.Add(delta),
			})
		}
	}
	result.ClosingBalance = result.OpeningBalance
	if n := len(result.Lines); n > 0 {
		result.ClosingBalance = result.Lines[n-1].Balance
	}
	return result, nil
}

func (s *appService) GetBalanceSheet(ctx context.Context, scope core.Scope, asOfDate, compareDate string) (*core.BalanceSheet, error) {
	asOf, err := s.parseDateOr(asOfDate, s.now())
	if err != nil {
		return nil, err
	}
	comparison, err := s.parseOptionalDate(compareDate)
	if err != nil {
		return nil, err
	}
	return s.assembler.BalanceSheet(ctx, scope, asOf, comparison)
}

func (s *appService) GetProfitAndLoss(ctx context.Context, scope core.Scope, fromDate, toDate, compareFrom, compareTo string) (*core.ProfitAndLoss, error) {
	period, err := s.parsePeriod(fromDate, toDate)
	if err != nil {
		return nil, err
	}

	var comparison *core.Period
	if compareFrom != "" || compareTo != "" {
		p, err := s.parsePeriod(compareFrom, compareTo)
		if err != nil {
			return nil, fmt.Errorf("invalid comparison period: %w", err)
		}
		comparison = &p
	}
	return s.assembler.ProfitAndLoss(ctx, scope, period, comparison)
}

func (s *appService) GetCashFlow(ctx context.Context, scope core.Scope, fromDate, toDate string) (*core.CashFlowStatement, error) {
	period, err := s.parsePeriod(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	return s.assembler.CashFlow(ctx, scope, period)
}

func (s *appService) InterpretEvent(ctx context.Context, scope core.Scope, text string) (*AIResult, error) {
	if s.proposer == nil {
		return nil, errors.New("AI proposer not configured; set OPENAI_API_KEY")
	}

	coa, err := s.chartOfAccounts(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart of accounts: %w", err)
	}

	proposal, err := s.proposer.ProposeEntry(ctx, text, coa)
	if err != nil {
		return nil, err
	}
	if proposal.NeedsClarification {
		return &AIResult{
			IsClarification:      true,
			ClarificationMessage: proposal.Clarification,
		}, nil
	}

	draft := proposal.Draft(scope)
	result := &AIResult{
		Draft:      &draft,
		Reasoning:  proposal.Reasoning,
		Confidence: proposal.Confidence,
	}
	// Surface validation problems with the proposal instead of failing:
	// the caller decides whether to fix the draft or re-ask the model.
	if err := s.poster.Validate(ctx, draft); err != nil {
		result.ValidationError = err.Error()
	}
	return result, nil
}

func (s *appService) VerifyIntegrity(ctx context.Context, scope core.Scope) (*IntegrityResult, error) {
	entries, err := s.journal.ListPosted(ctx, scope, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	result := &IntegrityResult{Scope: scope, EntriesChecked: len(entries)}
	for _, e := range entries {
		err := core.CheckEntryBalanced(e)
		if err == nil {
			continue
		}
		var fault *core.IntegrityFault
		if errors.As(err, &fault) {
			result.Faults = append(result.Faults, *fault)
			continue
		}
		return nil, err
	}
	return result, nil
}

// ── private helpers ───────────────────────────────────────────────────────────

func (s *appService) accountCodes(ctx context.Context, scope core.Scope) (map[int]string, error) {
	accounts, err := s.accounts.ListAccounts(ctx, scope)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]string, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a.Code
	}
	return byID, nil
}

// chartOfAccounts formats the scope's active accounts for the AI prompt.
func (s *appService) chartOfAccounts(ctx context.Context, scope core.Scope) (string, error) {
	accounts, err := s.accounts.ListAccounts(ctx, scope)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, a := range accounts {
		if !a.Active {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s %s (%s)", a.Code, a.Name, a.Type))
	}
	return strings.Join(lines, "\n"), nil
}

func (s *appService) parseDateOr(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", value, err)
	}
	return d, nil
}

func (s *appService) parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", value, err)
	}
	return &d, nil
}

func (s *appService) parsePeriod(fromDate, toDate string) (core.Period, error) {
	if fromDate == "" || toDate == "" {
		return core.Period{}, errors.New("period requires both from and to dates")
	}
	from, err := time.Parse("2006-01-02", fromDate)
	if err != nil {
		return core.Period{}, fmt.Errorf("invalid from date %q: %w", fromDate, err)
	}
	to, err := time.Parse("2006-01-02", toDate)
	if err != nil {
		return core.Period{}, fmt.Errorf("invalid to date %q: %w", toDate, err)
	}
	if to.Before(from) {
		return core.Period{}, fmt.Errorf("period end %s precedes start %s", toDate, fromDate)
	}
	return core.Period{Start: from, End: to}, nil
}
