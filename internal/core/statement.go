package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ── Statement types ───────────────────────────────────────────────────────────

// ReportMetadata records when and for whom a statement was generated.
type ReportMetadata struct {
	Scope       Scope     `json:"scope"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Variance is the change of a line or total versus the comparison window.
// PercentDefined is false when the prior value is zero — a percentage
// against a zero base is undefined, never infinite.
type Variance struct {
	Absolute       decimal.Decimal `json:"absolute"`
	Percent        decimal.Decimal `json:"percent"`
	PercentDefined bool            `json:"percent_defined"`
}

// LineItem is one account's balance inside a statement section.
type LineItem struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Amount      decimal.Decimal `json:"amount"`
	Variance    *Variance       `json:"variance,omitempty"`
}

// StatementSection groups line items under one classification section.
type StatementSection struct {
	Section  Section         `json:"section"`
	Lines    []LineItem      `json:"lines"`
	Total    decimal.Decimal `json:"total"`
	Variance *Variance       `json:"variance,omitempty"`
}

// Ratio is a financial ratio with an explicit undefined flag. When the
// denominator is zero the value is reported as 0 with Defined=false,
// never as NaN or Inf.
type Ratio struct {
	Value   decimal.Decimal `json:"value"`
	Defined bool            `json:"defined"`
}

// BalanceSheet is the assembled point-in-time statement of financial
// position. Unclassified is always present in the output when non-empty
// so no balance silently disappears from the report.
type BalanceSheet struct {
	Meta         ReportMetadata `json:"meta"`
	AsOf         time.Time      `json:"as_of"`
	ComparisonOf *time.Time     `json:"comparison_as_of,omitempty"`

	CurrentAssets       StatementSection `json:"current_assets"`
	FixedAssets         StatementSection `json:"fixed_assets"`
	OtherAssets         StatementSection `json:"other_assets"`
	CurrentLiabilities  StatementSection `json:"current_liabilities"`
	LongTermLiabilities StatementSection `json:"long_term_liabilities"`
	OtherLiabilities    StatementSection `json:"other_liabilities"`
	Equity              StatementSection `json:"equity"`
	Unclassified        StatementSection `json:"unclassified"`

	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`

	CurrentRatio     Ratio `json:"current_ratio"`
	QuickRatio       Ratio `json:"quick_ratio"`
	DebtToEquity     Ratio `json:"debt_to_equity"`
	EquityMultiplier Ratio `json:"equity_multiplier"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// ProfitAndLoss is the assembled statement of operations for one period.
type ProfitAndLoss struct {
	Meta             ReportMetadata `json:"meta"`
	Period           Period         `json:"period"`
	ComparisonPeriod *Period        `json:"comparison_period,omitempty"`

	Revenue           StatementSection `json:"revenue"`
	OtherIncome       StatementSection `json:"other_income"`
	CostOfSales       StatementSection `json:"cost_of_sales"`
	OperatingExpenses StatementSection `json:"operating_expenses"`
	OtherExpenses     StatementSection `json:"other_expenses"`
	Unclassified      StatementSection `json:"unclassified"`

	GrossProfit     decimal.Decimal `json:"gross_profit"`
	OperatingIncome decimal.Decimal `json:"operating_income"`
	NetIncome       decimal.Decimal `json:"net_income"`

	GrossMargin     Ratio `json:"gross_margin"`
	OperatingMargin Ratio `json:"operating_margin"`
	NetMargin       Ratio `json:"net_margin"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// ── Assembler ─────────────────────────────────────────────────────────────────

// Assembler builds statements from balances and classifications. It is
// read-only and safe for unbounded concurrent use; each call works off a
// single repository snapshot.
//
// Now is the generation clock for ReportMetadata. It defaults to
// time.Now; tests pin it so identical inputs produce identical output.
type Assembler struct {
	classifier *Classifier
	calc       *Calculator
	accounts   AccountRepository
	journal    JournalRepository
	Now        func() time.Time
}

func NewAssembler(classifier *Classifier, calc *Calculator, accounts AccountRepository, journal JournalRepository) *Assembler {
	return &Assembler{
		classifier: classifier,
		calc:       calc,
		accounts:   accounts,
		journal:    journal,
		Now:        time.Now,
	}
}

// BalanceSheet assembles the statement of financial position as of a
// date, with optional comparatives against a prior date.
//
// The A = L + E identity is checked and surfaced as a warning, not a
// failure: upstream data may be legitimately mid-correction and hiding
// the mismatch would be worse than reporting it.
func (a *Assembler) BalanceSheet(ctx context.Context, scope Scope, asOf time.Time, comparison *time.Time) (*BalanceSheet, error) {
	accounts, err := a.accounts.ListAccounts(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	stock := filterAccounts(accounts, func(t AccountType) bool { return !t.IsFlow() })

	sheet, err := a.balanceSheetAt(ctx, scope, stock, asOf)
	if err != nil {
		return nil, err
	}

	if comparison != nil {
		prior, err := a.balanceSheetAt(ctx, scope, stock, *comparison)
		if err != nil {
			return nil, fmt.Errorf("failed to assemble comparison sheet: %w", err)
		}
		sheet.ComparisonOf = comparison
		for _, pair := range []struct{ cur, prev *StatementSection }{
			{&sheet.CurrentAssets, &prior.CurrentAssets},
			{&sheet.FixedAssets, &prior.FixedAssets},
			{&sheet.OtherAssets, &prior.OtherAssets},
			{&sheet.CurrentLiabilities, &prior.CurrentLiabilities},
			{&sheet.LongTermLiabilities, &prior.LongTermLiabilities},
			{&sheet.OtherLiabilities, &prior.OtherLiabilities},
			{&sheet.Equity, &prior.Equity},
			{&sheet.Unclassified, &prior.Unclassified},
		} {
			attachSectionVariance(pair.cur, pair.prev)
		}
	}

	sheet.Meta = ReportMetadata{Scope: scope, GeneratedAt: a.Now()}
	return sheet, nil
}

// balanceSheetAt computes one side of the (possibly comparative) sheet.
func (a *Assembler) balanceSheetAt(ctx context.Context, scope Scope, accounts []Account, asOf time.Time) (*BalanceSheet, error) {
	balances, err := a.calc.BalanceAsOf(ctx, scope, accounts, asOf)
	if err != nil {
		return nil, err
	}

	sheet := &BalanceSheet{AsOf: asOf}
	sections := map[Section]*StatementSection{
		SectionCurrentAssets:       &sheet.CurrentAssets,
		SectionFixedAssets:         &sheet.FixedAssets,
		SectionOtherAssets:         &sheet.OtherAssets,
		SectionCurrentLiabilities:  &sheet.CurrentLiabilities,
		SectionLongTermLiabilities: &sheet.LongTermLiabilities,
		SectionOtherLiabilities:    &sheet.OtherLiabilities,
		SectionEquity:              &sheet.Equity,
		SectionUnclassified:        &sheet.Unclassified,
	}
	for sec, target := range sections {
		target.Section = sec
	}

	var inventory decimal.Decimal
	byID := accountIndex(accounts)
	for _, b := range balances {
		if b.Balance.IsZero() {
			// Zero-activity accounts satisfy the completeness invariant at
			// the balance layer; statements render only accounts that carry
			// an amount.
			continue
		}
		cls := a.classifier.Classify(byID[b.AccountID])
		target, ok := sections[cls.Section]
		if !ok {
			target = &sheet.Unclassified
		}
		target.Lines = append(target.Lines, LineItem{AccountCode: b.Code, AccountName: b.Name, Amount: b.Balance})
		target.Total = target.Total.Add(b.Balance)
		if cls.HasTag(TagInventory) {
			inventory = inventory.Add(b.Balance)
		}
	}
	for _, target := range sections {
		sortLines(target.Lines)
	}

	sheet.TotalAssets = sheet.CurrentAssets.Total.Add(sheet.FixedAssets.Total).Add(sheet.OtherAssets.Total)
	sheet.TotalLiabilities = sheet.CurrentLiabilities.Total.Add(sheet.LongTermLiabilities.Total).Add(sheet.OtherLiabilities.Total)
	sheet.TotalEquity = sheet.Equity.Total

	sheet.CurrentRatio = ratio(sheet.CurrentAssets.Total, sheet.CurrentLiabilities.Total)
	sheet.QuickRatio = ratio(sheet.CurrentAssets.Total.Sub(inventory), sheet.CurrentLiabilities.Total)
	sheet.DebtToEquity = ratio(sheet.TotalLiabilities, sheet.TotalEquity)
	sheet.EquityMultiplier = ratio(sheet.TotalAssets, sheet.TotalEquity)

	if !sheet.TotalAssets.Equal(sheet.TotalLiabilities.Add(sheet.TotalEquity)) {
		diff := sheet.TotalAssets.Sub(sheet.TotalLiabilities.Add(sheet.TotalEquity))
		sheet.Warnings = append(sheet.Warnings, Warning{
			Code: WarnBalanceSheetMismatch,
			Message: fmt.Sprintf("assets %s != liabilities %s + equity %s (off by %s)",
				sheet.TotalAssets.StringFixed(2), sheet.TotalLiabilities.StringFixed(2),
				sheet.TotalEquity.StringFixed(2), diff.StringFixed(2)),
		})
	}
	if len(sheet.Unclassified.Lines) > 0 {
		sheet.Warnings = append(sheet.Warnings, Warning{
			Code:    WarnClassificationGap,
			Message: fmt.Sprintf("%d account(s) matched no classification rule; reported under unclassified", len(sheet.Unclassified.Lines)),
		})
	}
	return sheet, nil
}

// ProfitAndLoss assembles the statement of operations for the period,
// with optional comparatives against a prior period.
func (a *Assembler) ProfitAndLoss(ctx context.Context, scope Scope, period Period, comparison *Period) (*ProfitAndLoss, error) {
	accounts, err := a.accounts.ListAccounts(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	flow := filterAccounts(accounts, AccountType.IsFlow)

	pl, err := a.profitAndLossFor(ctx, scope, flow, period)
	if err != nil {
		return nil, err
	}

	if comparison != nil {
		prior, err := a.profitAndLossFor(ctx, scope, flow, *comparison)
		if err != nil {
			return nil, fmt.Errorf("failed to assemble comparison period: %w", err)
		}
		pl.ComparisonPeriod = comparison
		for _, pair := range []struct{ cur, prev *StatementSection }{
			{&pl.Revenue, &prior.Revenue},
			{&pl.OtherIncome, &prior.OtherIncome},
			{&pl.CostOfSales, &prior.CostOfSales},
			{&pl.OperatingExpenses, &prior.OperatingExpenses},
			{&pl.OtherExpenses, &prior.OtherExpenses},
			{&pl.Unclassified, &prior.Unclassified},
		} {
			attachSectionVariance(pair.cur, pair.prev)
		}
	}

	pl.Meta = ReportMetadata{Scope: scope, GeneratedAt: a.Now()}
	return pl, nil
}

func (a *Assembler) profitAndLossFor(ctx context.Context, scope Scope, accounts []Account, period Period) (*ProfitAndLoss, error) {
	balances, err := a.calc.BalanceForPeriod(ctx, scope, accounts, period)
	if err != nil {
		return nil, err
	}

	pl := &ProfitAndLoss{Period: period}
	sections := map[Section]*StatementSection{
		SectionRevenue:           &pl.Revenue,
		SectionOtherIncome:       &pl.OtherIncome,
		SectionCostOfSales:       &pl.CostOfSales,
		SectionOperatingExpenses: &pl.OperatingExpenses,
		SectionOtherExpenses:     &pl.OtherExpenses,
		SectionUnclassified:      &pl.Unclassified,
	}
	for sec, target := range sections {
		target.Section = sec
	}

	byID := accountIndex(accounts)
	for _, b := range balances {
		if b.Balance.IsZero() {
			continue
		}
		cls := a.classifier.Classify(byID[b.AccountID])
		target, ok := sections[cls.Section]
		if !ok {
			target = &pl.Unclassified
		}
		target.Lines = append(target.Lines, LineItem{AccountCode: b.Code, AccountName: b.Name, Amount: b.Balance})
		target.Total = target.Total.Add(b.Balance)
	}
	for _, target := range sections {
		sortLines(target.Lines)
	}

	pl.GrossProfit = pl.Revenue.Total.Sub(pl.CostOfSales.Total)
	pl.OperatingIncome = pl.GrossProfit.Sub(pl.OperatingExpenses.Total)
	pl.NetIncome = pl.OperatingIncome.Add(pl.OtherIncome.Total).Sub(pl.OtherExpenses.Total)

	// Margins are percentages of section revenue. The gross margin is
	// additionally undefined when no cost-of-sales accounts exist — a
	// 100% margin over an absent COGS section is noise, not signal.
	pl.OperatingMargin = marginPercent(pl.OperatingIncome, pl.Revenue.Total)
	pl.NetMargin = marginPercent(pl.NetIncome, pl.Revenue.Total)
	if len(pl.CostOfSales.Lines) == 0 {
		pl.GrossMargin = Ratio{}
	} else {
		pl.GrossMargin = marginPercent(pl.GrossProfit, pl.Revenue.Total)
	}

	if len(pl.Unclassified.Lines) > 0 {
		pl.Warnings = append(pl.Warnings, Warning{
			Code:    WarnClassificationGap,
			Message: fmt.Sprintf("%d account(s) matched no classification rule; reported under unclassified", len(pl.Unclassified.Lines)),
		})
	}
	return pl, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

var hundred = decimal.NewFromInt(100)

// ratio divides safely: a zero denominator yields an undefined ratio
// instead of a panic or an infinity.
func ratio(num, den decimal.Decimal) Ratio {
	if den.IsZero() {
		return Ratio{}
	}
	return Ratio{Value: num.Div(den), Defined: true}
}

// marginPercent expresses num as a percentage of revenue.
func marginPercent(num, revenue decimal.Decimal) Ratio {
	if revenue.IsZero() {
		return Ratio{}
	}
	return Ratio{Value: num.Mul(hundred).Div(revenue), Defined: true}
}

// variance computes current-vs-prior change. Percent change against a
// zero base is flagged undefined.
func variance(current, prior decimal.Decimal) *Variance {
	v := &Variance{Absolute: current.Sub(prior)}
	if !prior.IsZero() {
		v.Percent = v.Absolute.Mul(hundred).Div(prior)
		v.PercentDefined = true
	}
	return v
}

// attachSectionVariance annotates every line and the section total with
// its change versus the prior section. Lines present only in one window
// are compared against zero.
func attachSectionVariance(cur, prior *StatementSection) {
	priorByCode := make(map[string]decimal.Decimal, len(prior.Lines))
	for _, line := range prior.Lines {
		priorByCode[line.AccountCode] = line.Amount
	}
	for i := range cur.Lines {
		cur.Lines[i].Variance = variance(cur.Lines[i].Amount, priorByCode[cur.Lines[i].AccountCode])
	}
	cur.Variance = variance(cur.Total, prior.Total)
}

func filterAccounts(accounts []Account, keep func(AccountType) bool) []Account {
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		if keep(a.Type) || !a.Type.Valid() {
			out = append(out, a)
		}
	}
	return out
}

func accountIndex(accounts []Account) map[int]Account {
	byID := make(map[int]Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return byID
}

func sortLines(lines []LineItem) {
	sort.Slice(lines, func(i, j int) bool { return lines[i].AccountCode < lines[j].AccountCode })
}
