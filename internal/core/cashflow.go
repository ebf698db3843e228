package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CashFlowBucket is one of the three standard cash-flow activities.
type CashFlowBucket string

const (
	BucketOperating CashFlowBucket = "operating"
	BucketInvesting CashFlowBucket = "investing"
	BucketFinancing CashFlowBucket = "financing"
)

// CashMovement is one entry's contribution to a bucket. Positive amounts
// are inflows to cash, negative are outflows.
type CashMovement struct {
	EntryID int             `json:"entry_id"`
	Date    time.Time       `json:"date"`
	Memo    string          `json:"memo"`
	Bucket  CashFlowBucket  `json:"bucket"`
	Amount  decimal.Decimal `json:"amount"`
}

// CashFlowSection aggregates the movements of one bucket.
type CashFlowSection struct {
	Bucket    CashFlowBucket  `json:"bucket"`
	Movements []CashMovement  `json:"movements"`
	Total     decimal.Decimal `json:"total"`
}

// CashFlowStatement reports the period's cash activity split into
// operating, investing and financing, reconciled against the change in
// cash balances.
type CashFlowStatement struct {
	Meta   ReportMetadata `json:"meta"`
	Period Period         `json:"period"`

	Operating CashFlowSection `json:"operating"`
	Investing CashFlowSection `json:"investing"`
	Financing CashFlowSection `json:"financing"`

	NetCashFlow   decimal.Decimal `json:"net_cash_flow"`
	BeginningCash decimal.Decimal `json:"beginning_cash"`
	EndingCash    decimal.Decimal `json:"ending_cash"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// Bucketizer classifies cash movements by inspecting the counter-accounts
// that share an entry with the cash line: fixed-asset counterparts make a
// movement investing, equity and long-term-debt counterparts make it
// financing, everything else is operating. It reads raw lines, not
// balances — the only component that does.
type Bucketizer struct {
	classifier *Classifier
}

func NewBucketizer(classifier *Classifier) *Bucketizer {
	return &Bucketizer{classifier: classifier}
}

// Bucketize walks posted entries and emits one movement per entry and
// bucket. Entries that never touch a cash account are skipped. When an
// entry's non-cash siblings span several buckets, the cash delta is
// allocated proportionally to each bucket's share of the sibling
// amounts, with the final bucket absorbing the rounding residue so the
// movements always sum exactly to the cash delta.
func (b *Bucketizer) Bucketize(entries []JournalEntry, accountsByID map[int]Account) ([]CashMovement, error) {
	var movements []CashMovement

	for _, e := range entries {
		if err := CheckEntryBalanced(e); err != nil {
			return nil, err
		}

		// Net cash delta for this entry: debit to cash is an inflow.
		var delta decimal.Decimal
		touchesCash := false
		for _, line := range e.Lines {
			if b.isCash(accountsByID[line.AccountID]) {
				touchesCash = true
				delta = delta.Add(line.Debit).Sub(line.Credit)
			}
		}
		if !touchesCash || delta.IsZero() {
			continue
		}

		// Weigh non-cash siblings by magnitude per bucket.
		weights := map[CashFlowBucket]decimal.Decimal{}
		var totalWeight decimal.Decimal
		for _, line := range e.Lines {
			account := accountsByID[line.AccountID]
			if b.isCash(account) {
				continue
			}
			bucket := b.bucketFor(account)
			weight := line.Debit.Add(line.Credit)
			weights[bucket] = weights[bucket].Add(weight)
			totalWeight = totalWeight.Add(weight)
		}

		if totalWeight.IsZero() {
			// Entry moved only cash accounts (e.g. a bank transfer with a
			// net residual). Nothing to classify against; call it operating.
			movements = append(movements, CashMovement{
				EntryID: e.ID, Date: e.Date, Memo: e.Memo,
				Bucket: BucketOperating, Amount: delta,
			})
			continue
		}

		remaining := delta
		buckets := presentBuckets(weights)
		for i, bucket := range buckets {
			amount := remaining
			if i < len(buckets)-1 {
				amount = delta.Mul(weights[bucket]).DivRound(totalWeight, 2)
			}
			movements = append(movements, CashMovement{
				EntryID: e.ID, Date: e.Date, Memo: e.Memo,
				Bucket: bucket, Amount: amount,
			})
			remaining = remaining.Sub(amount)
		}
	}
	return movements, nil
}

func (b *Bucketizer) isCash(a Account) bool {
	return b.classifier.Classify(a).HasTag(TagCash)
}

func (b *Bucketizer) bucketFor(a Account) CashFlowBucket {
	cls := b.classifier.Classify(a)
	switch {
	case cls.Section == SectionFixedAssets || cls.HasTag(TagFixedAsset):
		return BucketInvesting
	case cls.Section == SectionEquity || cls.HasTag(TagLongTermDebt):
		return BucketFinancing
	default:
		return BucketOperating
	}
}

// presentBuckets returns the buckets with non-zero weight in a stable
// operating/investing/financing order.
func presentBuckets(weights map[CashFlowBucket]decimal.Decimal) []CashFlowBucket {
	var out []CashFlowBucket
	for _, bucket := range []CashFlowBucket{BucketOperating, BucketInvesting, BucketFinancing} {
		if w, ok := weights[bucket]; ok && !w.IsZero() {
			out = append(out, bucket)
		}
	}
	return out
}

// CashFlow assembles the cash-flow statement for the period. All figures
// come from one ListPosted snapshot: beginning cash is the cash balance
// from entries dated strictly before the period, ending cash includes
// everything through the period end, and the bucketized movements cover
// the period itself. The computed net is reconciled against
// endingCash − beginningCash; a discrepancy beyond the minor unit is
// surfaced as a warning.
func (a *Assembler) CashFlow(ctx context.Context, scope Scope, period Period) (*CashFlowStatement, error) {
	accounts, err := a.accounts.ListAccounts(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	entries, err := a.journal.ListPosted(ctx, scope, time.Time{}, period.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list posted entries: %w", err)
	}

	byID := accountIndex(accounts)
	bucketizer := NewBucketizer(a.classifier)

	var inPeriod []JournalEntry
	var beginning, ending decimal.Decimal
	for _, e := range entries {
		if err := CheckEntryBalanced(e); err != nil {
			return nil, err
		}
		var cashDelta decimal.Decimal
		for _, line := range e.Lines {
			if bucketizer.isCash(byID[line.AccountID]) {
				cashDelta = cashDelta.Add(line.Debit).Sub(line.Credit)
			}
		}
		ending = ending.Add(cashDelta)
		if e.Date.Before(period.Start) {
			beginning = beginning.Add(cashDelta)
		}
		if period.Contains(e.Date) {
			inPeriod = append(inPeriod, e)
		}
	}

	movements, err := bucketizer.Bucketize(inPeriod, byID)
	if err != nil {
		return nil, err
	}

	stmt := &CashFlowStatement{
		Period:        period,
		Operating:     CashFlowSection{Bucket: BucketOperating},
		Investing:     CashFlowSection{Bucket: BucketInvesting},
		Financing:     CashFlowSection{Bucket: BucketFinancing},
		BeginningCash: beginning,
		EndingCash:    ending,
	}
	for _, m := range movements {
		switch m.Bucket {
		case BucketInvesting:
			stmt.Investing.Movements = append(stmt.Investing.Movements, m)
			stmt.Investing.Total = stmt.Investing.Total.Add(m.Amount)
		case BucketFinancing:
			stmt.Financing.Movements = append(stmt.Financing.Movements, m)
			stmt.Financing.Total = stmt.Financing.Total.Add(m.Amount)
		default:
			stmt.Operating.Movements = append(stmt.Operating.Movements, m)
			stmt.Operating.Total = stmt.Operating.Total.Add(m.Amount)
		}
	}
	stmt.NetCashFlow = stmt.Operating.Total.Add(stmt.Investing.Total).Add(stmt.Financing.Total)

	if diff := stmt.NetCashFlow.Sub(stmt.EndingCash.Sub(stmt.BeginningCash)); diff.Abs().GreaterThanOrEqual(minorUnit) {
		stmt.Warnings = append(stmt.Warnings, Warning{
			Code: WarnCashReconciliation,
			Message: fmt.Sprintf("net cash flow %s does not reconcile with cash delta %s (off by %s)",
				stmt.NetCashFlow.StringFixed(2),
				stmt.EndingCash.Sub(stmt.BeginningCash).StringFixed(2),
				diff.Abs().StringFixed(2)),
		})
	}

	stmt.Meta = ReportMetadata{Scope: scope, GeneratedAt: a.Now()}
	return stmt, nil
}
