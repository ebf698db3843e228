// Command seed loads a demo chart of accounts and a handful of journal
// entries into the scope given by TENANT_ID / COMPANY_ID (default 1/1).
// Entries go through the posting primitive, so a seeded database passes
// the same invariants as a live one.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"ledger-core/internal/core"
	"ledger-core/internal/db"
	"ledger-core/internal/storage/postgres"

	"github.com/joho/godotenv"
)

var chart = []core.Account{
	{Code: "1000", Name: "Cash", Type: core.Asset},
	{Code: "1100", Name: "Accounts Receivable", Type: core.Asset},
	{Code: "1200", Name: "Inventory", Type: core.Asset},
	{Code: "1300", Name: "Equipment", Type: core.Asset},
	{Code: "2000", Name: "Accounts Payable", Type: core.Liability},
	{Code: "2500", Name: "Bank Loan", Type: core.Liability},
	{Code: "3000", Name: "Owner's Equity", Type: core.Equity},
	{Code: "4000", Name: "Sales Revenue", Type: core.Revenue},
	{Code: "5000", Name: "Cost of Goods Sold", Type: core.Expense},
	{Code: "6000", Name: "Rent Expense", Type: core.Expense},
	{Code: "6100", Name: "Salaries Expense", Type: core.Expense},
}

func main() {
	_ = godotenv.Load()

	scope := core.Scope{TenantID: envInt("TENANT_ID", 1), CompanyID: envInt("COMPANY_ID", 1)}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	for _, a := range chart {
		_, err := pool.Exec(ctx, `
			INSERT INTO accounts (tenant_id, company_id, code, name, type, active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
			ON CONFLICT (tenant_id, company_id, code) DO NOTHING
		`, scope.TenantID, scope.CompanyID, a.Code, a.Name, string(a.Type))
		if err != nil {
			log.Fatalf("failed to seed account %s: %v", a.Code, err)
		}
	}
	log.Printf("chart of accounts ready for tenant %d company %d", scope.TenantID, scope.CompanyID)

	store := postgres.NewStore(pool)
	poster := core.NewPoster(store, store)

	drafts := []core.EntryDraft{
		entry(scope, "2024-01-02", "Owner capital contribution", "seed-001",
			line("1000", "25000.00", ""), line("3000", "", "25000.00")),
		entry(scope, "2024-01-05", "Bank loan drawdown", "seed-002",
			line("1000", "10000.00", ""), line("2500", "", "10000.00")),
		entry(scope, "2024-01-08", "Equipment purchase", "seed-003",
			line("1300", "8000.00", ""), line("1000", "", "8000.00")),
		entry(scope, "2024-01-10", "Inventory purchase on credit", "seed-004",
			line("1200", "5000.00", ""), line("2000", "", "5000.00")),
		entry(scope, "2024-01-15", "Cash sale with cost booking", "seed-005",
			line("1000", "4500.00", ""), line("4000", "", "4500.00")),
		entry(scope, "2024-01-15", "Cost of goods sold on sale", "seed-006",
			line("5000", "2500.00", ""), line("1200", "", "2500.00")),
		entry(scope, "2024-01-31", "January rent", "seed-007",
			line("6000", "1200.00", ""), line("1000", "", "1200.00")),
		entry(scope, "2024-01-31", "January salaries", "seed-008",
			line("6100", "3000.00", ""), line("1000", "", "3000.00")),
	}

	posted := 0
	for _, draft := range drafts {
		if _, err := poster.Post(ctx, draft); err != nil {
			// Idempotency keys make reruns safe; only report real failures.
			if errors.Is(err, core.ErrDuplicateIdempotencyKey) {
				continue
			}
			log.Fatalf("failed to post %q: %v", draft.Memo, err)
		}
		posted++
	}
	fmt.Printf("seed complete: %d entr%s posted\n", posted, plural(posted))
}

func entry(scope core.Scope, date, memo, key string, lines ...core.DraftLine) core.EntryDraft {
	return core.EntryDraft{Scope: scope, Date: date, Memo: memo, IdempotencyKey: key, Lines: lines}
}

func line(code, debit, credit string) core.DraftLine {
	return core.DraftLine{AccountCode: code, Debit: debit, Credit: credit}
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
