// Command verify-ledger re-checks the trial-balance invariant on every
// posted entry in a scope. A clean run exits 0; any unbalanced entry is
// printed and the process exits 1.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"ledger-core/internal/core"
	"ledger-core/internal/db"
	"ledger-core/internal/storage/postgres"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	scope := core.Scope{TenantID: envInt("TENANT_ID", 1), CompanyID: envInt("COMPANY_ID", 1)}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	entries, err := store.ListPosted(ctx, scope, time.Time{}, time.Time{})
	if err != nil {
		log.Fatalf("failed to list posted entries: %v", err)
	}

	faults := 0
	for _, e := range entries {
		if err := core.CheckEntryBalanced(e); err != nil {
			fmt.Printf("FAULT: %v\n", err)
			faults++
		}
	}

	fmt.Printf("checked %d posted entries for tenant %d company %d: %d fault(s)\n",
		len(entries), scope.TenantID, scope.CompanyID, faults)
	if faults > 0 {
		os.Exit(1)
	}
}

func envInt(name string, fallback int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
