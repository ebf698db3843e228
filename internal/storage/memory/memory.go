// Package memory provides an in-memory implementation of the ledger
// repositories. It backs the engine's unit tests and the seed tooling;
// production storage is the postgres package.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ledger-core/internal/core"
)

// Store holds accounts and journal entries for any number of scopes. All
// methods are safe for concurrent use; reads return deep copies so a
// caller can never mutate the store through a returned value, and every
// read observes the store under one lock acquisition — a single
// consistent snapshot.
type Store struct {
	mu            sync.RWMutex
	accounts      []core.Account
	entries       []core.JournalEntry
	nextAccountID int
	nextEntryID   int
	nextLineID    int
	idemKeys      map[string]bool // scoped key → used
	reversals     map[string]bool // scoped entry id → reversed
}

func NewStore() *Store {
	return &Store{
		nextAccountID: 1,
		nextEntryID:   1,
		nextLineID:    1,
		idemKeys:      make(map[string]bool),
		reversals:     make(map[string]bool),
	}
}

// AddAccount registers an account, assigning its ID. Intended for seeding;
// accounts are reference data the engine itself never creates.
func (s *Store) AddAccount(a core.Account) core.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextAccountID
	s.nextAccountID++
	s.accounts = append(s.accounts, a)
	return a
}

func (s *Store) ListAccounts(ctx context.Context, scope core.Scope) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Account
	for _, a := range s.accounts {
		if a.TenantID == scope.TenantID && a.CompanyID == scope.CompanyID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) AccountsByCode(ctx context.Context, scope core.Scope, codes []string) (map[string]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}
	out := make(map[string]core.Account, len(codes))
	for _, a := range s.accounts {
		if a.TenantID == scope.TenantID && a.CompanyID == scope.CompanyID && wanted[a.Code] {
			out[a.Code] = a
		}
	}
	return out, nil
}

func (s *Store) ListPosted(ctx context.Context, scope core.Scope, from, to time.Time) ([]core.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.JournalEntry
	for _, e := range s.entries {
		if e.TenantID != scope.TenantID || e.CompanyID != scope.CompanyID {
			continue
		}
		if e.Status != core.EntryStatusPosted {
			continue
		}
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !to.IsZero() && e.Date.After(to) {
			continue
		}
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetPosted(ctx context.Context, scope core.Scope, entryID int) (*core.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == entryID && e.TenantID == scope.TenantID && e.CompanyID == scope.CompanyID &&
			e.Status == core.EntryStatusPosted {
			c := copyEntry(e)
			return &c, nil
		}
	}
	return nil, fmt.Errorf("posted entry %d not found in scope", entryID)
}

func (s *Store) SavePosted(ctx context.Context, entry *core.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID != 0 {
		return core.ErrPostedImmutable
	}
	if entry.IdempotencyKey != "" {
		key := scopedKey(entry.TenantID, entry.CompanyID, entry.IdempotencyKey)
		if s.idemKeys[key] {
			return core.ErrDuplicateIdempotencyKey
		}
		s.idemKeys[key] = true
	}
	if entry.ReversesEntryID != 0 {
		key := scopedKey(entry.TenantID, entry.CompanyID, fmt.Sprint(entry.ReversesEntryID))
		if s.reversals[key] {
			return core.ErrAlreadyReversed
		}
		s.reversals[key] = true
	}

	entry.ID = s.nextEntryID
	s.nextEntryID++
	entry.Status = core.EntryStatusPosted
	for i := range entry.Lines {
		entry.Lines[i].ID = s.nextLineID
		s.nextLineID++
		entry.Lines[i].EntryID = entry.ID
	}
	s.entries = append(s.entries, copyEntry(*entry))
	return nil
}

func scopedKey(tenantID, companyID int, key string) string {
	return fmt.Sprintf("%d/%d/%s", tenantID, companyID, key)
}

func copyEntry(e core.JournalEntry) core.JournalEntry {
	lines := make([]core.JournalLine, len(e.Lines))
	copy(lines, e.Lines)
	e.Lines = lines
	return e
}
