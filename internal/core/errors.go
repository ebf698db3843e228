package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrPostedImmutable is returned when a caller attempts to modify or
// re-post an entry that has already been posted. Corrections are new
// reversing entries, never edits.
var ErrPostedImmutable = errors.New("journal entry is posted and immutable")

// ErrDuplicateIdempotencyKey is returned by repositories when an entry
// with the same idempotency key already exists in the scope.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

// ErrAlreadyReversed is returned when a reversal already exists for the
// target entry.
var ErrAlreadyReversed = errors.New("entry is already reversed")

// BalanceError is the posting primitive's rejection of an unbalanced
// entry draft. It is caller-fixable and never retried automatically.
type BalanceError struct {
	Debits       decimal.Decimal
	Credits      decimal.Decimal
	UnbalancedBy decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("entry does not balance: debits %s != credits %s (off by %s)",
		e.Debits.StringFixed(2), e.Credits.StringFixed(2), e.UnbalancedBy.StringFixed(2))
}

// UnknownAccountError rejects a draft whose line references an account
// that does not exist, is inactive, or belongs to another scope.
type UnknownAccountError struct {
	AccountCode string
	Scope       Scope
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("account code %s not found or inactive for tenant %d company %d",
		e.AccountCode, e.Scope.TenantID, e.Scope.CompanyID)
}

// IntegrityFault reports a POSTED entry found unbalanced at read time.
// The posting primitive makes this unreachable for entries written through
// it; observing one means the store was corrupted or bypassed. It is fatal
// to the computation that hit it — no silent correction is attempted.
type IntegrityFault struct {
	EntryID      int
	UnbalancedBy decimal.Decimal
}

func (e *IntegrityFault) Error() string {
	return fmt.Sprintf("integrity fault: posted entry %d is unbalanced by %s",
		e.EntryID, e.UnbalancedBy.StringFixed(2))
}

// Warning codes carried inside assembled statements. Warnings are data,
// not errors: upstream records may legitimately be mid-correction, so the
// caller decides how severe a warning is.
const (
	WarnBalanceSheetMismatch = "BALANCE_SHEET_MISMATCH"
	WarnCashReconciliation   = "CASH_RECONCILIATION"
	WarnClassificationGap    = "CLASSIFICATION_GAP"
)

// Warning is a non-fatal consistency note attached to a statement.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
