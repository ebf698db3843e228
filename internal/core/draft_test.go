package core_test

import (
	"testing"

	"ledger-core/internal/core"
)

func TestEntryDraft_NormalizationAndValidation(t *testing.T) {
	scope := core.Scope{TenantID: 1, CompanyID: 1}

	tests := []struct {
		name      string
		scope     core.Scope
		date      string
		lines     []core.DraftLine
		expectErr bool
	}{
		{
			name:  "happy path",
			scope: scope,
			date:  "2024-01-10",
			lines: []core.DraftLine{
				{AccountCode: "1000", Debit: "200.00"},
				{AccountCode: "4000", Credit: "200.00"},
			},
			expectErr: false,
		},
		{
			name:  "whitespace and null amounts normalize away",
			scope: scope,
			date:  " 2024-01-10 ",
			lines: []core.DraftLine{
				{AccountCode: " 1000 ", Debit: " 200.00 ", Credit: "null"},
				{AccountCode: "4000", Credit: "200.00"},
			},
			expectErr: false,
		},
		{
			name:  "blank credit normalizes to zero and fails one-side rule",
			scope: scope,
			date:  "2024-01-10",
			lines: []core.DraftLine{
				{AccountCode: "1000", Debit: "200.00"},
				{AccountCode: "4000", Credit: ""},
			},
			expectErr: true,
		},
		{
			name:  "negative amount",
			scope: scope,
			date:  "2024-01-10",
			lines: []core.DraftLine{
				{AccountCode: "1000", Debit: "-100.00"},
				{AccountCode: "4000", Credit: "100.00"},
			},
			expectErr: true,
		},
		{
			name:  "both sides on one line",
			scope: scope,
			date:  "2024-01-10",
			lines: []core.DraftLine{
				{AccountCode: "1000", Debit: "100.00", Credit: "100.00"},
				{AccountCode: "4000", Credit: "100.00"},
			},
			expectErr: true,
		},
		{
			name:  "fewer than two lines",
			scope: scope,
			date:  "2024-01-10",
			lines: []core.DraftLine{
				{AccountCode: "1000", Debit: "100.00"},
			},
			expectErr: true,
		},
		{
			name:  "missing date",
			scope: scope,
			lines: []core.DraftLine{
				{AccountCode: "1000", Debit: "100.00"},
				{AccountCode: "4000", Credit: "100.00"},
			},
			expectErr: true,
		},
		{
			name:  "malformed date",
			scope: scope,
			date:  "10/01/2024",
			lines: []core.DraftLine{
				{AccountCode: "1000", Debit: "100.00"},
				{AccountCode: "4000", Credit: "100.00"},
			},
			expectErr: true,
		},
		{
			name: "missing scope",
			date: "2024-01-10",
			lines: []core.DraftLine{
				{AccountCode: "1000", Debit: "100.00"},
				{AccountCode: "4000", Credit: "100.00"},
			},
			expectErr: true,
		},
		{
			name:  "unparseable amount",
			scope: scope,
			date:  "2024-01-10",
			lines: []core.DraftLine{
				{AccountCode: "1000", Debit: "lots"},
				{AccountCode: "4000", Credit: "100.00"},
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := core.EntryDraft{
				Scope: tt.scope,
				Date:  tt.date,
				Memo:  "test entry",
				Lines: tt.lines,
			}
			d.Normalize()
			err := d.Validate()

			if tt.expectErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestEntryDraft_ValidateDoesNotCheckBalance(t *testing.T) {
	// The trial-balance gate belongs to the Poster, which reports the
	// exact discrepancy; structural validation must pass an unbalanced
	// but well-formed draft through.
	d := core.EntryDraft{
		Scope: core.Scope{TenantID: 1, CompanyID: 1},
		Date:  "2024-01-10",
		Lines: []core.DraftLine{
			{AccountCode: "1000", Debit: "100.00"},
			{AccountCode: "4000", Credit: "90.00"},
		},
	}
	d.Normalize()
	if err := d.Validate(); err != nil {
		t.Errorf("unexpected structural error for unbalanced draft: %v", err)
	}
}
