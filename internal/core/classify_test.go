package core_test

import (
	"testing"

	"ledger-core/internal/core"
)

func TestClassifier_DefaultTable(t *testing.T) {
	c := core.NewClassifier(core.DefaultClassificationTable())

	tests := []struct {
		name    string
		code    string
		accType core.AccountType
		section core.Section
		side    core.Side
	}{
		{"cash is a current asset", "1000", core.Asset, core.SectionCurrentAssets, core.DebitNormal},
		{"receivables are current assets", "1100", core.Asset, core.SectionCurrentAssets, core.DebitNormal},
		{"inventory is a current asset", "1200", core.Asset, core.SectionCurrentAssets, core.DebitNormal},
		{"equipment is a fixed asset", "1300", core.Asset, core.SectionFixedAssets, core.DebitNormal},
		{"accumulated depreciation is a fixed asset", "1400", core.Asset, core.SectionFixedAssets, core.DebitNormal},
		{"deposits fall back to other assets", "1900", core.Asset, core.SectionOtherAssets, core.DebitNormal},
		{"payables are current liabilities", "2000", core.Liability, core.SectionCurrentLiabilities, core.CreditNormal},
		{"loans are long-term liabilities", "2500", core.Liability, core.SectionLongTermLiabilities, core.CreditNormal},
		{"deferred items fall back to other liabilities", "2900", core.Liability, core.SectionOtherLiabilities, core.CreditNormal},
		{"owner equity", "3000", core.Equity, core.SectionEquity, core.CreditNormal},
		{"sales revenue", "4000", core.Revenue, core.SectionRevenue, core.CreditNormal},
		{"cost of sales", "5000", core.Expense, core.SectionCostOfSales, core.DebitNormal},
		{"rent is an operating expense", "6100", core.Expense, core.SectionOperatingExpenses, core.DebitNormal},
		{"interest income is other income", "7000", core.Revenue, core.SectionOtherIncome, core.CreditNormal},
		{"interest expense is other expense", "8000", core.Expense, core.SectionOtherExpenses, core.DebitNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(core.Account{Code: tt.code, Type: tt.accType})
			if got.Section != tt.section {
				t.Errorf("Classify(%s/%s) section = %s, want %s", tt.code, tt.accType, got.Section, tt.section)
			}
			if got.NormalSide != tt.side {
				t.Errorf("Classify(%s/%s) side = %s, want %s", tt.code, tt.accType, got.NormalSide, tt.side)
			}
		})
	}
}

func TestClassifier_NormalSideComesFromTypeOnly(t *testing.T) {
	c := core.NewClassifier(core.DefaultClassificationTable())

	// A revenue account with an asset-range code: the side must still be
	// credit-normal, and the misfiled prefix must not drag it onto the
	// balance sheet.
	got := c.Classify(core.Account{Code: "1000", Type: core.Revenue})
	if got.NormalSide != core.CreditNormal {
		t.Errorf("side = %s, want credit-normal regardless of code", got.NormalSide)
	}
	if got.Section != core.SectionOtherIncome {
		t.Errorf("section = %s, want fallback to %s", got.Section, core.SectionOtherIncome)
	}
}

func TestClassifier_UnknownCodeFallsBackToType(t *testing.T) {
	c := core.NewClassifier(core.DefaultClassificationTable())

	got := c.Classify(core.Account{Code: "Z999", Type: core.Expense})
	if got.Section != core.SectionOtherExpenses {
		t.Errorf("section = %s, want %s", got.Section, core.SectionOtherExpenses)
	}
}

func TestClassifier_UnknownTypeLandsInUnclassified(t *testing.T) {
	c := core.NewClassifier(core.DefaultClassificationTable())

	got := c.Classify(core.Account{Code: "Z999", Type: core.AccountType("mystery")})
	if got.Section != core.SectionUnclassified {
		t.Errorf("section = %s, want %s", got.Section, core.SectionUnclassified)
	}
}

func TestClassifier_LongestPrefixWins(t *testing.T) {
	c := core.NewClassifier([]core.PrefixRule{
		{Prefix: "1", Section: core.SectionOtherAssets},
		{Prefix: "13", Section: core.SectionFixedAssets},
	})

	got := c.Classify(core.Account{Code: "1310", Type: core.Asset})
	if got.Section != core.SectionFixedAssets {
		t.Errorf("section = %s, want the longer prefix to win", got.Section)
	}
}

func TestClassifier_EmptyTableUsesTypeDefaults(t *testing.T) {
	c := core.NewClassifier(nil)

	got := c.Classify(core.Account{Code: "1000", Type: core.Asset})
	if got.Section != core.SectionOtherAssets {
		t.Errorf("section = %s, want %s with no rules configured", got.Section, core.SectionOtherAssets)
	}
}

func TestClassifier_Tags(t *testing.T) {
	c := core.NewClassifier(core.DefaultClassificationTable())

	if !c.Classify(core.Account{Code: "1010", Type: core.Asset}).HasTag(core.TagCash) {
		t.Error("10xx should carry the cash tag")
	}
	if !c.Classify(core.Account{Code: "1200", Type: core.Asset}).HasTag(core.TagInventory) {
		t.Error("12xx should carry the inventory tag")
	}
	if !c.Classify(core.Account{Code: "2500", Type: core.Liability}).HasTag(core.TagLongTermDebt) {
		t.Error("25xx should carry the long-term-debt tag")
	}
}
