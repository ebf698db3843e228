package core

import (
	"sort"
	"strings"
)

// Section is a statement section an account's balance is grouped into.
type Section string

const (
	SectionCurrentAssets       Section = "current_assets"
	SectionFixedAssets         Section = "fixed_assets"
	SectionOtherAssets         Section = "other_assets"
	SectionCurrentLiabilities  Section = "current_liabilities"
	SectionLongTermLiabilities Section = "long_term_liabilities"
	SectionOtherLiabilities    Section = "other_liabilities"
	SectionEquity              Section = "equity"
	SectionRevenue             Section = "revenue"
	SectionOtherIncome         Section = "other_income"
	SectionCostOfSales         Section = "cost_of_sales"
	SectionOperatingExpenses   Section = "operating_expenses"
	SectionOtherExpenses       Section = "other_expenses"
	SectionUnclassified        Section = "unclassified"
)

// Tag marks accounts with a role some computation cares about beyond the
// section: the quick ratio excludes inventory, the cash-flow bucketizer
// needs cash accounts and the investing/financing discriminators.
type Tag string

const (
	TagCash         Tag = "cash"
	TagReceivable   Tag = "receivable"
	TagInventory    Tag = "inventory"
	TagFixedAsset   Tag = "fixed_asset"
	TagLongTermDebt Tag = "long_term_debt"
)

// PrefixRule maps an account-code prefix to a section. Longer prefixes win
// over shorter ones, so "11" takes precedence over "1".
type PrefixRule struct {
	Prefix  string
	Section Section
	Tags    []Tag
}

// Classification is the classifier's verdict for one account.
type Classification struct {
	Section    Section
	NormalSide Side
	Tags       []Tag
}

// HasTag reports whether the classification carries the given tag.
func (c Classification) HasTag(t Tag) bool {
	for _, tag := range c.Tags {
		if tag == t {
			return true
		}
	}
	return false
}

// Classifier maps accounts to statement sections. It is a pure lookup over
// an immutable rule table: no I/O, deterministic, safe for concurrent use.
type Classifier struct {
	rules []PrefixRule // sorted longest prefix first
}

// NewClassifier builds a classifier from the given rule table. The table
// is copied; later mutation of rules by the caller has no effect.
func NewClassifier(rules []PrefixRule) *Classifier {
	sorted := make([]PrefixRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &Classifier{rules: sorted}
}

// DefaultClassificationTable encodes the conventional numeric chart:
// 1xxx assets (10 cash, 11 receivables, 12 inventory current; 13/14 fixed),
// 2xxx liabilities (20-22 current, 24/25 long-term), 3xxx equity,
// 4xxx revenue, 5xxx cost of sales, 6xxx operating expense,
// 7xxx other income, 8xxx other expense.
// Tenants with a different chart supply their own table to NewClassifier.
func DefaultClassificationTable() []PrefixRule {
	return []PrefixRule{
		{Prefix: "10", Section: SectionCurrentAssets, Tags: []Tag{TagCash}},
		{Prefix: "11", Section: SectionCurrentAssets, Tags: []Tag{TagReceivable}},
		{Prefix: "12", Section: SectionCurrentAssets, Tags: []Tag{TagInventory}},
		{Prefix: "13", Section: SectionFixedAssets, Tags: []Tag{TagFixedAsset}},
		{Prefix: "14", Section: SectionFixedAssets, Tags: []Tag{TagFixedAsset}},
		{Prefix: "1", Section: SectionOtherAssets},
		{Prefix: "20", Section: SectionCurrentLiabilities},
		{Prefix: "21", Section: SectionCurrentLiabilities},
		{Prefix: "22", Section: SectionCurrentLiabilities},
		{Prefix: "24", Section: SectionLongTermLiabilities, Tags: []Tag{TagLongTermDebt}},
		{Prefix: "25", Section: SectionLongTermLiabilities, Tags: []Tag{TagLongTermDebt}},
		{Prefix: "2", Section: SectionOtherLiabilities},
		{Prefix: "3", Section: SectionEquity},
		{Prefix: "4", Section: SectionRevenue},
		{Prefix: "5", Section: SectionCostOfSales},
		{Prefix: "6", Section: SectionOperatingExpenses},
		{Prefix: "7", Section: SectionOtherIncome},
		{Prefix: "8", Section: SectionOtherExpenses},
	}
}

// Classify places an account in a statement section and resolves its
// normal balance side. The side comes strictly from the account type.
// The section comes from the longest matching prefix rule; if no rule
// matches, the account falls back to its type's "other" section, and an
// account with an unknown type lands in the unclassified bucket so its
// balance is still reported rather than dropped.
func (c *Classifier) Classify(a Account) Classification {
	side := a.Type.NormalSide()

	code := strings.TrimSpace(a.Code)
	for _, r := range c.rules {
		if strings.HasPrefix(code, r.Prefix) {
			// A prefix rule only applies if it agrees with the account
			// type's statement. A revenue account coded "1234" is
			// misfiled; trust the type and fall through to its default.
			if sectionMatchesType(r.Section, a.Type) {
				return Classification{Section: r.Section, NormalSide: side, Tags: r.Tags}
			}
		}
	}

	return Classification{Section: fallbackSection(a.Type), NormalSide: side}
}

// sectionMatchesType reports whether a section is a legal placement for
// an account of the given type.
func sectionMatchesType(s Section, t AccountType) bool {
	switch s {
	case SectionCurrentAssets, SectionFixedAssets, SectionOtherAssets:
		return t == Asset
	case SectionCurrentLiabilities, SectionLongTermLiabilities, SectionOtherLiabilities:
		return t == Liability
	case SectionEquity:
		return t == Equity
	case SectionRevenue, SectionOtherIncome:
		return t == Revenue
	case SectionCostOfSales, SectionOperatingExpenses, SectionOtherExpenses:
		return t == Expense
	}
	return false
}

func fallbackSection(t AccountType) Section {
	switch t {
	case Asset:
		return SectionOtherAssets
	case Liability:
		return SectionOtherLiabilities
	case Equity:
		return SectionEquity
	case Revenue:
		return SectionOtherIncome
	case Expense:
		return SectionOtherExpenses
	}
	return SectionUnclassified
}
