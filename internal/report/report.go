// Package report aggregates transactions and expanded fixed costs into the
// per-category totals, settlement and grand totals of one period as seen by
// one viewer.
//
// Everything here is a pure function of its input. Malformed ratios count as
// "none", undated items are skipped and empty input yields zero totals; no
// function in this package returns an error.
package report

import (
	"kakeibo/internal/core"
)

// OtherKey is the bucket small slices are rolled up into.
const OtherKey = "other"

// DefaultRollupThreshold is the share of a kind's total below which a
// category is merged into OtherKey.
const DefaultRollupThreshold = 0.05

// FixedBucketKey returns the synthetic category key recurring items of a
// kind are grouped under.
func FixedBucketKey(k core.Kind) string {
	return "fixed:" + string(k)
}

// FixedBucketName returns the display label of FixedBucketKey(k).
func FixedBucketName(k core.Kind) string {
	if k == core.Income {
		return "Fixed income"
	}
	return "Fixed expense"
}

type Options struct {
	// RollupThreshold defaults to DefaultRollupThreshold when zero.
	// A negative value disables the roll-up.
	RollupThreshold float64
	// AsOf clips the current year's expansion window. Zero disables it.
	AsOf core.Date
}

// Input is one immutable snapshot of the ledger plus the question asked of it.
type Input struct {
	Transactions []core.Transaction
	FixedCosts   []core.FixedCost
	Categories   []core.Category
	Roster       core.Roster
	Viewer       string
	Period       Period
	Options      Options
}

// Item is a transaction or a fixed-cost occurrence, flattened for aggregation.
type Item struct {
	ID         string         `json:"id"`
	Date       core.Date      `json:"date"`
	Amount     int64          `json:"amount"`
	CategoryID string         `json:"category_id"`
	Kind       core.Kind      `json:"kind"`
	Memo       string         `json:"memo,omitempty"`
	UserID     string         `json:"user_id"`
	CreatorID  string         `json:"creator_id"`
	Frequency  core.Frequency `json:"frequency,omitempty"`
}

// Recurring reports whether the item came from a recurring fixed cost.
func (it Item) Recurring() bool {
	return it.Frequency.Recurring()
}

// BucketKey is the category key the item is grouped under.
func (it Item) BucketKey() string {
	if it.Recurring() {
		return FixedBucketKey(it.Kind)
	}
	return it.CategoryID
}

// CategoryTotal is one row of a kind's breakdown.
type CategoryTotal struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Total int64  `json:"total"` // across users
	// Adjusted is the viewer's share of Total.
	Adjusted int64  `json:"adjusted"`
	Ratio    string `json:"ratio,omitempty"`
	// Split shows both parties' shares, empty when no ratio applies.
	Split   string  `json:"split,omitempty"`
	Percent float64 `json:"percent"`
	Fixed   bool    `json:"fixed,omitempty"`
}

// Breakdown holds the totals of one kind.
type Breakdown struct {
	// Categories lists every group, sorted by Adjusted descending.
	Categories []CategoryTotal `json:"categories"`
	// Slices is Categories with small groups rolled up into OtherKey.
	Slices []CategoryTotal `json:"slices"`
	Total  int64           `json:"total"` // sum of Adjusted
}

type Report struct {
	Period       Period     `json:"period"`
	Viewer       string     `json:"viewer"`
	Expense      Breakdown  `json:"expense"`
	Income       Breakdown  `json:"income"`
	Settlement   Settlement `json:"settlement"`
	TotalIncome  int64      `json:"total_income"`
	TotalExpense int64      `json:"total_expense"`
	NetBalance   int64      `json:"net_balance"`
}

// Breakdown returns the totals of kind k.
func (r Report) Breakdown(k core.Kind) Breakdown {
	if k == core.Income {
		return r.Income
	}
	return r.Expense
}
