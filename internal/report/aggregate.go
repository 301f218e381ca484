package report

import (
	"sort"

	"kakeibo/internal/core"
	"kakeibo/internal/ratio"
	"kakeibo/internal/recurrence"
)

// Aggregate computes the report of in.Period for in.Viewer.
func Aggregate(in Input) Report {
	cats := indexCategories(in.Categories)
	viewer := in.Roster.Index(in.Viewer)
	items := visibleItems(in, cats)

	expense := breakdown(items, core.Expense, cats, viewer, in.Options.threshold())
	income := breakdown(items, core.Income, cats, viewer, in.Options.threshold())

	return Report{
		Period:       in.Period,
		Viewer:       in.Viewer,
		Expense:      expense,
		Income:       income,
		Settlement:   settle(items, cats, in.Roster),
		TotalIncome:  income.Total,
		TotalExpense: expense.Total,
		NetBalance:   income.Total - expense.Total,
	}
}

// Details returns the items of one category key in the period, visible to
// the viewer and sorted by date. Pass FixedBucketKey to list the recurring
// items of a kind.
func Details(in Input, key string) []Item {
	cats := indexCategories(in.Categories)
	var out []Item
	for _, it := range visibleItems(in, cats) {
		if it.BucketKey() == key {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (o Options) threshold() float64 {
	if o.RollupThreshold == 0 {
		return DefaultRollupThreshold
	}
	return o.RollupThreshold
}

func indexCategories(list []core.Category) map[string]core.Category {
	m := make(map[string]core.Category, len(list))
	for _, c := range list {
		m[c.ID] = c
	}
	return m
}

// visibleItems expands the fixed costs, joins them with the transactions and
// keeps what the viewer may see inside the period.
func visibleItems(in Input, cats map[string]core.Category) []Item {
	w := in.Period.Window(in.Options.AsOf)
	occ := recurrence.ExpandAll(in.FixedCosts, w)

	items := make([]Item, 0, len(in.Transactions)+len(occ))
	for _, t := range in.Transactions {
		items = append(items, Item{
			ID:         t.ID,
			Date:       t.Date,
			Amount:     t.Amount.Minor,
			CategoryID: t.CategoryID,
			Kind:       t.Kind,
			Memo:       t.Memo,
			UserID:     t.UserID,
			CreatorID:  t.Author(),
		})
	}
	for _, o := range occ {
		items = append(items, Item{
			ID:         o.SourceID,
			Date:       o.Date,
			Amount:     o.Amount.Minor,
			CategoryID: o.CategoryID,
			Kind:       o.Kind,
			UserID:     o.UserID,
			CreatorID:  o.CreatorID,
			Frequency:  o.Frequency,
		})
	}

	out := items[:0]
	for _, it := range items {
		if it.Amount < 0 || !it.Kind.Valid() {
			continue
		}
		if !in.Period.Contains(it.Date) {
			continue
		}
		if !shared(cats, it.CategoryID) && it.UserID != in.Viewer {
			continue
		}
		out = append(out, it)
	}
	return out
}

// shared reports whether both parties see items of category id. A
// malformed ratio still counts; it only falls back when splitting.
func shared(cats map[string]core.Category, id string) bool {
	c, ok := cats[id]
	return ok && c.Shared()
}

func ratioOf(cats map[string]core.Category, id string) string {
	if c, ok := cats[id]; ok {
		return c.Ratio
	}
	return ""
}

type group struct {
	total int64
	// per original category, so the fixed bucket is split by each
	// category's own ratio
	byCategory map[string]int64
}

func breakdown(items []Item, kind core.Kind, cats map[string]core.Category, viewer int, threshold float64) Breakdown {
	groups := make(map[string]*group)
	for _, it := range items {
		if it.Kind != kind {
			continue
		}
		key := it.BucketKey()
		g, ok := groups[key]
		if !ok {
			g = &group{byCategory: make(map[string]int64)}
			groups[key] = g
		}
		g.total += it.Amount
		g.byCategory[it.CategoryID] += it.Amount
	}

	var b Breakdown
	for key, g := range groups {
		row := CategoryTotal{Key: key, Total: g.total}
		var split ratio.Shares
		var anyShared bool
		for id, amount := range g.byCategory {
			s := ratioOf(cats, id)
			row.Adjusted += ratio.ShareOf(amount, s, viewer)
			if r, ok := ratio.Parse(s); ok {
				sh := r.Split(amount)
				split.A += sh.A
				split.B += sh.B
				anyShared = true
			}
		}
		if anyShared {
			row.Split = split.String()
		}
		if key == FixedBucketKey(kind) {
			row.Name = FixedBucketName(kind)
			row.Fixed = true
		} else {
			row.Name = key
			if c, ok := cats[key]; ok {
				row.Name = c.Name
				row.Ratio = c.Ratio
			}
		}
		b.Total += row.Adjusted
		b.Categories = append(b.Categories, row)
	}

	for i := range b.Categories {
		b.Categories[i].Percent = percent(b.Categories[i].Adjusted, b.Total)
	}
	sortTotals(b.Categories)
	b.Slices = rollup(b.Categories, b.Total, threshold)
	return b
}

// rollup merges rows whose Adjusted is under threshold of total into one
// OtherKey row.
func rollup(rows []CategoryTotal, total int64, threshold float64) []CategoryTotal {
	if threshold < 0 || total <= 0 {
		return append([]CategoryTotal(nil), rows...)
	}
	var out []CategoryTotal
	other := CategoryTotal{Key: OtherKey, Name: OtherKey}
	var merged int
	for _, row := range rows {
		if float64(row.Adjusted)/float64(total) < threshold {
			other.Total += row.Total
			other.Adjusted += row.Adjusted
			merged++
			continue
		}
		out = append(out, row)
	}
	if merged > 0 {
		other.Percent = percent(other.Adjusted, total)
		out = append(out, other)
		sortTotals(out)
	}
	return out
}

func sortTotals(rows []CategoryTotal) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Adjusted != rows[j].Adjusted {
			return rows[i].Adjusted > rows[j].Adjusted
		}
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Key < rows[j].Key
	})
}

func percent(v, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(v) * 100 / float64(total)
}
