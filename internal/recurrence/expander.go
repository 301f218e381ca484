package recurrence

import (
	"sort"

	"kakeibo/internal/core"
)

// Period is a stretch of time during which one amount is in force.
type Period struct {
	Start  core.Date
	End    core.Date // inclusive
	Amount core.Money
}

// Periods splits a definition into amount periods: the base amount from the
// anchor date, then one period per revision in reflect-date order. The last
// period runs until end. Revisions with colliding reflect dates keep their
// relative order, so the later one wins and the earlier becomes empty.
func Periods(fc core.FixedCost, end core.Date) []Period {
	starts := make([]Period, 0, len(fc.Revisions)+1)
	starts = append(starts, Period{Start: fc.Date, Amount: fc.Amount})

	revs := make([]core.Revision, 0, len(fc.Revisions))
	for _, r := range fc.Revisions {
		if r.ReflectDate.IsZero() {
			continue
		}
		revs = append(revs, r)
	}
	sort.SliceStable(revs, func(i, j int) bool {
		return revs[i].ReflectDate.Before(revs[j].ReflectDate)
	})
	for _, r := range revs {
		starts = append(starts, Period{Start: r.ReflectDate, Amount: r.Amount})
	}
	sort.SliceStable(starts, func(i, j int) bool {
		return starts[i].Start.Before(starts[j].Start)
	})

	for i := range starts {
		if i < len(starts)-1 {
			starts[i].End = starts[i+1].Start.AddDays(-1)
		} else {
			starts[i].End = end
		}
	}
	return starts
}

// Expand materializes fc inside w.
//
// A definition without frequency (or without anchor date) is a one-off and
// is returned unchanged as a single occurrence whatever the window; the
// caller's period filter decides whether it counts. The base amount starts
// at the anchor date; a revision reflected before it emits from its own
// reflect date on the anchor's cadence.
func Expand(fc core.FixedCost, w core.Window) []core.Occurrence {
	if !fc.Frequency.Recurring() || fc.Date.IsZero() {
		return []core.Occurrence{occurrence(fc, fc.Date, fc.Amount)}
	}
	cadence, err := CadenceFor(fc.Frequency)
	if err != nil {
		return []core.Occurrence{occurrence(fc, fc.Date, fc.Amount)}
	}

	var out []core.Occurrence
	for _, p := range Periods(fc, w.End) {
		span := core.Window{Start: p.Start, End: p.End}.Intersect(w)
		if span.Empty() {
			continue
		}
		for d := cadence.First(fc.Date, span.Start); !d.After(span.End); d = cadence.Next(fc.Date, d) {
			out = append(out, occurrence(fc, d, p.Amount))
		}
	}
	return out
}

// ExpandAll expands every definition, keeping input order.
func ExpandAll(fcs []core.FixedCost, w core.Window) []core.Occurrence {
	var out []core.Occurrence
	for _, fc := range fcs {
		out = append(out, Expand(fc, w)...)
	}
	return out
}

func occurrence(fc core.FixedCost, d core.Date, amount core.Money) core.Occurrence {
	return core.Occurrence{
		SourceID:   fc.ID,
		Date:       d,
		Amount:     amount,
		CategoryID: fc.CategoryID,
		Kind:       fc.Kind,
		UserID:     fc.UserID,
		CreatorID:  fc.Author(),
		Frequency:  fc.Frequency,
	}
}
