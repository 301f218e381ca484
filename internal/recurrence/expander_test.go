package recurrence

import (
	"testing"

	"kakeibo/internal/core"
)

func month(y, m int) core.Window {
	return core.Window{Start: core.NewDate(y, m, 1), End: core.NewDate(y, m, core.DaysIn(y, m))}
}

func fixed(anchor string, freq core.Frequency, amount int64, revs ...core.Revision) core.FixedCost {
	return core.FixedCost{
		ID:         "fc-1",
		Kind:       core.Expense,
		CategoryID: "rent",
		Amount:     core.Money{Minor: amount},
		Date:       core.MustParseDate(anchor),
		Frequency:  freq,
		UserID:     "u1",
		Revisions:  revs,
	}
}

func dates(occ []core.Occurrence) []string {
	out := make([]string, len(occ))
	for i, o := range occ {
		out[i] = o.Date.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestExpandMonthlyOneOccurrencePerMonth(t *testing.T) {
	cases := []struct {
		anchor string
		year   int
		month  int
		want   string
	}{
		{"2024-01-15", 2024, 3, "2024-03-15"},
		{"2024-01-31", 2024, 4, "2024-04-30"},
		{"2024-01-31", 2024, 2, "2024-02-29"},
		{"2023-01-31", 2023, 2, "2023-02-28"},
		{"2024-01-31", 2024, 5, "2024-05-31"},
	}
	for _, tc := range cases {
		occ := Expand(fixed(tc.anchor, core.Monthly, 1000), month(tc.year, tc.month))
		if len(occ) != 1 || occ[0].Date.String() != tc.want {
			t.Errorf("anchor %s in %d-%02d: got %v, want [%s]", tc.anchor, tc.year, tc.month, dates(occ), tc.want)
		}
	}
}

func TestExpandNeverBeforeAnchor(t *testing.T) {
	fc := fixed("2024-03-20", core.Monthly, 1000)
	if occ := Expand(fc, month(2024, 2)); len(occ) != 0 {
		t.Fatalf("expected nothing before anchor, got %v", dates(occ))
	}
	// Anchor month with a window starting earlier.
	if occ := Expand(fc, month(2024, 3)); len(occ) != 1 || occ[0].Date.String() != "2024-03-20" {
		t.Fatalf("anchor month: got %v", dates(occ))
	}
}

func TestExpandRevisionBeforeAnchor(t *testing.T) {
	rev := core.Revision{ReflectDate: core.MustParseDate("2024-01-01"), Amount: core.Money{Minor: 700}}
	cases := []struct {
		name   string
		fc     core.FixedCost
		window core.Window
		want   []string
		amount int64
	}{
		{"monthly", fixed("2024-03-15", core.Monthly, 1000, rev), month(2024, 2), []string{"2024-02-15"}, 700},
		{"weekly", fixed("2024-03-13", core.Weekly, 1000, rev), month(2024, 2), []string{"2024-02-07", "2024-02-14", "2024-02-21", "2024-02-28"}, 700},
		{"yearly", fixed("2024-03-15", core.Yearly, 1000, rev), core.Window{Start: core.MustParseDate("2024-01-01"), End: core.MustParseDate("2024-03-14")}, nil, 0},
		{"anchor month uses base", fixed("2024-03-15", core.Monthly, 1000, rev), month(2024, 3), []string{"2024-03-15"}, 1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			occ := Expand(tc.fc, tc.window)
			if got := dates(occ); !equalStrings(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for _, o := range occ {
				if o.Amount.Minor != tc.amount {
					t.Errorf("%s amount = %d, want %d", o.Date, o.Amount.Minor, tc.amount)
				}
			}
		})
	}
}

func TestExpandRevisions(t *testing.T) {
	fc := fixed("2024-01-05", core.Monthly, 800,
		core.Revision{ReflectDate: core.MustParseDate("2024-06-01"), Amount: core.Money{Minor: 1500}},
		core.Revision{ReflectDate: core.MustParseDate("2024-03-01"), Amount: core.Money{Minor: 1000}},
	)
	cases := []struct {
		month  int
		date   string
		amount int64
	}{
		{2, "2024-02-05", 800},
		{4, "2024-04-05", 1000},
		{6, "2024-06-05", 1500},
		{12, "2024-12-05", 1500},
	}
	for _, tc := range cases {
		occ := Expand(fc, month(2024, tc.month))
		if len(occ) != 1 {
			t.Fatalf("month %d: got %v", tc.month, dates(occ))
		}
		if occ[0].Date.String() != tc.date || occ[0].Amount.Minor != tc.amount {
			t.Errorf("month %d: got %s %d, want %s %d", tc.month, occ[0].Date, occ[0].Amount.Minor, tc.date, tc.amount)
		}
	}
}

func TestExpandRevisionMidMonth(t *testing.T) {
	fc := fixed("2024-01-05", core.Monthly, 800,
		core.Revision{ReflectDate: core.MustParseDate("2024-03-10"), Amount: core.Money{Minor: 1000}},
	)
	occ := Expand(fc, core.Window{Start: core.MustParseDate("2024-03-01"), End: core.MustParseDate("2024-04-30")})
	if len(occ) != 2 {
		t.Fatalf("got %v", dates(occ))
	}
	if occ[0].Date.String() != "2024-03-05" || occ[0].Amount.Minor != 800 {
		t.Errorf("first = %s %d", occ[0].Date, occ[0].Amount.Minor)
	}
	if occ[1].Date.String() != "2024-04-05" || occ[1].Amount.Minor != 1000 {
		t.Errorf("second = %s %d", occ[1].Date, occ[1].Amount.Minor)
	}
}

func TestExpandCollidingRevisionsLastWins(t *testing.T) {
	fc := fixed("2024-01-05", core.Monthly, 800,
		core.Revision{ReflectDate: core.MustParseDate("2024-03-01"), Amount: core.Money{Minor: 1000}},
		core.Revision{ReflectDate: core.MustParseDate("2024-03-01"), Amount: core.Money{Minor: 1200}},
	)
	occ := Expand(fc, month(2024, 3))
	if len(occ) != 1 || occ[0].Amount.Minor != 1200 {
		t.Fatalf("got %+v", occ)
	}
}

func TestExpandWeekly(t *testing.T) {
	fc := fixed("2024-01-03", core.Weekly, 500)
	occ := Expand(fc, month(2024, 2))
	want := []string{"2024-02-07", "2024-02-14", "2024-02-21", "2024-02-28"}
	if got := dates(occ); !equalStrings(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpandYearly(t *testing.T) {
	fc := fixed("2024-02-29", core.Yearly, 12000)
	occ := Expand(fc, core.Window{Start: core.MustParseDate("2024-01-01"), End: core.MustParseDate("2028-12-31")})
	want := []string{"2024-02-29", "2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"}
	if got := dates(occ); !equalStrings(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if occ := Expand(fc, month(2025, 3)); len(occ) != 0 {
		t.Fatalf("yearly outside its month: got %v", dates(occ))
	}
}

func TestExpandOneOffPassesThrough(t *testing.T) {
	fc := fixed("2020-05-05", core.OneOff, 700)
	occ := Expand(fc, month(2024, 1))
	if len(occ) != 1 || occ[0].Date.String() != "2020-05-05" || occ[0].Amount.Minor != 700 {
		t.Fatalf("got %+v", occ)
	}
}

func TestExpandCarriesAuthor(t *testing.T) {
	fc := fixed("2024-01-01", core.Monthly, 100)
	fc.CreatorID = "u2"
	occ := Expand(fc, month(2024, 1))
	if len(occ) != 1 || occ[0].CreatorID != "u2" || occ[0].UserID != "u1" || occ[0].SourceID != "fc-1" {
		t.Fatalf("got %+v", occ)
	}
	fc.CreatorID = ""
	if occ := Expand(fc, month(2024, 1)); occ[0].CreatorID != "u1" {
		t.Fatalf("author fallback: got %q", occ[0].CreatorID)
	}
}

func TestExpandAllKeepsOrder(t *testing.T) {
	a := fixed("2024-01-10", core.Monthly, 100)
	b := fixed("2024-01-01", core.Monthly, 200)
	b.ID = "fc-2"
	occ := ExpandAll([]core.FixedCost{a, b}, month(2024, 1))
	if len(occ) != 2 || occ[0].SourceID != "fc-1" || occ[1].SourceID != "fc-2" {
		t.Fatalf("got %+v", occ)
	}
}

type everyOtherDay struct{}

func (everyOtherDay) First(anchor, from core.Date) core.Date {
	d := anchor
	for d.Before(from) {
		d = d.AddDays(2)
	}
	return d
}

func (everyOtherDay) Next(_ core.Date, d core.Date) core.Date { return d.AddDays(2) }

func TestRegisterCadence(t *testing.T) {
	const freq core.Frequency = "biday"
	if _, err := CadenceFor(freq); err == nil {
		t.Fatalf("expected unknown frequency error")
	}
	RegisterCadence(freq, everyOtherDay{})
	c, err := CadenceFor(freq)
	if err != nil {
		t.Fatalf("CadenceFor: %v", err)
	}
	if got := c.Next(core.Date{}, core.MustParseDate("2024-01-01")); got.String() != "2024-01-03" {
		t.Fatalf("Next = %s", got)
	}
}
