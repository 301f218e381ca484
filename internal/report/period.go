package report

import (
	"fmt"

	"kakeibo/internal/core"
)

// Period selects the items a report covers: one calendar month, or a whole
// year when Month is zero.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
}

// MonthOf returns the monthly period year-month.
func MonthOf(year, month int) Period {
	return Period{Year: year, Month: month}
}

// YearOf returns the yearly period.
func YearOf(year int) Period {
	return Period{Year: year}
}

func (p Period) Yearly() bool {
	return p.Month == 0
}

func (p Period) Validate() error {
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d", core.ErrInvalidDate, p.Year)
	}
	if p.Month < 0 || p.Month > 12 {
		return fmt.Errorf("%w: %d", core.ErrInvalidMonth, p.Month)
	}
	return nil
}

// Contains compares the decomposed year and month only. The zero date is
// never contained.
func (p Period) Contains(d core.Date) bool {
	if d.IsZero() || d.Year != p.Year {
		return false
	}
	return p.Yearly() || d.Month == p.Month
}

// Window returns the expansion window of the period. A yearly window that
// contains asOf ends at asOf, so the current year is never projected past
// today. A zero asOf disables clipping.
func (p Period) Window(asOf core.Date) core.Window {
	if !p.Yearly() {
		return core.Window{
			Start: core.NewDate(p.Year, p.Month, 1),
			End:   core.NewDate(p.Year, p.Month, core.DaysIn(p.Year, p.Month)),
		}
	}
	w := core.Window{Start: core.NewDate(p.Year, 1, 1), End: core.NewDate(p.Year, 12, 31)}
	if !asOf.IsZero() && w.Contains(asOf) {
		w.End = asOf
	}
	return w
}

func (p Period) String() string {
	if p.Yearly() {
		return fmt.Sprintf("%04d", p.Year)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
