// Package recurrence expands fixed-cost definitions into dated occurrences.
//
// This file implements the Strategy Pattern for recurrence cadences.
// Each frequency (weekly, monthly, yearly) has its own strategy that knows
// where the first occurrence on or after a date falls and how to step to
// the next one, always anchored on the definition's original date.
package recurrence

import (
	"fmt"
	"sync"

	"kakeibo/internal/core"
)

// Cadence is the strategy interface for stepping through occurrences.
type Cadence interface {
	// First returns the first occurrence on or after from.
	First(anchor, from core.Date) core.Date
	// Next returns the occurrence following d.
	Next(anchor, d core.Date) core.Date
}

// WeeklyCadence repeats every 7 days on the anchor's weekday.
type WeeklyCadence struct{}

func (WeeklyCadence) First(anchor, from core.Date) core.Date {
	days := anchor.DaysUntil(from)
	if days <= 0 {
		// truncation rounds toward the anchor, i.e. up
		return anchor.AddDays(days / 7 * 7)
	}
	weeks := (days + 6) / 7
	return anchor.AddDays(weeks * 7)
}

func (WeeklyCadence) Next(_ core.Date, d core.Date) core.Date {
	return d.AddDays(7)
}

// MonthlyCadence repeats on the anchor's day of month, clipped to the
// month length (anchor 31 falls on the 30th in April).
type MonthlyCadence struct{}

func (MonthlyCadence) First(anchor, from core.Date) core.Date {
	d := core.ClampDay(from.Year, from.Month, anchor.Day)
	if d.Before(from) {
		y, m := nextMonth(from.Year, from.Month)
		d = core.ClampDay(y, m, anchor.Day)
	}
	return d
}

func (MonthlyCadence) Next(anchor, d core.Date) core.Date {
	y, m := nextMonth(d.Year, d.Month)
	return core.ClampDay(y, m, anchor.Day)
}

// YearlyCadence repeats on the anchor's month and day; Feb 29 anchors
// fall on Feb 28 in common years.
type YearlyCadence struct{}

func (YearlyCadence) First(anchor, from core.Date) core.Date {
	d := core.ClampDay(from.Year, anchor.Month, anchor.Day)
	if d.Before(from) {
		d = core.ClampDay(from.Year+1, anchor.Month, anchor.Day)
	}
	return d
}

func (YearlyCadence) Next(anchor, d core.Date) core.Date {
	return core.ClampDay(d.Year+1, anchor.Month, anchor.Day)
}

func nextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

var (
	cadencesMu sync.RWMutex
	cadences   = map[core.Frequency]Cadence{
		core.Weekly:  WeeklyCadence{},
		core.Monthly: MonthlyCadence{},
		core.Yearly:  YearlyCadence{},
	}
)

// CadenceFor returns the cadence registered for a frequency.
func CadenceFor(f core.Frequency) (Cadence, error) {
	cadencesMu.RLock()
	defer cadencesMu.RUnlock()
	c, ok := cadences[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %q", f)
	}
	return c, nil
}

// RegisterCadence registers or replaces the cadence for a frequency.
func RegisterCadence(f core.Frequency, c Cadence) {
	cadencesMu.Lock()
	defer cadencesMu.Unlock()
	cadences[f] = c
}
