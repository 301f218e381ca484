package core

import (
	"errors"
	"slices"
	"strings"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

const (
	OneOff  Frequency = ""
	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
	Yearly  Frequency = "yearly"
)

// RatioNone marks a category that is not shared.
const RatioNone = "none"

type (
	Kind string

	// Frequency is the recurrence of a fixed cost; OneOff means no recurrence.
	Frequency string

	Transaction struct {
		ID              string
		Date            Date
		Amount          Money
		CategoryID      string
		Kind            Kind
		Memo            string
		UserID          string // owner
		CreatorID       string // author, defaults to owner
		InvolvedUserIDs []string
	}

	// Revision changes a fixed cost's amount from ReflectDate onward.
	Revision struct {
		ReflectDate Date
		Amount      Money
	}

	FixedCost struct {
		ID              string
		Kind            Kind
		CategoryID      string
		Amount          Money // base amount, in force from Date
		Date            Date  // anchor; its day/weekday/month drives the cadence
		Frequency       Frequency
		UserID          string
		CreatorID       string
		InvolvedUserIDs []string
		Revisions       []Revision
	}

	Category struct {
		ID       string
		Name     string
		Kind     Kind
		Ratio    string // "A:B" or "none"
		UserID   string // owner when the category is not shared
		Position int
	}

	// Occurrence is one materialized instance of a fixed cost. Never persisted.
	Occurrence struct {
		SourceID   string
		Date       Date
		Amount     Money
		CategoryID string
		Kind       Kind
		UserID     string
		CreatorID  string
		Frequency  Frequency
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyUser        = errors.New("empty user")
)

func (k Kind) Valid() bool {
	return k == Expense || k == Income
}

func (f Frequency) Valid() bool {
	switch f {
	case OneOff, Monthly, Weekly, Yearly:
		return true
	}
	return false
}

// Recurring reports whether the frequency describes a repetition.
func (f Frequency) Recurring() bool {
	return f != OneOff
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	if len(t.Memo) > 200 {
		return errors.New("memo too long (max 200 characters)")
	}
	return nil
}

// Author returns the creator, falling back to the owner.
func (t Transaction) Author() string {
	if t.CreatorID != "" {
		return t.CreatorID
	}
	return t.UserID
}

func (fc FixedCost) Validate() error {
	if err := fc.Date.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !fc.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if err := fc.Amount.Validate(); err != nil {
		return err
	}
	if !fc.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(fc.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(fc.UserID) == "" {
		return ErrEmptyUser
	}
	for _, r := range fc.Revisions {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Author returns the creator, falling back to the owner.
func (fc FixedCost) Author() string {
	if fc.CreatorID != "" {
		return fc.CreatorID
	}
	return fc.UserID
}

func (r Revision) Validate() error {
	if err := r.ReflectDate.Validate(); err != nil {
		return errors.New("invalid reflect date: " + err.Error())
	}
	return r.Amount.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	if !c.Shared() && strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUser
	}
	return nil
}

// Shared reports whether the category carries a ratio other than "none".
// Whether the ratio is actually usable is decided by the ratio package.
func (c Category) Shared() bool {
	r := strings.TrimSpace(c.Ratio)
	return r != "" && r != RatioNone
}

// Involve returns ids with user appended unless already present.
// The input slice is never modified.
func Involve(ids []string, user string) []string {
	if user == "" || slices.Contains(ids, user) {
		return slices.Clone(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, user)
}
