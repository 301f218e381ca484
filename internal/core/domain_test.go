package core

import (
	"errors"
	"slices"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:       NewDate(2025, 1, 1),
		Amount:     Money{Minor: 100},
		CategoryID: "cat-food",
		Kind:       Expense,
		UserID:     "u1",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		name string
		mut  func(*Transaction)
		want error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, nil},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"bad kind", func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
		{"no category", func(tx *Transaction) { tx.CategoryID = " " }, ErrEmptyCategory},
		{"no user", func(tx *Transaction) { tx.UserID = "" }, ErrEmptyUser},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			tx := good
			tc.mut(&tx)
			err := tx.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestFixedCostValidate(t *testing.T) {
	fc := FixedCost{
		Kind:       Expense,
		CategoryID: "rent",
		Amount:     Money{Minor: 80000},
		Date:       NewDate(2024, 1, 31),
		Frequency:  Monthly,
		UserID:     "u1",
		Revisions:  []Revision{{ReflectDate: NewDate(2024, 4, 1), Amount: Money{Minor: 82000}}},
	}
	if err := fc.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	fc.Frequency = "daily"
	if !errors.Is(fc.Validate(), ErrInvalidFrequency) {
		t.Fatalf("expected ErrInvalidFrequency")
	}

	fc.Frequency = OneOff
	fc.Revisions = append(fc.Revisions, Revision{ReflectDate: NewDate(2024, 5, 1)})
	if !errors.Is(fc.Validate(), ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for a zero revision")
	}
}

func TestAuthorFallsBackToOwner(t *testing.T) {
	if got := (Transaction{UserID: "u1"}).Author(); got != "u1" {
		t.Fatalf("Author() = %q, want u1", got)
	}
	if got := (FixedCost{UserID: "u1", CreatorID: "u2"}).Author(); got != "u2" {
		t.Fatalf("Author() = %q, want u2", got)
	}
}

func TestCategoryShared(t *testing.T) {
	cases := map[string]bool{"": false, "none": false, " none ": false, "1:1": true, "x": true}
	for ratio, want := range cases {
		if got := (Category{Ratio: ratio}).Shared(); got != want {
			t.Errorf("Shared(%q) = %v, want %v", ratio, got, want)
		}
	}
}

func TestInvolveAccumulates(t *testing.T) {
	in := []string{"u1"}
	out := Involve(in, "u2")
	if !slices.Equal(out, []string{"u1", "u2"}) {
		t.Fatalf("unexpected involved users: %v", out)
	}
	if len(in) != 1 {
		t.Fatalf("input mutated: %v", in)
	}
	if again := Involve(out, "u1"); !slices.Equal(again, out) {
		t.Fatalf("duplicate user appended: %v", again)
	}
}

func TestRoster(t *testing.T) {
	r := NewRoster(Party{ID: "u1", Name: "Seiji"}, Party{ID: "u2", Name: "Hana"})
	if err := r.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if r.Index("u2") != 1 || r.Index("nobody") != -1 {
		t.Fatalf("unexpected index lookup")
	}
	if r.Name("u1") != "Seiji" || r.Name("x") != "x" {
		t.Fatalf("unexpected names")
	}

	dup := NewRoster(Party{ID: "u1"}, Party{ID: "u1"})
	if !errors.Is(dup.Validate(), ErrInvalidRoster) {
		t.Fatalf("expected ErrInvalidRoster for duplicate ids")
	}
}

func TestCategoryValidate(t *testing.T) {
	cases := []struct {
		name string
		cat  Category
		want error
	}{
		{"private", Category{Name: "Food", Kind: Expense, Ratio: RatioNone, UserID: "u1"}, nil},
		{"shared without owner", Category{Name: "Rent", Kind: Expense, Ratio: "1:1"}, nil},
		{"private without owner", Category{Name: "Food", Kind: Expense, Ratio: RatioNone}, ErrEmptyUser},
		{"no name", Category{Name: " ", Kind: Expense, UserID: "u1"}, ErrEmptyName},
		{"bad kind", Category{Name: "Food", Kind: "gift", UserID: "u1"}, ErrInvalidKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cat.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}
