package report

import (
	"fmt"

	"kakeibo/internal/core"
	"kakeibo/internal/ratio"
)

// Settlement is who owes whom for the shared expenses of a period.
//
// Every shared expense charges its creator's counterpart with the
// counterpart's coefficient: an item paid by party 0 adds
// round(amount*B/(A+B)) to what party 1 owes, an item paid by party 1 adds
// round(amount*A/(A+B)) to what party 0 owes. The party owing more pays the
// difference. Items created by anyone outside the roster are ignored.
type Settlement struct {
	Owed   [2]int64   `json:"owed"`
	Amount int64      `json:"amount"`
	Payer  core.Party `json:"payer"`
	Payee  core.Party `json:"payee"`
}

// Settled reports whether nobody owes anything.
func (s Settlement) Settled() bool {
	return s.Amount == 0
}

// Message renders the settlement with amounts formatted by format.
func (s Settlement) Message(format func(int64) string) string {
	if s.Settled() {
		return "All settled"
	}
	return fmt.Sprintf("%s pays %s %s", displayName(s.Payer), displayName(s.Payee), format(s.Amount))
}

func (s Settlement) String() string {
	return s.Message(func(v int64) string { return fmt.Sprint(v) })
}

func displayName(p core.Party) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func settle(items []Item, cats map[string]core.Category, roster core.Roster) Settlement {
	var s Settlement
	for _, it := range items {
		if it.Kind != core.Expense {
			continue
		}
		r, ok := ratio.Parse(ratioOf(cats, it.CategoryID))
		if !ok {
			continue
		}
		switch roster.Index(it.CreatorID) {
		case 0:
			s.Owed[1] += r.Share(it.Amount, 1)
		case 1:
			s.Owed[0] += r.Share(it.Amount, 0)
		}
	}

	switch {
	case s.Owed[0] > s.Owed[1]:
		s.Amount = s.Owed[0] - s.Owed[1]
		s.Payer, s.Payee = roster.Parties[0], roster.Parties[1]
	case s.Owed[1] > s.Owed[0]:
		s.Amount = s.Owed[1] - s.Owed[0]
		s.Payer, s.Payee = roster.Parties[1], roster.Parties[0]
	}
	return s
}
