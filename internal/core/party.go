package core

import (
	"errors"
	"fmt"
	"strings"
)

// Party is one of the two people sharing the household ledger.
type Party struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Roster lists the parties in ratio order: party 0 takes the A coefficient
// of an "A:B" ratio, party 1 takes B.
type Roster struct {
	Parties [2]Party `yaml:"parties" json:"parties"`
}

var ErrInvalidRoster = errors.New("invalid roster")

// NewRoster builds a roster from the two parties in ratio order.
func NewRoster(a, b Party) Roster {
	return Roster{Parties: [2]Party{a, b}}
}

func (r Roster) Validate() error {
	for _, p := range r.Parties {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: party id cannot be empty", ErrInvalidRoster)
		}
	}
	if r.Parties[0].ID == r.Parties[1].ID {
		return fmt.Errorf("%w: party ids must differ", ErrInvalidRoster)
	}
	return nil
}

// Index returns the ratio position of userID, or -1 when the user is not a party.
func (r Roster) Index(userID string) int {
	for i, p := range r.Parties {
		if p.ID != "" && p.ID == userID {
			return i
		}
	}
	return -1
}

// Name returns the display name of userID, or userID itself when unknown.
func (r Roster) Name(userID string) string {
	if i := r.Index(userID); i >= 0 && r.Parties[i].Name != "" {
		return r.Parties[i].Name
	}
	return userID
}
