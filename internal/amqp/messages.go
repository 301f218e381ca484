package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Collection names the ledger collection a change touched.
type Collection string

const (
	Transactions Collection = "transactions"
	FixedCosts   Collection = "fixed_costs"
	Categories   Collection = "categories"
)

// Op is the kind of write.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// ChangeMessage announces a committed write. It carries no record data:
// consumers reload the snapshot at Version or later.
type ChangeMessage struct {
	Collection Collection `json:"collection"`
	Op         Op         `json:"op"`
	ID         string     `json:"id"`
	Version    int64      `json:"version"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewChangeMessage stamps a change with the current time.
func NewChangeMessage(c Collection, op Op, id string, version int64) ChangeMessage {
	return ChangeMessage{
		Collection: c,
		Op:         op,
		ID:         id,
		Version:    version,
		Timestamp:  time.Now().UTC(),
	}
}

func (m ChangeMessage) Validate() error {
	switch m.Collection {
	case Transactions, FixedCosts, Categories:
	default:
		return fmt.Errorf("unknown collection %q", m.Collection)
	}
	switch m.Op {
	case OpCreate, OpUpdate, OpDelete:
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ChangeMessage{}, err
	}
	if err := msg.Validate(); err != nil {
		return ChangeMessage{}, err
	}
	return msg, nil
}
