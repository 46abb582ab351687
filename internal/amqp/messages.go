package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the ledger exchange.
const (
	EventDebtCreated        = "debt_created"
	EventDebtUpdated        = "debt_updated"
	EventDebtDeleted        = "debt_deleted"
	EventTransactionCreated = "transaction_created"
	EventTransactionDeleted = "transaction_deleted"
	EventRecurringGenerated = "recurring_generated"
)

// LedgerEventMessage is a lightweight notification that something in a
// group's ledger changed. It carries only identifiers; consumers fetch
// the full record from the database when they need it.
type LedgerEventMessage struct {
	Kind      string    `json:"kind"`
	GroupID   int64     `json:"group_id"`
	EntityID  int64     `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(kind string, groupID, entityID int64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:      kind,
		GroupID:   groupID,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
