package amqp

import (
	"encoding/json"
	"time"

	"expenses/internal/core"
)

// Message types carried on the expense event queue.
const (
	MessageTypeSync   = "sync"
	MessageTypeDelete = "delete"
)

// envelope is decoded first to route a delivery to the right handler.
type envelope struct {
	Type string `json:"type"`
}

// ExpenseSyncMessage asks the worker to export one expense row. It carries
// only id and version; the worker reads the full row from the database so
// the export always reflects the latest state.
type ExpenseSyncMessage struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(id, version int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		Type:      MessageTypeSync,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ExpenseDeleteMessage carries the full row data because the deleted row is
// gone from the database by the time the worker processes the message.
type ExpenseDeleteMessage struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseDeleteMessage(e core.Expense) *ExpenseDeleteMessage {
	return &ExpenseDeleteMessage{
		Type:        MessageTypeDelete,
		ID:          e.ID,
		AmountCents: e.Amount.Cents,
		Date:        e.Date.String(),
		Description: e.Description,
		Category:    string(e.Category),
		Timestamp:   time.Now(),
	}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error)   { return json.Marshal(m) }
func (m *ExpenseDeleteMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }
