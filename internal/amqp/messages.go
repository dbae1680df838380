package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Expense change kinds.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
	KindPurged  = "purged"
)

// ExpenseChangedMessage announces a committed mutation. Consumers refetch
// the expense themselves; the message carries identifiers only.
type ExpenseChangedMessage struct {
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	ExpenseID string    `json:"expense_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseChangedMessage creates a change event stamped with the
// current time.
func NewExpenseChangedMessage(kind, userID, expenseID string) *ExpenseChangedMessage {
	return &ExpenseChangedMessage{
		Kind:      kind,
		UserID:    userID,
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestedMessage asks the worker to export a user's filtered
// expenses to a spreadsheet tab.
type ExportRequestedMessage struct {
	RequestID      string    `json:"request_id"`
	UserID         string    `json:"user_id"`
	Range          string    `json:"range"`
	Category       string    `json:"category"`
	SpreadsheetTab string    `json:"spreadsheet_tab,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewExportRequestedMessage creates an export request with a fresh
// request ID.
func NewExportRequestedMessage(userID, rangeSel, category, tab string) *ExportRequestedMessage {
	return &ExportRequestedMessage{
		RequestID:      uuid.NewString(),
		UserID:         userID,
		Range:          rangeSel,
		Category:       category,
		SpreadsheetTab: tab,
		Timestamp:      time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExportRequestedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportRequestedMessageFromJSON decodes and sanity-checks a message body.
func ExportRequestedMessageFromJSON(data []byte) (*ExportRequestedMessage, error) {
	var msg ExportRequestedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" {
		return nil, errors.New("export request without user_id")
	}
	return &msg, nil
}
