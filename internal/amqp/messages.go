package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record kinds carried by a RecordEvent.
const (
	KindExpense = "expense"
	KindIncome  = "income"
	KindBudget  = "budget"
)

// Actions carried by a RecordEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// RecordEvent announces a change to a user's record. It only carries
// identifiers; consumers load the current state from storage.
type RecordEvent struct {
	Kind      string    `json:"kind"`
	Action    string    `json:"action"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordEvent(kind, action string, id, userID int64) *RecordEvent {
	return &RecordEvent{
		Kind:      kind,
		Action:    action,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// Validate rejects events with an unknown kind or action or a missing id.
func (e *RecordEvent) Validate() error {
	switch e.Kind {
	case KindExpense, KindIncome, KindBudget:
	default:
		return fmt.Errorf("unknown record kind %q", e.Kind)
	}
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	if e.ID <= 0 || e.UserID <= 0 {
		return fmt.Errorf("event %s/%s missing identifiers", e.Kind, e.Action)
	}
	return nil
}

func (e *RecordEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordEventFromJSON decodes and validates a delivery body.
func RecordEventFromJSON(data []byte) (*RecordEvent, error) {
	var e RecordEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
