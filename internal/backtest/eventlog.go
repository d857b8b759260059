package backtest

import "time"

// EventType classifies event log entries.
type EventType string

// Event types.
const (
	EventEntry EventType = "entry"
	EventExit  EventType = "exit"
	EventInfo  EventType = "info"
)

// Event is one audit record of a backtest run.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Message   string
	Details   map[string]string
}

// EventLog is an ordered, append-only audit trail. Entries are never
// removed or reordered once appended.
type EventLog struct {
	events []Event
}

// Append adds an event to the log.
func (l *EventLog) Append(ts time.Time, typ EventType, message string, details map[string]string) {
	l.events = append(l.events, Event{
		Timestamp: ts,
		Type:      typ,
		Message:   message,
		Details:   details,
	})
}

// Events returns the log in append order. Callers must not mutate it.
func (l *EventLog) Events() []Event {
	return l.events
}
