package storage

import "time"

// Event is one completed chat exchange: the user's message and the assistant
// message that settled it, with the hive conditions sent as context.
// Events are appended in chronological order.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	Outcome           string    `json:"outcome"`
	LatencyMillis     int64     `json:"latency_ms"`
	Temperature       float64   `json:"temperature"`
	Humidity          float64   `json:"humidity"`
	Activity          int       `json:"activity"`
}

// Recorder abstracts persistence of interaction events.
// LoadInteractions should return events in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
