package dto

// Event is the envelope published to the message broker for advisory
// notifications. Consumers must treat the log store as the source of truth;
// events may be lost without affecting engine state.
type Event struct {
	Event    EventDetails  `json:"event"`
	Metadata EventMetadata `json:"metadata"`
}

type EventDetails struct {
	Id        string      `json:"id"`
	EntityId  string      `json:"entityId"`
	EventType string      `json:"eventType"`
	Data      interface{} `json:"data"`
}

type EventMetadata struct {
	AppSource string `json:"appSource"`
	UserId    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}
