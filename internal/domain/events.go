package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchStarted   EventType = "SearchStarted"
	EventPageLoaded      EventType = "PageLoaded"
	EventSearchExhausted EventType = "SearchExhausted"
	EventSearchFailed    EventType = "SearchFailed"
	EventLookupSelected  EventType = "LookupSelected"
	EventError           EventType = "Error"
	EventConfigLoaded    EventType = "ConfigLoaded"
	EventConfigSaved     EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchStartedEvent is emitted when a new term starts a fetch sequence
type SearchStartedEvent struct {
	SessionID string
	Term      string
}

func (e SearchStartedEvent) Type() EventType { return EventSearchStarted }

// PageLoadedEvent is emitted after every page fetched for a term
type PageLoadedEvent struct {
	SessionID string
	Term      string
	Page      int
	Count     int // records on this page
	Total     int // records accumulated so far
}

func (e PageLoadedEvent) Type() EventType { return EventPageLoaded }

// SearchExhaustedEvent is emitted when an empty page ends the sequence for a term
type SearchExhaustedEvent struct {
	SessionID string
	Term      string
	Total     int
}

func (e SearchExhaustedEvent) Type() EventType { return EventSearchExhausted }

// SearchFailedEvent is emitted when a fetch returns an error
type SearchFailedEvent struct {
	SessionID string
	Term      string
	Err       error
}

func (e SearchFailedEvent) Type() EventType { return EventSearchFailed }

// LookupSelectedEvent is emitted when the user picks a record
type LookupSelectedEvent struct {
	Lookup Lookup
}

func (e LookupSelectedEvent) Type() EventType { return EventLookupSelected }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
