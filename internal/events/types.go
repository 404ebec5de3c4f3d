// Package events provides event management functionality.
package events

// EventType represents different event types
type EventType string

const (
	TradesImported  EventType = "TRADES_IMPORTED"
	OrphansRepaired EventType = "ORPHANS_REPAIRED"
	AccountCreated  EventType = "ACCOUNT_CREATED"
	ErrorOccurred   EventType = "ERROR_OCCURRED"
)
