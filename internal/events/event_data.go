package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// TradesImportedData contains data for TradesImported events
type TradesImportedData struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	Processed int    `json:"processed"`
	Errors    int    `json:"errors"`
	Partial   bool   `json:"partial,omitempty"` // Batch stopped early by cancellation
}

// EventType returns the event type for TradesImportedData
func (d *TradesImportedData) EventType() EventType {
	return TradesImported
}

// OrphansRepairedData contains data for OrphansRepaired events
type OrphansRepairedData struct {
	UserID     string `json:"user_id"`
	AccountID  string `json:"account_id"`
	FixedCount int    `json:"fixed_count"`
}

// EventType returns the event type for OrphansRepairedData
func (d *OrphansRepairedData) EventType() EventType {
	return OrphansRepaired
}

// AccountCreatedData contains data for AccountCreated events
type AccountCreatedData struct {
	UserID    string `json:"user_id"`
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// EventType returns the event type for AccountCreatedData
func (d *AccountCreatedData) EventType() EventType {
	return AccountCreated
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Kind    string                 `json:"kind,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
