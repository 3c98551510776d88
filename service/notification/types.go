package notification

import (
	"time"
)

// Well-known event types carried by notifications. Emitters are free to use
// other values; unrecognised types degrade to an Unknown reference.
const (
	EventTypeDiscovery   = "Discovery"
	EventTypeViewObject  = "ViewObject"
	EventTypeFlowStatus  = "FlowStatus"
	EventTypeFlowError   = "FlowError"
	EventTypeGrantAccess = "GrantAccess"
)

// Notification is a lightweight event record addressed to a single user.
// Within one user's pending set the timestamp acts as the identity key.
type Notification struct {
	Type      string    `json:"type"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message,omitempty"`
	Source    string    `json:"source,omitempty"` // id of the emitting flow, when any
	Timestamp time.Time `json:"timestamp"`
}

// Resolved pairs a raw notification with its typed reference for display.
type Resolved struct {
	Notification *Notification `json:"notification"`
	Reference    Reference     `json:"reference"`
}

// GlobalType classifies entries of the global notification catalog.
type GlobalType string

const (
	GlobalError   GlobalType = "ERROR"
	GlobalWarning GlobalType = "WARNING"
	GlobalInfo    GlobalType = "INFO"
)

// GlobalNotification is a cross-user announcement. The catalog is curated:
// entries are published once and every user acknowledges them individually,
// keyed by type.
type GlobalNotification struct {
	Type      GlobalType `json:"type"`
	Header    string     `json:"header"`
	Content   string     `json:"content,omitempty"`
	Link      string     `json:"link,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
