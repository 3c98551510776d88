package approval

import (
	"time"
)

// SubjectKind discriminates the protected resource an approval refers to.
type SubjectKind string

const (
	SubjectClient  SubjectKind = "CLIENT"
	SubjectHunt    SubjectKind = "HUNT"
	SubjectCronJob SubjectKind = "CRON_JOB"
)

// Subject identifies the protected resource.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   string      `json:"id"`
}

// ClientSubject builds a client subject.
func ClientSubject(clientID string) Subject {
	return Subject{Kind: SubjectClient, ID: clientID}
}

// HuntSubject builds a hunt subject.
func HuntSubject(huntID string) Subject {
	return Subject{Kind: SubjectHunt, ID: huntID}
}

// CronJobSubject builds a cron job subject.
func CronJobSubject(cronJobID string) Subject {
	return Subject{Kind: SubjectCronJob, ID: cronJobID}
}

// URN renders the subject as the opaque identifier used in notification
// subjects and list filters.
func (s Subject) URN() string {
	switch s.Kind {
	case SubjectHunt:
		return "hunts/" + s.ID
	case SubjectCronJob:
		return "cron/" + s.ID
	}
	return s.ID
}

// ApprovalURN renders the subject of a GrantAccess notification for an
// approval on this resource.
func (s Subject) ApprovalURN(requestor, approvalID string) string {
	switch s.Kind {
	case SubjectHunt:
		return "ACL/hunts/" + s.ID + "/" + requestor + "/" + approvalID
	case SubjectCronJob:
		return "ACL/cron/" + s.ID + "/" + requestor + "/" + approvalID
	}
	return "ACL/" + s.ID + "/" + requestor + "/" + approvalID
}

// Approval represents a pending or resolved grant of access to a subject for
// a requestor. The record itself is an audit trail: it is never deleted, and
// validity is derived on read, not stored.
type Approval struct {
	ID               string    `json:"id"`
	Subject          Subject   `json:"subject"`
	Requestor        string    `json:"requestor"`
	Reason           string    `json:"reason"`
	NotifiedUsers    []string  `json:"notifiedUsers,omitempty"`
	EmailCCAddresses []string  `json:"emailCcAddresses,omitempty"`
	Approvers        []string  `json:"approvers"` // ordered-insertion set, first entry is the requestor
	CreatedAt        time.Time `json:"createdAt"`

	// Derived on read, never persisted.
	IsValid        bool   `json:"isValid"`
	IsValidMessage string `json:"isValidMessage,omitempty"`
}

// HasApprover reports whether username already endorsed this approval.
func (a *Approval) HasApprover(username string) bool {
	for _, approver := range a.Approvers {
		if approver == username {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so that stores and callers never alias the
// mutable approver set.
func (a *Approval) Clone() *Approval {
	if a == nil {
		return nil
	}
	copied := *a
	copied.NotifiedUsers = append([]string(nil), a.NotifiedUsers...)
	copied.EmailCCAddresses = append([]string(nil), a.EmailCCAddresses...)
	copied.Approvers = append([]string(nil), a.Approvers...)
	return &copied
}

// CreateRequest carries the caller-supplied attributes of a new approval.
type CreateRequest struct {
	Subject          Subject  `json:"subject"`
	Requestor        string   `json:"requestor"`
	Reason           string   `json:"reason"`
	NotifiedUsers    []string `json:"notifiedUsers,omitempty"`
	EmailCCAddresses []string `json:"emailCcAddresses,omitempty"`

	// Approvers is accepted for wire compatibility and always ignored: the
	// approver set starts as {requestor} and grows only via Grant.
	Approvers []string `json:"approvers,omitempty"`
}

// State filters approvals by derived validity.
type State string

const (
	StateAny     State = "ANY"
	StateValid   State = "VALID"
	StateInvalid State = "INVALID"
)

// ListOptions narrows and pages a List call. A nil Count returns all items
// from Offset; Count of zero is a valid request for zero items.
type ListOptions struct {
	Subject *Subject
	State   State
	Offset  int
	Count   *int
}

// Event topics published on the approval queue.
const (
	TopicApprovalCreated = "approval.created"
	TopicApprovalGranted = "approval.granted"
	TopicDeliveryFailed  = "approval.deliveryFailed"
)

// Event is the envelope published for approval state changes.
type Event struct {
	Topic    string    `json:"topic"`
	Approval *Approval `json:"approval"`
	Granter  string    `json:"granter,omitempty"`
	Errors   []string  `json:"errors,omitempty"` // fan-out delivery failures, when any
}
