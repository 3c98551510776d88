package notification

// ReferenceType enumerates the typed interpretations of a notification
// subject. Exactly one variant of Reference is populated per type.
type ReferenceType string

const (
	ReferenceUnknown         ReferenceType = "UNKNOWN"
	ReferenceDiscovery       ReferenceType = "DISCOVERY"
	ReferenceHunt            ReferenceType = "HUNT"
	ReferenceCron            ReferenceType = "CRON"
	ReferenceFlow            ReferenceType = "FLOW"
	ReferenceVfs             ReferenceType = "VFS"
	ReferenceClientApproval  ReferenceType = "CLIENT_APPROVAL"
	ReferenceHuntApproval    ReferenceType = "HUNT_APPROVAL"
	ReferenceCronJobApproval ReferenceType = "CRON_JOB_APPROVAL"
)

// Reference is the resolved, structured view of a notification's
// (type, subject) pair.
type Reference struct {
	Type            ReferenceType            `json:"type"`
	Discovery       *DiscoveryReference      `json:"discovery,omitempty"`
	Hunt            *HuntReference           `json:"hunt,omitempty"`
	Cron            *CronReference           `json:"cron,omitempty"`
	Flow            *FlowReference           `json:"flow,omitempty"`
	Vfs             *VfsReference            `json:"vfs,omitempty"`
	ClientApproval  *ClientApprovalReference `json:"clientApproval,omitempty"`
	HuntApproval    *HuntApprovalReference   `json:"huntApproval,omitempty"`
	CronJobApproval *CronApprovalReference   `json:"cronJobApproval,omitempty"`
	Unknown         *UnknownReference        `json:"unknown,omitempty"`
}

// DiscoveryReference points at a newly seen or re-surfaced client.
type DiscoveryReference struct {
	ClientID string `json:"clientId"`
}

// HuntReference points at a hunt.
type HuntReference struct {
	HuntID string `json:"huntId"`
}

// CronReference points at a cron job.
type CronReference struct {
	CronJobID string `json:"cronJobId"`
}

// FlowReference points at a flow running on a client.
type FlowReference struct {
	ClientID string `json:"clientId"`
	FlowID   string `json:"flowId"`
}

// VfsReference points at a path in a client's virtual filesystem.
type VfsReference struct {
	ClientID string `json:"clientId"`
	Path     string `json:"path"`
}

// ClientApprovalReference points at an access approval for a client.
type ClientApprovalReference struct {
	ClientID   string `json:"clientId"`
	Username   string `json:"username"`
	ApprovalID string `json:"approvalId"`
}

// HuntApprovalReference points at an access approval for a hunt.
type HuntApprovalReference struct {
	HuntID     string `json:"huntId"`
	Username   string `json:"username"`
	ApprovalID string `json:"approvalId"`
}

// CronApprovalReference points at an access approval for a cron job.
type CronApprovalReference struct {
	CronJobID  string `json:"cronJobId"`
	Username   string `json:"username"`
	ApprovalID string `json:"approvalId"`
}

// UnknownReference preserves a subject no rule could classify. The subject is
// kept verbatim so that display layers never lose legacy data.
type UnknownReference struct {
	Subject string `json:"subject"`
}
