package notification

import (
	"regexp"
	"strings"
)

// URNPrefix is the legacy location scheme some emitters still prepend to
// subjects. It is stripped before rule matching; Unknown references keep the
// subject verbatim, prefix included.
const URNPrefix = "aff4:/"

var clientIDPattern = regexp.MustCompile(`^C\.[0-9a-fA-F]{16}$`)

// IsClientID reports whether s denotes exactly a client identifier with no
// further path segments.
func IsClientID(s string) bool {
	return clientIDPattern.MatchString(s)
}

// resolveInput carries everything a resolver rule may inspect. Subject holds
// the raw value as given; trimmed has the location prefix removed.
type resolveInput struct {
	eventType string
	subject   string
	trimmed   string
	source    string
}

// resolverRule pairs a predicate with a constructor. Rules are evaluated in
// the fixed order of the rules table; the first rule that reports a match
// wins. Keeping the precedence in one flat table makes it auditable and lets
// tests pin the ordering.
type resolverRule struct {
	name  string
	apply func(in resolveInput) (Reference, bool)
}

var resolverRules = []resolverRule{
	{name: "grantAccess", apply: resolveGrantAccess},
	{name: "flowStatus", apply: resolveFlowStatus},
	{name: "discovery", apply: resolveDiscovery},
	{name: "clientFlow", apply: resolveClientFlow},
	{name: "hunt", apply: resolveHunt},
	{name: "cron", apply: resolveCron},
	{name: "vfs", apply: resolveVfs},
}

// Resolve classifies an event type and an opaque subject into a typed
// reference. The function is pure and total: an unparseable subject always
// yields an Unknown reference carrying the subject unmodified.
func Resolve(eventType, subject string) Reference {
	return resolve(resolveInput{
		eventType: eventType,
		subject:   subject,
		trimmed:   strings.TrimPrefix(subject, URNPrefix),
	})
}

// ResolveNotification resolves a notification, additionally consulting its
// source field for flow-status events.
func ResolveNotification(n *Notification) Reference {
	if n == nil {
		return unknownReference("")
	}
	return resolve(resolveInput{
		eventType: n.Type,
		subject:   n.Subject,
		trimmed:   strings.TrimPrefix(n.Subject, URNPrefix),
		source:    n.Source,
	})
}

func resolve(in resolveInput) Reference {
	for _, rule := range resolverRules {
		if ref, ok := rule.apply(in); ok {
			return ref
		}
	}
	return unknownReference(in.subject)
}

func unknownReference(subject string) Reference {
	return Reference{
		Type:    ReferenceUnknown,
		Unknown: &UnknownReference{Subject: subject},
	}
}

// resolveGrantAccess handles approval notifications. The three ACL shapes
// are mutually exclusive; a GrantAccess subject that fits none of them is
// terminal and resolves to Unknown rather than falling through to the
// generic subject rules.
func resolveGrantAccess(in resolveInput) (Reference, bool) {
	if in.eventType != EventTypeGrantAccess {
		return Reference{}, false
	}
	parts := strings.Split(in.trimmed, "/")
	if len(parts) < 2 || parts[0] != "ACL" {
		return unknownReference(in.subject), true
	}
	switch {
	case len(parts) == 4 && IsClientID(parts[1]):
		return Reference{
			Type: ReferenceClientApproval,
			ClientApproval: &ClientApprovalReference{
				ClientID:   parts[1],
				Username:   parts[2],
				ApprovalID: parts[3],
			},
		}, true
	case len(parts) == 5 && parts[1] == "hunts":
		return Reference{
			Type: ReferenceHuntApproval,
			HuntApproval: &HuntApprovalReference{
				HuntID:     parts[2],
				Username:   parts[3],
				ApprovalID: parts[4],
			},
		}, true
	case len(parts) == 5 && parts[1] == "cron":
		return Reference{
			Type: ReferenceCronJobApproval,
			CronJobApproval: &CronApprovalReference{
				CronJobID:  parts[2],
				Username:   parts[3],
				ApprovalID: parts[4],
			},
		}, true
	}
	return unknownReference(in.subject), true
}

// resolveFlowStatus maps flow completion/error signals addressed at a bare
// client to a flow reference. The flow id comes from the event's source
// field, not from the subject.
func resolveFlowStatus(in resolveInput) (Reference, bool) {
	if in.eventType != EventTypeFlowStatus && in.eventType != EventTypeFlowError {
		return Reference{}, false
	}
	if !IsClientID(in.trimmed) {
		return Reference{}, false
	}
	flowID := in.source
	if idx := strings.LastIndex(flowID, "/"); idx >= 0 {
		flowID = flowID[idx+1:]
	}
	return Reference{
		Type: ReferenceFlow,
		Flow: &FlowReference{ClientID: in.trimmed, FlowID: flowID},
	}, true
}

func resolveDiscovery(in resolveInput) (Reference, bool) {
	if in.eventType != EventTypeDiscovery && in.eventType != EventTypeViewObject {
		return Reference{}, false
	}
	if !IsClientID(in.trimmed) {
		return Reference{}, false
	}
	return Reference{
		Type:      ReferenceDiscovery,
		Discovery: &DiscoveryReference{ClientID: in.trimmed},
	}, true
}

func resolveClientFlow(in resolveInput) (Reference, bool) {
	parts := strings.SplitN(in.trimmed, "/", 3)
	if len(parts) != 3 || !IsClientID(parts[0]) || parts[1] != "flows" || parts[2] == "" {
		return Reference{}, false
	}
	if strings.Contains(parts[2], "/") {
		return Reference{}, false
	}
	return Reference{
		Type: ReferenceFlow,
		Flow: &FlowReference{ClientID: parts[0], FlowID: parts[2]},
	}, true
}

func resolveHunt(in resolveInput) (Reference, bool) {
	parts := strings.Split(in.trimmed, "/")
	if len(parts) != 2 || parts[0] != "hunts" || parts[1] == "" {
		return Reference{}, false
	}
	return Reference{
		Type: ReferenceHunt,
		Hunt: &HuntReference{HuntID: parts[1]},
	}, true
}

func resolveCron(in resolveInput) (Reference, bool) {
	parts := strings.Split(in.trimmed, "/")
	if len(parts) != 2 || parts[0] != "cron" || parts[1] == "" {
		return Reference{}, false
	}
	return Reference{
		Type: ReferenceCron,
		Cron: &CronReference{CronJobID: parts[1]},
	}, true
}

func resolveVfs(in resolveInput) (Reference, bool) {
	parts := strings.SplitN(in.trimmed, "/", 2)
	if len(parts) != 2 || !IsClientID(parts[0]) {
		return Reference{}, false
	}
	if parts[1] != "fs" && !strings.HasPrefix(parts[1], "fs/") {
		return Reference{}, false
	}
	return Reference{
		Type: ReferenceVfs,
		Vfs:  &VfsReference{ClientID: parts[0], Path: parts[1]},
	}, true
}
