package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/toolbox/data"

	"github.com/viant/quorum/internal/clock"
	"github.com/viant/quorum/service/messaging"
	"github.com/viant/quorum/service/notification"
	"github.com/viant/quorum/tracing"
)

// Default templates, expanded with $user, $requestor, $reason and $subject.
const (
	DefaultEmailSubject = "Approval request by $requestor"
	DefaultEmailBody    = "User $requestor requests your approval for $subject.\n\nReason: $reason\n"
	DefaultMessage      = "Please grant access. Requested by $requestor, reason: $reason"
)

// Request describes one fan-out: every notified user receives exactly one
// in-app pending notification and exactly one email carbon-copying the full
// CC list.
type Request struct {
	EventType     string
	Subject       string
	Requestor     string
	Reason        string
	NotifiedUsers []string
	CCAddresses   []string
}

// Delivery is the per-user record published after each fan-out attempt.
type Delivery struct {
	User      string    `json:"user"`
	Subject   string    `json:"subject"`
	Requestor string    `json:"requestor"`
	EmailSent bool      `json:"emailSent"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Service dispatches approval side effects to designated approvers.
type Service interface {
	Notify(ctx context.Context, request *Request) error
}

type service struct {
	notifications *notification.Service
	sender        Sender
	deliveries    messaging.Queue[Delivery]
	logger        zerolog.Logger
	emailSubject  string
	emailBody     string
	message       string
}

// Option customises the notifier.
type Option func(*service)

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// WithDeliveryQueue publishes a Delivery record per notified user, making
// fan-out outcomes observable to external consumers.
func WithDeliveryQueue(queue messaging.Queue[Delivery]) Option {
	return func(s *service) { s.deliveries = queue }
}

// WithTemplates overrides the email subject, email body and in-app message
// templates.
func WithTemplates(emailSubject, emailBody, message string) Option {
	return func(s *service) {
		s.emailSubject = emailSubject
		s.emailBody = emailBody
		s.message = message
	}
}

// New creates a notifier that emits in-app notifications through
// notifications and email through sender.
func New(notifications *notification.Service, sender Sender, options ...Option) Service {
	ret := &service{
		notifications: notifications,
		sender:        sender,
		logger:        zerolog.Nop(),
		emailSubject:  DefaultEmailSubject,
		emailBody:     DefaultEmailBody,
		message:       DefaultMessage,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Notify fans the request out to every notified user. A failure for one user
// is collected and reported but never prevents delivery to the remaining
// users; the combined error joins all per-user failures.
func (s *service) Notify(ctx context.Context, request *Request) error {
	if request == nil {
		return fmt.Errorf("notifier: nil request")
	}
	ctx, span := tracing.StartSpan(ctx, "notifier.notify")
	defer span.End()

	var failures []error
	for _, user := range request.NotifiedUsers {
		err := s.notifyUser(ctx, user, request)
		if err != nil {
			failures = append(failures, fmt.Errorf("user %s: %w", user, err))
			s.logger.Warn().Err(err).
				Str("user", user).
				Str("subject", request.Subject).
				Msg("fan-out delivery failed")
		}
		s.publishDelivery(ctx, user, request, err)
	}
	err := errors.Join(failures...)
	span.SetStatus(err)
	return err
}

func (s *service) notifyUser(ctx context.Context, user string, request *Request) error {
	vars := data.NewMap()
	vars.Put("user", user)
	vars.Put("requestor", request.Requestor)
	vars.Put("reason", request.Reason)
	vars.Put("subject", request.Subject)

	var failures []error
	err := s.notifications.Notify(ctx, user, &notification.Notification{
		Type:    request.EventType,
		Subject: request.Subject,
		Message: vars.ExpandAsText(s.message),
	})
	if err != nil {
		failures = append(failures, fmt.Errorf("in-app: %w", err))
	}

	// One email per notified user; the CC list rides along, it never adds
	// extra sends.
	err = s.sender.Send(ctx, &Email{
		To:          user,
		From:        request.Requestor,
		Subject:     vars.ExpandAsText(s.emailSubject),
		Body:        vars.ExpandAsText(s.emailBody),
		CCAddresses: request.CCAddresses,
	})
	if err != nil {
		failures = append(failures, fmt.Errorf("email: %w", err))
	}
	return errors.Join(failures...)
}

func (s *service) publishDelivery(ctx context.Context, user string, request *Request, err error) {
	if s.deliveries == nil {
		return
	}
	delivery := &Delivery{
		User:      user,
		Subject:   request.Subject,
		Requestor: request.Requestor,
		EmailSent: err == nil,
		At:        clock.Now(),
	}
	if err != nil {
		delivery.Error = err.Error()
	}
	if pErr := s.deliveries.Publish(ctx, delivery); pErr != nil {
		s.logger.Warn().Err(pErr).Str("user", user).Msg("failed to publish delivery record")
	}
}
