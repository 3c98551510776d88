package quorum

import (
	"github.com/rs/zerolog"

	"github.com/viant/quorum/service/approval"
	"github.com/viant/quorum/service/notification"
	"github.com/viant/quorum/service/notifier"
)

// Option customises the aggregate service.
type Option func(*Service)

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithLogger attaches a structured logger shared by all components.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithApprovalStore injects a pre-built approval store, overriding the
// configured vendor.
func WithApprovalStore(store approval.Store) Option {
	return func(s *Service) { s.approvalStore = store }
}

// WithNotificationStore injects a pre-built notification store.
func WithNotificationStore(store notification.Store) Option {
	return func(s *Service) { s.notificationStore = store }
}

// WithAuthorizer replaces the delegated approver check.
func WithAuthorizer(authorizer approval.Authorizer) Option {
	return func(s *Service) { s.authorizer = authorizer }
}

// WithEmailSender replaces the email transport.
func WithEmailSender(sender notifier.Sender) Option {
	return func(s *Service) { s.sender = sender }
}

// WithRequiredApprovers overrides the quorum without replacing the config.
func WithRequiredApprovers(n int) Option {
	return func(s *Service) { s.config.RequiredApprovers = n }
}
