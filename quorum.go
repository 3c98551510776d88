package quorum

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/url"

	"github.com/viant/quorum/service/approval"
	approvalfs "github.com/viant/quorum/service/dao/approval/fs"
	approvalmem "github.com/viant/quorum/service/dao/approval/memory"
	approvalsqlite "github.com/viant/quorum/service/dao/approval/sqlite"
	notificationmem "github.com/viant/quorum/service/dao/notification/memory"
	"github.com/viant/quorum/service/messaging"
	queuefs "github.com/viant/quorum/service/messaging/fs"
	queuemem "github.com/viant/quorum/service/messaging/memory"
	"github.com/viant/quorum/service/notification"
	"github.com/viant/quorum/service/notifier"
)

// Service aggregates the approval workflow engine, the notification
// lifecycle manager and the notifier behind a single constructor.
type Service struct {
	config *Config
	logger zerolog.Logger

	approvalStore     approval.Store
	notificationStore notification.Store
	authorizer        approval.Authorizer
	sender            notifier.Sender

	approvals     approval.Service
	notifications *notification.Service
	dispatcher    notifier.Service
}

// New builds the service. Defaults: in-memory stores, allow-all authorizer,
// log-only email transport and a quorum of one additional approver.
func New(options ...Option) (*Service, error) {
	s := &Service{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if err := s.buildApprovalStore(); err != nil {
		return nil, err
	}
	if s.notificationStore == nil {
		s.notificationStore = notificationmem.New()
	}
	if s.authorizer == nil {
		s.authorizer = approval.AllowAll
	}

	s.notifications = notification.New(s.notificationStore, notification.WithLogger(s.logger))

	if s.sender == nil {
		if s.config.SMTP != nil {
			s.sender = notifier.NewSMTPSender(*s.config.SMTP)
		} else {
			s.sender = notifier.NewLogSender(s.logger)
		}
	}
	events, deliveries, err := buildQueues(s.config.Queue)
	if err != nil {
		return nil, err
	}
	s.dispatcher = notifier.New(s.notifications, s.sender,
		notifier.WithLogger(s.logger),
		notifier.WithDeliveryQueue(deliveries))

	s.approvals = approval.New(s.approvalStore,
		approval.WithNotifier(s.dispatcher),
		approval.WithAuthorizer(s.authorizer),
		approval.WithRequiredApprovers(s.config.RequiredApprovers),
		approval.WithQueue(events),
		approval.WithLogger(s.logger))
	return s, nil
}

func buildQueues(config QueueConfig) (messaging.Queue[approval.Event], messaging.Queue[notifier.Delivery], error) {
	switch config.Vendor {
	case "", "memory":
		return queuemem.NewQueue[approval.Event](queuemem.DefaultConfig()),
			queuemem.NewQueue[notifier.Delivery](queuemem.DefaultConfig()), nil
	case "fs":
		fileService := afs.New()
		events, err := queuefs.NewQueue[approval.Event](fileService, queuefs.Config{
			BaseURL:    url.Join(config.BaseURL, "events"),
			MaxRetries: queuemem.DefaultConfig().MaxRetries,
			RetryDelay: time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		deliveries, err := queuefs.NewQueue[notifier.Delivery](fileService, queuefs.Config{
			BaseURL:    url.Join(config.BaseURL, "deliveries"),
			MaxRetries: queuemem.DefaultConfig().MaxRetries,
			RetryDelay: time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		return events, deliveries, nil
	}
	return nil, nil, fmt.Errorf("unsupported queue vendor: %q", config.Vendor)
}

func (s *Service) buildApprovalStore() error {
	if s.approvalStore != nil {
		return nil
	}
	switch s.config.ApprovalStore.Vendor {
	case StoreVendorMemory:
		s.approvalStore = approvalmem.New()
	case StoreVendorSQLite:
		store, err := approvalsqlite.New(s.config.ApprovalStore.Location)
		if err != nil {
			return err
		}
		s.approvalStore = store
	case StoreVendorFS:
		store, err := approvalfs.New(s.config.ApprovalStore.Location, afs.New())
		if err != nil {
			return err
		}
		s.approvalStore = store
	default:
		return fmt.Errorf("unsupported approval store vendor: %q", s.config.ApprovalStore.Vendor)
	}
	return nil
}

// Approvals exposes the approval workflow engine.
func (s *Service) Approvals() approval.Service { return s.approvals }

// Notifications exposes the notification lifecycle manager.
func (s *Service) Notifications() *notification.Service { return s.notifications }

// Notifier exposes the fan-out dispatcher.
func (s *Service) Notifier() notifier.Service { return s.dispatcher }

// Watch consumes the approval event queue, invoking handler for every event
// until ctx is cancelled. It is intended for external consumers such as
// audit sinks or chat integrations.
func (s *Service) Watch(ctx context.Context, handler func(*approval.Event)) {
	go func() {
		queue := s.approvals.Queue()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			message, err := queue.Consume(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn().Err(err).Msg("failed to consume approval event")
				continue
			}
			if message == nil {
				// fs-backed queues report an empty queue as a nil message.
				select {
				case <-ctx.Done():
					return
				case <-time.After(50 * time.Millisecond):
				}
				continue
			}
			handler(message.T())
			_ = message.Ack()
		}
	}()
}
