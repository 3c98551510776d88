package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/viant/quorum/internal/clock"
	"github.com/viant/quorum/internal/idgen"
	"github.com/viant/quorum/service/dao"
	"github.com/viant/quorum/service/messaging"
	qmem "github.com/viant/quorum/service/messaging/memory"
	"github.com/viant/quorum/service/notifier"
	"github.com/viant/quorum/tracing"
)

// DefaultRequiredApprovers is the quorum of distinct additional approvers,
// beyond the requestor, required for an approval to become valid.
const DefaultRequiredApprovers = 1

// grantConflictRetries bounds the internal re-read/re-apply loop on
// concurrent grants before surfacing ErrTransient.
const grantConflictRetries = 3

// Authorizer is the delegated per-subject check deciding whether a user may
// act as an approver. This engine only counts distinct authorized approvers;
// it does not implement ACL policy itself.
type Authorizer interface {
	IsAuthorizedApprover(ctx context.Context, subject Subject, username string) (bool, error)
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, subject Subject, username string) (bool, error)

// IsAuthorizedApprover delegates to the wrapped function.
func (f AuthorizerFunc) IsAuthorizedApprover(ctx context.Context, subject Subject, username string) (bool, error) {
	return f(ctx, subject, username)
}

// AllowAll authorizes every user for every subject.
var AllowAll = AuthorizerFunc(func(context.Context, Subject, string) (bool, error) {
	return true, nil
})

// Service is the approval workflow engine.
type Service interface {
	// Create validates and persists a new approval, then fans out
	// notifications and emails to every notified user. Fan-out failures are
	// reported on the event queue and logged, never rolled back.
	Create(ctx context.Context, request *CreateRequest) (*Approval, error)

	// Grant appends granter to the approval's approver set. Idempotent:
	// granting twice by the same user does not duplicate the entry.
	Grant(ctx context.Context, approvalID, granter string) (*Approval, error)

	// Get returns the approval with derived validity computed for caller.
	Get(ctx context.Context, approvalID, caller string) (*Approval, error)

	// List returns approvals newest-created first, filtered and paged per
	// options.
	List(ctx context.Context, options *ListOptions) ([]*Approval, error)

	// CheckAccess returns nil when the approval satisfies the quorum rule,
	// ErrUnauthorized otherwise.
	CheckAccess(ctx context.Context, approvalID string) error

	// Queue exposes the approval event stream.
	Queue() messaging.Queue[Event]
}

type service struct {
	store      Store
	notifier   notifier.Service
	authorizer Authorizer
	required   int
	events     messaging.Queue[Event]
	logger     zerolog.Logger
}

// Option customises the engine.
type Option func(*service)

// WithNotifier attaches the fan-out dispatcher invoked on Create.
func WithNotifier(n notifier.Service) Option {
	return func(s *service) { s.notifier = n }
}

// WithAuthorizer replaces the delegated approver check.
func WithAuthorizer(a Authorizer) Option {
	return func(s *service) { s.authorizer = a }
}

// WithRequiredApprovers overrides the quorum of additional approvers.
func WithRequiredApprovers(n int) Option {
	return func(s *service) { s.required = n }
}

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// WithQueue replaces the event queue.
func WithQueue(queue messaging.Queue[Event]) Option {
	return func(s *service) { s.events = queue }
}

// New creates an approval workflow engine over store.
func New(store Store, options ...Option) Service {
	ret := &service{
		store:      store,
		authorizer: AllowAll,
		required:   DefaultRequiredApprovers,
		events:     qmem.NewQueue[Event](qmem.DefaultConfig()),
		logger:     zerolog.Nop(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *service) Create(ctx context.Context, request *CreateRequest) (*Approval, error) {
	ctx, span := tracing.StartSpan(ctx, "approval.create")
	defer span.End()

	if err := validateCreate(request); err != nil {
		span.SetStatus(err)
		return nil, err
	}

	a := &Approval{
		ID:               idgen.NewApprovalID(),
		Subject:          request.Subject,
		Requestor:        request.Requestor,
		Reason:           request.Reason,
		NotifiedUsers:    dedupe(request.NotifiedUsers),
		EmailCCAddresses: dedupe(request.EmailCCAddresses),
		// Caller-supplied approvers are ignored; every approval starts
		// self-approved by its requestor only.
		Approvers: []string{request.Requestor},
		CreatedAt: clock.Now(),
	}
	if err := s.store.Put(ctx, a); err != nil {
		span.SetStatus(err)
		return nil, err
	}
	// A fresh approval carries no non-requestor approvers, so assessing it
	// never consults the authorizer.
	if err := s.assess(ctx, a); err != nil {
		span.SetStatus(err)
		return nil, err
	}
	_ = s.events.Publish(ctx, &Event{Topic: TopicApprovalCreated, Approval: a.Clone()})

	// Fan-out runs only after the approval record is durably persisted, so a
	// cancelled create never leaves notifications without a record.
	s.fanOut(ctx, a)

	s.logger.Info().
		Str("id", a.ID).
		Str("requestor", a.Requestor).
		Str("subject", a.Subject.URN()).
		Msg("approval created")
	return a, nil
}

func validateCreate(request *CreateRequest) error {
	if request == nil {
		return fmt.Errorf("%w: nil request", ErrInvalidRequest)
	}
	if strings.TrimSpace(request.Reason) == "" {
		return fmt.Errorf("%w: approval reason must not be empty", ErrInvalidRequest)
	}
	if request.Requestor == "" {
		return fmt.Errorf("%w: requestor must not be empty", ErrInvalidRequest)
	}
	if request.Subject.ID == "" {
		return fmt.Errorf("%w: subject identifier must not be empty", ErrInvalidRequest)
	}
	return nil
}

func (s *service) fanOut(ctx context.Context, a *Approval) {
	if s.notifier == nil || len(a.NotifiedUsers) == 0 {
		return
	}
	err := s.notifier.Notify(ctx, &notifier.Request{
		EventType:     "GrantAccess",
		Subject:       a.Subject.ApprovalURN(a.Requestor, a.ID),
		Requestor:     a.Requestor,
		Reason:        a.Reason,
		NotifiedUsers: a.NotifiedUsers,
		CCAddresses:   a.EmailCCAddresses,
	})
	if err == nil {
		return
	}
	// Partial fan-out failures are a non-fatal summary; the approval stands.
	s.logger.Warn().Err(err).Str("id", a.ID).Msg("approval fan-out incomplete")
	_ = s.events.Publish(ctx, &Event{
		Topic:    TopicDeliveryFailed,
		Approval: a.Clone(),
		Errors:   splitJoined(err),
	})
}

func splitJoined(err error) []string {
	type unwrapper interface{ Unwrap() []error }
	if joined, ok := err.(unwrapper); ok {
		parts := joined.Unwrap()
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			out = append(out, part.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func (s *service) Grant(ctx context.Context, approvalID, granter string) (*Approval, error) {
	ctx, span := tracing.StartSpan(ctx, "approval.grant")
	defer span.End()

	if approvalID == "" {
		return nil, fmt.Errorf("%w: approval id must not be empty", ErrInvalidRequest)
	}
	if granter == "" {
		return nil, fmt.Errorf("%w: granter must not be empty", ErrInvalidRequest)
	}
	for attempt := 0; attempt < grantConflictRetries; attempt++ {
		current, err := s.load(ctx, approvalID)
		if err != nil {
			span.SetStatus(err)
			return nil, err
		}
		if current.HasApprover(granter) {
			if err := s.assess(ctx, current); err != nil {
				span.SetStatus(err)
				return nil, err
			}
			return current, nil
		}
		updated := append(append([]string(nil), current.Approvers...), granter)
		err = s.store.CompareAndSwapApprovers(ctx, approvalID, current.Approvers, updated)
		if errors.Is(err, dao.ErrConflict) {
			continue
		}
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fmt.Errorf("%w: approval %s", ErrNotFound, approvalID)
		}
		if err != nil {
			span.SetStatus(err)
			return nil, err
		}
		current.Approvers = updated
		if err := s.assess(ctx, current); err != nil {
			span.SetStatus(err)
			return nil, err
		}
		_ = s.events.Publish(ctx, &Event{Topic: TopicApprovalGranted, Approval: current.Clone(), Granter: granter})
		s.logger.Info().
			Str("id", approvalID).
			Str("granter", granter).
			Bool("valid", current.IsValid).
			Msg("approval granted")
		return current, nil
	}
	err := fmt.Errorf("%w: concurrent grants on approval %s", ErrTransient, approvalID)
	span.SetStatus(err)
	return nil, err
}

func (s *service) Get(ctx context.Context, approvalID, caller string) (*Approval, error) {
	ctx, span := tracing.StartSpan(ctx, "approval.get")
	defer span.End()

	a, err := s.load(ctx, approvalID)
	if err != nil {
		span.SetStatus(err)
		return nil, err
	}
	if err := s.assess(ctx, a); err != nil {
		span.SetStatus(err)
		return nil, err
	}
	s.logger.Debug().Str("id", approvalID).Str("caller", caller).Msg("approval read")
	return a, nil
}

func (s *service) List(ctx context.Context, options *ListOptions) ([]*Approval, error) {
	ctx, span := tracing.StartSpan(ctx, "approval.list")
	defer span.End()

	if options == nil {
		options = &ListOptions{}
	}
	if options.Offset < 0 {
		err := fmt.Errorf("%w: offset must not be negative, had %d", ErrInvalidRequest, options.Offset)
		span.SetStatus(err)
		return nil, err
	}
	items, err := s.store.Query(ctx, options.Subject, 0, -1)
	if err != nil {
		span.SetStatus(err)
		return nil, err
	}

	// The state filter applies the derived validity predicate before any
	// pagination.
	filtered := make([]*Approval, 0, len(items))
	for _, item := range items {
		if err := s.assess(ctx, item); err != nil {
			span.SetStatus(err)
			return nil, err
		}
		switch options.State {
		case StateValid:
			if !item.IsValid {
				continue
			}
		case StateInvalid:
			if item.IsValid {
				continue
			}
		}
		filtered = append(filtered, item)
	}

	if options.Offset >= len(filtered) {
		return []*Approval{}, nil
	}
	filtered = filtered[options.Offset:]
	if options.Count != nil && *options.Count < len(filtered) {
		filtered = filtered[:*options.Count]
	}
	return filtered, nil
}

func (s *service) CheckAccess(ctx context.Context, approvalID string) error {
	a, err := s.load(ctx, approvalID)
	if err != nil {
		return err
	}
	if err := s.assess(ctx, a); err != nil {
		return err
	}
	if !a.IsValid {
		return fmt.Errorf("%w: %s", ErrUnauthorized, a.IsValidMessage)
	}
	return nil
}

func (s *service) Queue() messaging.Queue[Event] { return s.events }

func (s *service) load(ctx context.Context, approvalID string) (*Approval, error) {
	a, err := s.store.Get(ctx, approvalID)
	if errors.Is(err, dao.ErrNotFound) || (err == nil && a == nil) {
		return nil, fmt.Errorf("%w: approval %s", ErrNotFound, approvalID)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// assess derives validity: the approval is valid when the number of distinct
// authorized approvers other than the requestor meets the quorum. The
// requestor's own self-approval never counts. A failing authorization check
// surfaces as ErrTransient so an authorizer outage never reads as "invalid".
func (s *service) assess(ctx context.Context, a *Approval) error {
	granted := 0
	for _, approver := range a.Approvers {
		if approver == a.Requestor {
			continue
		}
		ok, err := s.authorizer.IsAuthorizedApprover(ctx, a.Subject, approver)
		if err != nil {
			return fmt.Errorf("%w: authorization check for approver %s: %v", ErrTransient, approver, err)
		}
		if ok {
			granted++
		}
	}
	if granted >= s.required {
		a.IsValid = true
		a.IsValidMessage = ""
		return nil
	}
	noun := "approver"
	if s.required != 1 {
		noun = "approvers"
	}
	a.IsValid = false
	a.IsValidMessage = fmt.Sprintf("Need at least %d additional %s for access.", s.required, noun)
	return nil
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}

var _ Service = (*service)(nil)
