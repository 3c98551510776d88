package approval

import (
	"context"
	"fmt"
	"time"
)

// GrantFunc decides whether granter endorses a pending approval.
// Return (username, true) to grant on behalf of username, or false to skip.
type GrantFunc func(a *Approval) (granter string, grant bool)

// AutoGranter starts a goroutine that polls invalid approvals and applies fn
// to each. It returns stop(); call it (or cancel ctx) to exit. Intended for
// integration setups where a review step is scripted.
func AutoGranter(ctx context.Context, svc Service, fn GrantFunc, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				pending, _ := svc.List(ctx, &ListOptions{State: StateInvalid})
				for _, a := range pending {
					if granter, ok := fn(a); ok {
						_, _ = svc.Grant(ctx, a.ID, granter)
					}
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoGrant grants every invalid approval on behalf of granter.
func AutoGrant(ctx context.Context, svc Service, granter string, interval time.Duration) func() {
	return AutoGranter(ctx, svc,
		func(*Approval) (string, bool) { return granter, true }, interval)
}

// WaitForValid blocks until the approval with the given id satisfies the
// quorum rule or timeout elapses. It re-reads the approval on a short poll
// interval rather than consuming the service event queue, so it never
// competes with other queue consumers.
func WaitForValid(ctx context.Context, svc Service, approvalID string, timeout time.Duration) (*Approval, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		a, err := svc.Get(ctx, approvalID, "")
		if err != nil {
			return nil, err
		}
		if a.IsValid {
			return a, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("%w: timed out waiting for approval %s", ErrTransient, approvalID)
		case <-ticker.C:
		}
	}
}
