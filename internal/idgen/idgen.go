package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier as string. It is a
// variable so tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new opaque identifier.
func New() string { return NewFunc() }

// NewApprovalID returns an identifier suitable for approval records. The
// prefix keeps approval ids recognisable in notification subjects and logs.
func NewApprovalID() string {
	return "approval-" + strings.ReplaceAll(NewFunc(), "-", "")[:16]
}
