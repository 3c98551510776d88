// Package approval implements a quorum-based access approval workflow:
// access to a protected subject (a client, a hunt, a cron job) is granted
// only after one or more designated approvers endorse a pending request.
//
// Approvals are audit records – they are created, granted and listed, never
// deleted. Validity is derived on every read from the approver set and the
// delegated authorization check, so a revoked approver authorization
// immediately invalidates dependent approvals.
package approval
