// Package quorum provides an approval-based access-control workflow and its
// companion notification lifecycle engine.
//
// Access to a protected subject (a client, a hunt, a cron job) is granted
// only after a quorum of designated approvers endorses a pending request.
// State changes surface as notifications that are resolved into typed
// references for display and move one-way from pending to shown on user
// acknowledgment.
package quorum
