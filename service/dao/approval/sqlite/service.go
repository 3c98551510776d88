// Package sqlite persists approval records in a SQLite database, giving the
// audit trail durability across restarts without an external server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/viant/quorum/service/approval"
	"github.com/viant/quorum/service/dao"
)

// Service is a SQLite-backed approval.Store. The approver set is stored as a
// canonical JSON array, which makes the compare-and-swap a single guarded
// UPDATE statement.
type Service struct {
	db *sql.DB
}

// New opens (or creates) the database at location and ensures the schema.
// Use ":memory:" for an ephemeral store.
func New(location string) (*Service, error) {
	dsn := location
	if location != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", location)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open approval database %s: %w", location, err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialise approval schema: %w", err)
	}
	return &Service{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Service) Close() error {
	return s.db.Close()
}

var _ approval.Store = (*Service)(nil)

func marshalList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	return string(data), err
}

func unmarshalList(data string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}

// Put stores a new approval record.
func (s *Service) Put(ctx context.Context, a *approval.Approval) error {
	if a == nil {
		return dao.ErrNilEntity
	}
	if a.ID == "" {
		return dao.ErrInvalidID
	}
	notified, err := marshalList(a.NotifiedUsers)
	if err != nil {
		return err
	}
	cc, err := marshalList(a.EmailCCAddresses)
	if err != nil {
		return err
	}
	approvers, err := marshalList(a.Approvers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO approvals
		 (id, subject_kind, subject_id, requestor, reason, notified, email_cc, approvers, created_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Subject.Kind), a.Subject.ID, a.Requestor, a.Reason,
		notified, cc, approvers, a.CreatedAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("failed to store approval %s: %w", a.ID, err)
	}
	return nil
}

func scanApproval(scanner interface{ Scan(...any) error }) (*approval.Approval, error) {
	var a approval.Approval
	var kind, notified, cc, approvers string
	var createdAt int64
	err := scanner.Scan(&a.ID, &kind, &a.Subject.ID, &a.Requestor, &a.Reason,
		&notified, &cc, &approvers, &createdAt)
	if err != nil {
		return nil, err
	}
	a.Subject.Kind = approval.SubjectKind(kind)
	a.CreatedAt = time.UnixMicro(createdAt).UTC()
	if a.NotifiedUsers, err = unmarshalList(notified); err != nil {
		return nil, err
	}
	if a.EmailCCAddresses, err = unmarshalList(cc); err != nil {
		return nil, err
	}
	if a.Approvers, err = unmarshalList(approvers); err != nil {
		return nil, err
	}
	return &a, nil
}

const selectColumns = `id, subject_kind, subject_id, requestor, reason, notified, email_cc, approvers, created_at`

// Get returns the approval with the given id.
func (s *Service) Get(ctx context.Context, id string) (*approval.Approval, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM approvals WHERE id = ?`, id)
	a, err := scanApproval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dao.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read approval %s: %w", id, err)
	}
	return a, nil
}

// Query returns approvals newest-created first; ties resolve to reverse
// insertion order via the implicit rowid.
func (s *Service) Query(ctx context.Context, subject *approval.Subject, offset, count int) ([]*approval.Approval, error) {
	query := `SELECT ` + selectColumns + ` FROM approvals`
	args := make([]any, 0, 4)
	if subject != nil {
		query += ` WHERE subject_kind = ? AND subject_id = ?`
		args = append(args, string(subject.Kind), subject.ID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	limit := count
	if count < 0 {
		limit = -1 // no limit
	}
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer rows.Close()

	var out []*approval.Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if out == nil {
		out = []*approval.Approval{}
	}
	return out, rows.Err()
}

// CompareAndSwapApprovers applies the swap as a single guarded UPDATE so a
// concurrent grant can never be lost.
func (s *Service) CompareAndSwapApprovers(ctx context.Context, id string, expected, updated []string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	expectedJSON, err := marshalList(expected)
	if err != nil {
		return err
	}
	updatedJSON, err := marshalList(updated)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE approvals SET approvers = ? WHERE id = ? AND approvers = ?`,
		updatedJSON, id, expectedJSON)
	if err != nil {
		return fmt.Errorf("failed to update approvers on %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}
	// Distinguish a missing record from a lost race.
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM approvals WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return dao.ErrNotFound
	}
	return dao.ErrConflict
}
