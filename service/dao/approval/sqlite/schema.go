package sqlite

import "database/sql"

const schema = `
CREATE TABLE IF NOT EXISTS approvals (
	id            TEXT PRIMARY KEY,
	subject_kind  TEXT NOT NULL,
	subject_id    TEXT NOT NULL,
	requestor     TEXT NOT NULL,
	reason        TEXT NOT NULL,
	notified      TEXT NOT NULL,
	email_cc      TEXT NOT NULL,
	approvers     TEXT NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS approvals_subject ON approvals(subject_kind, subject_id);
CREATE INDEX IF NOT EXISTS approvals_created ON approvals(created_at);
`

func initSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
