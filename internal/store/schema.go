package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	aborted     BOOLEAN NOT NULL DEFAULT FALSE,
	total       INTEGER NOT NULL,
	parsed      INTEGER NOT NULL,
	partial     INTEGER NOT NULL,
	failed      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	document_id            TEXT PRIMARY KEY,
	run_id                 TEXT NOT NULL,
	status                 TEXT NOT NULL,
	date                   TEXT,
	reference              TEXT,
	value_date             TEXT,
	sum                    TEXT,
	entry_type             TEXT,
	transaction_type       TEXT,
	payment_details_raw    TEXT,
	additional_details_raw TEXT,
	diagnostics            TEXT,
	details_family         TEXT,
	payment_details        TEXT,
	error                  TEXT,
	updated_at             TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_type ON notifications (transaction_type);
CREATE INDEX IF NOT EXISTS idx_notifications_reference ON notifications (reference);
`

const upsertNotification = `
INSERT INTO notifications (
	document_id, run_id, status, date, reference, value_date, sum, entry_type,
	transaction_type, payment_details_raw, additional_details_raw, diagnostics,
	details_family, payment_details, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (document_id) DO UPDATE SET
	run_id = excluded.run_id,
	status = excluded.status,
	date = excluded.date,
	reference = excluded.reference,
	value_date = excluded.value_date,
	sum = excluded.sum,
	entry_type = excluded.entry_type,
	transaction_type = excluded.transaction_type,
	payment_details_raw = excluded.payment_details_raw,
	additional_details_raw = excluded.additional_details_raw,
	diagnostics = excluded.diagnostics,
	details_family = excluded.details_family,
	payment_details = excluded.payment_details,
	error = excluded.error,
	updated_at = CURRENT_TIMESTAMP`

const upsertRun = `
INSERT INTO runs (run_id, started_at, finished_at, aborted, total, parsed, partial, failed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (run_id) DO UPDATE SET
	finished_at = excluded.finished_at,
	aborted = excluded.aborted,
	total = excluded.total,
	parsed = excluded.parsed,
	partial = excluded.partial,
	failed = excluded.failed`

const selectNotification = `
SELECT document_id, run_id, status, date, reference, value_date, sum, entry_type,
	transaction_type, payment_details_raw, additional_details_raw, diagnostics,
	details_family, payment_details, error
FROM notifications`
