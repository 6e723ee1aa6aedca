// Package store persists processed notifications in SQLite. Each document id
// is stored once; reprocessing a document replaces its row.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"bulbank-notification-parser/internal/models"
	"bulbank-notification-parser/internal/processor"
	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

// StoredNotification is one persisted document result
type StoredNotification struct {
	DocumentID string
	RunID      string
	Status     processor.Status
	Record     *models.TransactionRecord
	Details    models.PaymentDetails
	Error      string
}

// Store is a SQLite-backed sink for batch results
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// Open opens or creates the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.StorageError("open", err).WithContext("path", path)
	}
	// One connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.StorageError("migrate", err).WithContext("path", path)
	}

	return &Store{
		db:     db,
		logger: logger.GetGlobalLogger().WithComponent("store").WithField("path", path),
	}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBatch writes the run and every document result in one transaction
func (s *Store) SaveBatch(ctx context.Context, batch *processor.BatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StorageError("begin", err)
	}
	defer tx.Rollback()

	summary := batch.Summary
	if summary == nil {
		summary = &processor.Summary{}
	}
	if _, err := tx.ExecContext(ctx, upsertRun,
		batch.RunID,
		formatTime(batch.StartedAt),
		formatTime(batch.FinishedAt),
		batch.Aborted,
		summary.Total,
		summary.Parsed,
		summary.Partial,
		summary.Failed,
	); err != nil {
		return errors.StorageError("save run", err).WithContext("run_id", batch.RunID)
	}

	stmt, err := tx.PrepareContext(ctx, upsertNotification)
	if err != nil {
		return errors.StorageError("prepare", err)
	}
	defer stmt.Close()

	saved := 0
	for _, result := range batch.Results {
		if result.Status == processor.StatusSkipped {
			continue
		}
		args, err := notificationArgs(batch.RunID, result)
		if err != nil {
			return errors.StorageError("encode", err).WithContext("document_id", result.DocumentID)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return errors.StorageError("save notification", err).WithContext("document_id", result.DocumentID)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return errors.StorageError("commit", err)
	}

	s.logger.WithFields(logger.Fields{
		"run_id":        batch.RunID,
		"notifications": saved,
	}).Info("Saved batch")
	return nil
}

// Save writes a single document result outside of a batch
func (s *Store) Save(ctx context.Context, runID string, result *processor.DocumentResult) error {
	args, err := notificationArgs(runID, result)
	if err != nil {
		return errors.StorageError("encode", err).WithContext("document_id", result.DocumentID)
	}
	if _, err := s.db.ExecContext(ctx, upsertNotification, args...); err != nil {
		return errors.StorageError("save notification", err).WithContext("document_id", result.DocumentID)
	}
	return nil
}

// Get loads one notification by document id
func (s *Store) Get(ctx context.Context, documentID string) (*StoredNotification, error) {
	row := s.db.QueryRowContext(ctx, selectNotification+" WHERE document_id = ?", documentID)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, errors.SourceError(errors.CodeDocumentNotFound, documentID, err)
	}
	if err != nil {
		return nil, errors.StorageError("get notification", err).WithContext("document_id", documentID)
	}
	return n, nil
}

// List loads every notification, optionally restricted to one transaction type
func (s *Store) List(ctx context.Context, txType models.TransactionType) ([]*StoredNotification, error) {
	query, args := selectNotification+" ORDER BY document_id", []interface{}{}
	if txType != "" {
		query, args = selectNotification+" WHERE transaction_type = ? ORDER BY document_id", []interface{}{string(txType)}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.StorageError("list notifications", err)
	}
	defer rows.Close()

	var out []*StoredNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errors.StorageError("scan notification", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageError("list notifications", err)
	}
	return out, nil
}

// CountRuns returns the number of stored runs
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		return 0, errors.StorageError("count runs", err)
	}
	return n, nil
}

func notificationArgs(runID string, result *processor.DocumentResult) ([]interface{}, error) {
	var (
		date, reference, valueDate, sum, entryType, txType sql.NullString
		paymentRaw, additionalRaw, diagnostics               sql.NullString
		family, details, errText                             sql.NullString
		err                                                  error
	)

	if r := result.Record; r != nil {
		date = nullString(formatTime(r.Date))
		reference = nullString(r.Reference)
		valueDate = nullString(formatTime(r.ValueDate))
		sum = nullString(r.Sum)
		entryType = nullString(string(r.EntryType))
		txType = nullString(string(r.TransactionType))
		if paymentRaw, err = encode(r.PaymentDetailsRaw); err != nil {
			return nil, err
		}
		if r.AdditionalDetailsRaw != nil {
			if additionalRaw, err = encode(r.AdditionalDetailsRaw); err != nil {
				return nil, err
			}
		}
		if len(r.Diagnostics) > 0 {
			if diagnostics, err = encode(r.Diagnostics); err != nil {
				return nil, err
			}
		}
	}

	if result.Details != nil {
		family = nullString(string(result.Details.Family()))
		if details, err = encode(result.Details); err != nil {
			return nil, err
		}
	}

	switch {
	case result.Error != nil:
		errText = nullString(result.Error.Error())
	case result.DetailsError != nil:
		errText = nullString(result.DetailsError.Error())
	}

	return []interface{}{
		result.DocumentID, runID, string(result.Status),
		date, reference, valueDate, sum, entryType, txType,
		paymentRaw, additionalRaw, diagnostics,
		family, details, errText,
	}, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row scanner) (*StoredNotification, error) {
	var (
		n                                                  StoredNotification
		status                                             string
		date, reference, valueDate, sum, entryType, txType sql.NullString
		paymentRaw, additionalRaw, diagnostics             sql.NullString
		family, details, errText                           sql.NullString
	)

	if err := row.Scan(
		&n.DocumentID, &n.RunID, &status,
		&date, &reference, &valueDate, &sum, &entryType, &txType,
		&paymentRaw, &additionalRaw, &diagnostics,
		&family, &details, &errText,
	); err != nil {
		return nil, err
	}
	n.Status = processor.Status(status)
	n.Error = errText.String

	if date.Valid {
		r := &models.TransactionRecord{
			Reference:       reference.String,
			Sum:             sum.String,
			EntryType:       models.EntryType(entryType.String),
			TransactionType: models.TransactionType(txType.String),
		}
		var err error
		if r.Date, err = time.Parse(time.RFC3339Nano, date.String); err != nil {
			return nil, err
		}
		if r.ValueDate, err = time.Parse(time.RFC3339Nano, valueDate.String); err != nil {
			return nil, err
		}
		if err := decode(paymentRaw, &r.PaymentDetailsRaw); err != nil {
			return nil, err
		}
		if err := decode(additionalRaw, &r.AdditionalDetailsRaw); err != nil {
			return nil, err
		}
		if err := decode(diagnostics, &r.Diagnostics); err != nil {
			return nil, err
		}
		n.Record = r
	}

	if family.Valid {
		d, err := decodeDetails(models.Family(family.String), details.String)
		if err != nil {
			return nil, err
		}
		n.Details = d
	}

	return &n, nil
}

func decodeDetails(family models.Family, data string) (models.PaymentDetails, error) {
	var err error
	switch family {
	case models.FamilyCardOperation:
		var d models.CardOperationDetails
		err = json.Unmarshal([]byte(data), &d)
		return d, err
	case models.FamilyCrossBorderTransfer:
		var d models.CrossBorderTransferDetails
		err = json.Unmarshal([]byte(data), &d)
		return d, err
	case models.FamilyDeskWithdrawal:
		var d models.DeskWithdrawalDetails
		err = json.Unmarshal([]byte(data), &d)
		return d, err
	case models.FamilyFixedRecipientFee:
		var d models.FixedRecipientFeeDetails
		err = json.Unmarshal([]byte(data), &d)
		return d, err
	case models.FamilyTransfer:
		var d models.TransferDetails
		err = json.Unmarshal([]byte(data), &d)
		return d, err
	case models.FamilyPeriodicPayment:
		var d models.PeriodicPaymentDetails
		err = json.Unmarshal([]byte(data), &d)
		return d, err
	default:
		return nil, fmt.Errorf("unknown payment details family %q", family)
	}
}

func encode(v interface{}) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return nullString(string(data)), nil
}

func decode(s sql.NullString, v interface{}) error {
	if !s.Valid {
		return nil
	}
	return json.Unmarshal([]byte(s.String), v)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
