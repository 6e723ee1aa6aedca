package processor

import (
	"time"

	"bulbank-notification-parser/internal/models"
	"bulbank-notification-parser/pkg/errors"
)

// Status is the outcome of one document
type Status string

const (
	// StatusParsed means the record and, when requested, its details were produced
	StatusParsed Status = "parsed"
	// StatusPartial means the record parsed but its payment details did not
	StatusPartial Status = "partial"
	// StatusFailed means no record could be produced
	StatusFailed Status = "failed"
	// StatusSkipped means the batch stopped before the document was processed
	StatusSkipped Status = "skipped"
)

// DocumentResult is the outcome of processing one source document
type DocumentResult struct {
	DocumentID   string                    `json:"documentId"`
	Status       Status                    `json:"status"`
	Record       *models.TransactionRecord `json:"record,omitempty"`
	Details      models.PaymentDetails     `json:"paymentDetails,omitempty"`
	Error        *errors.DocumentError     `json:"error,omitempty"`
	DetailsError *errors.DocumentError     `json:"detailsError,omitempty"`
	Duration     time.Duration             `json:"duration"`
}

// Summary aggregates a batch
type Summary struct {
	Total           int `json:"total"`
	Parsed          int `json:"parsed"`
	Partial         int `json:"partial"`
	Failed          int `json:"failed"`
	Skipped         int `json:"skipped"`
	DetailsResolved int `json:"detailsResolved"`
	Diagnostics     int `json:"diagnostics"`

	ByTransactionType map[models.TransactionType]int `json:"byTransactionType"`
	ByEntryType       map[models.EntryType]int       `json:"byEntryType"`

	// UnparsedSum counts records whose sum text is not a plain decimal.
	// Sums themselves are never aggregated.
	UnparsedSum int `json:"unparsedSum"`
}

// BatchResult contains the results of one run over a source
type BatchResult struct {
	RunID      string               `json:"runId"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt time.Time            `json:"finishedAt"`
	Aborted    bool                 `json:"aborted"`
	Results    []*DocumentResult    `json:"results"`
	Summary    *Summary             `json:"summary"`
	Errors     *errors.ErrorSummary `json:"errors,omitempty"`
}

// Duration returns the wall time of the run
func (b *BatchResult) Duration() time.Duration {
	return b.FinishedAt.Sub(b.StartedAt)
}

// Records returns the parsed records in document order
func (b *BatchResult) Records() []*models.TransactionRecord {
	out := make([]*models.TransactionRecord, 0, len(b.Results))
	for _, r := range b.Results {
		if r.Record != nil {
			out = append(out, r.Record)
		}
	}
	return out
}

// Failures returns every document-level error, detail errors included
func (b *BatchResult) Failures() []*errors.DocumentError {
	var out []*errors.DocumentError
	for _, r := range b.Results {
		if r.Error != nil {
			out = append(out, r.Error)
		}
		if r.DetailsError != nil {
			out = append(out, r.DetailsError)
		}
	}
	return out
}

func summarize(results []*DocumentResult) *Summary {
	s := &Summary{
		ByTransactionType: make(map[models.TransactionType]int),
		ByEntryType:       make(map[models.EntryType]int),
	}

	for _, r := range results {
		s.Total++
		switch r.Status {
		case StatusParsed:
			s.Parsed++
		case StatusPartial:
			s.Partial++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
		if r.Details != nil {
			s.DetailsResolved++
		}

		record := r.Record
		if record == nil {
			continue
		}
		s.ByTransactionType[record.TransactionType]++
		s.ByEntryType[record.EntryType]++
		s.Diagnostics += len(record.Diagnostics)

		if _, err := record.SumDecimal(); err != nil {
			s.UnparsedSum++
		}
	}

	return s
}
