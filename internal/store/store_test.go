package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"bulbank-notification-parser/internal/models"
	"bulbank-notification-parser/internal/processor"
	"bulbank-notification-parser/pkg/errors"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "notifications.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testBatch(runID string) *processor.BatchResult {
	started := time.Date(2023, 11, 20, 9, 0, 0, 0, time.UTC)
	return &processor.BatchResult{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		Results: []*processor.DocumentResult{
			{
				DocumentID: "a.html",
				Status:     processor.StatusParsed,
				Record: &models.TransactionRecord{
					Date:                 time.Date(2023, 11, 3, 14, 2, 51, 0, time.UTC),
					Reference:            "445FTPL233070012",
					ValueDate:            time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC),
					Sum:                  "4.48",
					EntryType:            models.EntryTypeDebit,
					TransactionType:      models.TransactionTypeCardOperation,
					PaymentDetailsRaw:    []string{"ПОС 4.48 BGN GLOBAL/VARNA"},
					AdditionalDetailsRaw: []string{},
				},
				Details: models.CardOperationDetails{Recipient: "GLOBAL", Instrument: "ПОС", Sum: "4.48", Currency: "BGN"},
			},
			{
				DocumentID: "b.html",
				Status:     processor.StatusPartial,
				Record: &models.TransactionRecord{
					Date:              time.Date(2023, 11, 12, 8, 0, 0, 0, time.UTC),
					Reference:         "REF-B",
					ValueDate:         time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC),
					Sum:               "0.01",
					EntryType:         models.EntryTypeCredit,
					TransactionType:   models.TransactionTypeUnknown,
					PaymentDetailsRaw: []string{"Лихва"},
					Diagnostics: []models.Diagnostic{
						{Code: models.DiagnosticUnknownTransactionType, Field: "typeDescription", Value: "Лихва", Message: "no label matched"},
					},
				},
				DetailsError: errors.ForDocument("b.html", errors.UnsupportedTransactionType("UNKNOWN")),
			},
			{
				DocumentID: "c.html",
				Status:     processor.StatusFailed,
				Error:      errors.ForDocument("c.html", errors.DateFormat("date", "2023-11-14", nil)),
			},
			{
				DocumentID: "d.html",
				Status:     processor.StatusSkipped,
			},
		},
		Summary: &processor.Summary{Total: 4, Parsed: 1, Partial: 1, Failed: 1, Skipped: 1},
	}
}

func TestSaveBatchAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	batch := testBatch("run-1")

	if err := s.SaveBatch(ctx, batch); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}

	got, err := s.Get(ctx, "a.html")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.RunID != "run-1" || got.Status != processor.StatusParsed || got.Error != "" {
		t.Errorf("Unexpected stored notification: %+v", got)
	}
	if !reflect.DeepEqual(got.Record, batch.Results[0].Record) {
		t.Errorf("Record = %#v, want %#v", got.Record, batch.Results[0].Record)
	}
	if got.Details != batch.Results[0].Details {
		t.Errorf("Details = %#v, want %#v", got.Details, batch.Results[0].Details)
	}

	partial, err := s.Get(ctx, "b.html")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if partial.Record.AdditionalDetailsRaw != nil {
		t.Errorf("Expected absent additional details to stay nil, got %#v", partial.Record.AdditionalDetailsRaw)
	}
	if len(partial.Record.Diagnostics) != 1 || partial.Details != nil || partial.Error == "" {
		t.Errorf("Unexpected partial notification: %+v", partial)
	}

	failed, err := s.Get(ctx, "c.html")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if failed.Record != nil || failed.Status != processor.StatusFailed {
		t.Errorf("Unexpected failed notification: %+v", failed)
	}

	if _, err := s.Get(ctx, "d.html"); err == nil {
		t.Error("Expected skipped documents not to be stored")
	}
}

func TestSaveBatchIsIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, runID := range []string{"run-1", "run-2", "run-2"} {
		if err := s.SaveBatch(ctx, testBatch(runID)); err != nil {
			t.Fatalf("SaveBatch(%s) error = %v", runID, err)
		}
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(all))
	}
	for _, n := range all {
		if n.RunID != "run-2" {
			t.Errorf("Expected %s to belong to the latest run, got %s", n.DocumentID, n.RunID)
		}
	}

	runs, err := s.CountRuns(ctx)
	if err != nil {
		t.Fatalf("CountRuns() error = %v", err)
	}
	if runs != 2 {
		t.Errorf("Expected 2 runs, got %d", runs)
	}
}

func TestListByType(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	if err := s.SaveBatch(ctx, testBatch("run-1")); err != nil {
		t.Fatalf("SaveBatch() error = %v", err)
	}

	cards, err := s.List(ctx, models.TransactionTypeCardOperation)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(cards) != 1 || cards[0].DocumentID != "a.html" {
		t.Errorf("Expected only a.html, got %+v", cards)
	}
}

func TestSaveSingleAndNotFound(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	result := &processor.DocumentResult{
		DocumentID: "fee.html",
		Status:     processor.StatusParsed,
		Record: &models.TransactionRecord{
			Date:              time.Date(2023, 11, 8, 10, 0, 0, 0, time.UTC),
			ValueDate:         time.Date(2023, 11, 8, 0, 0, 0, 0, time.UTC),
			Sum:               "1.20",
			EntryType:         models.EntryTypeDebit,
			TransactionType:   models.TransactionTypeInterbankTransferFee,
			PaymentDetailsRaw: []string{},
		},
		Details: models.FixedRecipientFeeDetails{
			Recipient:          "UNICREDIT BULBANK",
			RecipientAccountID: models.NotApplicable,
			Description:        models.NotApplicable,
		},
	}
	if err := s.Save(ctx, "api", result); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Get(ctx, "fee.html")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Details != result.Details {
		t.Errorf("Details = %#v, want %#v", got.Details, result.Details)
	}

	_, err = s.Get(ctx, "missing.html")
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.CodeDocumentNotFound {
		t.Errorf("Expected document_not_found, got %v", err)
	}
}

func TestDecodeDetailsRejectsUnknownFamily(t *testing.T) {
	if _, err := decodeDetails("bogus", "{}"); err == nil {
		t.Error("Expected error for unknown family")
	}
}
