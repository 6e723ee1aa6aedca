package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"

	"bulbank-notification-parser/internal/details"
	"bulbank-notification-parser/internal/parsers"
	"bulbank-notification-parser/internal/processor"
	"bulbank-notification-parser/internal/store"
	"bulbank-notification-parser/internal/vocabulary"
)

const documentsDir = "../../testdata/documents"

type testResponse struct {
	Success        bool              `json:"success"`
	Error          string            `json:"error"`
	ErrorCode      string            `json:"errorCode"`
	DocumentID     string            `json:"documentId"`
	Status         string            `json:"status"`
	DetailsFamily  string            `json:"detailsFamily"`
	PaymentDetails map[string]string `json:"paymentDetails"`
	DetailsError   string            `json:"detailsError"`
	Record         *struct {
		Reference       string `json:"reference"`
		Sum             string `json:"sum"`
		TransactionType string `json:"transactionType"`
	} `json:"record"`
}

func newServer(t *testing.T, st *store.Store) *Server {
	t.Helper()
	parser, err := parsers.NewNotificationParser(parsers.DefaultNotificationParserConfig(), nil)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	registry, err := details.NewDefaultRegistry(vocabulary.Default().Types())
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	proc, err := processor.New(parser, registry, processor.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create processor: %v", err)
	}
	return NewServer(proc, st, "test")
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(documentsDir, name))
	if err != nil {
		t.Fatalf("Failed to read fixture %s: %v", name, err)
	}
	return data
}

func decode(t *testing.T, resp *http.Response) testResponse {
	t.Helper()
	defer resp.Body.Close()
	var out testResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	app := newServer(t, nil).App()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if health.Status != "ok" || health.Version != "test" || health.Store {
		t.Errorf("Unexpected health response: %+v", health)
	}
	if health.Schema == "" || health.Vocabulary == "" {
		t.Errorf("Expected schema and vocabulary versions, got %+v", health)
	}
}

func TestHandleParseRawBody(t *testing.T) {
	app := newServer(t, nil).App()

	req := httptest.NewRequest("POST", "/api/parse?id=card.html", bytes.NewReader(readFixture(t, "2023-11-03-card-operation.html")))
	req.Header.Set("Content-Type", "text/html; charset=utf-8")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	out := decode(t, resp)
	if !out.Success || out.DocumentID != "card.html" || out.Status != "parsed" {
		t.Errorf("Unexpected response: %+v", out)
	}
	if out.Record == nil || out.Record.Reference != "445FTPL233070012" || out.Record.TransactionType != "CARD_OPERATION" {
		t.Errorf("Unexpected record: %+v", out.Record)
	}
	if out.DetailsFamily != "card_operation" {
		t.Errorf("Expected card_operation family, got %q", out.DetailsFamily)
	}
	if out.PaymentDetails["recipient"] != "GLOBAL RETAIL HOLDING EOO" || out.PaymentDetails["currency"] != "BGN" {
		t.Errorf("Unexpected payment details: %+v", out.PaymentDetails)
	}
}

func TestHandleParseMultipart(t *testing.T) {
	app := newServer(t, nil).App()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "2023-11-12-unknown-type.html")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write(readFixture(t, "2023-11-12-unknown-type.html"))
	writer.Close()

	req := httptest.NewRequest("POST", "/api/parse", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	out := decode(t, resp)
	if !out.Success || out.Status != "partial" || out.DocumentID != "2023-11-12-unknown-type.html" {
		t.Errorf("Unexpected response: %+v", out)
	}
	if out.DetailsError == "" || out.PaymentDetails != nil {
		t.Errorf("Expected a details error and no payment details, got %+v", out)
	}
}

func TestHandleParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		wantCode int
		wantErr  string
	}{
		{"empty body", nil, fiber.StatusBadRequest, ""},
		{"bad date", readFixture(t, "2023-11-14-bad-date.html"), fiber.StatusUnprocessableEntity, "date_format"},
		{"malformed", readFixture(t, "2023-11-15-malformed.html"), fiber.StatusUnprocessableEntity, "malformed_document"},
	}

	app := newServer(t, nil).App()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/parse", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "text/html")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, resp.StatusCode)
			}
			out := decode(t, resp)
			if out.Success || out.Error == "" {
				t.Errorf("Expected an error response, got %+v", out)
			}
			if out.ErrorCode != tt.wantErr {
				t.Errorf("Expected error code %q, got %q", tt.wantErr, out.ErrorCode)
			}
		})
	}
}

func TestParseAndFetchStored(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()
	app := newServer(t, st).App()

	req := httptest.NewRequest("POST", "/api/parse?id=fee", bytes.NewReader(readFixture(t, "2023-11-08-interbank-fee.html")))
	req.Header.Set("Content-Type", "text/html")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest("GET", "/api/notifications/fee", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	out := decode(t, resp)
	if out.DetailsFamily != "fixed_recipient_fee" || out.PaymentDetails["recipient"] != "UNICREDIT BULBANK" {
		t.Errorf("Unexpected stored response: %+v", out)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/notifications/missing", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestNotificationsRouteRequiresStore(t *testing.T) {
	app := newServer(t, nil).App()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/notifications/any", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("Expected status 404 without a store, got %d", resp.StatusCode)
	}
}
