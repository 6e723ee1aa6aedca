// Package reporter renders batch processing results.
//
// Supported output formats:
//   - Console: human-readable summary for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: one row per document for spreadsheet applications
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{Format: reporter.FormatJSON})
//	err = generator.GenerateReport(batch, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"bulbank-notification-parser/internal/models"
	"bulbank-notification-parser/internal/processor"
	"bulbank-notification-parser/pkg/errors"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Detail level options
	IncludeDocuments bool `json:"include_documents"`
	IncludeFailures  bool `json:"include_failures"`
	IncludeRawLines  bool `json:"include_raw_lines"`

	// Console formatting options
	MaxItems      int `json:"max_items"`
	TableMaxWidth int `json:"table_max_width"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeDocuments: true,
		IncludeFailures:  true,
		IncludeRawLines:  false,
		MaxItems:         50,
		TableMaxWidth:    120,
		CSVDelimiter:     ',',
		CSVHeaders:       true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.TableMaxWidth < 50 {
		return fmt.Errorf("table max width must be at least 50 characters, got %d", c.TableMaxWidth)
	}

	if c.MaxItems < 0 {
		return fmt.Errorf("max items cannot be negative, got %d", c.MaxItems)
	}

	return nil
}

// ReportGenerator generates batch reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport writes a report for the batch to writer
func (rg *ReportGenerator) GenerateReport(batch *processor.BatchResult, writer io.Writer) error {
	if batch == nil {
		return fmt.Errorf("batch result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(batch, writer)
	case FormatJSON:
		return rg.generateJSONReport(batch, writer)
	case FormatCSV:
		return rg.generateCSVReport(batch, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(batch *processor.BatchResult, writer io.Writer) error {
	fmt.Fprintf(writer, "NOTIFICATION BATCH REPORT\n")
	fmt.Fprintf(writer, "Run:       %s\n", batch.RunID)
	fmt.Fprintf(writer, "Generated: %s\n", batch.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Duration:  %v\n", batch.Duration().Round(time.Millisecond))
	if batch.Aborted {
		fmt.Fprintf(writer, "Status:    ABORTED (error limit reached)\n")
	}
	fmt.Fprintf(writer, "\n")

	if batch.Summary != nil {
		fmt.Fprintf(writer, "=== SUMMARY ===\n")
		rg.printSummaryTable(batch.Summary, writer)
		fmt.Fprintf(writer, "\n")

		if len(batch.Summary.ByTransactionType) > 0 {
			fmt.Fprintf(writer, "=== TRANSACTION TYPES ===\n")
			printCounts(batch.Summary.ByTransactionType, writer)
			fmt.Fprintf(writer, "\n")
		}
	}

	if rg.config.IncludeDocuments && len(batch.Results) > 0 {
		fmt.Fprintf(writer, "=== DOCUMENTS ===\n")
		rg.printDocuments(batch.Results, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeFailures {
		if failures := batch.Failures(); len(failures) > 0 {
			fmt.Fprintf(writer, "=== FAILURES ===\n")
			fmt.Fprintf(writer, "%s\n", errors.FormatDocumentErrorsForUser(failures))
		}
	}

	return nil
}

func (rg *ReportGenerator) generateJSONReport(batch *processor.BatchResult, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	return encoder.Encode(rg.filterResultForOutput(batch))
}

// CSVHeaders are the column names of the CSV report
var CSVHeaders = []string{
	"Document_ID",
	"Status",
	"Date",
	"Reference",
	"Value_Date",
	"Sum",
	"Entry_Type",
	"Transaction_Type",
	"Details_Family",
	"Recipient",
	"Recipient_Account_ID",
	"Description",
	"Error",
}

func (rg *ReportGenerator) generateCSVReport(batch *processor.BatchResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(CSVHeaders); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, result := range batch.Results {
		if err := csvWriter.Write(csvRow(result)); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", result.DocumentID, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func csvRow(result *processor.DocumentResult) []string {
	row := make([]string, len(CSVHeaders))
	row[0] = result.DocumentID
	row[1] = string(result.Status)

	if r := result.Record; r != nil {
		row[2] = r.Date.Format("2006-01-02 15:04:05")
		row[3] = r.Reference
		row[4] = r.ValueDate.Format("2006-01-02")
		row[5] = r.Sum
		row[6] = string(r.EntryType)
		row[7] = string(r.TransactionType)
	}

	if d := result.Details; d != nil {
		row[8] = string(d.Family())
		row[9], row[10], row[11] = models.Counterparty(d)
	}

	switch {
	case result.Error != nil:
		row[12] = result.Error.Error()
	case result.DetailsError != nil:
		row[12] = result.DetailsError.Error()
	}
	return row
}

// Helper methods for console output formatting

func (rg *ReportGenerator) printSummaryTable(summary *processor.Summary, writer io.Writer) {
	fmt.Fprintf(writer, "Documents:\n")
	fmt.Fprintf(writer, "  Total:   %d\n", summary.Total)
	fmt.Fprintf(writer, "  Parsed:  %d (%.1f%%)\n",
		summary.Parsed, rg.calculatePercentage(summary.Parsed, summary.Total))
	fmt.Fprintf(writer, "  Partial: %d (%.1f%%)\n",
		summary.Partial, rg.calculatePercentage(summary.Partial, summary.Total))
	fmt.Fprintf(writer, "  Failed:  %d (%.1f%%)\n",
		summary.Failed, rg.calculatePercentage(summary.Failed, summary.Total))
	if summary.Skipped > 0 {
		fmt.Fprintf(writer, "  Skipped: %d (%.1f%%)\n",
			summary.Skipped, rg.calculatePercentage(summary.Skipped, summary.Total))
	}

	fmt.Fprintf(writer, "\nPayment details resolved: %d\n", summary.DetailsResolved)
	fmt.Fprintf(writer, "Diagnostics:              %d\n", summary.Diagnostics)
	if summary.UnparsedSum > 0 {
		fmt.Fprintf(writer, "Unparsed sums:            %d\n", summary.UnparsedSum)
	}
}

func printCounts(counts map[models.TransactionType]int, writer io.Writer) {
	types := make([]models.TransactionType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, t := range types {
		fmt.Fprintf(writer, "  %-24s %d\n", t, counts[t])
	}
}

func (rg *ReportGenerator) printDocuments(results []*processor.DocumentResult, writer io.Writer) {
	for i, result := range results {
		if rg.config.MaxItems > 0 && i >= rg.config.MaxItems {
			fmt.Fprintf(writer, "  ... and %d more\n", len(results)-rg.config.MaxItems)
			break
		}

		line := fmt.Sprintf("  %d. %s [%s]", i+1, result.DocumentID, result.Status)
		if r := result.Record; r != nil {
			line += fmt.Sprintf(" %s %s %s", r.TransactionType, r.EntryType, r.Sum)
		}
		if result.Details != nil {
			recipient, _, _ := models.Counterparty(result.Details)
			line += " -> " + recipient
		}
		fmt.Fprintf(writer, "%s\n", rg.truncate(line))

		if rg.config.IncludeRawLines && result.Record != nil {
			for _, raw := range result.Record.PaymentDetailsRaw {
				fmt.Fprintf(writer, "%s\n", rg.truncate("       | "+raw))
			}
		}
	}
}

// Helper methods

func (rg *ReportGenerator) truncate(line string) string {
	runes := []rune(line)
	if len(runes) <= rg.config.TableMaxWidth {
		return line
	}
	return string(runes[:rg.config.TableMaxWidth-3]) + "..."
}

func (rg *ReportGenerator) calculatePercentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

func (rg *ReportGenerator) filterResultForOutput(batch *processor.BatchResult) map[string]interface{} {
	output := map[string]interface{}{
		"run_id":      batch.RunID,
		"started_at":  batch.StartedAt,
		"finished_at": batch.FinishedAt,
		"aborted":     batch.Aborted,
		"summary":     batch.Summary,
	}

	if rg.config.IncludeDocuments {
		documents := make([]map[string]interface{}, 0, len(batch.Results))
		for _, result := range batch.Results {
			documents = append(documents, documentOutput(result))
		}
		output["documents"] = documents
	}

	if rg.config.IncludeFailures && batch.Errors != nil {
		output["errors"] = batch.Errors
	}

	return output
}

func documentOutput(result *processor.DocumentResult) map[string]interface{} {
	doc := map[string]interface{}{
		"document_id": result.DocumentID,
		"status":      result.Status,
	}
	if result.Record != nil {
		doc["record"] = result.Record
	}
	if result.Details != nil {
		doc["details_family"] = result.Details.Family()
		doc["payment_details"] = result.Details
	}
	if result.Error != nil {
		doc["error"] = result.Error.Error()
	}
	if result.DetailsError != nil {
		doc["details_error"] = result.DetailsError.Error()
	}
	return doc
}

// UpdateConfiguration updates the report generator configuration
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}

	rg.config = config
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
