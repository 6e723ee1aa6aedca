// Package parsers turns raw bank notification documents into normalized
// transaction records.
//
// A document is decoded, parsed into an HTML tree, its field cells are
// located by a versioned schema, and each cell is parsed: dates in a fixed
// layout, the amount verbatim, the entry code into DEBIT/CREDIT/INVALID. The
// type/description cell is classified against the label vocabulary.
//
// Example usage:
//
//	parser, err := NewNotificationParser(DefaultNotificationParserConfig(), vocabulary.Default())
//	record, err := parser.ParseBytes(raw)
//
// Parsing is synchronous and keeps no state between documents, so one
// parser may be shared by any number of goroutines.
package parsers

import (
	"fmt"

	"bulbank-notification-parser/internal/classifier"
	"bulbank-notification-parser/internal/locator"
	"bulbank-notification-parser/internal/models"
	"bulbank-notification-parser/internal/vocabulary"
	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

// NotificationParser is the public parse surface for one document schema
type NotificationParser struct {
	config     *NotificationParserConfig
	locator    *locator.Locator
	classifier *classifier.Classifier
	logger     logger.Logger
}

// NewNotificationParser creates a parser; a nil config means the defaults and
// a nil vocabulary means the built-in Bulbank table.
func NewNotificationParser(config *NotificationParserConfig, vocab *vocabulary.Vocabulary) (*NotificationParser, error) {
	if config == nil {
		config = DefaultNotificationParserConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "parser", config.Schema.Version, err)
	}

	loc, err := locator.New(config.Schema)
	if err != nil {
		return nil, err
	}

	cls, err := classifier.New(vocab)
	if err != nil {
		return nil, errors.InternalError("compile vocabulary", err)
	}

	return &NotificationParser{
		config:     config,
		locator:    loc,
		classifier: cls,
		logger:     logger.GetGlobalLogger().WithComponent("notification_parser"),
	}, nil
}

// Vocabulary returns the label vocabulary in use
func (p *NotificationParser) Vocabulary() *vocabulary.Vocabulary {
	return p.classifier.Vocabulary()
}

// SchemaVersion returns the document schema version in use
func (p *NotificationParser) SchemaVersion() string {
	return p.locator.SchemaVersion()
}

// ParseBytes decodes raw bytes with the configured charset, then parses them
func (p *NotificationParser) ParseBytes(raw []byte) (*models.TransactionRecord, error) {
	text, err := locator.Decode(raw, p.config.Charset)
	if err != nil {
		return nil, err
	}
	return p.Parse(text)
}

// Parse converts one notification document into a TransactionRecord.
// Structural and date failures abort the document; an unrecognized entry
// code or type label is recorded as a diagnostic on an otherwise valid record.
func (p *NotificationParser) Parse(raw string) (*models.TransactionRecord, error) {
	doc, err := locator.Parse(raw)
	if err != nil {
		return nil, err
	}

	nodes, err := p.locator.Locate(doc)
	if err != nil {
		return nil, err
	}

	date, err := ParseDate(string(locator.FieldDate), locator.Text(nodes.Date), p.config.DateLayouts, p.config.Location)
	if err != nil {
		return nil, err
	}

	valueDate, err := ParseDate(string(locator.FieldValueDate), locator.Text(nodes.ValueDate), p.config.DateLayouts, p.config.Location)
	if err != nil {
		return nil, err
	}

	record := &models.TransactionRecord{
		Date:                 date,
		Reference:            locator.Text(nodes.Reference),
		ValueDate:            valueDate,
		Sum:                  ParseSum(locator.Text(nodes.Sum)),
		AdditionalDetailsRaw: locator.Lines(nodes.AdditionalDetails),
	}
	log := p.logger.WithField("reference", record.Reference)

	entryText := locator.Text(nodes.EntryType)
	entry, ok := ParseEntryType(entryText, p.config.EntryCodes)
	record.EntryType = entry
	if !ok {
		log.WithField("value", entryText).Warn("Unrecognized entry type code")
		record.Diagnostics = append(record.Diagnostics, models.Diagnostic{
			Code:    models.DiagnosticInvalidEntryType,
			Field:   string(locator.FieldEntryType),
			Value:   entryText,
			Message: fmt.Sprintf("entry code %q is neither debit nor credit", entryText),
		})
	}

	typeLines := locator.Lines(nodes.TypeDescription)
	result := p.classifier.Classify(typeLines)
	record.TransactionType = result.Type
	record.PaymentDetailsRaw = result.PaymentDetailsRaw
	if !result.Matched() {
		log.WithField("vocabulary", p.Vocabulary().Version()).Warn("No vocabulary label matched the type cell")
		record.Diagnostics = append(record.Diagnostics, models.Diagnostic{
			Code:    models.DiagnosticUnknownTransactionType,
			Field:   string(locator.FieldTypeDescription),
			Value:   locator.Text(nodes.TypeDescription),
			Message: fmt.Sprintf("no label of vocabulary %s matched", p.Vocabulary().Version()),
		})
	}

	log.WithFields(logger.Fields{
		"transaction_type": record.TransactionType,
		"entry_type":       record.EntryType,
	}).Debug("Parsed notification")

	return record, nil
}
