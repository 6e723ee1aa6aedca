package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryDocument       ErrorCategory = "document"
	CategoryFormat         ErrorCategory = "format"
	CategoryClassification ErrorCategory = "classification"
	CategorySource         ErrorCategory = "source"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryStorage        ErrorCategory = "storage"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Document errors
	CodeMalformedDocument ErrorCode = "malformed_document"
	CodeEncodingError     ErrorCode = "encoding_error"

	// Format errors
	CodeDateFormat ErrorCode = "date_format"

	// Classification errors
	CodeUnsupportedTransactionType ErrorCode = "unsupported_transaction_type"

	// Source errors
	CodeDocumentNotFound ErrorCode = "document_not_found"
	CodeSourceUnavailable ErrorCode = "source_unavailable"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Storage errors
	CodeStorageFailed ErrorCode = "storage_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// Sentinel kinds. Every AppError carrying the matching code satisfies
// errors.Is(err, kind), so callers never need to inspect codes directly.
var (
	ErrMalformedDocument          = errors.New("malformed document")
	ErrDateFormat                 = errors.New("date format mismatch")
	ErrUnsupportedTransactionType = errors.New("unsupported transaction type")
)

var kindByCode = map[ErrorCode]error{
	CodeMalformedDocument:          ErrMalformedDocument,
	CodeDateFormat:                 ErrDateFormat,
	CodeUnsupportedTransactionType: ErrUnsupportedTransactionType,
}

// AppError is the base error type for all application errors
type AppError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error belongs to the given sentinel kind.
func (e *AppError) Is(target error) bool {
	kind, ok := kindByCode[e.Code]
	return ok && kind == target
}

// GetExitCode returns an appropriate process exit code for the error
func (e *AppError) GetExitCode() int {
	switch e.Category {
	case CategorySource:
		return 2
	case CategoryDocument, CategoryFormat, CategoryClassification:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryStorage, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AppError
func New(category ErrorCategory, code ErrorCode, message string) *AppError {
	return &AppError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with AppError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	return &AppError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(err error, category ErrorCategory, code ErrorCode, message string) *AppError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// MalformedDocument reports a structural node that is absent at its declared
// offset, or residual text that does not have the layout a strategy expects.
func MalformedDocument(field string, detail string, err error) *AppError {
	message := fmt.Sprintf("malformed document: field '%s': %s", field, detail)
	return build(err, CategoryDocument, CodeMalformedDocument, message).
		WithSuggestion("the provider rendering may have changed; a new schema version is required").
		WithContext("field", field)
}

// DateFormat reports date text that does not match the fixed layout.
func DateFormat(field string, value string, err error) *AppError {
	message := fmt.Sprintf("invalid date in field '%s': '%s'", field, value)
	return build(err, CategoryFormat, CodeDateFormat, message).
		WithSuggestion("dates must use DD.MM.YYYY or DD.MM.YYYY HH:mm:ss").
		WithContext("field", field).
		WithContext("value", value)
}

// UnsupportedTransactionType reports a transaction type without a registered
// extraction strategy.
func UnsupportedTransactionType(transactionType string) *AppError {
	message := fmt.Sprintf("no payment details strategy registered for transaction type '%s'", transactionType)
	return New(CategoryClassification, CodeUnsupportedTransactionType, message).
		WithSuggestion("extend the label vocabulary or register a strategy for this type").
		WithContext("transaction_type", transactionType)
}

// SourceError creates a document retrieval error
func SourceError(code ErrorCode, id string, err error) *AppError {
	var message, suggestion string

	switch code {
	case CodeDocumentNotFound:
		message = fmt.Sprintf("document not found: %s", id)
		suggestion = "check that the document id is still listed by the source"
	case CodeSourceUnavailable:
		message = fmt.Sprintf("source unavailable while fetching %s", id)
		suggestion = "retry later; the core never retries on its own"
	default:
		message = fmt.Sprintf("source error: %s", id)
		suggestion = "check the source configuration and try again"
	}

	return build(err, CategorySource, code, message).
		WithSuggestion(suggestion).
		WithContext("document_id", id)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *AppError {
	var message, suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return build(err, CategoryConfiguration, code, message).
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// StorageError creates a persistence-related error
func StorageError(operation string, err error) *AppError {
	message := fmt.Sprintf("storage operation failed: %s", operation)
	return build(err, CategoryStorage, CodeStorageFailed, message).
		WithContext("operation", operation)
}

// InternalError creates an internal error
func InternalError(operation string, err error) *AppError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	return build(err, CategoryInternal, CodeUnexpectedError, message).
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*AppError           `json:"errors"`
	SampleErrors []*AppError           `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*AppError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*AppError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var codes []string
	for code, count := range es.ByCode {
		codes = append(codes, fmt.Sprintf("%s: %d", code, count))
	}
	sort.Strings(codes)

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(codes, ", "))
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	return es.ByCode[code] > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// AsAppError extracts an AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already an AppError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	return Wrap(err, category, code, message)
}
