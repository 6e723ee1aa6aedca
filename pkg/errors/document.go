package errors

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// FieldContext locates a failure inside one notification document
type FieldContext struct {
	DocumentID string `json:"document_id"`
	Field      string `json:"field,omitempty"`
	Value      string `json:"value,omitempty"`
	Expected   string `json:"expected,omitempty"`
}

// DocumentError couples an AppError with the document it was raised for
type DocumentError struct {
	*AppError
	Field    *FieldContext `json:"field_context"`
	Examples []string      `json:"examples,omitempty"`
}

// Error implements the error interface with the document id appended
func (e *DocumentError) Error() string {
	if e.Field == nil || e.Field.DocumentID == "" {
		return e.AppError.Error()
	}
	return fmt.Sprintf("%s in document %s", e.AppError.Error(), e.Field.DocumentID)
}

// Unwrap exposes the AppError so errors.Is sees the sentinel kind
func (e *DocumentError) Unwrap() error {
	return e.AppError
}

// GetDetailedError returns a detailed multi-line error description
func (e *DocumentError) GetDetailedError() string {
	var lines []string

	lines = append(lines, fmt.Sprintf("ERROR: %s", e.Message))

	if e.Field != nil {
		lines = append(lines, fmt.Sprintf("  → Document: %s", e.Field.DocumentID))
		if e.Field.Field != "" {
			lines = append(lines, fmt.Sprintf("  → Field: %s", e.Field.Field))
		}
		if e.Field.Value != "" {
			lines = append(lines, fmt.Sprintf("  → Value: '%s'", e.Field.Value))
		}
		if e.Field.Expected != "" {
			lines = append(lines, fmt.Sprintf("  → Expected: %s", e.Field.Expected))
		}
	}

	if e.Suggestion != "" {
		lines = append(lines, fmt.Sprintf("  → Suggestion: %s", e.Suggestion))
	}

	if len(e.Examples) > 0 {
		lines = append(lines, "  → Examples:")
		for _, example := range e.Examples {
			lines = append(lines, fmt.Sprintf("    • %s", example))
		}
	}

	return strings.Join(lines, "\n")
}

// WithExamples adds example values to help fix the error
func (e *DocumentError) WithExamples(examples ...string) *DocumentError {
	e.Examples = examples
	return e
}

// ForDocument attaches a document id to any error. AppErrors keep their
// category and code; anything else becomes an internal error.
func ForDocument(documentID string, err error) *DocumentError {
	if err == nil {
		return nil
	}

	var docErr *DocumentError
	if As(err, &docErr) {
		if docErr.Field == nil {
			docErr.Field = &FieldContext{}
		}
		docErr.Field.DocumentID = documentID
		return docErr
	}

	appErr := WrapIfNeeded(err, CategoryInternal, CodeUnexpectedError, "unexpected error while processing document")
	fc := &FieldContext{DocumentID: documentID}
	if field, ok := appErr.Context["field"].(string); ok {
		fc.Field = field
	}
	if value, ok := appErr.Context["value"].(string); ok {
		fc.Value = value
	}
	appErr.WithContext("document_id", documentID)

	de := &DocumentError{AppError: appErr, Field: fc}
	if appErr.Code == CodeDateFormat {
		fc.Expected = "DD.MM.YYYY[ HH:mm:ss]"
		de.WithExamples("03.11.2023 14:02:51", "03.11.2023")
	}
	return de
}

// Collector gathers per-document failures during a batch. It is safe for
// concurrent use by the processor's workers.
type Collector struct {
	mu        sync.Mutex
	errors    []*DocumentError
	maxErrors int
}

// NewCollector creates a collector; maxErrors <= 0 means unbounded
func NewCollector(maxErrors int) *Collector {
	return &Collector{
		errors:    make([]*DocumentError, 0),
		maxErrors: maxErrors,
	}
}

// Add records an error and reports whether the batch may continue
func (c *Collector) Add(err *DocumentError) bool {
	if err == nil {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.errors = append(c.errors, err)
	return c.maxErrors <= 0 || len(c.errors) < c.maxErrors
}

// HasErrors returns true if any errors have been collected
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors) > 0
}

// GetErrors returns the collected errors ordered by document id
func (c *Collector) GetErrors() []*DocumentError {
	c.mu.Lock()
	out := make([]*DocumentError, len(c.errors))
	copy(out, c.errors)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return documentID(out[i]) < documentID(out[j])
	})
	return out
}

// GetSummary returns an error summary for all collected errors
func (c *Collector) GetSummary() *ErrorSummary {
	docErrs := c.GetErrors()
	appErrs := make([]*AppError, len(docErrs))
	for i, err := range docErrs {
		appErrs[i] = err.AppError
	}
	return NewErrorSummary(appErrs)
}

func documentID(e *DocumentError) string {
	if e.Field == nil {
		return ""
	}
	return e.Field.DocumentID
}

// FormatDocumentErrorsForUser formats multiple document errors in a user-friendly way
func FormatDocumentErrorsForUser(errs []*DocumentError) string {
	if len(errs) == 0 {
		return "No document errors"
	}

	if len(errs) == 1 {
		return errs[0].GetDetailedError()
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Found %d document errors:", len(errs)))

	maxDetailedErrors := 5
	for i, err := range errs {
		if i == maxDetailedErrors {
			lines = append(lines, "")
			lines = append(lines, fmt.Sprintf("... and %d more", len(errs)-maxDetailedErrors))
			break
		}
		lines = append(lines, "")
		lines = append(lines, err.GetDetailedError())
	}

	return strings.Join(lines, "\n")
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
