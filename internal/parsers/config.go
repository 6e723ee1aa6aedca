package parsers

import (
	"fmt"
	"strings"
	"time"

	"bulbank-notification-parser/internal/locator"
	"bulbank-notification-parser/internal/models"
)

// NotificationParserConfig holds configuration for parsing notification documents
type NotificationParserConfig struct {
	Schema      locator.Schema              `json:"schema"`
	DateLayouts []string                    `json:"date_layouts"`
	Location    *time.Location              `json:"-"`
	Charset     locator.Charset             `json:"charset"`
	EntryCodes  map[string]models.EntryType `json:"entry_codes"`
}

// DefaultDateLayouts are tried in order: DD.MM.YYYY HH:mm:ss, then DD.MM.YYYY
var DefaultDateLayouts = []string{"02.01.2006 15:04:05", "02.01.2006"}

// DefaultEntryCodes maps localized and international two-letter codes.
// Keys are upper case.
func DefaultEntryCodes() map[string]models.EntryType {
	return map[string]models.EntryType{
		"ДТ": models.EntryTypeDebit,
		"DT": models.EntryTypeDebit,
		"DR": models.EntryTypeDebit,
		"КТ": models.EntryTypeCredit,
		"CT": models.EntryTypeCredit,
		"CR": models.EntryTypeCredit,
	}
}

// DefaultNotificationParserConfig returns the Bulbank v1 configuration
func DefaultNotificationParserConfig() *NotificationParserConfig {
	return &NotificationParserConfig{
		Schema:      locator.BulbankV1(),
		DateLayouts: append([]string(nil), DefaultDateLayouts...),
		Location:    time.UTC,
		Charset:     locator.CharsetAuto,
		EntryCodes:  DefaultEntryCodes(),
	}
}

// Validate checks if the parser configuration is valid
func (c *NotificationParserConfig) Validate() error {
	if err := c.Schema.Validate(); err != nil {
		return err
	}

	if len(c.DateLayouts) == 0 {
		return fmt.Errorf("at least one date layout is required")
	}
	for _, layout := range c.DateLayouts {
		if strings.TrimSpace(layout) == "" {
			return fmt.Errorf("date layout cannot be empty")
		}
	}

	if c.Location == nil {
		return fmt.Errorf("location cannot be nil")
	}

	if !c.Charset.IsValid() {
		return fmt.Errorf("unsupported charset: %s", c.Charset)
	}

	if len(c.EntryCodes) == 0 {
		return fmt.Errorf("entry codes cannot be empty")
	}
	for code, entry := range c.EntryCodes {
		if code != strings.ToUpper(strings.TrimSpace(code)) {
			return fmt.Errorf("entry code %q must be upper case and trimmed", code)
		}
		if !entry.IsValid() {
			return fmt.Errorf("entry code %q maps to %s", code, entry)
		}
	}

	return nil
}
