package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryType represents the ledger side of a notification
type EntryType string

const (
	// EntryTypeDebit represents money leaving the account
	EntryTypeDebit EntryType = "DEBIT"
	// EntryTypeCredit represents money entering the account
	EntryTypeCredit EntryType = "CREDIT"
	// EntryTypeInvalid marks an unrecognized entry code. It is a legal value.
	EntryTypeInvalid EntryType = "INVALID"
)

// String returns the string representation of EntryType
func (e EntryType) String() string {
	return string(e)
}

// IsValid checks if the entry type is DEBIT or CREDIT
func (e EntryType) IsValid() bool {
	return e == EntryTypeDebit || e == EntryTypeCredit
}

// TransactionType is a canonical tag from the label vocabulary
type TransactionType string

const (
	TransactionTypeCardOperation        TransactionType = "CARD_OPERATION"
	TransactionTypeCrossBorderTransfer  TransactionType = "CROSS_BORDER_TRANSFER"
	TransactionTypeDeskWithdrawal       TransactionType = "DESK_WITHDRAWAL"
	TransactionTypeTransfer             TransactionType = "TRANSFER"
	TransactionTypePeriodicPayment      TransactionType = "PERIODIC_PAYMENT"
	TransactionTypePeriodicFee          TransactionType = "PERIODIC_FEE"
	TransactionTypeTransferFee          TransactionType = "TRANSFER_FEE"
	TransactionTypeInterbankTransferFee TransactionType = "INTERBANK_TRANSFER_FEE"
	TransactionTypeInternalTransferFee  TransactionType = "INTERNAL_TRANSFER_FEE"
	TransactionTypeWithdrawalFee        TransactionType = "WITHDRAWAL_FEE"
	// TransactionTypeUnknown is assigned when no label matched
	TransactionTypeUnknown TransactionType = "UNKNOWN"
)

var familyByType = map[TransactionType]Family{
	TransactionTypeCardOperation:        FamilyCardOperation,
	TransactionTypeCrossBorderTransfer:  FamilyCrossBorderTransfer,
	TransactionTypeDeskWithdrawal:       FamilyDeskWithdrawal,
	TransactionTypeTransfer:             FamilyTransfer,
	TransactionTypePeriodicPayment:      FamilyPeriodicPayment,
	TransactionTypePeriodicFee:          FamilyFixedRecipientFee,
	TransactionTypeTransferFee:          FamilyFixedRecipientFee,
	TransactionTypeInterbankTransferFee: FamilyFixedRecipientFee,
	TransactionTypeInternalTransferFee:  FamilyFixedRecipientFee,
	TransactionTypeWithdrawalFee:        FamilyFixedRecipientFee,
}

// KnownTransactionTypes returns every canonical type except UNKNOWN, in declaration order
func KnownTransactionTypes() []TransactionType {
	return []TransactionType{
		TransactionTypeCardOperation,
		TransactionTypeCrossBorderTransfer,
		TransactionTypeDeskWithdrawal,
		TransactionTypeTransfer,
		TransactionTypePeriodicPayment,
		TransactionTypePeriodicFee,
		TransactionTypeTransferFee,
		TransactionTypeInterbankTransferFee,
		TransactionTypeInternalTransferFee,
		TransactionTypeWithdrawalFee,
	}
}

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the type is a known canonical tag (UNKNOWN is not)
func (t TransactionType) IsValid() bool {
	_, ok := familyByType[t]
	return ok
}

// Family returns the payment-details family of the type, or FamilyNone
func (t TransactionType) Family() Family {
	return familyByType[t]
}

// ParseTransactionType converts a canonical tag string into a TransactionType
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if t == TransactionTypeUnknown || t.IsValid() {
		return t, nil
	}
	return "", fmt.Errorf("unknown canonical transaction type: %s", s)
}

// DiagnosticCode identifies a non-fatal finding on a record
type DiagnosticCode string

const (
	DiagnosticInvalidEntryType       DiagnosticCode = "invalid_entry_type"
	DiagnosticUnknownTransactionType DiagnosticCode = "unknown_transaction_type"
)

// Diagnostic is a non-fatal finding that surfaces a vocabulary or schema gap
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Field   string         `json:"field"`
	Value   string         `json:"value,omitempty"`
	Message string         `json:"message"`
}

var groupSeparators = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "")

// TransactionRecord is the normalized form of one notification document
type TransactionRecord struct {
	Date                 time.Time       `json:"date"`
	Reference            string          `json:"reference"`
	ValueDate            time.Time       `json:"valueDate"`
	Sum                  string          `json:"sum"`
	EntryType            EntryType       `json:"entryType"`
	TransactionType      TransactionType `json:"transactionType"`
	PaymentDetailsRaw    []string        `json:"paymentDetailsRaw"`
	AdditionalDetailsRaw []string        `json:"additionalDetailsRaw"`
	Diagnostics          []Diagnostic    `json:"diagnostics,omitempty"`
}

// SumDecimal parses Sum on demand, ignoring thousands-grouping spaces. The
// stored string is never rewritten.
func (r *TransactionRecord) SumDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(groupSeparators.Replace(r.Sum))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum %q is not a decimal: %w", r.Sum, err)
	}
	return d, nil
}

// HasAdditionalDetails reports whether the secondary cell was present at all
func (r *TransactionRecord) HasAdditionalDetails() bool {
	return r.AdditionalDetailsRaw != nil
}

// IsDebit returns true if the record is a debit
func (r *TransactionRecord) IsDebit() bool {
	return r.EntryType == EntryTypeDebit
}

// IsCredit returns true if the record is a credit
func (r *TransactionRecord) IsCredit() bool {
	return r.EntryType == EntryTypeCredit
}

// String returns a string representation of the record
func (r *TransactionRecord) String() string {
	return fmt.Sprintf("TransactionRecord{Ref: %s, Date: %s, Sum: %s, Entry: %s, Type: %s}",
		r.Reference, r.Date.Format(time.RFC3339), r.Sum, r.EntryType, r.TransactionType)
}
