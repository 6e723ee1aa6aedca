package models

// NotApplicable marks an account or description that has no meaning for the family
const NotApplicable = "N/A"

// Family groups transaction types that share one payment-details shape
type Family string

const (
	FamilyNone                Family = ""
	FamilyCardOperation       Family = "card_operation"
	FamilyCrossBorderTransfer Family = "cross_border_transfer"
	FamilyDeskWithdrawal      Family = "desk_withdrawal"
	FamilyFixedRecipientFee   Family = "fixed_recipient_fee"
	FamilyTransfer            Family = "transfer"
	FamilyPeriodicPayment     Family = "periodic_payment"
)

// String returns the string representation of Family
func (f Family) String() string {
	return string(f)
}

// PaymentDetails is the closed set of type-specific payment records.
// Only types in this package can implement it.
type PaymentDetails interface {
	Family() Family
	paymentDetails()
}

// CardOperationDetails is extracted from a POS or ATM card line
type CardOperationDetails struct {
	Recipient  string `json:"recipient"`
	Instrument string `json:"instrument"`
	Sum        string `json:"sum"`
	Currency   string `json:"currency"`
}

// CrossBorderTransferDetails describes an outgoing foreign-currency transfer
type CrossBorderTransferDetails struct {
	Recipient          string `json:"recipient"`
	RecipientAccountID string `json:"recipientAccountId"`
	Description        string `json:"description"`
}

// DeskWithdrawalDetails describes a cash withdrawal at a bank desk
type DeskWithdrawalDetails struct {
	Recipient          string `json:"recipient"`
	RecipientAccountID string `json:"recipientAccountId"`
	Description        string `json:"description"`
}

// FixedRecipientFeeDetails describes a fee charged by the bank itself
type FixedRecipientFeeDetails struct {
	Recipient          string `json:"recipient"`
	RecipientAccountID string `json:"recipientAccountId"`
	Description        string `json:"description"`
}

// TransferDetails describes a domestic credit transfer
type TransferDetails struct {
	Recipient          string `json:"recipient"`
	RecipientAccountID string `json:"recipientAccountId"`
	Description        string `json:"description"`
}

// PeriodicPaymentDetails describes a standing-order payment
type PeriodicPaymentDetails struct {
	Recipient          string `json:"recipient"`
	RecipientAccountID string `json:"recipientAccountId"`
	Description        string `json:"description"`
}

func (CardOperationDetails) Family() Family       { return FamilyCardOperation }
func (CrossBorderTransferDetails) Family() Family { return FamilyCrossBorderTransfer }
func (DeskWithdrawalDetails) Family() Family      { return FamilyDeskWithdrawal }
func (FixedRecipientFeeDetails) Family() Family   { return FamilyFixedRecipientFee }
func (TransferDetails) Family() Family            { return FamilyTransfer }
func (PeriodicPaymentDetails) Family() Family     { return FamilyPeriodicPayment }

func (CardOperationDetails) paymentDetails()       {}
func (CrossBorderTransferDetails) paymentDetails() {}
func (DeskWithdrawalDetails) paymentDetails()      {}
func (FixedRecipientFeeDetails) paymentDetails()   {}
func (TransferDetails) paymentDetails()            {}
func (PeriodicPaymentDetails) paymentDetails()     {}

// Counterparty returns the recipient, account and description of any variant.
// Card operations have no account; their description is the instrument.
func Counterparty(d PaymentDetails) (recipient, accountID, description string) {
	switch v := d.(type) {
	case CardOperationDetails:
		return v.Recipient, NotApplicable, v.Instrument
	case CrossBorderTransferDetails:
		return v.Recipient, v.RecipientAccountID, v.Description
	case DeskWithdrawalDetails:
		return v.Recipient, v.RecipientAccountID, v.Description
	case FixedRecipientFeeDetails:
		return v.Recipient, v.RecipientAccountID, v.Description
	case TransferDetails:
		return v.Recipient, v.RecipientAccountID, v.Description
	case PeriodicPaymentDetails:
		return v.Recipient, v.RecipientAccountID, v.Description
	default:
		return "", "", ""
	}
}
