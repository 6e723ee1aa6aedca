package details

import (
	"regexp"

	"bulbank-notification-parser/internal/models"
)

// FeeRecipient is the payee of every fee the bank charges itself
const FeeRecipient = "UNICREDIT BULBANK"

var withdrawalMarker = regexp.MustCompile(`(?i)теглене|\bATM\b|АТМ`)

// FixedRecipientFeeStrategy serves every fee type. The only variable field is
// the description, taken from a withdrawal line when one is present.
type FixedRecipientFeeStrategy struct{}

func (FixedRecipientFeeStrategy) Family() models.Family { return models.FamilyFixedRecipientFee }

func (FixedRecipientFeeStrategy) Extract(paymentDetailsRaw, additionalDetailsRaw []string) (models.PaymentDetails, error) {
	details := models.FixedRecipientFeeDetails{
		Recipient:          FeeRecipient,
		RecipientAccountID: models.NotApplicable,
		Description:        models.NotApplicable,
	}

	for _, lines := range [][]string{paymentDetailsRaw, additionalDetailsRaw} {
		for _, line := range lines {
			if withdrawalMarker.MatchString(line) {
				details.Description = line
				return details, nil
			}
		}
	}
	return details, nil
}
