package details

import (
	"strings"

	"bulbank-notification-parser/internal/models"
)

// TransferStrategy handles domestic credit transfers, whose lines read
// "<name>, <IBAN>, <BIC>" followed by the payment reason.
type TransferStrategy struct{}

func (TransferStrategy) Family() models.Family { return models.FamilyTransfer }

func (TransferStrategy) Extract(paymentDetailsRaw, additionalDetailsRaw []string) (models.PaymentDetails, error) {
	account := models.NotApplicable
	recipient := ""
	var description []string

	for _, line := range paymentDetailsRaw {
		parts := nonEmpty(segments(line))
		for i, seg := range parts {
			switch compact, isIBAN := iban(seg); {
			case isIBAN:
				if account == models.NotApplicable {
					account = compact
				}
			case isBIC(seg) && (ibanAt(parts, i-1) || (recipient != "" && ibanAt(parts, i+1))):
			case recipient == "":
				recipient = seg
			default:
				description = append(description, seg)
			}
		}
	}

	if recipient == "" {
		return nil, malformed(models.FamilyTransfer, "no counterparty name")
	}

	return models.TransferDetails{
		Recipient:          recipient,
		RecipientAccountID: account,
		Description:        describe(description, additionalDetailsRaw),
	}, nil
}

// ibanAt reports whether parts[i] exists and is an IBAN. Bank codes are
// dropped only next to an account; a leading one is the counterparty name.
func ibanAt(parts []string, i int) bool {
	if i < 0 || i >= len(parts) {
		return false
	}
	_, ok := iban(parts[i])
	return ok
}

// describe joins the leftover payment text, falling back to the additional
// details cell and then to N/A.
func describe(parts, additionalDetailsRaw []string) string {
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return joinOr(nonEmpty(additionalDetailsRaw), models.NotApplicable)
}
