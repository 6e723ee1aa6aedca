package details

import (
	"strings"

	"bulbank-notification-parser/internal/models"
)

// PeriodicPaymentStrategy handles standing orders. The bank prints one item
// per line: payee, account, then any number of reference lines.
type PeriodicPaymentStrategy struct{}

func (PeriodicPaymentStrategy) Family() models.Family { return models.FamilyPeriodicPayment }

func (PeriodicPaymentStrategy) Extract(paymentDetailsRaw, additionalDetailsRaw []string) (models.PaymentDetails, error) {
	family := models.FamilyPeriodicPayment
	if len(paymentDetailsRaw) == 0 {
		return nil, malformed(family, "no payment lines")
	}

	account := models.NotApplicable
	recipient := ""
	var description []string

	for _, line := range paymentDetailsRaw {
		if compact, ok := iban(line); ok {
			if account == models.NotApplicable {
				account = compact
			}
			continue
		}
		if account == models.NotApplicable {
			if token, ok := ibanToken(line); ok {
				account = token
			}
		}
		if recipient == "" {
			recipient = line
			continue
		}
		description = append(description, line)
	}

	if recipient == "" {
		return nil, malformed(family, "no payee line")
	}

	return models.PeriodicPaymentDetails{
		Recipient:          recipient,
		RecipientAccountID: account,
		Description:        describe(description, additionalDetailsRaw),
	}, nil
}

func ibanToken(line string) (string, bool) {
	for _, f := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '/' }) {
		if compact, ok := iban(f); ok {
			return compact, true
		}
	}
	return "", false
}
