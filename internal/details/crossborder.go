package details

import (
	"regexp"

	"bulbank-notification-parser/internal/models"
)

var narrativePrefix = regexp.MustCompile(`^[A-Z]{2,4}-`)

// CrossBorderTransferStrategy reassembles the two comma-segmented lines the
// bank renders for a foreign-currency transfer: one carrying the beneficiary
// bank and account identifiers, the other the narrative.
type CrossBorderTransferStrategy struct{}

func (CrossBorderTransferStrategy) Family() models.Family {
	return models.FamilyCrossBorderTransfer
}

func (CrossBorderTransferStrategy) Extract(paymentDetailsRaw, _ []string) (models.PaymentDetails, error) {
	family := models.FamilyCrossBorderTransfer
	if len(paymentDetailsRaw) != 2 {
		return nil, malformed(family, "expected identifier and narrative lines, got %d lines", len(paymentDetailsRaw))
	}

	identifiers, narrative, ok := splitIdentifierLine(segments(paymentDetailsRaw[0]), segments(paymentDetailsRaw[1]))
	if !ok {
		return nil, malformed(family, "cannot tell the identifier line from the narrative line")
	}

	account := models.NotApplicable
	var leftovers []string
	for _, seg := range nonEmpty(identifiers) {
		if compact, ok := iban(seg); ok {
			if account == models.NotApplicable {
				account = compact
			}
			continue
		}
		if isBIC(seg) {
			continue
		}
		leftovers = append(leftovers, seg)
	}

	parts := nonEmpty(narrative)
	if len(parts) == 0 {
		return nil, malformed(family, "empty narrative line")
	}
	recipient := narrativePrefix.ReplaceAllString(parts[0], "")
	if recipient == "" {
		return nil, malformed(family, "narrative line has no recipient")
	}

	description := parts[1:]
	if n := len(description); n > 0 && isDecimal(description[n-1]) {
		description = description[:n-1]
	}
	description = append(description, leftovers...)

	return models.CrossBorderTransferDetails{
		Recipient:          recipient,
		RecipientAccountID: account,
		Description:        joinOr(description, models.NotApplicable),
	}, nil
}

// splitIdentifierLine picks the identifier line of a pair. The line holding
// an IBAN wins. Without any IBAN, a BIC counts only at the head of a line:
// as its first segment, or right after the empty segment left where the bank
// renders a leading comma. Narrative text can contain BIC-shaped words, so a
// BIC elsewhere on a line decides nothing.
func splitIdentifierLine(first, second []string) (identifiers, narrative []string, ok bool) {
	switch firstIBAN, secondIBAN := hasIBAN(first), hasIBAN(second); {
	case firstIBAN && !secondIBAN:
		return first, second, true
	case secondIBAN && !firstIBAN:
		return second, first, true
	case firstIBAN && secondIBAN:
		return nil, nil, false
	}

	switch firstBIC, secondBIC := leadsWithBIC(first), leadsWithBIC(second); {
	case firstBIC && !secondBIC:
		return first, second, true
	case secondBIC && !firstBIC:
		return second, first, true
	}
	return nil, nil, false
}

func hasIBAN(parts []string) bool {
	for _, seg := range parts {
		if _, ok := iban(seg); ok {
			return true
		}
	}
	return false
}

func leadsWithBIC(parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	if parts[0] != "" {
		return isBIC(parts[0])
	}
	return len(parts) > 1 && isBIC(parts[1])
}
