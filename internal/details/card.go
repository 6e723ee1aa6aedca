package details

import (
	"regexp"
	"strings"

	"bulbank-notification-parser/internal/models"
)

var (
	authCodePrefix = regexp.MustCompile(`(?i)^авт\.\s*код:\s*\d+\s*-\s*`)
	currencyCode   = regexp.MustCompile(`^\p{Lu}{3}$`)
)

// CardOperationStrategy reads POS and ATM card lines of the form
// "<instrument> <amount> <currency> [авт.код:N-]<recipient>/<location>/PAN:.../CT:..".
type CardOperationStrategy struct{}

func (CardOperationStrategy) Family() models.Family { return models.FamilyCardOperation }

// Extract returns the first line that parses as a card line. The bank
// repeats the card line, so later duplicates are ignored.
func (CardOperationStrategy) Extract(paymentDetailsRaw, _ []string) (models.PaymentDetails, error) {
	for _, line := range paymentDetailsRaw {
		if d, ok := parseCardLine(line); ok {
			return d, nil
		}
	}
	return nil, malformed(models.FamilyCardOperation, "no card operation line among %d lines", len(paymentDetailsRaw))
}

func parseCardLine(line string) (models.CardOperationDetails, bool) {
	fields := strings.Fields(line)

	amount := -1
	for i := 1; i < len(fields); i++ {
		if isDecimal(fields[i]) {
			amount = i
			break
		}
	}
	if amount < 0 || amount+2 >= len(fields) || !currencyCode.MatchString(fields[amount+1]) {
		return models.CardOperationDetails{}, false
	}

	rest := strings.Join(fields[amount+2:], " ")
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return models.CardOperationDetails{}, false
	}
	recipient := strings.TrimSpace(authCodePrefix.ReplaceAllString(rest[:slash], ""))
	if recipient == "" {
		return models.CardOperationDetails{}, false
	}

	return models.CardOperationDetails{
		Recipient:  recipient,
		Instrument: strings.Join(fields[:amount], " "),
		Sum:        fields[amount],
		Currency:   fields[amount+1],
	}, true
}
