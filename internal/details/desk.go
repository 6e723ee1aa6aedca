package details

import (
	"regexp"
	"strings"

	"bulbank-notification-parser/internal/models"
)

var deskMarker = regexp.MustCompile(`(?i)нареждане[\s\p{Zs}]+разписка`)

// DeskWithdrawalStrategy handles cash taken at a branch desk. The bank prints
// the instrument marker alone on one line and again followed by the name of
// the person who collected the cash.
type DeskWithdrawalStrategy struct{}

func (DeskWithdrawalStrategy) Family() models.Family { return models.FamilyDeskWithdrawal }

func (DeskWithdrawalStrategy) Extract(paymentDetailsRaw, additionalDetailsRaw []string) (models.PaymentDetails, error) {
	family := models.FamilyDeskWithdrawal

	markerLine := -1
	for i, line := range paymentDetailsRaw {
		if deskMarker.MatchString(line) {
			markerLine = i
			break
		}
	}
	if markerLine < 0 {
		return nil, malformed(family, "no desk withdrawal marker")
	}

	candidates := make([]string, 0, len(paymentDetailsRaw)+len(additionalDetailsRaw))
	for i, line := range paymentDetailsRaw {
		if i != markerLine {
			candidates = append(candidates, line)
		}
	}
	candidates = append(candidates, additionalDetailsRaw...)
	candidates = append(candidates, paymentDetailsRaw[markerLine])

	for _, line := range candidates {
		if name := nameAfterMarker(line); name != "" {
			return models.DeskWithdrawalDetails{
				Recipient:          name,
				RecipientAccountID: models.NotApplicable,
				Description:        paymentDetailsRaw[markerLine],
			}, nil
		}
	}
	return nil, malformed(family, "no recipient name after the desk withdrawal marker")
}

func nameAfterMarker(line string) string {
	loc := deskMarker.FindStringIndex(line)
	if loc == nil {
		return ""
	}
	return strings.Trim(line[loc[1]:], " \u00a0:/-,")
}
