// Package classifier assigns a canonical transaction type to the lines of a
// notification's type/description cell and strips the matched label.
package classifier

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"bulbank-notification-parser/internal/models"
	"bulbank-notification-parser/internal/vocabulary"
	"bulbank-notification-parser/pkg/logger"
)

// space also matches NBSP and other Unicode space separators
const space = `[\s\p{Zs}]`

// Result is the outcome of classifying one cell
type Result struct {
	Type              models.TransactionType `json:"type"`
	Label             string                 `json:"label,omitempty"`
	MatchedLine       int                    `json:"matchedLine"`
	PaymentDetailsRaw []string               `json:"paymentDetailsRaw"`
}

// Matched reports whether any label was found
func (r Result) Matched() bool {
	return r.Type != models.TransactionTypeUnknown
}

// Classifier matches lines against one compiled alternation of every label
// in a vocabulary. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	vocab   *vocabulary.Vocabulary
	pattern *regexp.Regexp
	logger  logger.Logger
}

// New compiles the vocabulary into a single case-insensitive matcher.
// RE2 alternation is leftmost-first, so labels are listed longest first to
// keep a shorter label from matching inside a longer one at the same position.
func New(vocab *vocabulary.Vocabulary) (*Classifier, error) {
	if vocab == nil {
		vocab = vocabulary.Default()
	}

	labels := vocab.Labels()
	alternatives := make([]string, len(labels))
	for i, label := range labels {
		words := strings.Fields(label)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		alternatives[i] = strings.Join(words, space+`+`)
	}

	// A label must not touch a letter on either side, so it never matches
	// inside a longer word.
	pattern, err := regexp.Compile(`(?i)(?:^|[^\p{L}])(` + strings.Join(alternatives, "|") + `)(?:[^\p{L}]|$)`)
	if err != nil {
		return nil, err
	}

	return &Classifier{
		vocab:   vocab,
		pattern: pattern,
		logger:  logger.GetGlobalLogger().WithComponent("classifier"),
	}, nil
}

// Vocabulary returns the vocabulary the classifier was built from
func (c *Classifier) Vocabulary() *vocabulary.Vocabulary {
	return c.vocab
}

// Classify scans lines in order. The first line containing any label decides
// the type; only that line is stripped, and only of that one occurrence.
// With no match the type is UNKNOWN and the lines pass through unchanged.
// Empty lines are always dropped, and the result slice is never nil.
func (c *Classifier) Classify(lines []string) Result {
	result := Result{
		Type:              models.TransactionTypeUnknown,
		MatchedLine:       -1,
		PaymentDetailsRaw: make([]string, 0, len(lines)),
	}

	for i, line := range lines {
		line = norm.NFC.String(line)

		if result.MatchedLine < 0 {
			if loc := c.pattern.FindStringSubmatchIndex(line); loc != nil {
				label := line[loc[2]:loc[3]]
				if txType, ok := c.vocab.Lookup(label); ok {
					result.Type = txType
					result.Label = label
					result.MatchedLine = i
					start, end := stripBounds(line, loc[2], loc[3])
					line = line[:start] + " " + line[end:]
				}
			}
		}

		if line = strings.TrimSpace(line); line != "" {
			result.PaymentDetailsRaw = append(result.PaymentDetailsRaw, line)
		}
	}

	if !result.Matched() {
		c.logger.WithField("lines", len(lines)).Debug("No vocabulary label matched")
	}
	return result
}

// stripBounds widens the label span [start, end) over the whitespace around
// it and a slash directly before it.
func stripBounds(line string, start, end int) (int, int) {
	start = trimSpaceLeft(line, start)
	if start > 0 && line[start-1] == '/' {
		start = trimSpaceLeft(line, start-1)
	}
	for end < len(line) {
		r, size := utf8.DecodeRuneInString(line[end:])
		if !unicode.IsSpace(r) {
			break
		}
		end += size
	}
	return start, end
}

func trimSpaceLeft(line string, i int) int {
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:i])
		if !unicode.IsSpace(r) {
			break
		}
		i -= size
	}
	return i
}
