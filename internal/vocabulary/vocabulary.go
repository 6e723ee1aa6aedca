// Package vocabulary holds the versioned table of localized labels that
// identify a transaction's canonical type.
package vocabulary

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"bulbank-notification-parser/internal/models"
)

// Entry is one label and the canonical type it stands for
type Entry struct {
	Label string                 `json:"label" yaml:"label"`
	Type  models.TransactionType `json:"type" yaml:"type"`
}

// Vocabulary is an immutable label table. Construct it once and share it by
// pointer; none of its methods mutate it.
type Vocabulary struct {
	version string
	entries []Entry
	byKey   map[string]models.TransactionType
}

// New validates the label table and returns a vocabulary ordered most
// specific label first.
func New(version string, labels map[models.TransactionType][]string) (*Vocabulary, error) {
	if strings.TrimSpace(version) == "" {
		return nil, fmt.Errorf("vocabulary version cannot be empty")
	}

	v := &Vocabulary{
		version: version,
		byKey:   make(map[string]models.TransactionType),
	}

	for txType, variants := range labels {
		if !txType.IsValid() {
			return nil, fmt.Errorf("vocabulary %s: label type %q is not a canonical transaction type", version, txType)
		}
		for _, label := range variants {
			label = normalizeLabel(label)
			if label == "" {
				return nil, fmt.Errorf("vocabulary %s: empty label for %s", version, txType)
			}

			key := Key(label)
			if existing, ok := v.byKey[key]; ok {
				if existing != txType {
					return nil, fmt.Errorf("vocabulary %s: label %q maps to both %s and %s", version, label, existing, txType)
				}
				continue
			}
			v.byKey[key] = txType
			v.entries = append(v.entries, Entry{Label: label, Type: txType})
		}
	}

	if len(v.entries) == 0 {
		return nil, fmt.Errorf("vocabulary %s has no labels", version)
	}

	sort.Slice(v.entries, func(i, j int) bool {
		li := utf8.RuneCountInString(v.entries[i].Label)
		lj := utf8.RuneCountInString(v.entries[j].Label)
		if li != lj {
			return li > lj
		}
		return v.entries[i].Label < v.entries[j].Label
	})

	return v, nil
}

// MustNew is like New but panics on an invalid table
func MustNew(version string, labels map[models.TransactionType][]string) *Vocabulary {
	v, err := New(version, labels)
	if err != nil {
		panic(err)
	}
	return v
}

// Version returns the vocabulary version tag
func (v *Vocabulary) Version() string {
	return v.version
}

// Len returns the number of distinct labels
func (v *Vocabulary) Len() int {
	return len(v.entries)
}

// Entries returns a copy of the label table, most specific label first
func (v *Vocabulary) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// Labels returns the labels in matching order
func (v *Vocabulary) Labels() []string {
	out := make([]string, len(v.entries))
	for i, e := range v.entries {
		out[i] = e.Label
	}
	return out
}

// Types returns the distinct canonical types the vocabulary can produce
func (v *Vocabulary) Types() []models.TransactionType {
	seen := make(map[models.TransactionType]bool)
	var out []models.TransactionType
	for _, e := range v.entries {
		if !seen[e.Type] {
			seen[e.Type] = true
			out = append(out, e.Type)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup returns the canonical type for text matched against a label.
// Matching ignores case and runs of whitespace.
func (v *Vocabulary) Lookup(text string) (models.TransactionType, bool) {
	t, ok := v.byKey[Key(text)]
	return t, ok
}

// Key is the comparison form of a label: NFC, lower case, single spaces
func Key(text string) string {
	return strings.ToLower(normalizeLabel(text))
}

func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(norm.NFC.String(label)), " ")
}
