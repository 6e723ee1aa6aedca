package vocabulary

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"bulbank-notification-parser/internal/models"
)

func TestDefaultVocabulary(t *testing.T) {
	v := Default()

	if v.Version() != BulbankVersion {
		t.Errorf("Expected version %s, got %s", BulbankVersion, v.Version())
	}

	types := v.Types()
	if len(types) != len(models.KnownTransactionTypes()) {
		t.Errorf("Expected every canonical type to have a label, got %v", types)
	}
}

func TestLabelsOrderedMostSpecificFirst(t *testing.T) {
	labels := Default().Labels()

	for i := 1; i < len(labels); i++ {
		prev, cur := utf8.RuneCountInString(labels[i-1]), utf8.RuneCountInString(labels[i])
		if prev < cur {
			t.Fatalf("Label %q (%d runes) ordered before longer %q (%d runes)", labels[i-1], prev, labels[i], cur)
		}
		if prev == cur && labels[i-1] > labels[i] {
			t.Fatalf("Equal-length labels %q and %q not ordered alphabetically", labels[i-1], labels[i])
		}
	}

	// every label that contains another label must precede it
	index := make(map[string]int)
	for i, l := range labels {
		index[Key(l)] = i
	}
	for _, outer := range labels {
		for _, inner := range labels {
			if outer == inner || !strings.Contains(Key(outer), Key(inner)) {
				continue
			}
			if index[Key(outer)] > index[Key(inner)] {
				t.Errorf("Label %q must precede its substring %q", outer, inner)
			}
		}
	}
}

func TestLookup(t *testing.T) {
	v := Default()

	tests := []struct {
		text string
		want models.TransactionType
		ok   bool
	}{
		{"Издаване на превод", models.TransactionTypeTransfer, true},
		{"ИЗДАВАНЕ НА ПРЕВОД ВЪВ ВАЛУТА", models.TransactionTypeCrossBorderTransfer, true},
		{"Такса  за\tтеглене", models.TransactionTypeWithdrawalFee, true},
		{"Операциа с карта", models.TransactionTypeCardOperation, true},
		{"Лихва", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := v.Lookup(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Lookup(%q) = %v, %v; want %v, %v", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		version string
		labels  map[models.TransactionType][]string
	}{
		{"empty version", "", map[models.TransactionType][]string{models.TransactionTypeTransfer: {"a"}}},
		{"no labels", "v/1", map[models.TransactionType][]string{}},
		{"blank label", "v/1", map[models.TransactionType][]string{models.TransactionTypeTransfer: {"  "}}},
		{"unknown type", "v/1", map[models.TransactionType][]string{models.TransactionTypeUnknown: {"a"}}},
		{"conflicting label", "v/1", map[models.TransactionType][]string{
			models.TransactionTypeTransfer:    {"Превод"},
			models.TransactionTypeTransferFee: {"превод"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.version, tt.labels); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestNewDeduplicatesVariants(t *testing.T) {
	v, err := New("v/1", map[models.TransactionType][]string{
		models.TransactionTypeTransfer: {"Превод", "ПРЕВОД", " превод "},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v.Len() != 1 {
		t.Errorf("Expected 1 label after case-insensitive dedup, got %d", v.Len())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	content := `version: custom/1
labels:
  TRANSFER:
    - Outgoing transfer
  TRANSFER_FEE:
    - Outgoing transfer fee
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write vocabulary: %v", err)
	}

	v, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if v.Version() != "custom/1" {
		t.Errorf("Expected version custom/1, got %s", v.Version())
	}
	if labels := v.Labels(); labels[0] != "Outgoing transfer fee" {
		t.Errorf("Expected longest label first, got %v", labels)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("version: a/1\nlabel:\n  TRANSFER: [x]\n"))
	if err == nil {
		t.Error("Expected error for misspelled key")
	}
}

func TestEncodeRoundTripsThroughLoad(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	v, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if v.Len() != Default().Len() {
		t.Errorf("Expected %d labels, got %d", Default().Len(), v.Len())
	}
}
