package locator

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"bulbank-notification-parser/pkg/errors"
)

// Charset is the byte encoding of a raw notification
type Charset string

const (
	CharsetUTF8        Charset = "utf-8"
	CharsetWindows1251 Charset = "windows-1251"
	// CharsetAuto keeps valid UTF-8 as is and decodes anything else as windows-1251
	CharsetAuto Charset = "auto"
)

// IsValid checks if the charset is supported
func (c Charset) IsValid() bool {
	switch c {
	case CharsetUTF8, CharsetWindows1251, CharsetAuto:
		return true
	default:
		return false
	}
}

// Decode converts raw notification bytes to UTF-8 text
func Decode(raw []byte, charset Charset) (string, error) {
	switch charset {
	case CharsetUTF8:
		if !utf8.Valid(raw) {
			return "", errors.New(errors.CategoryDocument, errors.CodeEncodingError, "document is not valid UTF-8").
				WithSuggestion("set charset to windows-1251 or auto")
		}
		return string(raw), nil
	case CharsetAuto:
		if utf8.Valid(raw) {
			return string(raw), nil
		}
		return Decode(raw, CharsetWindows1251)
	case CharsetWindows1251:
		reader := transform.NewReader(bytes.NewReader(raw), charmap.Windows1251.NewDecoder())
		decoded, err := io.ReadAll(reader)
		if err != nil {
			return "", errors.Wrap(err, errors.CategoryDocument, errors.CodeEncodingError, "failed to decode windows-1251 document")
		}
		return string(decoded), nil
	default:
		return "", errors.ConfigurationError(errors.CodeInvalidConfig, "charset", string(charset), nil)
	}
}

// Parse builds the document tree. The HTML parser never rejects input; it
// synthesizes html, head, body and tbody elements where they are missing.
func Parse(text string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, errors.MalformedDocument("document", fmt.Sprintf("html parse: %v", err), err)
	}
	return doc, nil
}
