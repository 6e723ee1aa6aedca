// Package locator finds the field-bearing cells of a notification document
// by a declared, versioned schema of element-index paths.
package locator

import (
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

// FieldNodes references the located cells inside the parsed document tree.
// AdditionalDetails is nil when the optional cell is absent.
type FieldNodes struct {
	Date              *html.Node
	Reference         *html.Node
	ValueDate         *html.Node
	Sum               *html.Node
	EntryType         *html.Node
	TypeDescription   *html.Node
	AdditionalDetails *html.Node
}

// Get returns the node for a field by name
func (f *FieldNodes) Get(name FieldName) *html.Node {
	switch name {
	case FieldDate:
		return f.Date
	case FieldReference:
		return f.Reference
	case FieldValueDate:
		return f.ValueDate
	case FieldSum:
		return f.Sum
	case FieldEntryType:
		return f.EntryType
	case FieldTypeDescription:
		return f.TypeDescription
	case FieldAdditionalDetails:
		return f.AdditionalDetails
	default:
		return nil
	}
}

func (f *FieldNodes) set(name FieldName, n *html.Node) {
	switch name {
	case FieldDate:
		f.Date = n
	case FieldReference:
		f.Reference = n
	case FieldValueDate:
		f.ValueDate = n
	case FieldSum:
		f.Sum = n
	case FieldEntryType:
		f.EntryType = n
	case FieldTypeDescription:
		f.TypeDescription = n
	case FieldAdditionalDetails:
		f.AdditionalDetails = n
	}
}

// Locator resolves schema fields against parsed documents. It is safe for
// concurrent use.
type Locator struct {
	schema Schema
	logger logger.Logger
}

// New validates the schema and returns a locator for it
func New(schema Schema) (*Locator, error) {
	if err := schema.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "schema", schema.Version, err)
	}

	fields := make([]FieldSpec, len(schema.Fields))
	for i, f := range schema.Fields {
		f.Path = append([]int(nil), f.Path...)
		fields[i] = f
	}
	schema.Fields = fields

	return &Locator{
		schema: schema,
		logger: logger.GetGlobalLogger().WithComponent("locator"),
	}, nil
}

// SchemaVersion returns the version of the schema in use
func (l *Locator) SchemaVersion() string {
	return l.schema.Version
}

// Locate anchors at <body> and follows each field's path. A required field
// whose path runs out of elements fails the whole document.
func (l *Locator) Locate(doc *html.Node) (*FieldNodes, error) {
	body := findBody(doc)
	if body == nil {
		return nil, errors.MalformedDocument("body", "document has no <body> element", nil)
	}

	nodes := &FieldNodes{}
	for _, field := range l.schema.Fields {
		node, step := follow(body, field.Path)
		if node == nil {
			if field.Optional {
				l.logger.WithField("field", field.Name).Debug("Optional field absent")
				continue
			}
			detail := fmt.Sprintf("no element at offset %d (step %d of path %v, schema %s)",
				field.Path[step], step, field.Path, l.schema.Version)
			return nil, errors.MalformedDocument(string(field.Name), detail, nil).
				WithContext("offset", field.Path[step]).
				WithContext("step", step).
				WithContext("schema", l.schema.Version)
		}
		nodes.set(field.Name, node)
	}

	return nodes, nil
}

// follow walks path from root. On failure it returns nil and the index of
// the step that had no element.
func follow(root *html.Node, path []int) (*html.Node, int) {
	current := root
	for step, offset := range path {
		current = elementChild(current, offset)
		if current == nil {
			return nil, step
		}
	}
	return current, len(path)
}

func elementChild(n *html.Node, index int) *html.Node {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if i == index {
			return c
		}
		i++
	}
	return nil
}

func findBody(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}
