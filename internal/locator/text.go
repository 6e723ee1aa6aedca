package locator

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Lines returns the visible text of a cell split at <br> and at block
// element boundaries. Lines are trimmed, including NBSP, and empty lines
// are dropped. A nil node yields nil; a present but empty node yields an
// empty, non-nil slice.
func Lines(n *html.Node) []string {
	if n == nil {
		return nil
	}

	c := &lineCollector{lines: []string{}}
	c.walk(n)
	c.flush()
	return c.lines
}

// Text returns the cell's lines joined by single spaces
func Text(n *html.Node) string {
	return strings.Join(Lines(n), " ")
}

type lineCollector struct {
	lines   []string
	current strings.Builder
}

func (c *lineCollector) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		c.current.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Br:
			c.flush()
			return
		case atom.Script, atom.Style:
			return
		}
	}

	block := isBlock(n)
	if block {
		c.flush()
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.walk(child)
	}
	if block {
		c.flush()
	}
}

func (c *lineCollector) flush() {
	line := strings.Map(func(r rune) rune {
		// source line breaks are whitespace in HTML
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, c.current.String())
	c.current.Reset()

	line = strings.TrimFunc(line, unicode.IsSpace)
	if line != "" {
		c.lines = append(c.lines, line)
	}
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.Tr, atom.Li, atom.Table, atom.Ul, atom.Ol:
		return true
	default:
		return false
	}
}
