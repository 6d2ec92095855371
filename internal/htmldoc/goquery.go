package htmldoc

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page together with the URL it was loaded from.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// Parse reads an HTML document from r. base may be nil for offline input.
func Parse(r io.Reader, base *url.URL) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc, base: base}, nil
}

// ParseString parses an in-memory HTML string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s), nil)
}

// BaseURL returns the URL the document was fetched from, or nil.
func (d *Document) BaseURL() *url.URL {
	return d.base
}

// Root returns the document node.
func (d *Document) Root() Node {
	return &element{sel: d.doc.Selection}
}

// Find runs a selector against the whole document.
func (d *Document) Find(selector string) []Node {
	return d.Root().Find(selector)
}

// element adapts a single-node goquery selection.
type element struct {
	sel *goquery.Selection
}

func (e *element) Kind() NodeKind {
	return ElementNode
}

func (e *element) Tag() string {
	return goquery.NodeName(e.sel)
}

func (e *element) Text() string {
	return e.sel.Text()
}

func (e *element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func (e *element) Find(selector string) []Node {
	found := e.sel.Find(selector)
	nodes := make([]Node, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &element{sel: s})
	})
	return nodes
}

func (e *element) Children() []Node {
	var nodes []Node
	e.sel.Contents().Each(func(_ int, s *goquery.Selection) {
		switch s.Nodes[0].Type {
		case html.ElementNode:
			nodes = append(nodes, &element{sel: s})
		case html.TextNode:
			nodes = append(nodes, textRun(s.Nodes[0].Data))
		}
	})
	return nodes
}

// textRun is a leaf text node.
type textRun string

func (t textRun) Kind() NodeKind             { return TextNode }
func (t textRun) Tag() string                { return "" }
func (t textRun) Text() string               { return string(t) }
func (t textRun) Attr(string) (string, bool) { return "", false }
func (t textRun) Find(string) []Node         { return nil }
func (t textRun) Children() []Node           { return nil }
