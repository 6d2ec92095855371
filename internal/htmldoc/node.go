// Package htmldoc exposes the small slice of HTML access the timetable parser
// needs: selector queries, normalized text, attributes and child walking that
// tells text runs apart from elements.
//
// The parser depends only on Node, so tests can feed it hand-built trees and
// the goquery adapter can be swapped without touching parsing code.
package htmldoc

// NodeKind distinguishes element nodes from text runs.
type NodeKind int

const (
	// ElementNode is an HTML element such as <td> or <a>.
	ElementNode NodeKind = iota
	// TextNode is a run of character data between elements.
	TextNode
)

func (k NodeKind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	default:
		return "unknown"
	}
}

// Node is a read-only view of one HTML node.
type Node interface {
	// Kind reports whether the node is an element or a text run.
	Kind() NodeKind
	// Tag returns the lowercase element name, or "" for text nodes.
	Tag() string
	// Text returns the concatenated text of the node and its descendants.
	Text() string
	// Attr returns the named attribute of an element.
	Attr(name string) (string, bool)
	// Find returns descendants matching a CSS selector in document order.
	Find(selector string) []Node
	// Children returns direct children, elements and text runs only.
	Children() []Node
}
