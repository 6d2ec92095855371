package timetable

import (
	"github.com/garyellow/school-timetable-go/internal/htmldoc"
	"github.com/garyellow/school-timetable-go/internal/stringutil"
)

// DecomposeCell extracts the ordered tokens of one <td>.
// Paragraphs whose cleaned text is empty are ignored; a cell with no
// remaining paragraph yields no tokens.
func DecomposeCell(cell htmldoc.Node, mode CellMode, paragraphSelector string) []Token {
	if paragraphSelector == "" {
		paragraphSelector = DefaultParagraphSelector
	}

	var tokens []Token
	for _, p := range cell.Find(paragraphSelector) {
		text := stringutil.CleanText(p.Text())
		if text == "" {
			continue
		}
		if mode == CellModeFlat {
			tokens = append(tokens, Token{Text: text, Kind: TokenText})
			continue
		}
		tokens = appendLinkTokens(tokens, p)
	}
	return tokens
}

// appendLinkTokens walks n depth-first: an <a> yields its whole text, a text
// run yields itself, and any other element is descended into. Text inside
// formatting elements is therefore kept: <p><b>Math</b></p> yields "Math"
// rather than no token.
func appendLinkTokens(tokens []Token, n htmldoc.Node) []Token {
	for _, child := range n.Children() {
		switch {
		case child.Kind() == htmldoc.TextNode:
			if text := stringutil.CleanText(child.Text()); text != "" {
				tokens = append(tokens, Token{Text: text, Kind: TokenText})
			}
		case child.Tag() == "a":
			if text := stringutil.CleanText(child.Text()); text != "" {
				tokens = append(tokens, Token{Text: text, Kind: TokenLink})
			}
		default:
			tokens = appendLinkTokens(tokens, child)
		}
	}
	return tokens
}
