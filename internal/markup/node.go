// Package markup turns Markdown source into a small tree of block and inline
// nodes that the document mapper understands.
package markup

import "strings"

// Kind identifies the variant of a markup node.
type Kind int

const (
	KindDocument Kind = iota
	KindHeading
	KindParagraph
	KindUnorderedList
	KindOrderedList
	KindListItem
	KindCodeBlock
	KindBlockquote
	KindTable
	KindTableRow
	KindTableCell
	KindHorizontalRule
	KindText
	KindBold
	KindItalic
	KindInlineCode
	KindLink
	KindContainer
)

var kindNames = [...]string{
	KindDocument:       "document",
	KindHeading:        "heading",
	KindParagraph:      "paragraph",
	KindUnorderedList:  "unordered-list",
	KindOrderedList:    "ordered-list",
	KindListItem:       "list-item",
	KindCodeBlock:      "code-block",
	KindBlockquote:     "blockquote",
	KindTable:          "table",
	KindTableRow:       "table-row",
	KindTableCell:      "table-cell",
	KindHorizontalRule: "horizontal-rule",
	KindText:           "text",
	KindBold:           "bold",
	KindItalic:         "italic",
	KindInlineCode:     "inline-code",
	KindLink:           "link",
	KindContainer:      "container",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one element of the markup tree. Which fields are meaningful
// depends on Kind:
//
//	Heading      Level, Text
//	CodeBlock    Text
//	TableRow     Header (row sits in a thead), Children = cells
//	TableCell    Header (th), Text (trimmed)
//	Text         Text
//	InlineCode   Text
//	Link         Text, Href
//
// All other kinds carry only Children.
type Node struct {
	Kind     Kind    `json:"kind"`
	Level    int     `json:"level,omitempty"`
	Text     string  `json:"text,omitempty"`
	Href     string  `json:"href,omitempty"`
	Header   bool    `json:"header,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// PlainText returns the concatenated text of the node and its descendants,
// discarding all formatting.
func (n *Node) PlainText() string {
	if len(n.Children) == 0 {
		return n.Text
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if len(n.Children) == 0 {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// Walk calls fn for n and every descendant in document order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
