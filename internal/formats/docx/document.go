// Package docx provides parsing and writing capabilities for .docx (OOXML) files.
package docx

import "strings"

// NodeType identifies the kind of content node in a document.
type NodeType int

const (
	// NodeParagraph represents a text paragraph.
	NodeParagraph NodeType = iota
	// NodeHeading represents a heading paragraph with a level (1-9).
	NodeHeading
	// NodeTable represents a table with rows and cells.
	NodeTable
)

// Alignment is the horizontal justification of a paragraph.
type Alignment string

const (
	AlignDefault Alignment = ""
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
)

// Node represents a single structural element in a document.
type Node struct {
	Type       NodeType  `json:"type"`
	Text       string    `json:"text"`
	Level      int       `json:"level,omitempty"`      // Heading level (1-9)
	Style      string    `json:"style,omitempty"`      // Paragraph or table style ID
	Align      Alignment `json:"align,omitempty"`      // Paragraph justification
	IndentLeft float64   `json:"indentLeft,omitempty"` // Left indent in points
	Columns    int       `json:"columns,omitempty"`    // Table grid width
	Children   []Node    `json:"children,omitempty"`   // For tables: rows containing cells
	Runs       []Run     `json:"runs,omitempty"`       // Individual text runs with formatting
}

// Run represents a contiguous run of text with consistent formatting.
type Run struct {
	Text      string  `json:"text"`
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	Underline bool    `json:"underline,omitempty"`
	Style     string  `json:"style,omitempty"` // Character style ID
	Font      string  `json:"font,omitempty"`
	Size      float64 `json:"size,omitempty"`  // Points
	Color     string  `json:"color,omitempty"` // RRGGBB
}

// Metadata holds document-level metadata from docProps/core.xml.
type Metadata struct {
	Title       string `json:"title,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Description string `json:"description,omitempty"`
	Created     string `json:"created,omitempty"`
	Modified    string `json:"modified,omitempty"`
}

// Document is the in-memory representation of a .docx package: an ordered
// sequence of block nodes plus the style registry they reference.
type Document struct {
	Nodes    []Node         `json:"nodes"`
	Styles   *StyleRegistry `json:"styles,omitempty"`
	Metadata Metadata       `json:"metadata"`
}

// New creates an empty document with its own base style registry.
func New() *Document {
	return &Document{Styles: NewStyleRegistry()}
}

// Append adds a fully built block node to the end of the document body.
func (d *Document) Append(n Node) {
	d.Nodes = append(d.Nodes, n)
}

// NewParagraph returns an empty paragraph node.
func NewParagraph() Node {
	return Node{Type: NodeParagraph}
}

// NewHeading returns a heading paragraph with a single run of text.
func NewHeading(text string, level int) Node {
	n := Node{
		Type:  NodeHeading,
		Level: level,
		Style: HeadingStyleID(level),
	}
	n.AddRun(Run{Text: text})
	return n
}

// AddRun appends a run and keeps Text in sync with the concatenated runs.
func (n *Node) AddRun(r Run) {
	n.Runs = append(n.Runs, r)
	n.Text += r.Text
}

// NewTable returns a table node with the given grid width and style.
func NewTable(cols int, style string) Node {
	return Node{Type: NodeTable, Columns: cols, Style: style}
}

// AddRow appends a row. Rows always hold exactly Columns cells: missing cells
// are left empty and surplus cells are dropped.
func (n *Node) AddRow(cells []Node) {
	row := Node{Children: make([]Node, n.Columns)}
	for i := range row.Children {
		row.Children[i] = NewParagraph()
		if i < len(cells) {
			row.Children[i] = cells[i]
		}
	}
	n.Children = append(n.Children, row)
}

// PlainText returns the document content as plain text.
func (d *Document) PlainText() string {
	var b strings.Builder
	for _, n := range d.Nodes {
		switch n.Type {
		case NodeTable:
			for _, row := range n.Children {
				cells := make([]string, 0, len(row.Children))
				for _, cell := range row.Children {
					cells = append(cells, cell.Text)
				}
				b.WriteString(strings.Join(cells, "\t"))
				b.WriteString("\n")
			}
		default:
			b.WriteString(n.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// WordCount returns the number of whitespace-separated words in the document.
func (d *Document) WordCount() int {
	return len(strings.Fields(d.PlainText()))
}
