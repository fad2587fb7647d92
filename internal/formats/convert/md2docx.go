package convert

import (
	"fmt"
	"strings"

	"github.com/klytics/md2docx/internal/formats/docx"
	"github.com/klytics/md2docx/internal/markup"
)

// Formatting constants applied by the mapper.
const (
	CodeStyleID  = "Code"
	CodeFont     = "Courier New"
	CodeSize     = 10
	CodeColor    = "00008B"
	LinkColor    = "0000FF"
	HeadingColor = "000000"

	quoteIndent  = 36 // points
	ruleWidth    = 50
	bulletMarker = "• "
)

// HeadingSize returns the font size in points for a heading level.
func HeadingSize(level int) float64 {
	return float64(26 - 2*level)
}

// newDocument creates the document a conversion writes into. Styles are set
// up exactly once here, before any mapping.
func newDocument() *docx.Document {
	doc := docx.New()
	setupStyles(doc.Styles)
	return doc
}

func setupStyles(styles *docx.StyleRegistry) {
	for level := 1; level <= 6; level++ {
		id := docx.HeadingStyleID(level)
		s, ok := styles.Get(id)
		if !ok {
			styles.Add(docx.Style{ID: id, Name: fmt.Sprintf("heading %d", level), Type: docx.StyleParagraph, OutlineLevel: level - 1})
			s, _ = styles.Get(id)
		}
		s.Size = HeadingSize(level)
		s.Bold = true
		s.Color = HeadingColor
	}

	if !styles.Has(CodeStyleID) {
		styles.Add(docx.Style{
			ID:           CodeStyleID,
			Name:         "Code",
			Type:         docx.StyleCharacter,
			Font:         CodeFont,
			Size:         CodeSize,
			Color:        CodeColor,
			OutlineLevel: -1,
		})
	}
}

// mapper appends the docx equivalent of a markup tree to doc. It never fails:
// node kinds it has no rule for are walked through transparently.
type mapper struct {
	doc *docx.Document
}

// mapDocument maps every block of root into doc.
func mapDocument(doc *docx.Document, root *markup.Node) {
	m := &mapper{doc: doc}
	m.mapBlock(root, nil)
}

// mapBlock maps a block-level node. para is the paragraph that loose text
// lands in; it is nil at the top level, where such text is dropped.
func (m *mapper) mapBlock(n *markup.Node, para *docx.Node) {
	switch n.Kind {
	case markup.KindText:
		if para != nil && strings.TrimSpace(n.Text) != "" {
			para.AddRun(docx.Run{Text: n.Text})
		}

	case markup.KindHeading:
		m.doc.Append(docx.NewHeading(n.Text, clampLevel(n.Level)))

	case markup.KindParagraph:
		p := docx.NewParagraph()
		m.formatInline(n, &p)
		m.doc.Append(p)

	case markup.KindUnorderedList, markup.KindOrderedList:
		m.mapList(n)

	case markup.KindCodeBlock:
		p := docx.NewParagraph()
		p.Align = docx.AlignLeft
		p.AddRun(codeRun(n.Text))
		m.doc.Append(p)

	case markup.KindBlockquote:
		p := docx.NewParagraph()
		p.IndentLeft = quoteIndent
		m.formatInline(n, &p)
		m.doc.Append(p)

	case markup.KindTable:
		m.mapTable(n)

	case markup.KindHorizontalRule:
		p := docx.NewParagraph()
		p.Align = docx.AlignCenter
		p.AddRun(docx.Run{Text: strings.Repeat("_", ruleWidth)})
		m.doc.Append(p)

	default:
		for _, c := range n.Children {
			m.mapBlock(c, para)
		}
	}
}

// formatInline appends one run per inline child of n. Bold, italic and code
// spans take the flattened text of their content; nested styling inside them
// is not composed.
//
// Block children (the paragraphs of a multi-paragraph quote or list item)
// are separated by a line break run so their text stays apart.
func (m *mapper) formatInline(n *markup.Node, para *docx.Node) {
	for i, c := range n.Children {
		if i > 0 && (isBlock(c.Kind) || isBlock(n.Children[i-1].Kind)) && !endsWithBreak(para) {
			para.AddRun(docx.Run{Text: "\n"})
		}
		switch c.Kind {
		case markup.KindText:
			para.AddRun(docx.Run{Text: c.Text})
		case markup.KindBold:
			para.AddRun(docx.Run{Text: c.PlainText(), Bold: true})
		case markup.KindItalic:
			para.AddRun(docx.Run{Text: c.PlainText(), Italic: true})
		case markup.KindInlineCode, markup.KindCodeBlock:
			para.AddRun(codeRun(c.PlainText()))
		case markup.KindLink:
			para.AddRun(docx.Run{
				Text:      fmt.Sprintf("%s (%s)", c.Text, c.Href),
				Color:     LinkColor,
				Underline: true,
			})
		default:
			if len(c.Children) == 0 && c.Text != "" {
				// Leaf blocks such as a heading nested in a list item keep their text.
				para.AddRun(docx.Run{Text: c.Text})
				continue
			}
			m.formatInline(c, para)
		}
	}
}

func isBlock(k markup.Kind) bool {
	switch k {
	case markup.KindHeading, markup.KindParagraph, markup.KindUnorderedList,
		markup.KindOrderedList, markup.KindListItem, markup.KindCodeBlock,
		markup.KindBlockquote, markup.KindTable, markup.KindTableRow,
		markup.KindHorizontalRule:
		return true
	}
	return false
}

func endsWithBreak(para *docx.Node) bool {
	if len(para.Runs) == 0 {
		return false
	}
	return strings.HasSuffix(para.Runs[len(para.Runs)-1].Text, "\n")
}

// mapList writes one paragraph per item, prefixed with a literal marker.
// Ordinals start at 1 for every list.
func (m *mapper) mapList(n *markup.Node) {
	ordered := n.Kind == markup.KindOrderedList
	i := 0
	for _, item := range n.Children {
		if item.Kind != markup.KindListItem {
			continue
		}
		i++
		marker := bulletMarker
		if ordered {
			marker = fmt.Sprintf("%d. ", i)
		}

		p := docx.NewParagraph()
		p.AddRun(docx.Run{Text: marker})
		m.formatInline(item, &p)
		m.doc.Append(p)
	}
}

// mapTable sizes the grid from the first row. Later rows are padded or cut
// to fit rather than rejected.
func (m *mapper) mapTable(n *markup.Node) {
	var rows []*markup.Node
	for _, c := range n.Children {
		if c.Kind == markup.KindTableRow {
			rows = append(rows, c)
		}
	}
	if len(rows) == 0 {
		return
	}

	cols := len(rows[0].Children)
	if cols == 0 {
		return
	}

	table := docx.NewTable(cols, docx.StyleTableGrid)
	for _, row := range rows {
		cells := make([]docx.Node, 0, len(row.Children))
		for _, cell := range row.Children {
			p := docx.NewParagraph()
			if text := strings.TrimSpace(cell.PlainText()); text != "" {
				p.AddRun(docx.Run{Text: text, Bold: cell.Header})
			}
			cells = append(cells, p)
		}
		table.AddRow(cells)
	}
	m.doc.Append(table)
}

func codeRun(text string) docx.Run {
	return docx.Run{
		Text:  text,
		Style: CodeStyleID,
		Font:  CodeFont,
		Size:  CodeSize,
		Color: CodeColor,
	}
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}
