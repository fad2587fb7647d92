package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// OOXML internal types for unmarshalling

type xmlParagraph struct {
	Properties xmlParagraphProps `xml:"pPr"`
	Runs       []xmlRun          `xml:"r"`
	Hyperlinks []xmlHyperlink    `xml:"hyperlink"`
}

type xmlParagraphProps struct {
	Style   xmlStyleVal `xml:"pStyle"`
	Justify xmlStyleVal `xml:"jc"`
	Indent  struct {
		Left string `xml:"left,attr"`
	} `xml:"ind"`
	Heading xmlStyleVal `xml:"outlineLvl"`
}

type xmlStyleVal struct {
	Val string `xml:"val,attr"`
}

type xmlRun struct {
	Properties xmlRunProps     `xml:"rPr"`
	Content    []xmlRunContent `xml:",any"`
}

// xmlRunContent captures w:t, w:br and w:tab in document order.
type xmlRunContent struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlRunProps struct {
	Style *xmlStyleVal `xml:"rStyle"`
	Fonts *struct {
		ASCII string `xml:"ascii,attr"`
	} `xml:"rFonts"`
	Bold      *xmlStyleVal `xml:"b"`
	Italic    *xmlStyleVal `xml:"i"`
	Color     *xmlStyleVal `xml:"color"`
	Size      *xmlStyleVal `xml:"sz"`
	Underline *xmlStyleVal `xml:"u"`
}

type xmlHyperlink struct {
	Runs []xmlRun `xml:"r"`
}

type xmlTable struct {
	Properties struct {
		Style xmlStyleVal `xml:"tblStyle"`
	} `xml:"tblPr"`
	Grid struct {
		Cols []struct{} `xml:"gridCol"`
	} `xml:"tblGrid"`
	Rows []xmlTableRow `xml:"tr"`
}

type xmlTableRow struct {
	Cells []xmlTableCell `xml:"tc"`
}

type xmlTableCell struct {
	Paragraphs []xmlParagraph `xml:"p"`
}

type xmlStyles struct {
	Styles []xmlStyle `xml:"style"`
}

type xmlStyle struct {
	Type    string      `xml:"type,attr"`
	ID      string      `xml:"styleId,attr"`
	Name    xmlStyleVal `xml:"name"`
	BasedOn xmlStyleVal `xml:"basedOn"`
	PPr     struct {
		Outline *xmlStyleVal `xml:"outlineLvl"`
	} `xml:"pPr"`
	RPr   xmlRunProps `xml:"rPr"`
	TblPr struct {
		Borders *struct{} `xml:"tblBorders"`
	} `xml:"tblPr"`
}

// Core properties XML types
type xmlCoreProperties struct {
	Title       string `xml:"title"`
	Creator     string `xml:"creator"`
	Description string `xml:"description"`
	Created     string `xml:"created"`
	Modified    string `xml:"modified"`
}

// ParseFile reads and parses a .docx file from the given path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s — check that the path is correct", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied reading %s — check file permissions", path)
		}
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse reads and parses a .docx file from the given byte slice.
func Parse(data []byte) (*Document, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid .docx file — the file does not appear to be a valid ZIP archive: %w", err)
	}

	doc := &Document{Styles: newEmptyRegistry()}

	// Core properties and styles are optional parts.
	_ = parseCoreProperties(reader, doc)
	_ = parseStyles(reader, doc)

	if err := parseDocumentBody(reader, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// ParseReader reads and parses a .docx file from a reader.
func ParseReader(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read input: %w", err)
	}
	return Parse(data)
}

func readPart(reader *zip.Reader, name string) ([]byte, bool, error) {
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, true, err
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		return data, true, err
	}
	return nil, false, nil
}

func parseCoreProperties(reader *zip.Reader, doc *Document) error {
	data, ok, err := readPart(reader, "docProps/core.xml")
	if !ok || err != nil {
		return err
	}

	var props xmlCoreProperties
	if err := xml.Unmarshal(data, &props); err != nil {
		return err
	}

	doc.Metadata = Metadata(props)
	return nil
}

func parseStyles(reader *zip.Reader, doc *Document) error {
	data, ok, err := readPart(reader, "word/styles.xml")
	if !ok || err != nil {
		return err
	}

	var styles xmlStyles
	if err := xml.Unmarshal(data, &styles); err != nil {
		return fmt.Errorf("could not parse styles.xml: %w", err)
	}

	for _, s := range styles.Styles {
		style := Style{
			ID:           s.ID,
			Name:         s.Name.Val,
			Type:         StyleType(s.Type),
			BasedOn:      s.BasedOn.Val,
			OutlineLevel: -1,
			Borders:      s.TblPr.Borders != nil,
		}
		if s.PPr.Outline != nil {
			style.OutlineLevel, _ = strconv.Atoi(s.PPr.Outline.Val)
		}
		props := runFromProps(s.RPr)
		style.Font = props.Font
		style.Size = props.Size
		style.Bold = props.Bold
		style.Color = props.Color
		doc.Styles.Add(style)
	}
	return nil
}

func parseDocumentBody(reader *zip.Reader, doc *Document) error {
	data, ok, err := readPart(reader, "word/document.xml")
	if !ok {
		return fmt.Errorf("invalid .docx file — missing word/document.xml")
	}
	if err != nil {
		return fmt.Errorf("could not read document.xml: %w", err)
	}
	return parseXMLBody(data, doc)
}

func parseXMLBody(data []byte, doc *Document) error {
	// Stream the body so block order is preserved across p and tbl siblings.
	decoder := xml.NewDecoder(bytes.NewReader(data))

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return fmt.Errorf("invalid .docx file — no body element found in document.xml")
		}
		if err != nil {
			return fmt.Errorf("XML parse error in document.xml: %w", err)
		}

		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "body" {
			break
		}
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("XML parse error: %w", err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "p":
			var p xmlParagraph
			if err := decoder.DecodeElement(&p, &se); err != nil {
				return fmt.Errorf("could not parse paragraph: %w", err)
			}
			doc.Nodes = append(doc.Nodes, paragraphFromXML(p))
		case "tbl":
			var t xmlTable
			if err := decoder.DecodeElement(&t, &se); err != nil {
				return fmt.Errorf("could not parse table: %w", err)
			}
			doc.Nodes = append(doc.Nodes, tableFromXML(t))
		default:
			if err := decoder.Skip(); err != nil {
				return err
			}
		}
	}

	return nil
}

func paragraphFromXML(p xmlParagraph) Node {
	allRuns := make([]xmlRun, 0, len(p.Runs))
	allRuns = append(allRuns, p.Runs...)
	for _, h := range p.Hyperlinks {
		allRuns = append(allRuns, h.Runs...)
	}

	node := Node{
		Type:  NodeParagraph,
		Style: p.Properties.Style.Val,
		Align: Alignment(p.Properties.Justify.Val),
	}
	if left := p.Properties.Indent.Left; left != "" {
		if twips, err := strconv.Atoi(left); err == nil {
			node.IndentLeft = float64(twips) / 20
		}
	}

	for _, r := range allRuns {
		run := runFromProps(r.Properties)
		run.Text = runText(r)
		if run.Text != "" {
			node.AddRun(run)
		}
	}

	// Detect heading style
	styleName := node.Style
	if strings.HasPrefix(styleName, "Heading") || strings.HasPrefix(styleName, "heading") {
		node.Type = NodeHeading
		level := 1
		if len(styleName) > 7 {
			ch := styleName[7]
			if ch >= '1' && ch <= '9' {
				level = int(ch - '0')
			}
		}
		node.Level = level
	}

	// Detect outline level
	if v := p.Properties.Heading.Val; v != "" {
		node.Type = NodeHeading
		if ch := v[0]; ch >= '0' && ch <= '9' {
			node.Level = int(ch-'0') + 1
		}
	}

	return node
}

func runText(r xmlRun) string {
	var b strings.Builder
	for _, c := range r.Content {
		switch c.XMLName.Local {
		case "t":
			b.WriteString(c.Value)
		case "br", "cr":
			b.WriteString("\n")
		case "tab":
			b.WriteString("\t")
		}
	}
	return b.String()
}

func runFromProps(p xmlRunProps) Run {
	var r Run
	if p.Style != nil {
		r.Style = p.Style.Val
	}
	if p.Fonts != nil {
		r.Font = p.Fonts.ASCII
	}
	r.Bold = onOff(p.Bold)
	r.Italic = onOff(p.Italic)
	if p.Color != nil {
		r.Color = p.Color.Val
	}
	if p.Size != nil {
		if half, err := strconv.Atoi(p.Size.Val); err == nil {
			r.Size = float64(half) / 2
		}
	}
	if p.Underline != nil && p.Underline.Val != "none" {
		r.Underline = true
	}
	return r
}

// onOff interprets an OOXML toggle property: present with no value means on.
func onOff(v *xmlStyleVal) bool {
	if v == nil {
		return false
	}
	switch v.Val {
	case "", "1", "true", "on":
		return true
	}
	return false
}

func tableFromXML(t xmlTable) Node {
	node := Node{
		Type:     NodeTable,
		Style:    t.Properties.Style.Val,
		Columns:  len(t.Grid.Cols),
		Children: make([]Node, 0, len(t.Rows)),
	}

	for _, row := range t.Rows {
		rowNode := Node{Children: make([]Node, 0, len(row.Cells))}
		for _, cell := range row.Cells {
			cellNode := NewParagraph()
			for i, p := range cell.Paragraphs {
				para := paragraphFromXML(p)
				if i == 0 {
					cellNode.Style = para.Style
				} else {
					cellNode.Text += "\n"
				}
				for _, r := range para.Runs {
					cellNode.AddRun(r)
				}
			}
			rowNode.Children = append(rowNode.Children, cellNode)
		}
		node.Children = append(node.Children, rowNode)
	}

	if node.Columns == 0 && len(node.Children) > 0 {
		node.Columns = len(node.Children[0].Children)
	}
	return node
}
