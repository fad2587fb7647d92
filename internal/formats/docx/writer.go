package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

const (
	nsMain  = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	relDoc  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCore = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relSty  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
)

// WriteDocument generates a .docx file from a Document struct, returning the raw bytes.
func WriteDocument(doc *Document) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	styles := doc.Styles
	if styles == nil {
		styles = NewStyleRegistry()
	}

	parts := []struct {
		name string
		body string
		what string
	}{
		{"[Content_Types].xml", contentTypesXML, "content types"},
		{"_rels/.rels", relsXML, "relationships"},
		{"word/_rels/document.xml.rels", docRelsXML, "document relationships"},
		{"docProps/core.xml", coreXML(doc.Metadata), "core properties"},
		{"word/styles.xml", stylesXML(styles), "styles"},
		{"word/document.xml", documentXML(doc), "document body"},
	}

	for _, p := range parts {
		if err := writePart(zw, p.name, p.body); err != nil {
			return nil, fmt.Errorf("could not write %s: %w", p.what, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("could not finalize .docx archive: %w", err)
	}

	return buf.Bytes(), nil
}

func writePart(zw *zip.Writer, name, body string) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte(body))
	return err
}

var contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
  <Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
  <Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

var relsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="` + relDoc + `" Target="word/document.xml"/>
  <Relationship Id="rId2" Type="` + relCore + `" Target="docProps/core.xml"/>
</Relationships>`

var docRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="` + relSty + `" Target="styles.xml"/>
</Relationships>`

func coreXML(m Metadata) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	if m.Title != "" {
		b.WriteString(`<dc:title>` + xmlEscape(m.Title) + `</dc:title>`)
	}
	if m.Creator != "" {
		b.WriteString(`<dc:creator>` + xmlEscape(m.Creator) + `</dc:creator>`)
	}
	if m.Description != "" {
		b.WriteString(`<dc:description>` + xmlEscape(m.Description) + `</dc:description>`)
	}
	if m.Created != "" {
		b.WriteString(`<dcterms:created xsi:type="dcterms:W3CDTF">` + xmlEscape(m.Created) + `</dcterms:created>`)
	}
	if m.Modified != "" {
		b.WriteString(`<dcterms:modified xsi:type="dcterms:W3CDTF">` + xmlEscape(m.Modified) + `</dcterms:modified>`)
	}
	b.WriteString(`</cp:coreProperties>`)
	return b.String()
}

func stylesXML(r *StyleRegistry) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:styles xmlns:w="` + nsMain + `">`)

	if normal, ok := r.Get(StyleNormal); ok {
		b.WriteString(`<w:docDefaults><w:rPrDefault>`)
		writeRunPropsXML(&b, Run{Font: normal.Font, Size: normal.Size})
		b.WriteString(`</w:rPrDefault></w:docDefaults>`)
	}

	for _, s := range r.All() {
		b.WriteString(fmt.Sprintf(`<w:style w:type="%s"`, s.Type))
		if s.ID == StyleNormal {
			b.WriteString(` w:default="1"`)
		}
		b.WriteString(fmt.Sprintf(` w:styleId="%s">`, xmlEscape(s.ID)))
		b.WriteString(fmt.Sprintf(`<w:name w:val="%s"/>`, xmlEscape(s.Name)))
		if s.BasedOn != "" {
			b.WriteString(fmt.Sprintf(`<w:basedOn w:val="%s"/>`, xmlEscape(s.BasedOn)))
		}
		if s.OutlineLevel >= 0 {
			b.WriteString(`<w:next w:val="Normal"/><w:qFormat/>`)
			b.WriteString(fmt.Sprintf(`<w:pPr><w:keepNext/><w:outlineLvl w:val="%d"/></w:pPr>`, s.OutlineLevel))
		}
		if s.Type != StyleTable {
			writeRunPropsXML(&b, Run{Font: s.Font, Size: s.Size, Bold: s.Bold, Color: s.Color})
		}
		if s.Borders {
			b.WriteString(`<w:tblPr><w:tblBorders>`)
			for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
				b.WriteString(fmt.Sprintf(`<w:%s w:val="single" w:sz="4" w:space="0" w:color="auto"/>`, edge))
			}
			b.WriteString(`</w:tblBorders></w:tblPr>`)
		}
		b.WriteString(`</w:style>`)
	}

	b.WriteString(`</w:styles>`)
	return b.String()
}

func documentXML(doc *Document) string {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="` + nsMain + `">`)
	b.WriteString(`<w:body>`)

	for _, node := range doc.Nodes {
		writeNodeXML(&b, node)
	}

	b.WriteString(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`)
	b.WriteString(`</w:body>`)
	b.WriteString(`</w:document>`)
	return b.String()
}

func writeNodeXML(b *strings.Builder, n Node) {
	switch n.Type {
	case NodeHeading, NodeParagraph:
		writeParagraphXML(b, n)
	case NodeTable:
		writeTableXML(b, n)
	}
}

func writeParagraphXML(b *strings.Builder, n Node) {
	b.WriteString(`<w:p>`)
	style := n.Style
	if style == "" && n.Type == NodeHeading {
		style = HeadingStyleID(n.Level)
	}
	if style != "" || n.IndentLeft > 0 || n.Align != AlignDefault {
		b.WriteString(`<w:pPr>`)
		if style != "" {
			b.WriteString(fmt.Sprintf(`<w:pStyle w:val="%s"/>`, xmlEscape(style)))
		}
		if n.IndentLeft > 0 {
			b.WriteString(fmt.Sprintf(`<w:ind w:left="%d"/>`, toTwips(n.IndentLeft)))
		}
		if n.Align != AlignDefault {
			b.WriteString(fmt.Sprintf(`<w:jc w:val="%s"/>`, n.Align))
		}
		b.WriteString(`</w:pPr>`)
	}
	writeRunsXML(b, n)
	b.WriteString(`</w:p>`)
}

func writeTableXML(b *strings.Builder, n Node) {
	b.WriteString(`<w:tbl><w:tblPr>`)
	if n.Style != "" {
		b.WriteString(fmt.Sprintf(`<w:tblStyle w:val="%s"/>`, xmlEscape(n.Style)))
	}
	b.WriteString(`<w:tblW w:w="0" w:type="auto"/><w:tblLook w:val="04A0"/></w:tblPr>`)

	cols := n.Columns
	if cols == 0 && len(n.Children) > 0 {
		cols = len(n.Children[0].Children)
	}
	b.WriteString(`<w:tblGrid>`)
	for i := 0; i < cols; i++ {
		b.WriteString(`<w:gridCol/>`)
	}
	b.WriteString(`</w:tblGrid>`)

	for _, row := range n.Children {
		b.WriteString(`<w:tr>`)
		for _, cell := range row.Children {
			// Every w:tc must contain at least one paragraph.
			b.WriteString(`<w:tc><w:tcPr><w:tcW w:w="0" w:type="auto"/></w:tcPr>`)
			writeParagraphXML(b, cell)
			b.WriteString(`</w:tc>`)
		}
		b.WriteString(`</w:tr>`)
	}
	b.WriteString(`</w:tbl>`)
}

func writeRunsXML(b *strings.Builder, n Node) {
	if len(n.Runs) == 0 {
		if n.Text != "" {
			writeRunXML(b, Run{Text: n.Text})
		}
		return
	}
	for _, r := range n.Runs {
		writeRunXML(b, r)
	}
}

func writeRunXML(b *strings.Builder, r Run) {
	b.WriteString(`<w:r>`)
	writeRunPropsXML(b, r)
	writeRunTextXML(b, r.Text)
	b.WriteString(`</w:r>`)
}

// writeRunPropsXML emits w:rPr with children in schema order.
func writeRunPropsXML(b *strings.Builder, r Run) {
	if r.Style == "" && r.Font == "" && !r.Bold && !r.Italic && r.Color == "" && r.Size == 0 && !r.Underline {
		return
	}
	b.WriteString(`<w:rPr>`)
	if r.Style != "" {
		b.WriteString(fmt.Sprintf(`<w:rStyle w:val="%s"/>`, xmlEscape(r.Style)))
	}
	if r.Font != "" {
		f := xmlEscape(r.Font)
		b.WriteString(fmt.Sprintf(`<w:rFonts w:ascii="%s" w:hAnsi="%s" w:cs="%s"/>`, f, f, f))
	}
	if r.Bold {
		b.WriteString(`<w:b/>`)
	}
	if r.Italic {
		b.WriteString(`<w:i/>`)
	}
	if r.Color != "" {
		b.WriteString(fmt.Sprintf(`<w:color w:val="%s"/>`, xmlEscape(r.Color)))
	}
	if r.Size > 0 {
		b.WriteString(fmt.Sprintf(`<w:sz w:val="%d"/>`, toHalfPoints(r.Size)))
	}
	if r.Underline {
		b.WriteString(`<w:u w:val="single"/>`)
	}
	b.WriteString(`</w:rPr>`)
}

// writeRunTextXML splits text on line breaks and tabs, which WordprocessingML
// encodes as sibling elements rather than characters.
func writeRunTextXML(b *strings.Builder, text string) {
	var seg strings.Builder
	flush := func() {
		if seg.Len() == 0 {
			return
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		b.WriteString(xmlEscape(seg.String()))
		b.WriteString(`</w:t>`)
		seg.Reset()
	}
	for _, c := range text {
		switch c {
		case '\n':
			flush()
			b.WriteString(`<w:br/>`)
		case '\t':
			flush()
			b.WriteString(`<w:tab/>`)
		case '\r':
		default:
			seg.WriteRune(c)
		}
	}
	flush()
}

func toHalfPoints(pt float64) int {
	return int(pt*2 + 0.5)
}

func toTwips(pt float64) int {
	return int(pt*20 + 0.5)
}

func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return strconv.Quote(s)
	}
	return b.String()
}
