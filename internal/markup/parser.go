package markup

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parser converts Markdown into a markup tree. Markdown is first rendered to
// HTML with goldmark (CommonMark plus tables, raw HTML passed through), and the
// HTML is then walked into Nodes. Going through HTML means inline raw tags such
// as <b> or <i> in the source are honored the same way as their Markdown forms.
//
// A Parser holds no per-call state and may be reused.
type Parser struct {
	engine goldmark.Markdown
}

// NewParser returns a Parser configured with the Table extension.
func NewParser() *Parser {
	return &Parser{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Parse renders source and returns the root KindDocument node.
func (p *Parser) Parse(source []byte) (*Node, error) {
	var buf bytes.Buffer
	if err := p.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}
	return ParseHTML(&buf)
}

// ParseHTML builds a markup tree from an HTML document or fragment.
func ParseHTML(r io.Reader) (*Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("html parse: %w", err)
	}

	body := findElement(doc, atom.Body)
	if body == nil {
		body = doc
	}

	return &Node{Kind: KindDocument, Children: convertChildren(body, true)}, nil
}

// blockContainers hold block content; newline-only text directly inside them
// is source formatting, not document text.
var blockContainers = map[atom.Atom]bool{
	atom.Body:       true,
	atom.Blockquote: true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.Li:         true,
	atom.Table:      true,
	atom.Thead:      true,
	atom.Tbody:      true,
	atom.Tfoot:      true,
	atom.Tr:         true,
	atom.Div:        true,
	atom.Section:    true,
	atom.Article:    true,
}

func convertChildren(n *html.Node, block bool) []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if block && strings.TrimSpace(c.Data) == "" && strings.Contains(c.Data, "\n") {
				continue
			}
			out = append(out, &Node{Kind: KindText, Text: c.Data})
		case html.ElementNode:
			out = append(out, convertElement(c))
		}
	}
	return out
}

func convertElement(n *html.Node) *Node {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return &Node{Kind: KindHeading, Level: int(n.Data[1] - '0'), Text: getTextContent(n)}
	case atom.P:
		return &Node{Kind: KindParagraph, Children: convertChildren(n, false)}
	case atom.Ul, atom.Ol:
		list := &Node{Kind: KindUnorderedList}
		if n.DataAtom == atom.Ol {
			list.Kind = KindOrderedList
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.Li {
				list.Children = append(list.Children, convertElement(c))
			}
		}
		return list
	case atom.Li:
		return &Node{Kind: KindListItem, Children: convertChildren(n, true)}
	case atom.Pre:
		return &Node{Kind: KindCodeBlock, Text: strings.TrimSuffix(getTextContent(n), "\n")}
	case atom.Blockquote:
		return &Node{Kind: KindBlockquote, Children: convertChildren(n, true)}
	case atom.Table:
		table := &Node{Kind: KindTable}
		for _, tr := range findAll(n, atom.Tr) {
			table.Children = append(table.Children, convertRow(tr))
		}
		return table
	case atom.Hr:
		return &Node{Kind: KindHorizontalRule}
	case atom.Strong, atom.B:
		return &Node{Kind: KindBold, Children: convertChildren(n, false)}
	case atom.Em, atom.I:
		return &Node{Kind: KindItalic, Children: convertChildren(n, false)}
	case atom.Code:
		return &Node{Kind: KindInlineCode, Text: getTextContent(n)}
	case atom.A:
		return &Node{Kind: KindLink, Text: getTextContent(n), Href: getAttr(n, "href")}
	default:
		return &Node{Kind: KindContainer, Children: convertChildren(n, blockContainers[n.DataAtom])}
	}
}

func convertRow(tr *html.Node) *Node {
	row := &Node{
		Kind:   KindTableRow,
		Header: tr.Parent != nil && tr.Parent.DataAtom == atom.Thead,
	}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Th && c.DataAtom != atom.Td) {
			continue
		}
		row.Children = append(row.Children, &Node{
			Kind:   KindTableCell,
			Header: c.DataAtom == atom.Th,
			Text:   strings.TrimSpace(getTextContent(c)),
		})
	}
	return row
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every descendant element matching a, in document order.
func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
		out = append(out, findAll(c, a)...)
	}
	return out
}

func getTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(getTextContent(c))
	}
	return b.String()
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
