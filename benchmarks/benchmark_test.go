package benchmarks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klytics/md2docx/internal/formats/convert"
	"github.com/klytics/md2docx/internal/formats/docx"
	"github.com/klytics/md2docx/internal/markup"
)

var sampleMarkdown = filepath.Join("..", "testdata", "sample.md")

func loadSample(b *testing.B) string {
	b.Helper()
	data, err := os.ReadFile(sampleMarkdown)
	if os.IsNotExist(err) {
		b.Skip("sample.md not found")
	}
	if err != nil {
		b.Fatal(err)
	}
	return string(data)
}

// largeMarkdown repeats the sample to approximate a long handbook.
func largeMarkdown(b *testing.B) string {
	return strings.Repeat(loadSample(b)+"\n", 50)
}

// --- Markup Benchmarks ---

func BenchmarkMarkupParse(b *testing.B) {
	src := []byte(loadSample(b))
	p := markup.NewParser()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Parse(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFrontMatter(b *testing.B) {
	src := []byte(loadSample(b))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		markup.SplitFrontMatter(src)
	}
}

// --- Conversion Benchmarks ---

func BenchmarkMarkdownToDocument(b *testing.B) {
	src := loadSample(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := convert.MarkdownToDocument(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarkdownToDocumentLarge(b *testing.B) {
	src := largeMarkdown(b)
	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := convert.MarkdownToDocument(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkConvertFile(b *testing.B) {
	src := loadSample(b)
	dir := b.TempDir()
	in := filepath.Join(dir, "sample.md")
	if err := os.WriteFile(in, []byte(src), 0644); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := convert.ConvertFile(in, ""); err != nil {
			b.Fatal(err)
		}
	}
}

// --- DOCX Benchmarks ---

func BenchmarkDocxWrite(b *testing.B) {
	doc, err := convert.MarkdownToDocument(loadSample(b))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := docx.WriteDocument(doc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDocxWriteLarge(b *testing.B) {
	doc := docx.New()
	for i := 0; i < 100; i++ {
		p := docx.NewParagraph()
		p.AddRun(docx.Run{Text: "Lorem ipsum dolor sit amet, "})
		p.AddRun(docx.Run{Text: "consectetur adipiscing elit.", Bold: true})
		doc.Append(p)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := docx.WriteDocument(doc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDocxRoundTrip(b *testing.B) {
	doc, err := convert.MarkdownToDocument(loadSample(b))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		data, err := docx.WriteDocument(doc)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := docx.Parse(data); err != nil {
			b.Fatal(err)
		}
	}
}
