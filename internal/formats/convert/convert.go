// Package convert turns Markdown into .docx packages. All conversions are
// pure Go, with no Word, LibreOffice or subprocess calls.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/klytics/md2docx/internal/formats/docx"
	"github.com/klytics/md2docx/internal/markup"
)

// now is swapped in tests to pin core property timestamps.
var now = time.Now

// Result summarizes a completed file conversion.
type Result struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Blocks int    `json:"blocks"`
	Words  int    `json:"words"`
	Bytes  int    `json:"bytes"`
}

// MarkdownToDocument converts Markdown source into an in-memory document.
// A leading front matter block, if any, fills the document metadata.
func MarkdownToDocument(markdown string) (*docx.Document, error) {
	fm, body := markup.SplitFrontMatter([]byte(markdown))

	root, err := markup.NewParser().Parse(body)
	if err != nil {
		return nil, &Error{Kind: ConversionFailure, Err: err}
	}

	doc := newDocument()
	mapDocument(doc, root)

	stamp := now().UTC().Format(time.RFC3339)
	doc.Metadata = docx.Metadata{
		Title:       fm.Title,
		Creator:     fm.Author,
		Description: fm.Description,
		Created:     stamp,
		Modified:    stamp,
	}
	return doc, nil
}

// MarkdownToDocx converts Markdown source and saves it at outputPath.
func MarkdownToDocx(markdown, outputPath string) error {
	doc, err := MarkdownToDocument(markdown)
	if err != nil {
		return err
	}
	_, err = saveDocument(doc, outputPath)
	return err
}

// ConvertFile reads a Markdown file and writes the converted document to
// outputPath, or next to the input when outputPath is empty.
func ConvertFile(inputPath, outputPath string) (*Result, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Kind: InputNotFound, Path: inputPath, Err: err}
		}
		return nil, &Error{Kind: ReadFailure, Path: inputPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &Error{Kind: InputNotAFile, Path: inputPath}
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, &Error{Kind: ReadFailure, Path: inputPath, Err: err}
	}
	if !utf8.Valid(data) {
		return nil, &Error{Kind: ReadFailure, Path: inputPath, Err: errors.New("input is not valid UTF-8")}
	}

	if outputPath == "" {
		outputPath = DefaultOutputPath(inputPath)
	}

	doc, err := MarkdownToDocument(string(data))
	if err != nil {
		return nil, err
	}

	n, err := saveDocument(doc, outputPath)
	if err != nil {
		return nil, err
	}

	return &Result{
		Input:  inputPath,
		Output: outputPath,
		Blocks: len(doc.Nodes),
		Words:  doc.WordCount(),
		Bytes:  n,
	}, nil
}

// DefaultOutputPath replaces the extension of inputPath with .docx. A
// leading dot of a hidden file is not treated as an extension.
func DefaultOutputPath(inputPath string) string {
	dir, base := filepath.Split(inputPath)
	ext := filepath.Ext(base)
	if ext == base {
		ext = ""
	}
	return dir + strings.TrimSuffix(base, ext) + ".docx"
}

// IsMarkdown reports whether path has a Markdown file extension.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// saveDocument serializes doc and moves it into place atomically, so a
// failed save never leaves a partial file at outputPath.
func saveDocument(doc *docx.Document, outputPath string) (int, error) {
	data, err := docx.WriteDocument(doc)
	if err != nil {
		return 0, &Error{Kind: ConversionFailure, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), ".md2docx-*.tmp")
	if err != nil {
		return 0, &Error{Kind: SaveFailure, Path: outputPath, Err: err}
	}
	tmpName := tmp.Name()

	fail := func(err error) (int, error) {
		tmp.Close()
		os.Remove(tmpName)
		return 0, &Error{Kind: SaveFailure, Path: outputPath, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return 0, &Error{Kind: SaveFailure, Path: outputPath, Err: err}
	}
	if err := os.Rename(tmpName, outputPath); err != nil {
		os.Remove(tmpName)
		return 0, &Error{Kind: SaveFailure, Path: outputPath, Err: fmt.Errorf("rename: %w", err)}
	}
	return len(data), nil
}
