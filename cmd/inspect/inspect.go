// Package inspect provides the "md2docx inspect" command, which prints the
// structure of a .docx package.
package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/md2docx/internal/formats/docx"
)

type report struct {
	Nodes     []docx.Node         `json:"nodes"`
	Styles    *docx.StyleRegistry `json:"styles"`
	Metadata  docx.Metadata       `json:"metadata"`
	WordCount int                 `json:"wordCount"`
}

// NewCommand returns the inspect command.
func NewCommand() *cobra.Command {
	var (
		runs   bool
		styles bool
		text   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file.docx>",
		Short: "Show the blocks, runs and styles of a Word document",
		Long:  "Reads a .docx file and prints its block structure. Pass '-' to read from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			var doc *docx.Document
			var err error

			if args[0] == "-" {
				data, readErr := io.ReadAll(cmd.InOrStdin())
				if readErr != nil {
					return fmt.Errorf("could not read from stdin: %w", readErr)
				}
				if len(data) == 0 {
					return fmt.Errorf("no input provided: pass a .docx file path or pipe data to stdin")
				}
				doc, err = docx.Parse(data)
			} else {
				filePath := args[0]
				if !strings.HasSuffix(strings.ToLower(filePath), ".docx") {
					return fmt.Errorf("expected a .docx file, got %q", filePath)
				}
				if _, statErr := os.Stat(filePath); statErr != nil {
					return fmt.Errorf("could not open %s: %w", filePath, statErr)
				}
				doc, err = docx.ParseFile(filePath)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case jsonFlag:
				return outputJSON(out, doc)
			case text:
				fmt.Fprint(out, doc.PlainText())
				return nil
			}

			outputPretty(out, doc, runs)
			if styles {
				outputStyles(out, doc.Styles)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&runs, "runs", false, "List every run with its formatting")
	cmd.Flags().BoolVar(&styles, "styles", false, "List the style definitions")
	cmd.Flags().BoolVar(&text, "text", false, "Print plain text only")

	return cmd
}

func outputJSON(w io.Writer, doc *docx.Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report{
		Nodes:     doc.Nodes,
		Styles:    doc.Styles,
		Metadata:  doc.Metadata,
		WordCount: doc.WordCount(),
	})
}

func outputPretty(w io.Writer, doc *docx.Document, showRuns bool) {
	bold := color.New(color.Bold)
	heading := color.New(color.Bold, color.FgCyan)
	dim := color.New(color.FgHiBlack)

	if m := doc.Metadata; m.Title != "" || m.Creator != "" {
		dim.Fprintf(w, "title: %s  creator: %s\n\n", m.Title, m.Creator)
	}

	for _, node := range doc.Nodes {
		switch node.Type {
		case docx.NodeHeading:
			heading.Fprintf(w, "%s %s", strings.Repeat("#", node.Level), node.Text)
			dim.Fprintf(w, "  (%s)\n", node.Style)
		case docx.NodeParagraph:
			if node.IndentLeft > 0 {
				dim.Fprint(w, "> ")
			}
			for _, r := range node.Runs {
				if r.Bold {
					bold.Fprint(w, r.Text)
				} else {
					fmt.Fprint(w, r.Text)
				}
			}
			if node.Align != docx.AlignDefault {
				dim.Fprintf(w, "  (%s)", node.Align)
			}
			fmt.Fprintln(w)
		case docx.NodeTable:
			for _, row := range node.Children {
				cells := make([]string, 0, len(row.Children))
				for _, cell := range row.Children {
					cells = append(cells, cell.Text)
				}
				dim.Fprint(w, "| ")
				fmt.Fprint(w, strings.Join(cells, " | "))
				dim.Fprintln(w, " |")
			}
			dim.Fprintf(w, "(%d columns, %s)\n", node.Columns, node.Style)
		}

		if showRuns {
			for _, r := range node.Runs {
				dim.Fprintf(w, "    run %q %s\n", r.Text, describeRun(r))
			}
		}
	}

	dim.Fprintf(w, "\n--- %d blocks, %d words ---\n", len(doc.Nodes), doc.WordCount())
}

func describeRun(r docx.Run) string {
	var attrs []string
	if r.Style != "" {
		attrs = append(attrs, "style="+r.Style)
	}
	if r.Bold {
		attrs = append(attrs, "bold")
	}
	if r.Italic {
		attrs = append(attrs, "italic")
	}
	if r.Underline {
		attrs = append(attrs, "underline")
	}
	if r.Font != "" {
		attrs = append(attrs, "font="+r.Font)
	}
	if r.Size > 0 {
		attrs = append(attrs, fmt.Sprintf("size=%gpt", r.Size))
	}
	if r.Color != "" {
		attrs = append(attrs, "color="+r.Color)
	}
	return strings.Join(attrs, " ")
}

func outputStyles(w io.Writer, styles *docx.StyleRegistry) {
	if styles == nil {
		return
	}
	header := color.New(color.Bold)
	header.Fprintf(w, "\n%-12s %-10s %-14s %6s  %-6s %s\n", "ID", "TYPE", "FONT", "SIZE", "COLOR", "BOLD")
	for _, s := range styles.All() {
		size := ""
		if s.Size > 0 {
			size = fmt.Sprintf("%gpt", s.Size)
		}
		fmt.Fprintf(w, "%-12s %-10s %-14s %6s  %-6s %v\n", s.ID, s.Type, s.Font, size, s.Color, s.Bold)
	}
}
