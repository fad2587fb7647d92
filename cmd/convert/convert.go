// Package convert provides the "md2docx convert" command for single and batch
// conversion.
package convert

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/md2docx/internal/config"
	conv "github.com/klytics/md2docx/internal/formats/convert"
)

// Options controls where converted files go and how they are reported.
type Options struct {
	Output  string // explicit output path, single input only
	OutDir  string
	JSON    bool
	Verbose bool
}

// NewCommand creates the "convert" command.
func NewCommand() *cobra.Command {
	var (
		output string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "convert <file|glob>...",
		Short: "Convert one or more Markdown files to .docx",
		Long: `Convert Markdown files to Word documents using pure Go. No Word, LibreOffice,
or external tools required.

Each input is written next to itself with a .docx extension unless --output or
--out-dir (or the output.dir setting) says otherwise. Quoted glob patterns are
expanded, and a file that fails to convert does not stop the rest.

Examples:
  md2docx convert README.md
  md2docx convert README.md --output dist/README.docx
  md2docx convert 'docs/*.md' --out-dir ./word/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if outDir == "" {
				if cfg, err := config.Load(); err == nil {
					outDir = cfg.Output.Dir
				}
			}

			opts := Options{Output: output, OutDir: outDir, JSON: jsonOut, Verbose: verbose}

			inputs, err := expandInputs(args)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No files matched the pattern.")
				return nil
			}
			if len(inputs) == 1 && !hasGlob(args) {
				return ConvertOne(cmd.OutOrStdout(), cmd.ErrOrStderr(), inputs[0], opts)
			}
			if output != "" {
				return fmt.Errorf("--output can only be used with a single input; use --out-dir for batches")
			}
			return batchConvert(cmd.OutOrStdout(), cmd.ErrOrStderr(), inputs, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (single input only)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory (default: beside each input)")

	return cmd
}

// ConvertOne converts a single file and reports the outcome on out.
func ConvertOne(out, errOut io.Writer, input string, opts Options) error {
	if opts.Output == "" && opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
			return fmt.Errorf("could not create %s: %w", opts.OutDir, err)
		}
	}

	start := time.Now()
	res, err := conv.ConvertFile(input, OutputPath(input, opts))
	if err != nil {
		return err
	}

	if opts.Verbose {
		fmt.Fprintf(errOut, "converted %s in %s: %d blocks, %d words, %d bytes\n",
			input, time.Since(start).Round(time.Millisecond), res.Blocks, res.Words, res.Bytes)
	}

	if opts.JSON {
		return json.NewEncoder(out).Encode(res)
	}

	color.New(color.FgGreen).Fprintf(out, "Successfully converted '%s' to '%s'\n", res.Input, res.Output)
	return nil
}

// OutputPath resolves the destination for input: an explicit output wins,
// then the output directory, then the input's own directory.
func OutputPath(input string, opts Options) string {
	if opts.Output != "" {
		return opts.Output
	}
	if opts.OutDir != "" {
		return filepath.Join(opts.OutDir, filepath.Base(conv.DefaultOutputPath(input)))
	}
	return conv.DefaultOutputPath(input)
}

func batchConvert(out, errOut io.Writer, inputs []string, opts Options) error {
	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
			return fmt.Errorf("could not create %s: %w", opts.OutDir, err)
		}
	}

	warn := color.New(color.FgYellow)
	var results []*conv.Result
	failed := 0

	for _, input := range inputs {
		res, err := conv.ConvertFile(input, OutputPath(input, opts))
		if err != nil {
			warn.Fprintf(errOut, "Warning: could not convert %s: %v\n", input, err)
			failed++
			continue
		}
		results = append(results, res)
		if opts.Verbose {
			fmt.Fprintf(errOut, "%s: %d blocks, %d words, %d bytes\n", input, res.Blocks, res.Words, res.Bytes)
		}
		if !opts.JSON {
			fmt.Fprintf(out, "Converted: %s → %s\n", res.Input, res.Output)
		}
	}

	if opts.JSON {
		if err := json.NewEncoder(out).Encode(results); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to convert", failed, len(inputs))
	}
	return nil
}

// expandInputs resolves glob arguments. Plain paths are kept even when they
// do not exist so that the conversion reports them as missing.
func expandInputs(args []string) ([]string, error) {
	var inputs []string
	seen := make(map[string]bool)
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			if !seen[arg] {
				seen[arg] = true
				inputs = append(inputs, arg)
			}
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		for _, m := range matches {
			if !seen[m] && conv.IsMarkdown(m) {
				seen[m] = true
				inputs = append(inputs, m)
			}
		}
	}
	return inputs, nil
}

func hasGlob(args []string) bool {
	for _, arg := range args {
		if strings.ContainsAny(arg, "*?[") {
			return true
		}
	}
	return false
}
