// Package cmd contains all CLI commands for the md2docx binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/md2docx/cmd/completion"
	cmdconfig "github.com/klytics/md2docx/cmd/config"
	cmdconvert "github.com/klytics/md2docx/cmd/convert"
	"github.com/klytics/md2docx/cmd/inspect"
	"github.com/klytics/md2docx/cmd/version"
	cmdwatch "github.com/klytics/md2docx/cmd/watch"
	"github.com/klytics/md2docx/internal/config"
)

var (
	jsonOutput bool
	verbose    bool
	noColor    bool
	cfgFile    string
	output     string
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
// Given a single file argument the root command converts it directly.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "md2docx <input.md>",
		Short: "Convert Markdown to Word documents",
		Long: `md2docx converts Markdown into .docx files that open cleanly in Word.

Headings, paragraphs, lists, code blocks, blockquotes, tables, rules, links and
inline emphasis are mapped onto Word paragraphs, runs and styles. YAML front
matter (title, author, description) becomes the document properties.

Examples:
  md2docx README.md
  md2docx notes.md -o notes-v2.docx
  md2docx convert 'docs/*.md' --out-dir build/
  md2docx watch start ./docs`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.SetFile(cfgFile)
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if noColor || !cfg.Output.Color {
				color.NoColor = true
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			opts := cmdconvert.Options{Output: output, JSON: jsonOutput, Verbose: verbose}
			if output == "" {
				if cfg, err := config.Load(); err == nil {
					opts.OutDir = cfg.Output.Dir
				}
			}
			return cmdconvert.ConvertOne(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print conversion statistics and timing")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.md2docx/config.yaml)")

	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output .docx path (default: input with .docx extension)")

	// Register subcommands
	rootCmd.AddCommand(cmdconvert.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(inspect.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
