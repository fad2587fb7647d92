// Package config provides CLI commands for configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/klytics/md2docx/internal/config"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage md2docx configuration",
		Long:  "View and modify md2docx settings stored in ~/.md2docx/config.yaml.",
	}

	cmd.AddCommand(newShowCommand())
	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newGetCommand())
	cmd.AddCommand(newResetCommand())
	cmd.AddCommand(newPathCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newEnvCommand())
	cmd.AddCommand(newKeysCommand())

	return cmd
}

func newShowCommand() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			switch {
			case jsonFlag:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(config.Settings())
			case asYAML:
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(config.Settings()); err != nil {
					return err
				}
				return enc.Close()
			}

			fmt.Fprint(out, config.ShowConfig())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the effective settings as YAML")
	return cmd
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !known(args[0]) {
				return fmt.Errorf("unknown config key %q (see 'md2docx config keys')", args[0])
			}
			val := config.Get(args[0])
			if val == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: (not set)\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], val)
			}
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ResetConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults")
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			issues := config.Validate()

			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(issues); err != nil {
					return err
				}
			} else {
				printIssues(out, issues)
			}

			if n := count(issues, "error"); n > 0 {
				return fmt.Errorf("configuration has %d error(s)", n)
			}
			return nil
		},
	}
}

var severityColor = map[string]*color.Color{
	"error":   color.New(color.FgRed),
	"warning": color.New(color.FgYellow),
	"info":    color.New(color.FgCyan),
}

func printIssues(out io.Writer, issues []config.Issue) {
	if len(issues) == 0 {
		color.New(color.FgGreen).Fprintln(out, "Configuration is valid")
		return
	}
	fmt.Fprintf(out, "Config validation: %d errors, %d warnings\n\n",
		count(issues, "error"), count(issues, "warning"))
	for _, issue := range issues {
		severityColor[issue.Severity].Fprintf(out, "  [%s] %s\n", issue.Key, issue.Message)
		if issue.Fix != "" {
			fmt.Fprintf(out, "     Fix: %s\n", issue.Fix)
		}
	}
}

func count(issues []config.Issue, severity string) int {
	n := 0
	for _, issue := range issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func known(name string) bool {
	for _, k := range config.Keys() {
		if k.Name == name {
			return true
		}
	}
	return false
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Export configuration as environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			env := config.ToEnv()

			if jsonFlag {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(env)
			}

			// Sort keys for deterministic output
			keys := make([]string, 0, len(env))
			for k := range env {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			for _, k := range keys {
				fmt.Fprintf(out, "export %s=%q\n", k, env[k])
			}
			return nil
		},
	}
}

func newKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the settings md2docx understands",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			keys := config.Keys()

			if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(keys)
			}

			for _, k := range keys {
				fmt.Fprintf(out, "%-18s %-7s %s\n", k.Name, k.Kind, k.Usage)
			}
			return nil
		},
	}
}
