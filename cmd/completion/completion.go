// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for md2docx.

Install instructions:
  Bash:       md2docx completion bash > /etc/bash_completion.d/md2docx
              echo 'source <(md2docx completion bash)' >> ~/.bashrc
  Zsh:        md2docx completion zsh > ~/.zsh/completions/_md2docx
  Fish:       md2docx completion fish > ~/.config/fish/completions/md2docx.fish
  PowerShell: md2docx completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				fmt.Fprintln(out, "# md2docx bash completion")
				fmt.Fprintln(out, "# Install: md2docx completion bash > /etc/bash_completion.d/md2docx")
				fmt.Fprintln(out)
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				fmt.Fprintln(out, "# md2docx zsh completion")
				fmt.Fprintln(out, "# Install: md2docx completion zsh > ~/.zsh/completions/_md2docx")
				fmt.Fprintln(out)
				return rootCmd.GenZshCompletion(out)
			case "fish":
				fmt.Fprintln(out, "# md2docx fish completion")
				fmt.Fprintln(out)
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				fmt.Fprintln(out, "# md2docx PowerShell completion")
				fmt.Fprintln(out)
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}
		},
	}
	return cmd
}
