// Package watch provides the "md2docx watch" commands, which reconvert
// Markdown files as they change.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cmdconvert "github.com/klytics/md2docx/cmd/convert"
	"github.com/klytics/md2docx/internal/config"
	w "github.com/klytics/md2docx/internal/watch"
)

// NewCommand creates the "watch" command with subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reconvert Markdown files whenever they change",
		Long: `Watch directories for new or modified Markdown files and convert each one to
.docx once it has stopped changing.

Example:
  md2docx watch start ./docs --out-dir ./build
  md2docx watch status
  md2docx watch stop`,
	}

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func newStartCmd() *cobra.Command {
	var (
		extensions []string
		pattern    string
		recursive  bool
		debounce   int
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "start <directory> [directory...]",
		Short: "Start watching directories for Markdown changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("ext") {
				extensions = cfg.Watch.Extensions
			}
			if !cmd.Flags().Changed("recursive") {
				recursive = cfg.Watch.Recursive
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = cfg.Watch.Debounce
			}
			if outDir == "" {
				outDir = cfg.Output.Dir
			}

			for _, dir := range args {
				info, err := os.Stat(dir)
				if err != nil {
					return fmt.Errorf("could not watch %s: %w", dir, err)
				}
				if !info.IsDir() {
					return fmt.Errorf("could not watch %s: not a directory", dir)
				}
			}

			stateDir := config.Dir()
			if st, err := w.LoadState(stateDir); err == nil && st.Alive() && st.PID != os.Getpid() {
				return fmt.Errorf("a watcher is already running (PID %d)", st.PID)
			}

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			verbose, _ := cmd.Flags().GetBool("verbose")
			convOpts := cmdconvert.Options{OutDir: outDir, Verbose: verbose}

			opts := w.Options{
				Dirs:       args,
				Recursive:  recursive,
				Debounce:   time.Duration(debounce) * time.Millisecond,
				Extensions: extensions,
				Pattern:    pattern,
				OutDir:     outDir,
			}
			// Failures are logged by the watcher and do not stop it.
			watcher, err := w.New(opts, func(_ context.Context, src string) error {
				return cmdconvert.ConvertOne(out, errOut, src, convOpts)
			})
			if err != nil {
				return err
			}

			if err := w.SaveState(stateDir, watcher.Options()); err != nil {
				fmt.Fprintf(errOut, "Warning: could not save watch state: %v\n", err)
			}
			defer w.RemoveState(stateDir)

			fmt.Fprintf(out, "Watching %s (%s)\n", strings.Join(args, ", "), describeExtensions(extensions))
			fmt.Fprintln(out, "Press Ctrl+C to stop")

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := watcher.Run(ctx); err != nil {
				return err
			}

			stats := watcher.Stats()
			fmt.Fprintf(out, "\nStopped: %d converted, %d failed\n", stats.Converted, stats.Failed)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "File extensions to watch (default from watch.extensions)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Only convert files whose name matches this glob")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().IntVar(&debounce, "debounce", 500, "Debounce interval in milliseconds")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Write .docx files here instead of beside each source")

	return cmd
}

func describeExtensions(exts []string) string {
	if len(exts) == 0 {
		return "Markdown files"
	}
	return strings.Join(exts, ", ") + " files"
}

// runningState returns the live watcher state, clearing a stale file left
// behind by a process that no longer exists.
func runningState(dir string) (*w.State, error) {
	st, err := w.LoadState(dir)
	if err != nil {
		return nil, err
	}
	if !st.Alive() {
		w.RemoveState(dir)
		return nil, w.ErrNotRunning
	}
	return st, nil
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir := config.Dir()
			st, err := runningState(stateDir)
			if err != nil {
				return err
			}
			if err := st.Stop(); err != nil {
				return err
			}
			w.RemoveState(stateDir)

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"stopped": true,
					"pid":     st.PID,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped watcher (PID %d)\n", st.PID)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current watcher status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			jsonOut, _ := cmd.Flags().GetBool("json")

			st, err := runningState(config.Dir())
			if errors.Is(err, w.ErrNotRunning) {
				if jsonOut {
					return json.NewEncoder(out).Encode(map[string]any{"running": false})
				}
				fmt.Fprintln(out, "Watcher is not running")
				return nil
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"running": true,
					"pid":     st.PID,
					"started": st.Started,
					"options": st.Options,
				})
			}

			fmt.Fprintf(out, "Watcher is running (PID %d) since %s\n", st.PID, st.Started.Local().Format(time.DateTime))
			fmt.Fprintf(out, "  Directories: %s\n", strings.Join(st.Options.Dirs, ", "))
			fmt.Fprintf(out, "  Recursive:   %v\n", st.Options.Recursive)
			fmt.Fprintf(out, "  Debounce:    %s\n", st.Options.Debounce)
			if st.Options.Pattern != "" {
				fmt.Fprintf(out, "  Pattern:     %s\n", st.Options.Pattern)
			}
			if st.Options.OutDir != "" {
				fmt.Fprintf(out, "  Output:      %s\n", st.Options.OutDir)
			}
			return nil
		},
	}
}
