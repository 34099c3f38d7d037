package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clitheme/clitheme/internal/rewriter"
	"github.com/clitheme/clitheme/internal/store"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	DBPath string
}

// NewExecCommand creates the exec command. Flag parsing is disabled:
// every argument after the leading --db-path belongs to the child
// command, not to clitheme itself.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:                "exec [--db-path P] <cmd> [args...]",
		Short:              "Spawn a command under a PTY with live output rewriting",
		Args:               cobra.MinimumNArgs(1),
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			childArgs, err := parseExecArgs(args, opts)
			if err != nil {
				return WrapExitError(ExitEngineError, "parsing arguments", err)
			}
			return runExec(opts, childArgs, cmd)
		},
	}

	opts.DBPath = defaultStorePath()
	return cmd
}

// parseExecArgs extracts a leading "--db-path P" (or "--db-path=P")
// from args and returns the remainder as the child command and its
// arguments.
func parseExecArgs(args []string, opts *ExecOptions) ([]string, error) {
	for len(args) > 0 {
		switch {
		case args[0] == "--db-path":
			if len(args) < 2 {
				return nil, WrapExitError(ExitEngineError, "--db-path requires a value", nil)
			}
			opts.DBPath = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--db-path="):
			opts.DBPath = strings.TrimPrefix(args[0], "--db-path=")
			args = args[1:]
		default:
			return args, nil
		}
	}
	return args, nil
}

func runExec(opts *ExecOptions, args []string, cmd *cobra.Command) error {
	if len(args) == 0 {
		return WrapExitError(ExitEngineError, "exec requires a command", nil)
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitEngineError, "opening rule store", err)
	}

	code, err := rewriter.Run(args[0], args[1:], st)
	st.Close()
	if err != nil {
		return WrapExitError(ExitEngineError, "running command under pty", err)
	}
	// The child's own exit status (or 128+N for a signal exit) is the
	// process's exit status, not ours to wrap in an ExitError.
	os.Exit(code)
	return nil
}

func defaultStorePath() string {
	return filepath.Join(dataRoot(), "clitheme", "subst-data.db")
}
