package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/clitheme/clitheme/internal/locale"
	"github.com/clitheme/clitheme/internal/rewriter"
	"github.com/clitheme/clitheme/internal/store"
)

// FilterOptions holds flags for the filter command.
type FilterOptions struct {
	*RootOptions
	Command string
	Stderr  bool
	DBPath  string
}

// NewFilterCommand creates the filter command: a non-PTY harness that
// reads stdin whole, applies rules, and writes stdout.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "filter",
		Short:         "Apply substrules to stdin and write the result to stdout",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Command, "command", "", "effective command line to scope rules against")
	cmd.Flags().BoolVar(&opts.Stderr, "stderr", false, "treat stdin as the stderr stream")
	cmd.Flags().StringVar(&opts.DBPath, "db-path", defaultStorePath(), "path to the rule store")

	return cmd
}

func runFilter(opts *FilterOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitEngineError, "opening rule store", err)
	}
	defer st.Close()

	input, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitEngineError, "reading stdin", err)
	}

	locales := locale.Resolve(os.Getenv)
	rules, err := st.FetchSubstrules(opts.Command, locales)
	if err != nil {
		return WrapExitError(ExitEngineError, "fetching rules", err)
	}

	out, _ := rewriter.MatchContent(rules, string(input), opts.Stderr)
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	if err != nil {
		return WrapExitError(ExitEngineError, "writing stdout", err)
	}
	return nil
}
