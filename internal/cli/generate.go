package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clitheme/clitheme/internal/sections"
	"github.com/clitheme/clitheme/internal/store"
	"github.com/clitheme/clitheme/internal/themefs"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	OutputPath   string
	Overlay      bool
	InfofileName string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Compile a theme source file into a theme directory",
		Long: `Compile a theme source file into its theme-info/theme-data/manpages tree
and substitution rule store.

On success the output directory is printed on stdout and diagnostics
are printed on stderr.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OutputPath, "output-path", ".", "output theme directory")
	cmd.Flags().BoolVar(&opts.Overlay, "overlay", false, "compile into an existing theme directory without activating it")
	cmd.Flags().StringVar(&opts.InfofileName, "infofile-name", "default", "profile name under theme-info/")

	return cmd
}

func runGenerate(opts *GenerateOptions, sourcePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return WrapExitError(ExitEngineError, "reading theme source", err)
	}
	lines := strings.Split(string(raw), "\n")
	sourceDir := filepath.Dir(sourcePath)

	dataDir := filepath.Join(opts.OutputPath, "theme-data")
	infoDir := filepath.Join(opts.OutputPath, "theme-info", opts.InfofileName)
	res, g, err := sections.Compile(lines, sourceDir, dataDir, infoDir)
	if err != nil {
		_ = formatter.Error("E_COMPILE", err.Error(), nil)
		return WrapExitError(ExitEngineError, "compiling theme", err)
	}
	for _, w := range g.Warnings {
		formatter.VerboseLog("warning: line %d: %s", w.Line, w.Message)
	}

	if err := writeThemeInfo(infoDir, res); err != nil {
		return WrapExitError(ExitEngineError, "writing theme info", err)
	}

	dbPath := filepath.Join(opts.OutputPath, "subst-data.db")
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitEngineError, "opening rule store", err)
	}
	defer st.Close()

	for _, entry := range res.Rules {
		if _, err := st.AddSubstEntry(entry.Rule, entry.EffectiveCommands); err != nil {
			return WrapExitError(ExitEngineError, "inserting substrule", err)
		}
	}

	if !opts.Overlay {
		indexPath := filepath.Join(opts.OutputPath, "current_theme_index")
		if err := os.WriteFile(indexPath, []byte(opts.InfofileName+"\n"), 0o644); err != nil {
			return WrapExitError(ExitEngineError, "activating theme", err)
		}
	}

	return formatter.Success(opts.OutputPath)
}

func writeThemeInfo(infoDir string, res *sections.Result) error {
	fields := map[string]string{
		"clithemeinfo_name":        res.Info.Name,
		"clithemeinfo_description": res.Info.Description,
		"clithemeinfo_version":     res.Info.Version,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := themefs.WriteInfofile(infoDir, name, value); err != nil {
			return err
		}
	}
	if len(res.Info.Locales) > 0 {
		if err := themefs.WriteInfofile(infoDir, "clithemeinfo_locales_v2", strings.Join(res.Info.Locales, "\n")); err != nil {
			return err
		}
	}
	if len(res.Info.SupportedApps) > 0 {
		if err := themefs.WriteInfofile(infoDir, "clithemeinfo_supported_apps_v2", strings.Join(res.Info.SupportedApps, "\n")); err != nil {
			return err
		}
	}
	return nil
}
