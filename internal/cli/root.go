package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/patchsmith/patchsmith/pkg/buildinfo"
	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	jsonOutput bool
	verbose    bool
	strict     bool
	inPlace    bool
	configPath string
}

// exitError carries a process exit code out of a cobra RunE without
// printing anything further; the response was already emitted.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// run executes a command action and emits its response. On failure the
// returned error is an exitError carrying the mapped exit code.
func (g *globalOptions) run(cmd *cobra.Command, command string, action func(ctx context.Context) (*result, error)) error {
	res, err := action(cmd.Context())
	if err != nil {
		if err := emitError(cmd.OutOrStdout(), g.jsonOutput, command, err); err != nil {
			return err
		}
		return &exitError{code: pserrors.ExitCode(err)}
	}
	return emitSuccess(cmd.OutOrStdout(), g.jsonOutput, command, res)
}

// NewRootCommand creates the root cobra command with all subcommands
// registered. Exposed for tests; Execute is the production entry
// point.
func NewRootCommand(opts *globalOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Patchsmith builds and edits Max patcher documents",
		Long:          `Patchsmith is a CLI tool for creating, mutating, checking, and exporting Max/MSP patcher documents (.maxpat), preserving every field it does not model.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.WarnLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output machine-readable JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&opts.strict, "strict", false, "fail when check warnings are present")
	root.PersistentFlags().BoolVar(&opts.inPlace, "in-place", false, "when --in is provided, write output back to the input file")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "configuration file (default ~/.config/patchsmith/config.toml)")

	root.AddCommand(newNewCmd(opts))
	root.AddCommand(newListObjectsCmd(opts))
	root.AddCommand(newPlaceCmd(opts))
	root.AddCommand(newConnectCmd(opts))
	root.AddCommand(newReplaceCmd(opts))
	root.AddCommand(newDeleteCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newSaveCmd(opts))
	root.AddCommand(newExportAMXDCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVizCmd(opts))

	return root
}

// Execute runs the patchsmith CLI and returns the process exit code.
//
// Exit codes follow the documented contract: 0 success, 2 usage,
// 3 resolution, 4 validation, 5 internal, 130 interrupted.
func Execute(ctx context.Context) int {
	opts := &globalOptions{}
	root := NewRootCommand(opts)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	// Cobra's own flag and argument failures never reach a RunE, so
	// they were not emitted yet.
	_ = emitError(os.Stderr, opts.jsonOutput, "cli", pserrors.New(pserrors.ErrCodeUsage, "%s", err.Error()))
	return pserrors.ExitUsage
}
