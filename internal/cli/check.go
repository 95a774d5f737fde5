package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/patchsmith/patchsmith/pkg/check"
)

// newCheckCmd creates the "check" command. Findings are data, not
// errors: the command exits zero even when the patch has problems,
// unless --strict is set.
func newCheckCmd(opts *globalOptions) *cobra.Command {
	var (
		inputPath     string
		unlinkedPorts bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Inspect a patch for unknown objects and dangling or out-of-range cables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "check", func(ctx context.Context) (*result, error) {
				p, err := loadPatch(inputPath)
				if err != nil {
					return nil, err
				}
				cfg, _, err := loadConfigFile(opts.configPath)
				if err != nil {
					return nil, err
				}

				dict := loadDictionary(ctx, cfg)
				findings := check.Run(p, check.Options{
					Known:         dict.Known,
					UnlinkedPorts: unlinkedPorts,
				})

				warnings := make([]string, 0, len(findings))
				for _, f := range findings {
					warnings = append(warnings, f.Message)
				}
				if err := strictGuard(opts.strict, health{Findings: findings, Warnings: warnings}); err != nil {
					return nil, err
				}

				return &result{
					Message: "patch check completed",
					Input:   inputPath,
					Changes: map[string]any{
						"objects":     p.ObjectCount(),
						"connections": p.ConnectionCount(),
						"errors":      check.Errors(findings),
						"warnings":    check.Warnings(findings),
					},
					Warnings: warnings,
					Data:     map[string]any{"findings": findings},
				}, nil
			})
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "input .maxpat path")
	cmd.Flags().BoolVar(&unlinkedPorts, "unlinked-ports", false, "also report declared ports with no cable attached")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
