package cli

import (
	"context"

	"github.com/spf13/cobra"

	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
	"github.com/patchsmith/patchsmith/pkg/maxpat"
	"github.com/patchsmith/patchsmith/pkg/patch"
)

// newNewCmd creates the "new" command, which writes a fresh patch from
// the default template or an existing .maxpat used as a template.
func newNewCmd(opts *globalOptions) *cobra.Command {
	var (
		template   string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a new patch from default or provided template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "new", func(ctx context.Context) (*result, error) {
				if outputPath == "" {
					return nil, pserrors.New(pserrors.ErrCodeUsage, "missing required --out")
				}

				var p *patch.Patch
				templateName := "default"
				if template != "" {
					loaded, err := loadPatch(template)
					if err != nil {
						return nil, err
					}
					p = loaded
					templateName = template
				} else {
					p = maxpat.NewPatch()
				}

				cfg, _, err := loadConfigFile(opts.configPath)
				if err != nil {
					return nil, err
				}
				h := collectHealth(ctx, p, cfg)
				if err := strictGuard(opts.strict, h); err != nil {
					return nil, err
				}
				if err := savePatch(p, outputPath); err != nil {
					return nil, err
				}

				return &result{
					Message:  "created patch",
					Output:   outputPath,
					Changes:  map[string]any{"objects": p.ObjectCount()},
					Warnings: h.Warnings,
					Data: map[string]any{
						"template": templateName,
						"objects":  p.ObjectCount(),
					},
				}, nil
			})
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "template path")
	cmd.Flags().StringVar(&outputPath, "out", "", "output .maxpat path")

	return cmd
}
