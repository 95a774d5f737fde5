package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
	"github.com/patchsmith/patchsmith/pkg/maxpat"
)

// newExportAMXDCmd creates the "export-amxd" command, packaging a
// patch as a Max for Live device with optional runtime validation in
// the Max application.
func newExportAMXDCmd(opts *globalOptions) *cobra.Command {
	var (
		inputPath  string
		outputPath string
		deviceName string
		category   string
		validate   bool
		timeout    float64
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "export-amxd",
		Short: "Export a patch to .amxd with optional runtime validation in Max",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "export-amxd", func(ctx context.Context) (*result, error) {
				p, err := loadPatch(inputPath)
				if err != nil {
					return nil, err
				}
				cfg, _, err := loadConfigFile(opts.configPath)
				if err != nil {
					return nil, err
				}
				h := collectHealth(ctx, p, cfg)
				if err := strictGuard(opts.strict, h); err != nil {
					return nil, err
				}

				err = maxpat.ExportAMXD(p, outputPath, maxpat.AMXDOptions{
					Name:      deviceName,
					Category:  category,
					Overwrite: overwrite,
				})
				switch {
				case errors.Is(err, maxpat.ErrBadExtension):
					return nil, pserrors.Wrap(pserrors.ErrCodeUsage, err, "output path must use the .amxd extension")
				case errors.Is(err, maxpat.ErrExists):
					return nil, pserrors.Wrap(pserrors.ErrCodeExportRefused, err,
						"output file already exists: %s (pass --overwrite to replace)", outputPath)
				case err != nil:
					return nil, pserrors.Wrap(pserrors.ErrCodeInternal, err, "export failed")
				}

				resolvedTimeout := cfg.WaitDuration()
				if timeout > 0 {
					resolvedTimeout = time.Duration(timeout * float64(time.Second))
				}

				message := "exported .amxd (validation skipped)"
				validated := false
				maxApp := ""
				if validate {
					maxApp, err = resolveMaxAppPath(cfg)
					if err != nil {
						return nil, err
					}
					if err := runMaxValidation(ctx, outputPath, maxApp, resolvedTimeout); err != nil {
						return nil, err
					}
					validated = true
					message = "exported .amxd and validated in Max"
				}

				return &result{
					Message:  message,
					Input:    inputPath,
					Output:   outputPath,
					Changes:  map[string]any{"objects": p.ObjectCount(), "exported": 1},
					Warnings: h.Warnings,
					Data: map[string]any{
						"validated":            validated,
						"validation_requested": validate,
						"max_app_path":         maxApp,
						"timeout_seconds":      resolvedTimeout.Seconds(),
						"output_extension":     ".amxd",
					},
				}, nil
			})
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "input .maxpat path")
	cmd.Flags().StringVar(&outputPath, "out", "", "output .amxd path")
	cmd.Flags().StringVar(&deviceName, "name", "", "device name stored in the export envelope")
	cmd.Flags().StringVar(&category, "category", "", "device category stored in the export envelope")
	cmd.Flags().BoolVar(&validate, "validate", false, "open exported file in Max to validate load/save behavior")
	cmd.Flags().Float64Var(&timeout, "timeout", 0, "validation timeout in seconds (defaults to configured wait_time)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "allow replacing an existing output file")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
