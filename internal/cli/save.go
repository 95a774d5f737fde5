package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// newSaveCmd creates the "save" command, which re-serializes a patch
// through the strict gate. With --out it behaves as a normalizing
// copy; with --in-place it rewrites the input.
func newSaveCmd(opts *globalOptions) *cobra.Command {
	var (
		inputPath  string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save or copy a patch file using CLI output and strict checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "save", func(ctx context.Context) (*result, error) {
				p, err := loadPatch(inputPath)
				if err != nil {
					return nil, err
				}
				resolvedOutput, err := resolveOutputPath(inputPath, outputPath, opts.inPlace)
				if err != nil {
					return nil, err
				}

				return finalizeMutation(ctx, opts, p, inputPath, resolvedOutput, &result{
					Message: "saved patch",
					Changes: map[string]any{"objects": p.ObjectCount()},
					Data:    map[string]any{"objects": p.ObjectCount()},
				})
			})
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "input .maxpat path")
	cmd.Flags().StringVar(&outputPath, "out", "", "output .maxpat path")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
