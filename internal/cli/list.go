package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newListObjectsCmd creates the "list-objects" command.
func newListObjectsCmd(opts *globalOptions) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "list-objects",
		Short: "List objects in a patch with ids, text, aliases, and port counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "list-objects", func(ctx context.Context) (*result, error) {
				p, err := loadPatch(inputPath)
				if err != nil {
					return nil, err
				}

				objects := make([]objectSummary, 0, p.ObjectCount())
				for _, o := range sortedObjects(p) {
					objects = append(objects, summarize(o))
				}

				return &result{
					Message: fmt.Sprintf("listed %d object(s)", len(objects)),
					Input:   inputPath,
					Changes: map[string]any{"objects": len(objects)},
					Data:    map[string]any{"objects": objects},
				}, nil
			})
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "input .maxpat path")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
