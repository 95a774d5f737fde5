package cli

import (
	"context"
	"slices"

	"github.com/spf13/cobra"

	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
	"github.com/patchsmith/patchsmith/pkg/patch"
)

// newDeleteCmd creates the "delete" command, removing objects (with
// cascading cable removal) and/or individual edges.
func newDeleteCmd(opts *globalOptions) *cobra.Command {
	var (
		inputPath  string
		outputPath string
		selectors  []string
		edges      []string
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete objects and/or existing connections from a patch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "delete", func(ctx context.Context) (*result, error) {
				if len(selectors) == 0 && len(edges) == 0 {
					return nil, pserrors.New(pserrors.ErrCodeUsage, "delete requires at least one --obj or --edge")
				}

				p, err := loadPatch(inputPath)
				if err != nil {
					return nil, err
				}
				resolvedOutput, err := resolveOutputPath(inputPath, outputPath, opts.inPlace)
				if err != nil {
					return nil, err
				}

				var ids []string
				for _, selector := range selectors {
					o, err := resolveSelector(p, selector)
					if err != nil {
						return nil, err
					}
					if !slices.Contains(ids, o.ID) {
						ids = append(ids, o.ID)
					}
				}

				var pairs []patch.Connection
				for _, raw := range edges {
					spec, err := parseEdge(raw)
					if err != nil {
						return nil, err
					}
					conn, err := resolveEdge(p, spec)
					if err != nil {
						return nil, err
					}
					pairs = append(pairs, conn)
				}

				// Edges first: deleting an object cascades over its
				// cables, which would invalidate explicit edge pairs
				// naming the same object.
				if len(pairs) > 0 {
					if err := p.Disconnect(pairs...); err != nil {
						return nil, pserrors.Wrap(pserrors.ErrCodeConnectionNotFound, err, "delete failed")
					}
				}
				if len(ids) > 0 {
					if err := p.Delete(ids...); err != nil {
						return nil, pserrors.Wrap(pserrors.ErrCodeObjectNotFound, err, "delete failed")
					}
				}

				return finalizeMutation(ctx, opts, p, inputPath, resolvedOutput, &result{
					Message: "deleted requested objects/edges",
					Changes: map[string]any{"deleted_objects": len(ids), "deleted_edges": len(pairs)},
					Data: map[string]any{
						"deleted_object_ids": ids,
						"deleted_edges":      len(pairs),
					},
				})
			})
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "input .maxpat path")
	cmd.Flags().StringVar(&outputPath, "out", "", "output .maxpat path")
	cmd.Flags().StringArrayVar(&selectors, "obj", nil, "object selector to delete (repeatable)")
	cmd.Flags().StringArrayVar(&edges, "edge", nil, "edge formatted as <src>:<outlet>-><dst>:<inlet> to delete")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
