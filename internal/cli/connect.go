package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
	"github.com/patchsmith/patchsmith/pkg/patch"
)

// resolvedEdge records how one connect argument resolved, for the
// command's data payload.
type resolvedEdge struct {
	Source      resolvedPort `json:"source"`
	Destination resolvedPort `json:"destination"`
	Mode        string       `json:"mode"`
}

type resolvedPort struct {
	Selector string `json:"selector"`
	ID       string `json:"id"`
	Index    int    `json:"index"`
}

// newConnectCmd creates the "connect" command. Edges are given either
// as --edge <src>:<outlet>-><dst>:<inlet> or as paired --from/--to
// endpoints; the whole batch is applied atomically.
func newConnectCmd(opts *globalOptions) *cobra.Command {
	var (
		inputPath  string
		outputPath string
		edges      []string
		fromEnds   []string
		toEnds     []string
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect outlets to inlets in an existing patch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "connect", func(ctx context.Context) (*result, error) {
				if len(edges) == 0 && len(fromEnds) == 0 && len(toEnds) == 0 {
					return nil, pserrors.New(pserrors.ErrCodeUsage,
						"connect requires at least one --edge or one --from/--to pair")
				}
				if (len(fromEnds) > 0) != (len(toEnds) > 0) {
					return nil, pserrors.New(pserrors.ErrCodeUsage, "--from and --to must be provided together")
				}
				if len(fromEnds) != len(toEnds) {
					return nil, pserrors.New(pserrors.ErrCodeUsage, "--from and --to must appear the same number of times")
				}

				p, err := loadPatch(inputPath)
				if err != nil {
					return nil, err
				}
				resolvedOutput, err := resolveOutputPath(inputPath, outputPath, opts.inPlace)
				if err != nil {
					return nil, err
				}

				var (
					pairs    []patch.Connection
					resolved []resolvedEdge
				)
				for _, raw := range edges {
					spec, err := parseEdge(raw)
					if err != nil {
						return nil, err
					}
					conn, re, err := resolveConnectArg(p, spec, "edge")
					if err != nil {
						return nil, err
					}
					pairs = append(pairs, conn)
					resolved = append(resolved, re)
				}
				for i := range fromEnds {
					srcSelector, srcIndex, err := parseEndpoint(fromEnds[i])
					if err != nil {
						return nil, err
					}
					dstSelector, dstIndex, err := parseEndpoint(toEnds[i])
					if err != nil {
						return nil, err
					}
					spec := edgeSpec{SrcSelector: srcSelector, SrcIndex: srcIndex, DstSelector: dstSelector, DstIndex: dstIndex}
					conn, re, err := resolveConnectArg(p, spec, "from_to")
					if err != nil {
						return nil, err
					}
					pairs = append(pairs, conn)
					resolved = append(resolved, re)
				}

				if err := p.Connect(pairs...); err != nil {
					return nil, pserrors.Wrap(pserrors.ErrCodeInvalidPort, err, "connect failed")
				}

				return finalizeMutation(ctx, opts, p, inputPath, resolvedOutput, &result{
					Message: fmt.Sprintf("connected %d edge(s)", len(pairs)),
					Changes: map[string]any{"connected": len(pairs)},
					Data:    map[string]any{"connections": resolved},
				})
			})
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "input .maxpat path")
	cmd.Flags().StringVar(&outputPath, "out", "", "output .maxpat path")
	cmd.Flags().StringArrayVar(&edges, "edge", nil, "edge formatted as <src>:<outlet>-><dst>:<inlet>")
	cmd.Flags().StringArrayVar(&fromEnds, "from", nil, "source endpoint formatted as <selector>:<outlet>")
	cmd.Flags().StringArrayVar(&toEnds, "to", nil, "destination endpoint formatted as <selector>:<inlet>")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func resolveConnectArg(p *patch.Patch, spec edgeSpec, mode string) (patch.Connection, resolvedEdge, error) {
	conn, err := resolveEdge(p, spec)
	if err != nil {
		return patch.Connection{}, resolvedEdge{}, err
	}
	re := resolvedEdge{
		Source:      resolvedPort{Selector: spec.SrcSelector, ID: conn.Source.ObjectID, Index: spec.SrcIndex},
		Destination: resolvedPort{Selector: spec.DstSelector, ID: conn.Destination.ObjectID, Index: spec.DstIndex},
		Mode:        mode,
	}
	return conn, re, nil
}
