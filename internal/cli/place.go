package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/patchsmith/patchsmith/pkg/config"
	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
	"github.com/patchsmith/patchsmith/pkg/patch"
)

// newPlaceCmd creates the "place" command, which inserts objects into
// an existing patch with a deterministic layout.
func newPlaceCmd(opts *globalOptions) *cobra.Command {
	var (
		inputPath   string
		outputPath  string
		objects     []string
		randPick    bool
		numObjs     int
		seed        int64
		weights     []float64
		spacingType string
		spacing     []float64
		positions   []string
		start       string
	)

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Place objects into an existing patch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "place", func(ctx context.Context) (*result, error) {
				p, err := loadPatch(inputPath)
				if err != nil {
					return nil, err
				}
				resolvedOutput, err := resolveOutputPath(inputPath, outputPath, opts.inPlace)
				if err != nil {
					return nil, err
				}

				placeOpts, err := buildPlaceOptions(randPick, numObjs, seed, weights, spacingType, spacing, positions, start)
				if err != nil {
					return nil, err
				}

				created, err := p.Place(objects, placeOpts)
				if err != nil {
					return nil, pserrors.Wrap(pserrors.ErrCodeUsage, err, "place failed")
				}
				declarePortCounts(ctx, opts, created)

				createdIDs := make([]string, len(created))
				for i, o := range created {
					createdIDs[i] = o.ID
				}

				prog := newProgress(loggerFromContext(ctx))
				res, err := finalizeMutation(ctx, opts, p, inputPath, resolvedOutput, &result{
					Message: fmt.Sprintf("placed %d object(s)", len(createdIDs)),
					Changes: map[string]any{"placed": len(createdIDs), "object_ids": createdIDs},
					Data: map[string]any{
						"placed_object_ids": createdIDs,
						"spacing_type":      strings.ToLower(spacingType),
						"seed":              seed,
					},
				})
				if err != nil {
					return nil, err
				}
				prog.done(fmt.Sprintf("Placed %d object(s)", len(createdIDs)))
				return res, nil
			})
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "input .maxpat path")
	cmd.Flags().StringVar(&outputPath, "out", "", "output .maxpat path")
	cmd.Flags().StringArrayVar(&objects, "obj", nil, "object text to place (repeatable)")
	cmd.Flags().BoolVar(&randPick, "randpick", false, "pick each placed object's text at random")
	cmd.Flags().IntVar(&numObjs, "num-objs", 1, "number of objects to place")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for random placement and selection")
	cmd.Flags().Float64SliceVar(&weights, "weight", nil, "weight for --randpick object selection")
	cmd.Flags().StringVar(&spacingType, "spacing-type", "grid", "layout rule: grid, random, custom, vertical")
	cmd.Flags().Float64SliceVar(&spacing, "spacing", nil, "spacing values (shape depends on spacing type)")
	cmd.Flags().StringArrayVar(&positions, "position", nil, "custom position formatted as x,y (repeat for each object)")
	cmd.Flags().StringVar(&start, "start", "", "starting position formatted as x,y")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("obj")

	return cmd
}

// buildPlaceOptions validates the spacing flag combinations and maps
// them onto the mutation engine's options.
func buildPlaceOptions(randPick bool, numObjs int, seed int64, weights []float64, spacingType string, spacing []float64, positions []string, start string) (patch.PlaceOptions, error) {
	placeOpts := patch.PlaceOptions{
		Count:    numObjs,
		RandPick: randPick,
		Seed:     seed,
		Inlets:   patch.PortCountUnknown,
		Outlets:  patch.PortCountUnknown,
	}

	if !randPick && len(weights) > 0 {
		return placeOpts, pserrors.New(pserrors.ErrCodeUsage, "--weight can only be used with --randpick")
	}
	placeOpts.Weights = weights

	if start != "" {
		pt, err := parsePoint(start)
		if err != nil {
			return placeOpts, err
		}
		placeOpts.StartX, placeOpts.StartY = pt[0], pt[1]
	}

	switch strings.ToLower(spacingType) {
	case "grid":
		placeOpts.Spacing = patch.SpacingGrid
		placeOpts.GridDX, placeOpts.GridDY = 80, 80
		if len(spacing) > 0 {
			if len(spacing) != 2 {
				return placeOpts, pserrors.New(pserrors.ErrCodeUsage, "grid spacing requires exactly 2 values")
			}
			placeOpts.GridDX, placeOpts.GridDY = spacing[0], spacing[1]
		}
		if len(positions) > 0 {
			return placeOpts, pserrors.New(pserrors.ErrCodeUsage, "--position is only valid with --spacing-type custom")
		}
	case "vertical":
		placeOpts.Spacing = patch.SpacingVertical
		placeOpts.VerticalDY = 80
		if len(spacing) > 0 {
			if len(spacing) != 1 {
				return placeOpts, pserrors.New(pserrors.ErrCodeUsage, "vertical spacing requires exactly 1 value")
			}
			placeOpts.VerticalDY = spacing[0]
		}
		if len(positions) > 0 {
			return placeOpts, pserrors.New(pserrors.ErrCodeUsage, "--position is only valid with --spacing-type custom")
		}
	case "random":
		placeOpts.Spacing = patch.SpacingRandom
		if len(spacing) > 0 {
			return placeOpts, pserrors.New(pserrors.ErrCodeUsage, "random spacing type does not accept --spacing")
		}
		if len(positions) > 0 {
			return placeOpts, pserrors.New(pserrors.ErrCodeUsage, "--position is only valid with --spacing-type custom")
		}
	case "custom":
		placeOpts.Spacing = patch.SpacingCustom
		if len(spacing) > 0 {
			return placeOpts, pserrors.New(pserrors.ErrCodeUsage, "custom spacing type does not accept --spacing")
		}
		if len(positions) == 0 {
			return placeOpts, pserrors.New(pserrors.ErrCodeUsage, "custom spacing type requires at least one --position x,y")
		}
		pts, err := parsePoints(positions)
		if err != nil {
			return placeOpts, err
		}
		placeOpts.Positions = pts
	default:
		return placeOpts, pserrors.New(pserrors.ErrCodeUsage, "unknown spacing type %q", spacingType)
	}

	return placeOpts, nil
}

// declarePortCounts fills in each created object's port counts from
// the dictionary so later connects can range-check. Unrecognized
// texts stay unknown.
func declarePortCounts(ctx context.Context, opts *globalOptions, created []*patch.Object) {
	cfg, _, err := loadConfigFile(opts.configPath)
	if err != nil {
		cfg = &config.Config{}
	}

	dict := loadDictionary(ctx, cfg)
	for _, o := range created {
		o.Inlets, o.Outlets = dict.Counts(o.Text)
	}
}
