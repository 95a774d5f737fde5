package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patchsmith/patchsmith/pkg/check"
	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
	"github.com/patchsmith/patchsmith/pkg/patch"
)

// newReplaceCmd creates the "replace" command, which swaps an object's
// text while rewiring compatible patchcords onto the replacement.
func newReplaceCmd(opts *globalOptions) *cobra.Command {
	var (
		inputPath   string
		outputPath  string
		target      string
		replacement string
		retain      bool
		attrs       []string
	)

	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Replace an object while preserving compatible patchcords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, "replace", func(ctx context.Context) (*result, error) {
				p, err := loadPatch(inputPath)
				if err != nil {
					return nil, err
				}
				resolvedOutput, err := resolveOutputPath(inputPath, outputPath, opts.inPlace)
				if err != nil {
					return nil, err
				}

				targetObj, err := resolveSelector(p, target)
				if err != nil {
					return nil, err
				}
				parsedAttrs, err := parseAttrPairs(attrs)
				if err != nil {
					return nil, err
				}

				cfg, _, err := loadConfigFile(opts.configPath)
				if err != nil {
					return nil, err
				}
				inlets, outlets := loadDictionary(ctx, cfg).Counts(replacement)

				replaceRes, err := p.Replace(targetObj.ID, replacement, patch.ReplaceOptions{
					Retain:  retain,
					Inlets:  inlets,
					Outlets: outlets,
					Extra:   parsedAttrs,
				})
				if err != nil {
					return nil, pserrors.Wrap(pserrors.ErrCodeInvalidPort, err, "replace failed")
				}

				return finalizeMutation(ctx, opts, p, inputPath, resolvedOutput, &result{
					Message: fmt.Sprintf("replaced %s", targetObj.ID),
					Changes: map[string]any{
						"replaced": targetObj.ID,
						"new_id":   replaceRes.Object.ID,
						"new_name": check.ObjectName(replacement),
					},
					Data: map[string]any{
						"target":      targetObj.ID,
						"replacement": replacement,
						"retain":      retain,
						"rewired":     replaceRes.Rewired,
						"dropped":     len(replaceRes.Dropped),
						"attributes":  attrs,
					},
				})
			})
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "input .maxpat path")
	cmd.Flags().StringVar(&outputPath, "out", "", "output .maxpat path")
	cmd.Flags().StringVar(&target, "target", "", "target selector (obj-id or @alias:name)")
	cmd.Flags().StringVar(&replacement, "with", "", "replacement object text")
	cmd.Flags().BoolVar(&retain, "retain", true, "rewire compatible patchcords onto the replacement")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "replacement attribute as key=value")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("with")

	return cmd
}
