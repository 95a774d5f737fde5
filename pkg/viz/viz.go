// Package viz renders patcher graphs as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz,
// where boxes appear as nodes connected by cables. It gives a quick
// topology view of a .maxpat document without opening Max.
//
// # Usage
//
// Convert a patch to DOT format, then render to SVG:
//
//	dot := viz.ToDOT(p, viz.Options{Detailed: false})
//	svg, err := viz.RenderSVG(dot)
//
// # DOT Format
//
// The [ToDOT] function produces Graphviz DOT source that can be:
//
//   - Rendered directly via [RenderSVG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) with rounded
// box nodes, matching the signal-flow orientation of a Max patcher.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/patchsmith/patchsmith/pkg/patch"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes port counts and positions in node labels.
	// When false, only the id and box text are shown.
	Detailed bool

	// Ports labels each edge with its outlet and inlet indices.
	Ports bool
}

// ToDOT converts a patch to Graphviz DOT format for node-link
// visualization. The resulting DOT string can be rendered with
// [RenderSVG].
//
// Boxes without text (UI objects like ezdac~ read from a document)
// fall back to their id as the label.
func ToDOT(p *patch.Patch, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph patcher {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, o := range p.Objects() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", o.ID, boxLabel(o, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, c := range p.Connections() {
		if opts.Ports {
			fmt.Fprintf(&buf, "  %q -> %q [taillabel=%q, headlabel=%q];\n",
				c.Source.ObjectID, c.Destination.ObjectID,
				fmt.Sprintf("%d", c.Source.Index), fmt.Sprintf("%d", c.Destination.Index))
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", c.Source.ObjectID, c.Destination.ObjectID)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func boxLabel(o *patch.Object, detailed bool) string {
	label := o.Text
	if label == "" {
		label = o.ID
	} else {
		label = o.ID + "\n" + o.Text
	}
	if !detailed {
		return label
	}

	parts := []string{label}
	if o.PortsKnown() {
		parts = append(parts, fmt.Sprintf("in: %d  out: %d", o.Inlets, o.Outlets))
	}
	parts = append(parts, fmt.Sprintf("at: %.0f,%.0f", o.Rect.X, o.Rect.Y))
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
