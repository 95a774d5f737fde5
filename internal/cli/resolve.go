package cli

import (
	"encoding/json"
	"strconv"
	"strings"

	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
	"github.com/patchsmith/patchsmith/pkg/patch"
)

// aliasPrefix marks a selector that resolves by varname alias only.
const aliasPrefix = "@alias:"

// resolveSelector resolves a selector string to an object.
//
// Selector rules:
//   - `obj-<n>` resolves by patch id.
//   - `@alias:<name>` resolves by varname alias.
//   - otherwise tries id first, then alias.
//
// Alias matches must be unique; an ambiguous alias is a resolution
// error listing the matching ids.
func resolveSelector(p *patch.Patch, selector string) (*patch.Object, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, pserrors.New(pserrors.ErrCodeBadSelector, "selector cannot be empty")
	}

	if o, ok := p.Object(selector); ok {
		return o, nil
	}

	var alias string
	switch {
	case strings.HasPrefix(selector, aliasPrefix):
		alias = strings.TrimSpace(strings.TrimPrefix(selector, aliasPrefix))
		if alias == "" {
			return nil, pserrors.New(pserrors.ErrCodeBadSelector, "alias selector must be formatted as @alias:<name>")
		}
	case !strings.HasPrefix(selector, patch.IDPrefix):
		alias = selector
	default:
		return nil, pserrors.New(pserrors.ErrCodeObjectNotFound, "object not found: %s", selector)
	}

	var matches []*patch.Object
	for _, o := range p.Objects() {
		if aliasOf(o) == alias {
			matches = append(matches, o)
		}
	}

	switch len(matches) {
	case 0:
		return nil, pserrors.New(pserrors.ErrCodeObjectNotFound, "alias not found: %s", alias)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, o := range matches {
			ids[i] = o.ID
		}
		return nil, pserrors.New(pserrors.ErrCodeObjectNotFound,
			"alias %q is ambiguous (matches: %s)", alias, strings.Join(ids, ", "))
	}
}

// aliasOf extracts the varname alias from an object's preserved
// fields. Objects without a varname have no alias.
func aliasOf(o *patch.Object) string {
	raw, ok := o.Extra["varname"]
	if !ok {
		return ""
	}
	var alias string
	if err := json.Unmarshal(raw, &alias); err != nil {
		return ""
	}
	return alias
}

// parseEndpoint parses an endpoint string `<selector>:<index>`.
// The index is taken from the last colon so selectors containing
// colons (aliases) still parse.
func parseEndpoint(endpoint string) (selector string, index int, err error) {
	cut := strings.LastIndex(endpoint, ":")
	if cut < 0 {
		return "", 0, pserrors.New(pserrors.ErrCodeBadEdge,
			"endpoint %q must be formatted as <selector>:<index>", endpoint)
	}

	selector = strings.TrimSpace(endpoint[:cut])
	rawIndex := strings.TrimSpace(endpoint[cut+1:])

	if selector == "" {
		return "", 0, pserrors.New(pserrors.ErrCodeBadEdge, "endpoint %q has an empty selector", endpoint)
	}
	index, convErr := strconv.Atoi(rawIndex)
	if convErr != nil {
		return "", 0, pserrors.New(pserrors.ErrCodeBadEdge, "endpoint %q index must be an integer", endpoint)
	}
	if index < 0 {
		return "", 0, pserrors.New(pserrors.ErrCodeBadEdge, "endpoint %q index must be >= 0", endpoint)
	}
	return selector, index, nil
}

// edgeSpec is a parsed `<src>:<outlet>-><dst>:<inlet>` argument.
type edgeSpec struct {
	SrcSelector string
	SrcIndex    int
	DstSelector string
	DstIndex    int
}

// parseEdge parses an edge string `<src>:<outlet>-><dst>:<inlet>`.
func parseEdge(edge string) (edgeSpec, error) {
	src, dst, ok := strings.Cut(edge, "->")
	if !ok {
		return edgeSpec{}, pserrors.New(pserrors.ErrCodeBadEdge,
			"edge %q must be formatted as <src>:<outlet>-><dst>:<inlet>", edge)
	}

	srcSelector, srcIndex, err := parseEndpoint(src)
	if err != nil {
		return edgeSpec{}, err
	}
	dstSelector, dstIndex, err := parseEndpoint(dst)
	if err != nil {
		return edgeSpec{}, err
	}
	return edgeSpec{
		SrcSelector: srcSelector,
		SrcIndex:    srcIndex,
		DstSelector: dstSelector,
		DstIndex:    dstIndex,
	}, nil
}

// resolveOutlet resolves a selector and outlet index to a port,
// rejecting out-of-range indices when the object declares its counts.
func resolveOutlet(p *patch.Patch, selector string, index int) (patch.Port, error) {
	o, err := resolveSelector(p, selector)
	if err != nil {
		return patch.Port{}, err
	}
	if o.Outlets != patch.PortCountUnknown && index >= o.Outlets {
		return patch.Port{}, pserrors.New(pserrors.ErrCodeObjectNotFound,
			"outlet index %d out of range for %s (%d outlet(s))", index, o.ID, o.Outlets)
	}
	return patch.OutletOf(o.ID, index), nil
}

// resolveInlet resolves a selector and inlet index to a port.
func resolveInlet(p *patch.Patch, selector string, index int) (patch.Port, error) {
	o, err := resolveSelector(p, selector)
	if err != nil {
		return patch.Port{}, err
	}
	if o.Inlets != patch.PortCountUnknown && index >= o.Inlets {
		return patch.Port{}, pserrors.New(pserrors.ErrCodeObjectNotFound,
			"inlet index %d out of range for %s (%d inlet(s))", index, o.ID, o.Inlets)
	}
	return patch.InletOf(o.ID, index), nil
}

// resolveEdge resolves a parsed edge to a connection ready for the
// mutation engine.
func resolveEdge(p *patch.Patch, spec edgeSpec) (patch.Connection, error) {
	src, err := resolveOutlet(p, spec.SrcSelector, spec.SrcIndex)
	if err != nil {
		return patch.Connection{}, err
	}
	dst, err := resolveInlet(p, spec.DstSelector, spec.DstIndex)
	if err != nil {
		return patch.Connection{}, err
	}
	return patch.Connection{Source: src, Destination: dst}, nil
}
