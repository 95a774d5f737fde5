package maxpat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/patchsmith/patchsmith/pkg/patch"
)

// ErrMalformedDocument is returned when the input is not parseable as a
// patcher document envelope. A parseable document containing unknown
// object types is not malformed; those surface as checker findings.
var ErrMalformedDocument = errors.New("malformed patcher document")

// Box field names the model maps onto [patch.Object].
const (
	fieldID       = "id"
	fieldText     = "text"
	fieldMaxclass = "maxclass"
	fieldInlets   = "numinlets"
	fieldOutlets  = "numoutlets"
	fieldRect     = "patching_rect"
)

// defaultMaxclass is the box class regenerated by the encoder for
// plain object boxes, and therefore stripped from the opaque bag on
// load when the box carries text.
const defaultMaxclass = "newobj"

// Unmarshal parses a patcher document into a Patch.
func Unmarshal(data []byte) (*patch.Patch, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes a patcher document from r. The allocator of the
// returned patch is seeded past the highest "obj-N" suffix present, so
// subsequent placement cannot collide with loaded ids.
func Read(r io.Reader) (*patch.Patch, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	patcherRaw, ok := doc["patcher"]
	if !ok {
		return nil, fmt.Errorf("%w: missing top-level patcher", ErrMalformedDocument)
	}
	delete(doc, "patcher")

	var patcher map[string]json.RawMessage
	if err := json.Unmarshal(patcherRaw, &patcher); err != nil {
		return nil, fmt.Errorf("%w: patcher: %v", ErrMalformedDocument, err)
	}

	p := patch.New()
	if len(doc) > 0 {
		p.DocExtra = patch.Extra(doc)
	}

	if raw, ok := patcher["boxes"]; ok {
		delete(patcher, "boxes")
		if err := readBoxes(p, raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := patcher["lines"]; ok {
		delete(patcher, "lines")
		if err := readLines(p, raw); err != nil {
			return nil, err
		}
	}
	if len(patcher) > 0 {
		p.Extra = patch.Extra(patcher)
	}
	return p, nil
}

// ReadFile reads and decodes the patcher document at path.
func ReadFile(path string) (*patch.Patch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	p, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func readBoxes(p *patch.Patch, raw json.RawMessage) error {
	var entries []struct {
		Box json.RawMessage `json:"box"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("%w: boxes: %v", ErrMalformedDocument, err)
	}

	for i, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry.Box, &fields); err != nil {
			return fmt.Errorf("%w: box %d: %v", ErrMalformedDocument, i, err)
		}

		o := &patch.Object{Inlets: patch.PortCountUnknown, Outlets: patch.PortCountUnknown}
		if err := stringField(fields, fieldID, &o.ID); err != nil {
			return fmt.Errorf("%w: box %d: %v", ErrMalformedDocument, i, err)
		}
		if o.ID == "" {
			return fmt.Errorf("%w: box %d: missing id", ErrMalformedDocument, i)
		}
		if err := stringField(fields, fieldText, &o.Text); err != nil {
			return fmt.Errorf("%w: box %s: %v", ErrMalformedDocument, o.ID, err)
		}
		if err := intField(fields, fieldInlets, &o.Inlets); err != nil {
			return fmt.Errorf("%w: box %s: %v", ErrMalformedDocument, o.ID, err)
		}
		if err := intField(fields, fieldOutlets, &o.Outlets); err != nil {
			return fmt.Errorf("%w: box %s: %v", ErrMalformedDocument, o.ID, err)
		}
		if err := rectField(fields, &o.Rect); err != nil {
			return fmt.Errorf("%w: box %s: %v", ErrMalformedDocument, o.ID, err)
		}

		// A text-less box names its type through maxclass (ezdac~,
		// flonum, ...). A plain "newobj" class is regenerated by the
		// encoder, so it is dropped from the bag here to keep the
		// round-trip law exact.
		var maxclass string
		if err := stringField(fields, fieldMaxclass, &maxclass); err != nil {
			return fmt.Errorf("%w: box %s: %v", ErrMalformedDocument, o.ID, err)
		}
		switch {
		case o.Text == "" && maxclass != "":
			o.Text = maxclass
			fields[fieldMaxclass], _ = json.Marshal(maxclass)
		case maxclass != "" && maxclass != defaultMaxclass:
			fields[fieldMaxclass], _ = json.Marshal(maxclass)
		}

		if len(fields) > 0 {
			o.Extra = patch.Extra(fields)
		}
		if err := p.InsertObject(o); err != nil {
			return fmt.Errorf("%w: box %s: %v", ErrMalformedDocument, o.ID, err)
		}
	}
	return nil
}

func readLines(p *patch.Patch, raw json.RawMessage) error {
	var entries []struct {
		Patchline json.RawMessage `json:"patchline"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("%w: lines: %v", ErrMalformedDocument, err)
	}

	for i, entry := range entries {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry.Patchline, &fields); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformedDocument, i, err)
		}

		srcID, srcIdx, err := endpointField(fields, "source")
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformedDocument, i, err)
		}
		dstID, dstIdx, err := endpointField(fields, "destination")
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformedDocument, i, err)
		}

		c := &patch.Connection{
			Source:      patch.OutletOf(srcID, srcIdx),
			Destination: patch.InletOf(dstID, dstIdx),
		}
		if len(fields) > 0 {
			c.Extra = patch.Extra(fields)
		}
		// Port indexes are deliberately not range-checked on load;
		// dangling object references still fail.
		if err := p.InsertConnection(c); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformedDocument, i, err)
		}
	}
	return nil
}

// stringField extracts and removes a string field. Absent fields leave
// dst untouched.
func stringField(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	delete(fields, key)
	return nil
}

// intField extracts and removes an integer field. Absent fields leave
// dst untouched.
func intField(fields map[string]json.RawMessage, key string, dst *int) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %v", key, err)
	}
	delete(fields, key)
	return nil
}

// rectField extracts and removes patching_rect, accepting either
// [x, y] or [x, y, w, h].
func rectField(fields map[string]json.RawMessage, dst *patch.Rect) error {
	raw, ok := fields[fieldRect]
	if !ok {
		return nil
	}
	var vals []float64
	if err := json.Unmarshal(raw, &vals); err != nil {
		return fmt.Errorf("%s: %v", fieldRect, err)
	}
	if len(vals) != 2 && len(vals) != 4 {
		return fmt.Errorf("%s: want 2 or 4 values, got %d", fieldRect, len(vals))
	}
	dst.X, dst.Y = vals[0], vals[1]
	if len(vals) == 4 {
		dst.Width, dst.Height = vals[2], vals[3]
	}
	// The encoder emits the rect field only for nonzero rects. An
	// explicit all-zero rect stays in the bag so it survives a save
	// verbatim instead of vanishing.
	if *dst != (patch.Rect{}) {
		delete(fields, fieldRect)
	}
	return nil
}

// endpointField extracts and removes a patchline endpoint of the form
// ["obj-1", 0].
func endpointField(fields map[string]json.RawMessage, key string) (string, int, error) {
	raw, ok := fields[key]
	if !ok {
		return "", 0, fmt.Errorf("missing %s", key)
	}
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil {
		return "", 0, fmt.Errorf("%s: %v", key, err)
	}
	if len(pair) != 2 {
		return "", 0, fmt.Errorf("%s: want [id, index], got %d element(s)", key, len(pair))
	}
	var id string
	if err := json.Unmarshal(pair[0], &id); err != nil {
		return "", 0, fmt.Errorf("%s id: %v", key, err)
	}
	var idx int
	if err := json.Unmarshal(pair[1], &idx); err != nil {
		return "", 0, fmt.Errorf("%s index: %v", key, err)
	}
	delete(fields, key)
	return id, idx, nil
}
