package maxpat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/patchsmith/patchsmith/pkg/patch"
)

// Marshal serializes a Patch to patcher-document bytes.
// Boxes and lines appear in creation/insertion order.
func Marshal(p *patch.Patch) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(p, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes a Patch as an indented patcher document to w.
func Write(p *patch.Patch, w io.Writer) error {
	doc, err := buildDocument(p)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a Patch to the patcher document at path.
// The file is created with 0644 permissions.
func WriteFile(p *patch.Patch, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(p, f)
}

// buildDocument assembles the top-level document map: modeled fields
// merged back over the opaque bags.
func buildDocument(p *patch.Patch) (map[string]json.RawMessage, error) {
	patcher := make(map[string]json.RawMessage, len(p.Extra)+2)
	for k, v := range p.Extra {
		patcher[k] = v
	}

	boxes := make([]json.RawMessage, 0, p.ObjectCount())
	for _, o := range p.Objects() {
		raw, err := encodeBox(o)
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, raw)
	}
	rawBoxes, err := json.Marshal(boxes)
	if err != nil {
		return nil, fmt.Errorf("encode boxes: %w", err)
	}
	patcher["boxes"] = rawBoxes

	lines := make([]json.RawMessage, 0, p.ConnectionCount())
	for _, c := range p.Connections() {
		raw, err := encodeLine(c)
		if err != nil {
			return nil, err
		}
		lines = append(lines, raw)
	}
	rawLines, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("encode lines: %w", err)
	}
	patcher["lines"] = rawLines

	rawPatcher, err := json.Marshal(patcher)
	if err != nil {
		return nil, fmt.Errorf("encode patcher: %w", err)
	}

	doc := make(map[string]json.RawMessage, len(p.DocExtra)+1)
	for k, v := range p.DocExtra {
		doc[k] = v
	}
	doc["patcher"] = rawPatcher
	return doc, nil
}

func encodeBox(o *patch.Object) (json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(o.Extra)+6)
	for k, v := range o.Extra {
		fields[k] = v
	}

	fields[fieldID], _ = json.Marshal(o.ID)

	// A box whose descriptor came from its maxclass (ezdac~ and
	// friends) has no separate text field; re-emitting one would not
	// round-trip. Everything else gets its text back, and plain object
	// boxes get the regenerated "newobj" class.
	if o.Text != "" && o.Text != maxclassOf(fields) {
		fields[fieldText], _ = json.Marshal(o.Text)
	}
	if _, ok := fields[fieldMaxclass]; !ok {
		fields[fieldMaxclass], _ = json.Marshal(defaultMaxclass)
	}

	if o.Inlets != patch.PortCountUnknown {
		fields[fieldInlets], _ = json.Marshal(o.Inlets)
	}
	if o.Outlets != patch.PortCountUnknown {
		fields[fieldOutlets], _ = json.Marshal(o.Outlets)
	}
	if o.Rect != (patch.Rect{}) {
		fields[fieldRect], _ = json.Marshal([]float64{o.Rect.X, o.Rect.Y, o.Rect.Width, o.Rect.Height})
	}

	return wrapEntry("box", fields)
}

func encodeLine(c *patch.Connection) (json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(c.Extra)+2)
	for k, v := range c.Extra {
		fields[k] = v
	}
	fields["source"], _ = json.Marshal([]any{c.Source.ObjectID, c.Source.Index})
	fields["destination"], _ = json.Marshal([]any{c.Destination.ObjectID, c.Destination.Index})
	return wrapEntry("patchline", fields)
}

func wrapEntry(key string, fields map[string]json.RawMessage) (json.RawMessage, error) {
	inner, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return json.Marshal(map[string]json.RawMessage{key: inner})
}

func maxclassOf(fields map[string]json.RawMessage) string {
	raw, ok := fields[fieldMaxclass]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
