package maxpat

import (
	"encoding/json"

	"github.com/patchsmith/patchsmith/pkg/patch"
)

// defaultPatcherFields is the patcher-level boilerplate a freshly
// created document carries so Max will open it. The values sit in the
// opaque bag like any loaded field, so they round-trip untouched.
var defaultPatcherFields = map[string]string{
	"fileversion":        `1`,
	"appversion":         `{"major": 9, "minor": 0, "revision": 0, "architecture": "x64", "modernui": 1}`,
	"classnamespace":     `"box"`,
	"rect":               `[59.0, 119.0, 640.0, 480.0]`,
	"bglocked":           `0`,
	"openinpresentation": `0`,
	"default_fontsize":   `12.0`,
	"default_fontname":   `"Arial"`,
	"gridsize":           `[15.0, 15.0]`,
}

// NewPatch creates an empty patch carrying the default document
// template, ready to be edited and saved as a .maxpat Max can open.
// Use [ReadFile] instead to start from an existing template file.
func NewPatch() *patch.Patch {
	p := patch.New()
	p.Extra = make(patch.Extra, len(defaultPatcherFields))
	for k, v := range defaultPatcherFields {
		p.Extra[k] = json.RawMessage(v)
	}
	return p
}
