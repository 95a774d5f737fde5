// Package maxpat converts between the in-memory [patch.Patch] model and
// the Max patcher document format (.maxpat), and produces the packaged
// Max for Live device variant (.amxd).
//
// # Document Shape
//
// A patcher document is nested JSON:
//
//	{
//	  "patcher": {
//	    "fileversion": 1,
//	    "boxes": [{"box": {"id": "obj-1", "text": "cycle~ 440", ...}}],
//	    "lines": [{"patchline": {"source": ["obj-1", 0],
//	                             "destination": ["obj-2", 0]}}]
//	  }
//	}
//
// The model extracts only a handful of box fields (id, text, numinlets,
// numoutlets, patching_rect) and the patchline endpoints. Every other
// field (box colors, fonts, saved state, patcher window geometry,
// unknown file versions, unknown top-level keys) is carried through an
// opaque attribute bag and re-emitted value-for-value on save, so a
// document written by a newer Max than this package knows about
// survives a load/edit/save cycle intact.
//
// # Ordering
//
// Boxes and lines are emitted in the patch's creation/insertion order,
// which loading preserves. Object keys inside each JSON object are
// emitted sorted, so output is deterministic.
//
// # Round Trip
//
// For any patch reachable through the engine operations,
// Unmarshal(Marshal(p)) yields a patch with identical modeled fields
// and identical opaque-bag contents.
package maxpat
