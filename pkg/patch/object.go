package patch

import (
	"encoding/json"
	"maps"
)

// PortCountUnknown marks an inlet or outlet count as undeclared.
// Objects of unrecognized types are loaded with unknown counts; port
// range checks are skipped for them and surfaced by the consistency
// checker instead.
const PortCountUnknown = -1

// Extra is an opaque bag of host-document fields the model does not
// interpret. Keys are the original document field names; values are the
// raw JSON exactly as loaded. Everything in the bag is re-emitted
// verbatim on save so that unrecognized attributes (colors, fonts,
// saved state) survive a round trip.
type Extra map[string]json.RawMessage

// Clone returns a shallow copy of the bag. Raw values are immutable by
// convention, so sharing them between copies is safe.
func (e Extra) Clone() Extra {
	if e == nil {
		return nil
	}
	return maps.Clone(e)
}

// Rect is an object's position and size on the patcher canvas.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// DefaultRect is the box geometry used when placement does not specify
// a size. The values match a default-width Max object box.
var DefaultRect = Rect{Width: 66.0, Height: 22.0}

// Object is one patcher box: a node in the patch graph.
//
// Text is the box's type descriptor, the displayed text such as
// "cycle~ 440" (object name plus arguments). Inlets and Outlets are the
// declared port counts, or [PortCountUnknown] when the object's type is
// not recognized. Extra holds every box attribute the model does not
// interpret.
type Object struct {
	ID      string
	Text    string
	Rect    Rect
	Inlets  int
	Outlets int
	Extra   Extra
}

// PortsKnown reports whether both port counts are declared.
func (o *Object) PortsKnown() bool {
	return o.Inlets != PortCountUnknown && o.Outlets != PortCountUnknown
}

// portInRange reports whether the port index is valid for this object.
// Ports of unknown count are always accepted; the consistency checker
// flags them instead.
func (o *Object) portInRange(p Port) bool {
	switch p.Direction {
	case Outlet:
		return o.Outlets == PortCountUnknown || (p.Index >= 0 && p.Index < o.Outlets)
	default:
		return o.Inlets == PortCountUnknown || (p.Index >= 0 && p.Index < o.Inlets)
	}
}

// Connection is a directed cable from one object's outlet to another
// object's inlet. Extra preserves unrecognized patchline attributes
// (cable color, cord style) verbatim.
type Connection struct {
	Source      Port
	Destination Port
	Extra       Extra
}

// Endpoints reports whether the connection joins the given source and
// destination ports, ignoring Extra.
func (c Connection) Endpoints(src, dst Port) bool {
	return c.Source == src && c.Destination == dst
}

// Touches reports whether either endpoint references the object id.
func (c Connection) Touches(objectID string) bool {
	return c.Source.ObjectID == objectID || c.Destination.ObjectID == objectID
}
