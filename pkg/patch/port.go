package patch

import "fmt"

// Direction distinguishes the two kinds of ports on an object.
type Direction int

const (
	// Inlet is an input port. Connections terminate at inlets.
	Inlet Direction = iota
	// Outlet is an output port. Connections originate at outlets.
	Outlet
)

// String returns "inlet" or "outlet".
func (d Direction) String() string {
	if d == Outlet {
		return "outlet"
	}
	return "inlet"
}

// Port addresses one inlet or outlet of one object. Ports are plain
// values: they are not independently owned and carry no pointer back
// into the patch. Indexes are zero-based; the valid range is determined
// by the referenced object's declared port counts.
type Port struct {
	ObjectID  string
	Index     int
	Direction Direction
}

// OutletOf returns a Port addressing outlet index idx of the object.
func OutletOf(objectID string, idx int) Port {
	return Port{ObjectID: objectID, Index: idx, Direction: Outlet}
}

// InletOf returns a Port addressing inlet index idx of the object.
func InletOf(objectID string, idx int) Port {
	return Port{ObjectID: objectID, Index: idx, Direction: Inlet}
}

// String formats the port as "obj-1:0 (outlet)".
func (p Port) String() string {
	return fmt.Sprintf("%s:%d (%s)", p.ObjectID, p.Index, p.Direction)
}
