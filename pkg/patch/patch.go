package patch

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrEmptyObjectID is returned by [Patch.InsertObject] when the
	// object id is empty. All objects must have non-empty identifiers.
	ErrEmptyObjectID = errors.New("object ID must not be empty")

	// ErrDuplicateObjectID is returned by [Patch.InsertObject] when an
	// object with the same id already exists. Object ids must be unique.
	ErrDuplicateObjectID = errors.New("duplicate object ID")

	// ErrUnknownObject is returned when an operation references an
	// object id not present in the patch.
	ErrUnknownObject = errors.New("unknown object")

	// ErrUnknownConnection is returned by [Patch.RemoveConnection] and
	// [Patch.Disconnect] when no cable joins the given ports.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrInvalidPort is returned by engine operations when a port index
	// is outside the declared inlet/outlet range of its object, or a
	// connection endpoint has the wrong direction.
	ErrInvalidPort = errors.New("invalid port")
)

// IDPrefix is the prefix of every allocated object identifier.
const IDPrefix = "obj-"

// Patch is the aggregate root: the in-memory patcher document.
//
// The zero value is not usable; create instances with [New]. See the
// package documentation for the invariants Patch maintains and the
// split between structural mutators and engine operations.
type Patch struct {
	objects map[string]*Object
	order   []string // object ids in creation order
	conns   []*Connection

	nextID int // next allocator suffix; only ever increases

	// Extra holds unrecognized patcher-level fields (rect, appversion,
	// saved dependencies, ...). DocExtra holds top-level document
	// fields other than "patcher". Both round-trip verbatim.
	Extra    Extra
	DocExtra Extra
}

// New creates an empty patch with the allocator at obj-1.
func New() *Patch {
	return &Patch{
		objects: make(map[string]*Object),
		nextID:  1,
	}
}

// AllocateID issues the next object identifier. Identifiers are
// "obj-N" with a strictly increasing N; ids are never reused after
// deletion, so references held outside the patch cannot rebind.
func (p *Patch) AllocateID() string {
	id := IDPrefix + strconv.Itoa(p.nextID)
	p.nextID++
	return id
}

// SeedAllocator advances the allocator so that the next issued suffix
// is strictly greater than n. Seeding never moves the allocator
// backwards. The deserializer calls this with the highest suffix found
// in a loaded document.
func (p *Patch) SeedAllocator(n int) {
	if n >= p.nextID {
		p.nextID = n + 1
	}
}

// IDSuffix parses the numeric suffix of an "obj-N" identifier.
// The second result is false for ids in any other shape.
func IDSuffix(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, IDPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Object returns the object with the given id and true, or nil and
// false if not found. The pointer refers to the live object; callers
// may adjust Rect or Extra but must not change ID.
func (p *Patch) Object(id string) (*Object, bool) {
	o, ok := p.objects[id]
	return o, ok
}

// Objects returns all objects in creation order. The slice is freshly
// allocated but the pointers refer to the live objects.
func (p *Patch) Objects() []*Object {
	out := make([]*Object, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.objects[id])
	}
	return out
}

// Connections returns all cables in insertion order. The slice is a
// copy; the pointers refer to the live connections.
func (p *Patch) Connections() []*Connection {
	return slices.Clone(p.conns)
}

// ObjectCount returns the number of objects in the patch.
func (p *Patch) ObjectCount() int { return len(p.objects) }

// ConnectionCount returns the number of cables in the patch.
func (p *Patch) ConnectionCount() int { return len(p.conns) }

// ConnectionsAt returns the cables incident to the given port, in
// insertion order.
func (p *Patch) ConnectionsAt(port Port) []*Connection {
	var out []*Connection
	for _, c := range p.conns {
		if c.Source == port || c.Destination == port {
			out = append(out, c)
		}
	}
	return out
}

// InsertObject adds an object to the patch, recording creation order.
// Returns ErrEmptyObjectID or ErrDuplicateObjectID on violation. When
// the id has the allocated "obj-N" shape the allocator is advanced past
// N so later allocations cannot collide.
func (p *Patch) InsertObject(o *Object) error {
	if o.ID == "" {
		return ErrEmptyObjectID
	}
	if _, exists := p.objects[o.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateObjectID, o.ID)
	}
	p.objects[o.ID] = o
	p.order = append(p.order, o.ID)
	if n, ok := IDSuffix(o.ID); ok {
		p.SeedAllocator(n)
	}
	return nil
}

// RemoveObject deletes the object and every cable incident to it.
// The removed cables are returned in their former insertion order.
// Returns ErrUnknownObject if the id is not present. The allocator is
// unaffected: the id will never be reissued.
func (p *Patch) RemoveObject(id string) ([]*Connection, error) {
	if _, ok := p.objects[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, id)
	}
	var removed []*Connection
	p.conns = slices.DeleteFunc(p.conns, func(c *Connection) bool {
		if c.Touches(id) {
			removed = append(removed, c)
			return true
		}
		return false
	})
	delete(p.objects, id)
	p.order = slices.DeleteFunc(p.order, func(s string) bool { return s == id })
	return removed, nil
}

// InsertConnection appends a cable. Both endpoint objects must exist
// and the endpoints must run outlet to inlet; port indexes are not
// range-checked here, so documents with out-of-range indexes remain
// loadable (the consistency checker reports them). Parallel cables
// between the same ports are kept.
func (p *Patch) InsertConnection(c *Connection) error {
	if c.Source.Direction != Outlet || c.Destination.Direction != Inlet {
		return fmt.Errorf("%w: connection must run outlet to inlet", ErrInvalidPort)
	}
	if _, ok := p.objects[c.Source.ObjectID]; !ok {
		return fmt.Errorf("%w: source %s", ErrUnknownObject, c.Source.ObjectID)
	}
	if _, ok := p.objects[c.Destination.ObjectID]; !ok {
		return fmt.Errorf("%w: destination %s", ErrUnknownObject, c.Destination.ObjectID)
	}
	p.conns = append(p.conns, c)
	return nil
}

// RemoveConnection removes the first cable joining src to dst.
// Returns ErrUnknownConnection if no such cable exists. When parallel
// cables join the same ports only one is removed per call.
func (p *Patch) RemoveConnection(src, dst Port) error {
	for i, c := range p.conns {
		if c.Endpoints(src, dst) {
			p.conns = slices.Delete(p.conns, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrUnknownConnection, src, dst)
}
