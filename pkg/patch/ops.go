package patch

import (
	"fmt"
	"math/rand"
)

// Spacing selects the deterministic layout rule used by [Patch.Place].
type Spacing string

const (
	// SpacingGrid lays objects out row-major, gridColumns per row.
	SpacingGrid Spacing = "grid"
	// SpacingVertical stacks objects in a single column.
	SpacingVertical Spacing = "vertical"
	// SpacingRandom scatters objects inside the canvas area using the
	// placement seed, so a repeated run with the same seed reproduces
	// the same layout.
	SpacingRandom Spacing = "random"
	// SpacingCustom uses caller-provided positions, one per object.
	SpacingCustom Spacing = "custom"
)

const gridColumns = 4

// randomCanvas is the area random placement scatters into.
var randomCanvas = Rect{X: 30, Y: 30, Width: 600, Height: 400}

// PlaceOptions configures [Patch.Place]. The zero value places one
// object per text on an 80x80 grid, declaring zero ports; callers that
// do not know an object's port counts pass PortCountUnknown for both.
type PlaceOptions struct {
	// Count is the number of objects created per text (or in total
	// when RandPick is set). Zero means one.
	Count int

	// RandPick places Count objects total, each picking its text at
	// random from the given texts, optionally biased by Weights
	// (parallel to the texts; zero weights mean uniform). Selection is
	// driven by Seed, so identical inputs reproduce identical patches.
	RandPick bool
	Weights  []float64
	Seed     int64

	// Spacing selects the layout rule. Empty means SpacingGrid.
	Spacing Spacing
	// GridDX/GridDY are the grid cell size (default 80x80).
	GridDX, GridDY float64
	// VerticalDY is the vertical stacking distance (default 80).
	VerticalDY float64
	// Positions supplies explicit coordinates for SpacingCustom, one
	// [x, y] pair per placed object.
	Positions [][2]float64
	// StartX/StartY offset the first object (grid and vertical).
	StartX, StartY float64

	// Inlets and Outlets declare the port counts of the created
	// objects. Use PortCountUnknown when the object type is not
	// recognized; range checks are then skipped and the consistency
	// checker reports instead.
	Inlets, Outlets int
}

// Place creates objects for the given box texts, assigns each a fresh
// id, lays them out per the options, and inserts them in creation
// order. The created objects are returned in that order.
//
// Place is atomic: option validation happens before any id is
// allocated or any object inserted.
func (p *Patch) Place(texts []string, opts PlaceOptions) ([]*Object, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("place: no object texts given")
	}
	count := opts.Count
	if count <= 0 {
		count = 1
	}
	if opts.RandPick && len(opts.Weights) > 0 && len(opts.Weights) != len(texts) {
		return nil, fmt.Errorf("place: %d weight(s) for %d text(s)", len(opts.Weights), len(texts))
	}

	chosen := pickTexts(texts, count, opts)
	positions, err := layoutPositions(len(chosen), opts)
	if err != nil {
		return nil, err
	}

	created := make([]*Object, len(chosen))
	for i, text := range chosen {
		created[i] = &Object{
			ID:      p.AllocateID(),
			Text:    text,
			Rect:    Rect{X: positions[i][0], Y: positions[i][1], Width: DefaultRect.Width, Height: DefaultRect.Height},
			Inlets:  opts.Inlets,
			Outlets: opts.Outlets,
		}
		if err := p.InsertObject(created[i]); err != nil {
			// Unreachable: ids are freshly allocated.
			return nil, err
		}
	}
	return created, nil
}

func pickTexts(texts []string, count int, opts PlaceOptions) []string {
	if !opts.RandPick {
		out := make([]string, 0, len(texts)*count)
		for _, t := range texts {
			for range count {
				out = append(out, t)
			}
		}
		return out
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	out := make([]string, count)
	for i := range out {
		out[i] = texts[weightedIndex(rng, len(texts), opts.Weights)]
	}
	return out
}

func weightedIndex(rng *rand.Rand, n int, weights []float64) int {
	if len(weights) == 0 {
		return rng.Intn(n)
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.Intn(n)
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return n - 1
}

func layoutPositions(n int, opts PlaceOptions) ([][2]float64, error) {
	spacing := opts.Spacing
	if spacing == "" {
		spacing = SpacingGrid
	}

	out := make([][2]float64, n)
	switch spacing {
	case SpacingGrid:
		dx, dy := opts.GridDX, opts.GridDY
		if dx <= 0 {
			dx = 80
		}
		if dy <= 0 {
			dy = 80
		}
		for i := range out {
			out[i] = [2]float64{
				opts.StartX + float64(i%gridColumns)*dx,
				opts.StartY + float64(i/gridColumns)*dy,
			}
		}
	case SpacingVertical:
		dy := opts.VerticalDY
		if dy <= 0 {
			dy = 80
		}
		for i := range out {
			out[i] = [2]float64{opts.StartX, opts.StartY + float64(i)*dy}
		}
	case SpacingRandom:
		rng := rand.New(rand.NewSource(opts.Seed))
		for i := range out {
			out[i] = [2]float64{
				randomCanvas.X + rng.Float64()*randomCanvas.Width,
				randomCanvas.Y + rng.Float64()*randomCanvas.Height,
			}
		}
	case SpacingCustom:
		if len(opts.Positions) != n {
			return nil, fmt.Errorf("place: %d position(s) for %d object(s)", len(opts.Positions), n)
		}
		copy(out, opts.Positions)
	default:
		return nil, fmt.Errorf("place: unknown spacing type %q", spacing)
	}
	return out, nil
}

// Connect adds cables for every (source outlet, destination inlet)
// pair. The whole batch is validated first: both objects must exist,
// directions must run outlet to inlet, and indexes must be inside the
// declared port counts wherever counts are known. On the first invalid
// pair Connect returns an error and applies nothing, so a multi-edge
// command can never leave a half-connected patch.
func (p *Patch) Connect(pairs ...Connection) error {
	for i := range pairs {
		if err := p.validateEndpoint(pairs[i].Source, Outlet); err != nil {
			return fmt.Errorf("pair %d: %w", i, err)
		}
		if err := p.validateEndpoint(pairs[i].Destination, Inlet); err != nil {
			return fmt.Errorf("pair %d: %w", i, err)
		}
	}
	for i := range pairs {
		c := pairs[i]
		// Invariants were checked above; InsertConnection cannot fail.
		if err := p.InsertConnection(&c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Patch) validateEndpoint(port Port, want Direction) error {
	if port.Direction != want {
		return fmt.Errorf("%w: %s must be an %s", ErrInvalidPort, port, want)
	}
	o, ok := p.objects[port.ObjectID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownObject, port.ObjectID)
	}
	if port.Index < 0 || !o.portInRange(port) {
		return fmt.Errorf("%w: %s out of range for %q", ErrInvalidPort, port, o.Text)
	}
	return nil
}

// ReplaceOptions configures [Patch.Replace].
type ReplaceOptions struct {
	// Retain rewires cables from the old object to the new one.
	// When false all incident cables are dropped.
	Retain bool
	// Inlets and Outlets declare the new object's port counts.
	Inlets, Outlets int
	// Extra seeds the new object's opaque attribute bag.
	Extra Extra
}

// ReplaceResult reports what [Patch.Replace] did.
type ReplaceResult struct {
	// Object is the replacement; it carries a freshly allocated id.
	Object *Object
	// Rewired counts the cables moved onto the replacement.
	Rewired int
	// Dropped lists cables that could not be kept because they
	// referenced a port the replacement does not have.
	Dropped []Connection
}

// Replace swaps the object's box text while keeping the surrounding
// cable topology: a replacement object with a new id takes the old
// object's position, and (when opts.Retain) every incident cable is
// rewired to the same-numbered port on the replacement. Cables whose
// port index falls outside the replacement's declared counts are
// removed and reported in the result, never silently kept. The old
// object is removed; its id is never reissued.
func (p *Patch) Replace(targetID, newText string, opts ReplaceOptions) (*ReplaceResult, error) {
	old, ok := p.objects[targetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, targetID)
	}

	repl := &Object{
		ID:      p.AllocateID(),
		Text:    newText,
		Rect:    old.Rect,
		Inlets:  opts.Inlets,
		Outlets: opts.Outlets,
		Extra:   opts.Extra.Clone(),
	}
	if err := p.InsertObject(repl); err != nil {
		return nil, err
	}

	res := &ReplaceResult{Object: repl}
	removed, err := p.RemoveObject(targetID)
	if err != nil {
		return nil, err
	}
	for _, c := range removed {
		moved := *c
		// Only the endpoints that land on the replacement are checked
		// against its counts; the far object's ports are untouched by
		// the swap. A self-loop lands both ends, so both are checked.
		keep := opts.Retain
		if moved.Source.ObjectID == targetID {
			moved.Source.ObjectID = repl.ID
			keep = keep && repl.portInRange(moved.Source)
		}
		if moved.Destination.ObjectID == targetID {
			moved.Destination.ObjectID = repl.ID
			keep = keep && repl.portInRange(moved.Destination)
		}
		if !keep {
			res.Dropped = append(res.Dropped, moved)
			continue
		}
		if err := p.InsertConnection(&moved); err != nil {
			return nil, err
		}
		res.Rewired++
	}
	return res, nil
}

// Delete removes the objects, cascading to every incident cable.
// The batch is validated first; if any id is unknown, nothing is
// removed. Duplicate ids in the batch are tolerated.
func (p *Patch) Delete(ids ...string) error {
	for _, id := range ids {
		if _, ok := p.objects[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownObject, id)
		}
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := p.RemoveObject(id); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect removes one cable per (source, destination) pair. The
// batch is validated first; if any pair has no cable, nothing is
// removed. With parallel cables, each listed pair removes one.
func (p *Patch) Disconnect(pairs ...Connection) error {
	if err := verifyDisconnectBatch(p.conns, pairs); err != nil {
		return err
	}
	for _, pair := range pairs {
		if err := p.RemoveConnection(pair.Source, pair.Destination); err != nil {
			return err
		}
	}
	return nil
}

// verifyDisconnectBatch verifies each pair can be matched against a distinct
// cable, accounting for duplicates within the batch.
func verifyDisconnectBatch(conns []*Connection, pairs []Connection) error {
	need := make(map[[2]Port]int, len(pairs))
	for _, pair := range pairs {
		need[[2]Port{pair.Source, pair.Destination}]++
	}
	for key, n := range need {
		have := 0
		for _, c := range conns {
			if c.Endpoints(key[0], key[1]) {
				have++
			}
		}
		if have < n {
			return fmt.Errorf("%w: %s -> %s", ErrUnknownConnection, key[0], key[1])
		}
	}
	return nil
}
