package patch_test

import (
	"fmt"

	"github.com/patchsmith/patchsmith/pkg/patch"
)

func ExamplePatch_basic() {
	// Build a minimal signal chain: an oscillator into the output.
	p := patch.New()
	_ = p.InsertObject(&patch.Object{ID: p.AllocateID(), Text: "cycle~ 440", Inlets: 2, Outlets: 1})
	_ = p.InsertObject(&patch.Object{ID: p.AllocateID(), Text: "ezdac~", Inlets: 2})
	_ = p.Connect(patch.Connection{
		Source:      patch.OutletOf("obj-1", 0),
		Destination: patch.InletOf("obj-2", 0),
	})

	fmt.Println("Objects:", p.ObjectCount())
	fmt.Println("Connections:", p.ConnectionCount())
	// Output:
	// Objects: 2
	// Connections: 1
}

func ExamplePatch_Place() {
	// Place lays out several objects at once with a deterministic rule.
	p := patch.New()
	created, _ := p.Place([]string{"metro 100", "counter", "print"}, patch.PlaceOptions{
		Spacing:    patch.SpacingVertical,
		VerticalDY: 40,
	})

	for _, o := range created {
		fmt.Printf("%s %q at y=%.0f\n", o.ID, o.Text, o.Rect.Y)
	}
	// Output:
	// obj-1 "metro 100" at y=0
	// obj-2 "counter" at y=40
	// obj-3 "print" at y=80
}

func ExamplePatch_Replace() {
	// Replace swaps an object's text while rewiring its cables.
	p := patch.New()
	_ = p.InsertObject(&patch.Object{ID: "obj-1", Text: "cycle~ 440", Inlets: 2, Outlets: 1})
	_ = p.InsertObject(&patch.Object{ID: "obj-2", Text: "ezdac~", Inlets: 2})
	_ = p.InsertConnection(&patch.Connection{
		Source:      patch.OutletOf("obj-1", 0),
		Destination: patch.InletOf("obj-2", 0),
	})

	res, _ := p.Replace("obj-1", "saw~ 220", patch.ReplaceOptions{Retain: true, Inlets: 2, Outlets: 1})
	fmt.Println("Replacement:", res.Object.ID, res.Object.Text)
	fmt.Println("Rewired:", res.Rewired)
	// Output:
	// Replacement: obj-3 saw~ 220
	// Rewired: 1
}

func ExamplePatch_RemoveObject() {
	// Removing an object cascades to every cable touching it.
	p := patch.New()
	_ = p.InsertObject(&patch.Object{ID: "obj-1", Text: "metro 100", Inlets: 2, Outlets: 1})
	_ = p.InsertObject(&patch.Object{ID: "obj-2", Text: "print", Inlets: 1})
	_ = p.InsertConnection(&patch.Connection{
		Source:      patch.OutletOf("obj-1", 0),
		Destination: patch.InletOf("obj-2", 0),
	})

	removed, _ := p.RemoveObject("obj-1")
	fmt.Println("Cables removed:", len(removed))
	fmt.Println("Connections left:", p.ConnectionCount())
	// Output:
	// Cables removed: 1
	// Connections left: 0
}
