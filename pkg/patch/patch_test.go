package patch

import (
	"errors"
	"fmt"
	"testing"
)

func TestAllocateID(t *testing.T) {
	t.Run("Monotonic", func(t *testing.T) {
		p := New()
		for i := 1; i <= 5; i++ {
			want := fmt.Sprintf("obj-%d", i)
			if got := p.AllocateID(); got != want {
				t.Errorf("AllocateID() = %q, want %q", got, want)
			}
		}
	})

	t.Run("NeverReusedAfterDelete", func(t *testing.T) {
		p := New()
		id := p.AllocateID()
		if err := p.InsertObject(&Object{ID: id, Text: "metro 100"}); err != nil {
			t.Fatalf("InsertObject: %v", err)
		}
		if _, err := p.RemoveObject(id); err != nil {
			t.Fatalf("RemoveObject: %v", err)
		}
		if got := p.AllocateID(); got == id {
			t.Errorf("AllocateID() reissued %q after delete", id)
		}
	})

	t.Run("SeededByInsert", func(t *testing.T) {
		p := New()
		if err := p.InsertObject(&Object{ID: "obj-41", Text: "cycle~ 440"}); err != nil {
			t.Fatalf("InsertObject: %v", err)
		}
		if got := p.AllocateID(); got != "obj-42" {
			t.Errorf("AllocateID() = %q, want obj-42", got)
		}
	})

	t.Run("SeedNeverMovesBackwards", func(t *testing.T) {
		p := New()
		p.SeedAllocator(10)
		p.SeedAllocator(3)
		if got := p.AllocateID(); got != "obj-11" {
			t.Errorf("AllocateID() = %q, want obj-11", got)
		}
	})
}

func TestIDSuffix(t *testing.T) {
	tests := []struct {
		id     string
		want   int
		wantOK bool
	}{
		{"obj-1", 1, true},
		{"obj-120", 120, true},
		{"obj-0", 0, true},
		{"obj-", 0, false},
		{"obj--3", 0, false},
		{"obj-x", 0, false},
		{"box-1", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := IDSuffix(tt.id)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("IDSuffix(%q) = %d, %v, want %d, %v", tt.id, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInsertObject(t *testing.T) {
	tests := []struct {
		name    string
		prep    func(p *Patch)
		obj     *Object
		wantErr error
	}{
		{
			name: "OK",
			obj:  &Object{ID: "obj-1", Text: "metro 100"},
		},
		{
			name:    "EmptyID",
			obj:     &Object{Text: "metro 100"},
			wantErr: ErrEmptyObjectID,
		},
		{
			name: "Duplicate",
			prep: func(p *Patch) {
				_ = p.InsertObject(&Object{ID: "obj-1", Text: "metro 100"})
			},
			obj:     &Object{ID: "obj-1", Text: "counter"},
			wantErr: ErrDuplicateObjectID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			if tt.prep != nil {
				tt.prep(p)
			}
			err := p.InsertObject(tt.obj)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("InsertObject() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemoveObjectCascades(t *testing.T) {
	p := New()
	for _, text := range []string{"cycle~ 440", "*~ 0.1", "ezdac~"} {
		if err := p.InsertObject(&Object{ID: p.AllocateID(), Text: text, Inlets: 2, Outlets: 1}); err != nil {
			t.Fatalf("InsertObject: %v", err)
		}
	}
	conns := []*Connection{
		{Source: OutletOf("obj-1", 0), Destination: InletOf("obj-2", 0)},
		{Source: OutletOf("obj-2", 0), Destination: InletOf("obj-3", 0)},
		{Source: OutletOf("obj-2", 0), Destination: InletOf("obj-3", 1)},
	}
	for _, c := range conns {
		if err := p.InsertConnection(c); err != nil {
			t.Fatalf("InsertConnection: %v", err)
		}
	}

	removed, err := p.RemoveObject("obj-2")
	if err != nil {
		t.Fatalf("RemoveObject: %v", err)
	}
	if len(removed) != 3 {
		t.Errorf("removed %d cables, want 3", len(removed))
	}
	if p.ConnectionCount() != 0 {
		t.Errorf("ConnectionCount() = %d, want 0", p.ConnectionCount())
	}

	// No connection may reference the removed object anymore.
	for _, c := range p.Connections() {
		if c.Touches("obj-2") {
			t.Errorf("dangling cable %v survived cascade", c)
		}
	}

	if _, err := p.RemoveObject("obj-2"); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("second RemoveObject error = %v, want ErrUnknownObject", err)
	}
}

func TestInsertConnection(t *testing.T) {
	newPatch := func() *Patch {
		p := New()
		_ = p.InsertObject(&Object{ID: "obj-1", Text: "cycle~ 440", Inlets: 2, Outlets: 1})
		_ = p.InsertObject(&Object{ID: "obj-2", Text: "ezdac~", Inlets: 2})
		return p
	}

	tests := []struct {
		name    string
		conn    *Connection
		wantErr error
	}{
		{
			name: "OK",
			conn: &Connection{Source: OutletOf("obj-1", 0), Destination: InletOf("obj-2", 0)},
		},
		{
			name: "OutOfRangeIndexAccepted",
			// Structural layer is permissive so foreign documents load;
			// the checker reports, the engine rejects.
			conn: &Connection{Source: OutletOf("obj-1", 7), Destination: InletOf("obj-2", 5)},
		},
		{
			name:    "WrongDirection",
			conn:    &Connection{Source: InletOf("obj-1", 0), Destination: InletOf("obj-2", 0)},
			wantErr: ErrInvalidPort,
		},
		{
			name:    "UnknownSource",
			conn:    &Connection{Source: OutletOf("obj-9", 0), Destination: InletOf("obj-2", 0)},
			wantErr: ErrUnknownObject,
		},
		{
			name:    "UnknownDestination",
			conn:    &Connection{Source: OutletOf("obj-1", 0), Destination: InletOf("obj-9", 0)},
			wantErr: ErrUnknownObject,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPatch()
			err := p.InsertConnection(tt.conn)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("InsertConnection() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParallelCables(t *testing.T) {
	p := New()
	_ = p.InsertObject(&Object{ID: "obj-1", Text: "cycle~ 440", Inlets: 2, Outlets: 1})
	_ = p.InsertObject(&Object{ID: "obj-2", Text: "ezdac~", Inlets: 2})

	pair := Connection{Source: OutletOf("obj-1", 0), Destination: InletOf("obj-2", 0)}
	for i := 0; i < 2; i++ {
		c := pair
		if err := p.InsertConnection(&c); err != nil {
			t.Fatalf("InsertConnection: %v", err)
		}
	}
	if p.ConnectionCount() != 2 {
		t.Fatalf("ConnectionCount() = %d, want 2 (parallel cables preserved)", p.ConnectionCount())
	}

	// RemoveConnection removes exactly one per call.
	if err := p.RemoveConnection(pair.Source, pair.Destination); err != nil {
		t.Fatalf("RemoveConnection: %v", err)
	}
	if p.ConnectionCount() != 1 {
		t.Errorf("ConnectionCount() = %d, want 1", p.ConnectionCount())
	}
	if err := p.RemoveConnection(pair.Source, pair.Destination); err != nil {
		t.Fatalf("RemoveConnection: %v", err)
	}
	if err := p.RemoveConnection(pair.Source, pair.Destination); !errors.Is(err, ErrUnknownConnection) {
		t.Errorf("RemoveConnection() error = %v, want ErrUnknownConnection", err)
	}
}

func TestConnectionsAt(t *testing.T) {
	p := New()
	_ = p.InsertObject(&Object{ID: "obj-1", Text: "metro 100", Inlets: 2, Outlets: 1})
	_ = p.InsertObject(&Object{ID: "obj-2", Text: "counter", Inlets: 5, Outlets: 4})
	_ = p.InsertConnection(&Connection{Source: OutletOf("obj-1", 0), Destination: InletOf("obj-2", 0)})
	_ = p.InsertConnection(&Connection{Source: OutletOf("obj-1", 0), Destination: InletOf("obj-2", 1)})

	if got := len(p.ConnectionsAt(OutletOf("obj-1", 0))); got != 2 {
		t.Errorf("ConnectionsAt(outlet) = %d cables, want 2", got)
	}
	if got := len(p.ConnectionsAt(InletOf("obj-2", 1))); got != 1 {
		t.Errorf("ConnectionsAt(inlet) = %d cables, want 1", got)
	}
	if got := len(p.ConnectionsAt(InletOf("obj-2", 4))); got != 0 {
		t.Errorf("ConnectionsAt(unused inlet) = %d cables, want 0", got)
	}
}

func TestObjectsOrder(t *testing.T) {
	p := New()
	texts := []string{"metro 100", "counter", "print"}
	for _, text := range texts {
		_ = p.InsertObject(&Object{ID: p.AllocateID(), Text: text})
	}
	objs := p.Objects()
	if len(objs) != len(texts) {
		t.Fatalf("Objects() = %d, want %d", len(objs), len(texts))
	}
	for i, o := range objs {
		if o.Text != texts[i] {
			t.Errorf("Objects()[%d].Text = %q, want %q", i, o.Text, texts[i])
		}
	}
}
