package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileCache(t *testing.T) {
	ctx := context.Background()

	t.Run("SetGet", func(t *testing.T) {
		c, err := NewFileCache(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileCache: %v", err)
		}
		want := []byte(`["cycle~","ezdac~"]`)
		if err := c.Set(ctx, "scan", want, 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, hit, err := c.Get(ctx, "scan")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !hit || !bytes.Equal(got, want) {
			t.Errorf("Get() = %q, %v, want %q, true", got, hit, want)
		}
	})

	t.Run("MissingKeyIsMiss", func(t *testing.T) {
		c, err := NewFileCache(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileCache: %v", err)
		}
		if _, hit, err := c.Get(ctx, "nope"); hit || err != nil {
			t.Errorf("Get() hit = %v, err = %v, want miss, nil", hit, err)
		}
	})

	t.Run("ExpiredEntryIsMiss", func(t *testing.T) {
		c, err := NewFileCache(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileCache: %v", err)
		}
		if err := c.Set(ctx, "scan", []byte("x"), time.Nanosecond); err != nil {
			t.Fatalf("Set: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
		if _, hit, err := c.Get(ctx, "scan"); hit || err != nil {
			t.Errorf("Get() hit = %v, err = %v, want miss, nil", hit, err)
		}
	})

	t.Run("CorruptEntryIsMiss", func(t *testing.T) {
		dir := t.TempDir()
		c, err := NewFileCache(dir)
		if err != nil {
			t.Fatalf("NewFileCache: %v", err)
		}
		if err := c.Set(ctx, "scan", []byte("x"), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := os.WriteFile(c.path("scan"), []byte("not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, hit, err := c.Get(ctx, "scan"); hit || err != nil {
			t.Errorf("Get() hit = %v, err = %v, want miss, nil", hit, err)
		}
		// The corrupt file is cleaned up.
		if _, err := os.Stat(c.path("scan")); !os.IsNotExist(err) {
			t.Errorf("corrupt entry still on disk: %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		c, err := NewFileCache(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileCache: %v", err)
		}
		if err := c.Set(ctx, "scan", []byte("x"), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := c.Delete(ctx, "scan"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, hit, _ := c.Get(ctx, "scan"); hit {
			t.Error("Get() hit after Delete")
		}
		if err := c.Delete(ctx, "scan"); err != nil {
			t.Errorf("Delete of missing key: %v", err)
		}
	})

	t.Run("ShardedLayout", func(t *testing.T) {
		dir := t.TempDir()
		c, err := NewFileCache(dir)
		if err != nil {
			t.Fatalf("NewFileCache: %v", err)
		}
		if err := c.Set(ctx, "scan", []byte("x"), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
		h := Hash([]byte("scan"))
		if _, err := os.Stat(filepath.Join(dir, h[:2], h)); err != nil {
			t.Errorf("entry not at sharded path: %v", err)
		}
	})
}

func TestNull(t *testing.T) {
	ctx := context.Background()
	var c Cache = Null{}
	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get() hit = %v, err = %v, want miss, nil", hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestHash(t *testing.T) {
	a, b := Hash([]byte("refpages:/a")), Hash([]byte("refpages:/b"))
	if a == b {
		t.Error("distinct inputs hashed identically")
	}
	if len(a) != 64 {
		t.Errorf("Hash length = %d, want 64 hex chars", len(a))
	}
	if a != Hash([]byte("refpages:/a")) {
		t.Error("Hash not stable")
	}
}
