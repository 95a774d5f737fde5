package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
	"github.com/patchsmith/patchsmith/pkg/maxpat"
)

// runCommand executes the CLI against temp state and returns the
// parsed JSON envelope plus the exit code the process would use.
func runCommand(t *testing.T, args ...string) (envelope, int) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(t.TempDir(), "cache"))

	opts := &globalOptions{}
	root := NewRootCommand(opts)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append(args, "--json"))

	code := 0
	if err := root.ExecuteContext(context.Background()); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			code = exit.code
		} else {
			code = pserrors.ExitUsage
		}
	}

	var env envelope
	if buf.Len() > 0 {
		if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
			t.Fatalf("parse envelope: %v\n%s", err, buf.String())
		}
	}
	return env, code
}

func TestWorkflow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "osc.maxpat")

	env, code := runCommand(t, "new", "--out", path)
	if code != 0 || !env.OK {
		t.Fatalf("new: code = %d, ok = %v, message = %q", code, env.OK, env.Message)
	}

	env, code = runCommand(t, "place",
		"--in", path, "--in-place",
		"--obj", "cycle~ 440", "--obj", "ezdac~",
		"--spacing-type", "vertical", "--spacing", "100",
		"--start", "50,50")
	if code != 0 || !env.OK {
		t.Fatalf("place: code = %d, message = %q", code, env.Message)
	}

	env, code = runCommand(t, "connect",
		"--in", path, "--in-place",
		"--edge", "obj-1:0->obj-2:0",
		"--edge", "obj-1:0->obj-2:1")
	if code != 0 || !env.OK {
		t.Fatalf("connect: code = %d, message = %q", code, env.Message)
	}
	if env.Changes["connected"] != float64(2) {
		t.Errorf("connect changes = %v", env.Changes)
	}

	env, code = runCommand(t, "list-objects", "--in", path)
	if code != 0 {
		t.Fatalf("list-objects: code = %d, message = %q", code, env.Message)
	}
	if env.Changes["objects"] != float64(2) {
		t.Errorf("list-objects changes = %v", env.Changes)
	}

	env, code = runCommand(t, "check", "--in", path)
	if code != 0 {
		t.Fatalf("check: code = %d, message = %q", code, env.Message)
	}
	if env.Changes["errors"] != float64(0) || env.Changes["warnings"] != float64(0) {
		t.Errorf("check changes = %v", env.Changes)
	}

	// The saved document really is what Max would read back.
	p, err := maxpat.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if p.ObjectCount() != 2 || p.ConnectionCount() != 2 {
		t.Errorf("saved patch has %d objects, %d connections, want 2, 2", p.ObjectCount(), p.ConnectionCount())
	}

	env, code = runCommand(t, "delete", "--in", path, "--in-place", "--obj", "obj-1")
	if code != 0 {
		t.Fatalf("delete: code = %d, message = %q", code, env.Message)
	}
	p, err = maxpat.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile after delete: %v", err)
	}
	if p.ObjectCount() != 1 || p.ConnectionCount() != 0 {
		t.Errorf("after delete: %d objects, %d connections, want 1, 0 (cascade)", p.ObjectCount(), p.ConnectionCount())
	}
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.maxpat")
	if env, code := runCommand(t, "new", "--out", path); code != 0 {
		t.Fatalf("new: code = %d, message = %q", code, env.Message)
	}

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantType pserrors.Code
	}{
		{
			name:     "MissingOutIsUsage",
			args:     []string{"place", "--in", path, "--obj", "metro 100"},
			wantCode: pserrors.ExitUsage,
			wantType: pserrors.ErrCodeUsage,
		},
		{
			name:     "UnknownSelectorIsResolution",
			args:     []string{"delete", "--in", path, "--in-place", "--obj", "obj-99"},
			wantCode: pserrors.ExitResolution,
			wantType: pserrors.ErrCodeObjectNotFound,
		},
		{
			name:     "MissingInputIsUsage",
			args:     []string{"check", "--in", filepath.Join(dir, "nope.maxpat")},
			wantCode: pserrors.ExitUsage,
			wantType: pserrors.ErrCodeBadPath,
		},
		{
			name:     "BadEdgeIsUsage",
			args:     []string{"connect", "--in", path, "--in-place", "--edge", "obj-1:0"},
			wantCode: pserrors.ExitUsage,
			wantType: pserrors.ErrCodeBadEdge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, code := runCommand(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (message: %q)", code, tt.wantCode, env.Message)
			}
			if env.OK {
				t.Error("ok = true, want false")
			}
			if len(env.Errors) != 1 || env.Errors[0].Type != string(tt.wantType) {
				t.Errorf("errors = %+v, want one of type %s", env.Errors, tt.wantType)
			}
		})
	}
}

func TestStrictMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.maxpat")
	if _, code := runCommand(t, "new", "--out", path); code != 0 {
		t.Fatal("new failed")
	}
	if env, code := runCommand(t, "place", "--in", path, "--in-place", "--obj", "blorp~ 3"); code != 0 {
		t.Fatalf("place: code = %d, message = %q", code, env.Message)
	}

	// Lenient check reports the unknown object but exits zero.
	env, code := runCommand(t, "check", "--in", path)
	if code != 0 {
		t.Fatalf("check: code = %d", code)
	}
	if env.Changes["warnings"] != float64(1) {
		t.Errorf("check changes = %v, want one warning", env.Changes)
	}

	env, code = runCommand(t, "check", "--in", path, "--strict")
	if code != pserrors.ExitValidation {
		t.Errorf("strict check: code = %d, want %d", code, pserrors.ExitValidation)
	}
	if len(env.Errors) != 1 || env.Errors[0].Type != string(pserrors.ErrCodeCheckFailed) {
		t.Errorf("strict check errors = %+v", env.Errors)
	}
}

func TestConfigCommands(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	env, code := runCommand(t, "config", "set", "wait_time", "12.5", "--config", cfgPath)
	if code != 0 || !env.OK {
		t.Fatalf("config set: code = %d, message = %q", code, env.Message)
	}

	env, code = runCommand(t, "config", "get", "wait_time", "--config", cfgPath)
	if code != 0 {
		t.Fatalf("config get: code = %d, message = %q", code, env.Message)
	}
	if env.Changes["wait_time"] != "12.5" {
		t.Errorf("config get changes = %v", env.Changes)
	}

	_, code = runCommand(t, "config", "get", "max_speed", "--config", cfgPath)
	if code != pserrors.ExitUsage {
		t.Errorf("config get unknown key: code = %d, want %d", code, pserrors.ExitUsage)
	}
}

func TestReplaceCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.maxpat")
	if _, code := runCommand(t, "new", "--out", path); code != 0 {
		t.Fatal("new failed")
	}
	if _, code := runCommand(t, "place", "--in", path, "--in-place",
		"--obj", "cycle~ 440", "--obj", "ezdac~"); code != 0 {
		t.Fatal("place failed")
	}
	if _, code := runCommand(t, "connect", "--in", path, "--in-place",
		"--edge", "obj-1:0->obj-2:0"); code != 0 {
		t.Fatal("connect failed")
	}

	env, code := runCommand(t, "replace", "--in", path, "--in-place",
		"--target", "obj-1", "--with", "saw~ 220")
	if code != 0 || !env.OK {
		t.Fatalf("replace: code = %d, message = %q", code, env.Message)
	}
	if env.Changes["replaced"] != "obj-1" || env.Changes["new_id"] != "obj-3" {
		t.Errorf("replace changes = %v", env.Changes)
	}

	p, err := maxpat.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if _, ok := p.Object("obj-1"); ok {
		t.Error("old object survived the replace")
	}
	conns := p.Connections()
	if len(conns) != 1 || conns[0].Source.ObjectID != "obj-3" {
		t.Errorf("connections after replace = %v, want one from obj-3", conns)
	}
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.maxpat")
	if _, code := runCommand(t, "new", "--out", path); code != 0 {
		t.Fatal("new failed")
	}
	if _, code := runCommand(t, "place", "--in", path, "--in-place", "--obj", "cycle~ 440"); code != 0 {
		t.Fatal("place failed")
	}

	out := filepath.Join(dir, "dev.amxd")
	env, code := runCommand(t, "export-amxd", "--in", path, "--out", out,
		"--name", "Wobble", "--category", "audio_effect")
	if code != 0 || !env.OK {
		t.Fatalf("export-amxd: code = %d, message = %q", code, env.Message)
	}

	// Second export without --overwrite is refused.
	env, code = runCommand(t, "export-amxd", "--in", path, "--out", out)
	if code != pserrors.ExitValidation {
		t.Errorf("repeat export: code = %d, want %d", code, pserrors.ExitValidation)
	}
	if len(env.Errors) != 1 || env.Errors[0].Type != string(pserrors.ErrCodeExportRefused) {
		t.Errorf("repeat export errors = %+v", env.Errors)
	}
	if _, code := runCommand(t, "export-amxd", "--in", path, "--out", out, "--overwrite"); code != 0 {
		t.Errorf("overwrite export: code = %d", code)
	}

	// Wrong extension is a usage error.
	if _, code := runCommand(t, "export-amxd", "--in", path, "--out", filepath.Join(dir, "dev.maxpat")); code != pserrors.ExitUsage {
		t.Errorf("bad extension: code = %d, want %d", code, pserrors.ExitUsage)
	}
}

func TestSaveCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.maxpat")
	if _, code := runCommand(t, "new", "--out", path); code != 0 {
		t.Fatal("new failed")
	}

	copyPath := filepath.Join(dir, "copy.maxpat")
	env, code := runCommand(t, "save", "--in", path, "--out", copyPath)
	if code != 0 || !env.OK {
		t.Fatalf("save: code = %d, message = %q", code, env.Message)
	}
	if _, err := maxpat.ReadFile(copyPath); err != nil {
		t.Errorf("saved copy unreadable: %v", err)
	}

	// save without --out or --in-place has no output target.
	if _, code := runCommand(t, "save", "--in", path); code != pserrors.ExitUsage {
		t.Errorf("save without output: code = %d, want %d", code, pserrors.ExitUsage)
	}
}

func TestVizCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.maxpat")
	if _, code := runCommand(t, "new", "--out", path); code != 0 {
		t.Fatal("new failed")
	}
	if _, code := runCommand(t, "place", "--in", path, "--in-place", "--obj", "cycle~ 440"); code != 0 {
		t.Fatal("place failed")
	}

	dotPath := filepath.Join(dir, "p.dot")
	env, code := runCommand(t, "viz", "--in", path, "--out", dotPath)
	if code != 0 || !env.OK {
		t.Fatalf("viz: code = %d, message = %q", code, env.Message)
	}

	_, code = runCommand(t, "viz", "--in", path, "--out", filepath.Join(dir, "p.png"))
	if code != pserrors.ExitUsage {
		t.Errorf("viz unsupported format: code = %d, want %d", code, pserrors.ExitUsage)
	}
}
