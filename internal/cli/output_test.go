package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
)

func TestSchemaKey(t *testing.T) {
	tests := []struct {
		command string
		kind    string
		want    string
	}{
		{"connect", "success", "patchsmith.cli.connect.success.v1"},
		{"list-objects", "data", "patchsmith.cli.list_objects.data.v1"},
		{"export-amxd", "error", "patchsmith.cli.export_amxd.error.v1"},
		{" config set ", "success", "patchsmith.cli.config_set.success.v1"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			if got := schemaKey(tt.command, tt.kind); got != tt.want {
				t.Errorf("schemaKey(%q, %q) = %q, want %q", tt.command, tt.kind, got, tt.want)
			}
		})
	}
}

func TestEmitSuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	res := &result{
		Message:  "connected 1 edge(s)",
		Input:    "in.maxpat",
		Output:   "out.maxpat",
		Changes:  map[string]any{"connections": 1},
		Warnings: []string{`unknown object "blorp~"`},
		Data:     map[string]any{"edges": []string{"obj-1:0->obj-2:0"}},
	}
	if err := emitSuccess(&buf, true, "connect", res); err != nil {
		t.Fatalf("emitSuccess: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if !env.OK {
		t.Error("ok = false, want true")
	}
	if env.Command != "connect" || env.SchemaVersion != schemaVersion {
		t.Errorf("command = %q, schema_version = %q", env.Command, env.SchemaVersion)
	}
	if env.Schema != "patchsmith.cli.connect.success.v1" {
		t.Errorf("schema = %q", env.Schema)
	}
	if env.DataSchema == nil || *env.DataSchema != "patchsmith.cli.connect.data.v1" {
		t.Errorf("data_schema = %v", env.DataSchema)
	}
	if _, err := uuid.Parse(env.RunID); err != nil {
		t.Errorf("run_id %q is not a UUID: %v", env.RunID, err)
	}
	if env.GeneratedAt == "" {
		t.Error("generated_at missing")
	}
	if env.Input != "in.maxpat" || env.Output != "out.maxpat" {
		t.Errorf("input = %q, output = %q", env.Input, env.Output)
	}
	if len(env.Warnings) != 1 || len(env.Errors) != 0 {
		t.Errorf("warnings = %v, errors = %v", env.Warnings, env.Errors)
	}
}

func TestEmitSuccessJSONDefaults(t *testing.T) {
	var buf bytes.Buffer
	if err := emitSuccess(&buf, true, "save", &result{}); err != nil {
		t.Fatalf("emitSuccess: %v", err)
	}
	out := buf.String()
	// Empty collections serialize as empty, not null, so automation can
	// index without guards.
	for _, want := range []string{`"changes": {}`, `"warnings": []`, `"message": "save completed"`} {
		if !strings.Contains(out, want) {
			t.Errorf("envelope missing %s:\n%s", want, out)
		}
	}
}

func TestEmitSuccessHuman(t *testing.T) {
	var buf bytes.Buffer
	res := &result{
		Message:  "placed 2 object(s)",
		Output:   "out.maxpat",
		Changes:  map[string]any{"objects": 2, "connections": 0},
		Warnings: []string{"something odd"},
	}
	if err := emitSuccess(&buf, false, "place", res); err != nil {
		t.Fatalf("emitSuccess: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"placed 2 object(s)", "out.maxpat", "objects", "something odd"} {
		if !strings.Contains(out, want) {
			t.Errorf("human output missing %q:\n%s", want, out)
		}
	}
	// Changes print in sorted key order.
	if strings.Index(out, "connections") > strings.Index(out, "objects") {
		t.Errorf("changes not sorted:\n%s", out)
	}
}

func TestEmitErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	err := pserrors.New(pserrors.ErrCodeObjectNotFound, "no object matches %q", "obj-9")
	if err := emitError(&buf, true, "delete", err); err != nil {
		t.Fatalf("emitError: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if env.OK {
		t.Error("ok = true, want false")
	}
	if env.Schema != "patchsmith.cli.delete.error.v1" {
		t.Errorf("schema = %q", env.Schema)
	}
	if env.DataSchema != nil {
		t.Errorf("data_schema = %v, want null", *env.DataSchema)
	}
	if len(env.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", env.Errors)
	}
	e := env.Errors[0]
	if e.Type != string(pserrors.ErrCodeObjectNotFound) || e.ExitCode != pserrors.ExitResolution {
		t.Errorf("error entry = %+v", e)
	}
	if e.Message != `no object matches "obj-9"` {
		t.Errorf("error message = %q", e.Message)
	}
}

func TestEmitErrorJSONUncoded(t *testing.T) {
	var buf bytes.Buffer
	if err := emitError(&buf, true, "check", errors.New("disk on fire")); err != nil {
		t.Fatalf("emitError: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("parse envelope: %v", err)
	}
	if env.Errors[0].Type != string(pserrors.ErrCodeInternal) || env.Errors[0].ExitCode != pserrors.ExitInternal {
		t.Errorf("uncoded error entry = %+v", env.Errors[0])
	}
}

func TestEmitErrorHuman(t *testing.T) {
	var buf bytes.Buffer
	err := pserrors.New(pserrors.ErrCodeUsage, "missing required --in")
	if err := emitError(&buf, false, "check", err); err != nil {
		t.Fatalf("emitError: %v", err)
	}
	if !strings.Contains(buf.String(), "missing required --in") {
		t.Errorf("human output = %q", buf.String())
	}
	if strings.Contains(buf.String(), "USAGE_ERROR") {
		t.Errorf("human output leaked the code: %q", buf.String())
	}
}
