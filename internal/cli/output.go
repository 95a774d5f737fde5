package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	pserrors "github.com/patchsmith/patchsmith/pkg/errors"
)

// schemaVersion identifies the envelope layout. Bump on breaking
// changes to the envelope shape, not per-command data payloads.
const schemaVersion = "1.0.0"

// envelope is the machine-readable response emitted with --json.
// Field order and names are stable; automation depends on them.
type envelope struct {
	OK            bool            `json:"ok"`
	Command       string          `json:"command"`
	SchemaVersion string          `json:"schema_version"`
	Schema        string          `json:"schema"`
	DataSchema    *string         `json:"data_schema"`
	RunID         string          `json:"run_id"`
	GeneratedAt   string          `json:"generated_at"`
	Message       string          `json:"message"`
	Input         string          `json:"input,omitempty"`
	Output        string          `json:"output,omitempty"`
	Changes       map[string]any  `json:"changes"`
	Warnings      []string        `json:"warnings"`
	Data          any             `json:"data"`
	Errors        []envelopeError `json:"errors"`
}

// envelopeError describes one failure inside an error envelope.
type envelopeError struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	ExitCode int    `json:"exit_code"`
}

// result is what a command action returns on success; the runner wraps
// it into an envelope or renders it for humans.
type result struct {
	Message    string
	Input      string
	Output     string
	Changes    map[string]any
	Warnings   []string
	Data       any
	DataSchema string
}

// schemaKey builds the per-command schema identifier, normalizing the
// command name the same way for every kind.
func schemaKey(command, kind string) string {
	normalized := strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(command), " ", "_"), "-", "_")
	return fmt.Sprintf("patchsmith.cli.%s.%s.v1", normalized, kind)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// emitSuccess writes a success response for command to w, either as a
// JSON envelope or as styled human output.
func emitSuccess(w io.Writer, jsonOutput bool, command string, res *result) error {
	if res.Changes == nil {
		res.Changes = map[string]any{}
	}
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	message := res.Message
	if message == "" {
		message = command + " completed"
	}

	if jsonOutput {
		dataSchema := res.DataSchema
		if dataSchema == "" {
			dataSchema = schemaKey(command, "data")
		}
		env := envelope{
			OK:            true,
			Command:       command,
			SchemaVersion: schemaVersion,
			Schema:        schemaKey(command, "success"),
			DataSchema:    &dataSchema,
			RunID:         uuid.NewString(),
			GeneratedAt:   timestamp(),
			Message:       message,
			Input:         res.Input,
			Output:        res.Output,
			Changes:       res.Changes,
			Warnings:      res.Warnings,
			Data:          res.Data,
			Errors:        []envelopeError{},
		}
		return writeEnvelope(w, env)
	}

	printSuccess(w, "%s", message)
	if res.Input != "" {
		printField(w, "input", res.Input)
	}
	if res.Output != "" {
		printField(w, "output", res.Output)
	}
	for _, key := range slices.Sorted(maps.Keys(res.Changes)) {
		printField(w, key, res.Changes[key])
	}
	for _, warning := range res.Warnings {
		printWarning(w, "%s", warning)
	}
	return nil
}

// emitError writes a failure response for command to w. The exit code
// reported inside the envelope matches the process exit code.
func emitError(w io.Writer, jsonOutput bool, command string, err error) error {
	exitCode := pserrors.ExitCode(err)

	if jsonOutput {
		errType := string(pserrors.GetCode(err))
		if errType == "" {
			errType = string(pserrors.ErrCodeInternal)
		}
		env := envelope{
			OK:            false,
			Command:       command,
			SchemaVersion: schemaVersion,
			Schema:        schemaKey(command, "error"),
			DataSchema:    nil,
			RunID:         uuid.NewString(),
			GeneratedAt:   timestamp(),
			Message:       pserrors.UserMessage(err),
			Changes:       map[string]any{},
			Warnings:      []string{},
			Data:          nil,
			Errors: []envelopeError{{
				Type:     errType,
				Message:  pserrors.UserMessage(err),
				ExitCode: exitCode,
			}},
		}
		return writeEnvelope(w, env)
	}

	printError(w, "%s", pserrors.UserMessage(err))
	return nil
}

func writeEnvelope(w io.Writer, env envelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}
