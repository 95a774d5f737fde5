// Package check inspects a patch for structural problems without
// mutating it.
//
// Findings are data, not errors: the checker never fails on content,
// so automated pipelines can inspect problems without exception-driven
// control flow and decide for themselves which findings are
// acceptable. Unknown object names are warnings (the set of valid Max
// objects is open-ended and version-dependent); out-of-range port
// indexes are errors (the host will refuse such a cable).
package check

import (
	"fmt"
	"strings"

	"github.com/patchsmith/patchsmith/pkg/patch"
)

// Severity grades a finding.
type Severity string

const (
	// SeverityWarning marks best-effort findings a caller may accept.
	SeverityWarning Severity = "warning"
	// SeverityError marks violations the host will not tolerate.
	SeverityError Severity = "error"
)

// ConnectionRef identifies the cable a finding refers to.
type ConnectionRef struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Finding is one reported problem.
type Finding struct {
	Severity   Severity       `json:"severity"`
	Message    string         `json:"message"`
	ObjectID   string         `json:"object_id,omitempty"`
	Connection *ConnectionRef `json:"connection,omitempty"`
}

// Options selects which scans to run.
type Options struct {
	// Known reports whether an object name is a recognized Max object.
	// Nil disables the unknown-name scan. The lookup receives the
	// first token of the box text (the object name without arguments).
	Known func(name string) bool

	// UnlinkedPorts additionally reports declared ports with zero
	// incident cables.
	UnlinkedPorts bool
}

// Run scans the patch and returns its findings, objects in creation
// order first, then connections in insertion order. The patch is never
// mutated and Run never fails; an empty result means a clean patch.
func Run(p *patch.Patch, opts Options) []Finding {
	var findings []Finding
	findings = append(findings, scanObjects(p, opts)...)
	findings = append(findings, scanConnections(p)...)
	if opts.UnlinkedPorts {
		findings = append(findings, scanUnlinkedPorts(p)...)
	}
	return findings
}

// ObjectName returns the object name portion of a box text: the first
// whitespace-separated token, without arguments.
func ObjectName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func scanObjects(p *patch.Patch, opts Options) []Finding {
	if opts.Known == nil {
		return nil
	}
	var findings []Finding
	for _, o := range p.Objects() {
		name := ObjectName(o.Text)
		if name == "" || opts.Known(name) {
			continue
		}
		findings = append(findings, Finding{
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("unknown object %q", name),
			ObjectID: o.ID,
		})
	}
	return findings
}

func scanConnections(p *patch.Patch) []Finding {
	var findings []Finding
	for _, c := range p.Connections() {
		ref := &ConnectionRef{
			Source:      fmt.Sprintf("%s:%d", c.Source.ObjectID, c.Source.Index),
			Destination: fmt.Sprintf("%s:%d", c.Destination.ObjectID, c.Destination.Index),
		}
		if f, bad := checkEndpoint(p, c.Source, ref); bad {
			findings = append(findings, f)
		}
		if f, bad := checkEndpoint(p, c.Destination, ref); bad {
			findings = append(findings, f)
		}
	}
	return findings
}

func checkEndpoint(p *patch.Patch, port patch.Port, ref *ConnectionRef) (Finding, bool) {
	o, ok := p.Object(port.ObjectID)
	if !ok {
		// Unreachable while model invariants hold; reported rather
		// than panicking because foreign loaders may relax them.
		return Finding{
			Severity:   SeverityError,
			Message:    fmt.Sprintf("connection references missing object %s", port.ObjectID),
			Connection: ref,
		}, true
	}

	count := o.Inlets
	if port.Direction == patch.Outlet {
		count = o.Outlets
	}
	if count == patch.PortCountUnknown || (port.Index >= 0 && port.Index < count) {
		return Finding{}, false
	}
	return Finding{
		Severity:   SeverityError,
		Message:    fmt.Sprintf("%s %d out of range for %s (%d declared)", port.Direction, port.Index, port.ObjectID, count),
		ObjectID:   port.ObjectID,
		Connection: ref,
	}, true
}

func scanUnlinkedPorts(p *patch.Patch) []Finding {
	linked := make(map[patch.Port]bool, p.ConnectionCount()*2)
	for _, c := range p.Connections() {
		linked[c.Source] = true
		linked[c.Destination] = true
	}

	var findings []Finding
	for _, o := range p.Objects() {
		for i := 0; o.Inlets != patch.PortCountUnknown && i < o.Inlets; i++ {
			if !linked[patch.InletOf(o.ID, i)] {
				findings = append(findings, unlinked(o.ID, i, patch.Inlet))
			}
		}
		for i := 0; o.Outlets != patch.PortCountUnknown && i < o.Outlets; i++ {
			if !linked[patch.OutletOf(o.ID, i)] {
				findings = append(findings, unlinked(o.ID, i, patch.Outlet))
			}
		}
	}
	return findings
}

func unlinked(id string, idx int, dir patch.Direction) Finding {
	return Finding{
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%s %d of %s has no connections", dir, idx, id),
		ObjectID: id,
	}
}

// Warnings counts findings with warning severity.
func Warnings(findings []Finding) int { return countSeverity(findings, SeverityWarning) }

// Errors counts findings with error severity.
func Errors(findings []Finding) int { return countSeverity(findings, SeverityError) }

func countSeverity(findings []Finding, s Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}
