// Package pkg provides the core libraries for patchsmith.
//
// # Overview
//
// Patchsmith edits Max/MSP patcher documents (.maxpat) without opening
// Max. The pkg directory is organized into these areas:
//
//  1. [patch] - In-memory patcher graph model and mutation engine
//  2. [maxpat] - Bidirectional .maxpat serialization with opaque-field
//     preservation, plus the .amxd export envelope
//  3. [check] - Consistency checker producing findings, never errors
//  4. [refdict] - Known-object-name dictionary with installation scans
//  5. [viz] - Graphviz rendering of cable topology
//  6. [cache], [config], [errors], [buildinfo] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow through patchsmith:
//
//	.maxpat document
//	         ↓
//	    [maxpat] package (parse, preserve unknown fields)
//	         ↓
//	    [patch] package (graph structure + atomic mutations)
//	         ↓
//	    [check] package (findings over the mutated graph)
//	         ↓
//	    .maxpat / .amxd / SVG output
//
// # Quick Start
//
//	p, err := maxpat.ReadFile("synth.maxpat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	objs, err := p.Place([]string{"cycle~ 440"}, patch.PlaceOptions{Inlets: 2, Outlets: 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = maxpat.WriteFile(p, "synth.maxpat")
package pkg
