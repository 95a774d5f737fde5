// Package patch implements the in-memory model of a Max patcher document:
// objects, their inlet/outlet ports, and the cables connecting them.
//
// # Overview
//
// A [Patch] is the aggregate root. It owns a set of [Object] values keyed
// by id (creation order is recorded and significant for serialization),
// an ordered list of [Connection] values, and opaque document-level
// attributes preserved verbatim across load and save.
//
// The package offers two layers of mutation:
//
//   - Structural mutators ([Patch.InsertObject], [Patch.RemoveObject],
//     [Patch.InsertConnection], [Patch.RemoveConnection]) enforce id
//     uniqueness, endpoint existence, and cascade deletion
//     unconditionally. Port-index range checking is deliberately not
//     enforced here so that third-party documents with inconsistent
//     indexes can still be loaded and inspected.
//   - Engine operations ([Patch.Place], [Patch.Connect], [Patch.Replace],
//     [Patch.Delete], [Patch.Disconnect]) are the public editing API.
//     Each is atomic: it either applies fully or leaves the patch
//     untouched, and it additionally enforces port-index ranges whenever
//     an object's port counts are known.
//
// # Identifiers
//
// Object ids have the form "obj-N". The allocator only counts upward and
// never reissues an id after deletion, so stale external references can
// never silently bind to a new object. Loading a document seeds the
// allocator past the highest suffix already present.
//
// # Invariants
//
// After every mutation:
//
//  1. Object ids are unique within the patch.
//  2. Every connection endpoint references an object present in the patch.
//  3. Deleting an object removes all connections incident to it.
//  4. Duplicate cables between the same two ports are preserved, never
//     silently deduplicated; Max permits parallel patch cords.
//
// # Concurrency
//
// A Patch has a single logical owner and no internal locking. Distinct
// Patch instances are independent; two goroutines must never mutate the
// same instance concurrently.
package patch
