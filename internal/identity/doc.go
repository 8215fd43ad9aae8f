// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package identity implements the registries that give definition objects
// their identities and resolve cross-document references.
//
// Every registered object carries three identities:
//
//   - a human-authored string key, unique within its registry;
//   - a persistent 128-bit GlobalID assigned by the author of the document;
//   - a process-local LocalID assigned sequentially from 1 on registration.
//     A LocalID is only meaningful inside one process run and must never be
//     persisted.
//
// # Two-phase loading
//
// Object bodies may reference objects that have not been built yet. A
// Registry therefore loads in two phases: LoadKeys installs the complete
// key to GlobalID table first, then LoadObjects registers the constructed
// objects. References of the form "registry-name:key" are resolved against
// the key tables through a Directory, so they only need phase one.
//
// A Registry is not safe for concurrent use; it belongs to the goroutine
// that loads it.
package identity
