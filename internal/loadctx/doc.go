// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package loadctx holds the per-load state the graph constructor consults
// while it walks a document: class aliases and per-class default values.
//
// Aliases live at two levels. An AliasTable is process-wide, guarded by a
// reader/writer lock and populated by modules at startup. A Context is
// created for one load, is handed the AliasTable explicitly, and adds the
// document's own aliases on top. Local aliases shadow global ones.
//
// A Context is parsed once at the start of a load and treated as read-only
// afterwards. It carries no locking and must not be shared between
// concurrent loads.
package loadctx
