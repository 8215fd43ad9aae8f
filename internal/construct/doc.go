// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package construct turns document elements into populated Go values.
//
// For every object element the Builder resolves the class named by the
// Class attribute (Type for nested values), extracts Key and ID when the
// class carries identity, picks the one registered constructor whose arity
// matches the identity arguments plus the Constructor/Argument children,
// and then populates the new instance:
//
//  1. defaults declared for each class of the embedding chain, base first;
//  2. the element's attributes;
//  3. the element's child elements.
//
// Later steps override earlier ones for the same member. Slices, arrays and
// list types (types with a single Add or Append method) take their items
// from an Items child holding Item elements.
//
// Construction is a synchronous recursive descent. A failure anywhere
// abandons the whole load: Load returns no objects and LoadRegistries
// leaves every bound registry uninitialized.
package construct
