// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package doctree provides a read-only, format-agnostic view over a parsed
// definition document.
//
// Every supported source format (XML markup, JSON, YAML and HCL) is parsed
// into the same shape: a tree of named Elements, each holding an ordered list
// of Attributes (name/value string pairs) and an ordered list of child
// Elements. The graph constructor is written once against this view.
//
// # Classification
//
// Markup attributes and primitive-valued members of tagged data (JSON, YAML,
// HCL) become Attributes. Object- and array-valued members become child
// Elements; every entry of an array becomes a sibling Element carrying the
// array member's name. An object-shaped member takes its own Value from a
// primitive member named "Value".
//
// # Storage
//
// All elements and attributes of one Document live in two slices owned by the
// Document. Element and Attribute are small handles (document pointer plus
// index), and a parent link is an index into the same arena, so the tree has
// no owning back-references and handles never outlive the data they point at
// as long as the Document is reachable.
package doctree
