// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model defines the data that flows through a report resolution:
// the declarative definitions (Template, QueryDefinition, Trigger), the
// schemaless documents returned by collaborators (Entry, Row), and the
// terminal Document handed to the renderer.
//
// # Core Concepts
//
//   - Template: a report definition tying an ordered list of QuerySpecs
//     and an optional ReferentialSpec to a renderer payload (SVG or HTML).
//
//   - QuerySpec: one invocation of a stored QueryDefinition inside a
//     template, with its parameter bindings, label rules and the
//     referential results it contributes.
//
//   - Entry: a resolved entity or event. Entries are kept as generic maps
//     because their shape is owned by the reference-data service; the
//     pipeline only relies on `id`, the naming fields and `picture`.
//
//   - Trigger: a standing subscription re-running a template for one user
//     whenever a matching content-change notification arrives.
//
// Definitions are read-only values fetched per call. Nothing in this
// package holds per-resolution state; that lives in the refmap package.
package model
