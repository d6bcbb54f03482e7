// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph owns the in-memory recipe graph being edited.
//
// The model applies mutations (add/update/remove node, connect, remove
// edge) and maintains two invariants at all times: node IDs are unique
// within the recipe, and every edge's endpoints reference nodes present in
// the same recipe. Anything beyond referential integrity (missing sources,
// disconnected nodes, bad configuration) is the validator's concern so the
// editor always reflects exactly what the user drew.
//
// Thread Safety:
//
//	Model is NOT safe for concurrent use. The session controller
//	serializes all mutations through its single-writer lock.
package graph

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
	"github.com/jinterlante1206/RecipeStudio/services/studio/registry"
)

// NodePatch describes a partial update to a node.
//
// Nil fields are left untouched. Kind and ID are deliberately absent: a
// node keeps both for its whole lifetime.
type NodePatch struct {
	// Label replaces the node's label when non-nil.
	Label *string

	// Position replaces the node's canvas placement when non-nil.
	Position *datatypes.Position

	// Config is merged key-by-key into the node's config when non-nil.
	Config map[string]any
}

// Model is the mutable graph for the recipe currently being edited.
type Model struct {
	registry *registry.Registry
	recipe   datatypes.Recipe
	dirty    bool
}

// NewModel returns an empty model backed by the given template registry.
func NewModel(reg *registry.Registry) *Model {
	return &Model{
		registry: reg,
		recipe: datatypes.Recipe{
			Name:  "Untitled Recipe",
			Nodes: []datatypes.Node{},
			Edges: []datatypes.Edge{},
			Metadata: datatypes.RecipeMetadata{
				Version: "1.0",
			},
		},
	}
}

// AddNode instantiates a node of the given kind from its template.
//
// Outputs:
//   - datatypes.Node: the created node, with a fresh unique ID and the
//     template's default label, config and ports applied
//   - error: registry.ErrUnknownKind when no template exists for kind
func (m *Model) AddNode(kind datatypes.NodeKind, pos datatypes.Position) (datatypes.Node, error) {
	tmpl, err := m.registry.Get(kind)
	if err != nil {
		return datatypes.Node{}, err
	}
	node := datatypes.Node{
		ID:       uuid.New().String(),
		Kind:     kind,
		Label:    tmpl.Label,
		Position: pos,
		Config:   tmpl.DefaultConfig,
		Inputs:   tmpl.Inputs,
		Outputs:  tmpl.Outputs,
	}
	m.recipe.Nodes = append(m.recipe.Nodes, node)
	m.dirty = true
	return node, nil
}

// UpdateNode merges a patch into an existing node.
func (m *Model) UpdateNode(id string, patch NodePatch) error {
	node := m.recipe.NodeByID(id)
	if node == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if patch.Label != nil {
		node.Label = *patch.Label
	}
	if patch.Position != nil {
		node.Position = *patch.Position
	}
	if patch.Config != nil {
		if node.Config == nil {
			node.Config = make(map[string]any, len(patch.Config))
		}
		for k, v := range patch.Config {
			node.Config[k] = v
		}
	}
	m.dirty = true
	return nil
}

// RemoveNode deletes a node and cascades removal of every incident edge.
func (m *Model) RemoveNode(id string) error {
	idx := -1
	for i := range m.recipe.Nodes {
		if m.recipe.Nodes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	m.recipe.Nodes = append(m.recipe.Nodes[:idx], m.recipe.Nodes[idx+1:]...)

	kept := m.recipe.Edges[:0]
	for _, e := range m.recipe.Edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	m.recipe.Edges = kept
	m.dirty = true
	return nil
}

// Connect creates a directed edge between two existing nodes.
//
// Duplicate edges and self-loops are accepted here; the validator decides
// whether they matter. Deduping silently would change what the user drew.
func (m *Model) Connect(source, target, sourceHandle, targetHandle string) (datatypes.Edge, error) {
	if m.recipe.NodeByID(source) == nil {
		return datatypes.Edge{}, fmt.Errorf("%w: source %s", ErrNodeNotFound, source)
	}
	if m.recipe.NodeByID(target) == nil {
		return datatypes.Edge{}, fmt.Errorf("%w: target %s", ErrNodeNotFound, target)
	}
	edge := datatypes.Edge{
		ID:           uuid.New().String(),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	}
	m.recipe.Edges = append(m.recipe.Edges, edge)
	m.dirty = true
	return edge, nil
}

// RemoveEdge deletes a single edge.
func (m *Model) RemoveEdge(id string) error {
	for i := range m.recipe.Edges {
		if m.recipe.Edges[i].ID == id {
			m.recipe.Edges = append(m.recipe.Edges[:i], m.recipe.Edges[i+1:]...)
			m.dirty = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
}

// Rename changes the recipe's name and description.
func (m *Model) Rename(name, description string) {
	if name != "" {
		m.recipe.Name = name
	}
	m.recipe.Description = description
	m.dirty = true
}

// Snapshot returns a deep copy of the current recipe.
//
// The copy is what the validator, compiler client and persistence client
// consume; they never see the live graph.
func (m *Model) Snapshot() datatypes.Recipe {
	return m.recipe.Clone()
}

// Reset replaces the whole graph, clearing the dirty flag.
//
// A nil recipe resets to an empty untitled graph (the "new" intent);
// otherwise the given recipe becomes the editing state (the "load" intent).
func (m *Model) Reset(recipe *datatypes.Recipe) {
	if recipe == nil {
		m.recipe = NewModel(m.registry).recipe
	} else {
		m.recipe = recipe.Clone()
		if m.recipe.Nodes == nil {
			m.recipe.Nodes = []datatypes.Node{}
		}
		if m.recipe.Edges == nil {
			m.recipe.Edges = []datatypes.Edge{}
		}
	}
	m.dirty = false
}

// Dirty reports whether the recipe has unsaved mutations.
func (m *Model) Dirty() bool {
	return m.dirty
}

// MarkSaved records a successful save: the store-assigned ID and
// timestamps are applied and the dirty flag cleared.
func (m *Model) MarkSaved(id string, createdAt, updatedAt time.Time) {
	m.RecordSavedRef(id, createdAt, updatedAt)
	m.dirty = false
}

// RecordSavedRef applies a store-assigned ID and timestamps without
// clearing the dirty flag, for saves that raced a newer edit.
func (m *Model) RecordSavedRef(id string, createdAt, updatedAt time.Time) {
	m.recipe.ID = id
	if !createdAt.IsZero() {
		m.recipe.Metadata.CreatedAt = createdAt
	}
	if !updatedAt.IsZero() {
		m.recipe.Metadata.UpdatedAt = updatedAt
	}
}

// SavedID returns the store-assigned recipe ID, or "" before first save.
func (m *Model) SavedID() string {
	return m.recipe.ID
}
