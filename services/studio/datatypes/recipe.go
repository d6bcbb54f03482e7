// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides type definitions for the RecipeStudio core.
//
// This file contains the recipe aggregate: the named graph of typed nodes
// and directed edges that the studio edits, validates, compiles and saves.
package datatypes

import "time"

// =============================================================================
// Node Kinds
// =============================================================================

// NodeKind identifies the processing stage a node represents.
//
// Description:
//
//	Every node in a recipe references exactly one NodeKind. The kind
//	determines which template instantiated the node and which configuration
//	schema applies to it. Kinds are open-ended: the template registry may
//	introduce new kinds without changes to the graph or validator code.
//
// Valid Values:
//   - "dataSource": entry point feeding external data into the pipeline
//   - "processor": general data transform
//   - "aiModel": AI/ML inference stage
//   - "quantum": generic quantum operation
//   - "quantumGate": single quantum gate application
//   - "quantumCircuit": composed quantum circuit
//   - "quantumAlgorithm": named quantum algorithm (QAOA, Grover, ...)
//   - "conditional": branch on a runtime predicate
//   - "integration": call out to an external system
//   - "output": pipeline sink
//
// Thread Safety: Safe for concurrent use (immutable string type).
type NodeKind string

const (
	KindDataSource       NodeKind = "dataSource"
	KindProcessor        NodeKind = "processor"
	KindAIModel          NodeKind = "aiModel"
	KindQuantum          NodeKind = "quantum"
	KindQuantumGate      NodeKind = "quantumGate"
	KindQuantumCircuit   NodeKind = "quantumCircuit"
	KindQuantumAlgorithm NodeKind = "quantumAlgorithm"
	KindConditional      NodeKind = "conditional"
	KindIntegration      NodeKind = "integration"
	KindOutput           NodeKind = "output"
)

// String returns the string representation of the kind.
func (k NodeKind) String() string {
	return string(k)
}

// =============================================================================
// Graph Elements
// =============================================================================

// Position is the 2D canvas coordinate of a node.
//
// Presentation-only: positions never participate in validation or
// compilation correctness.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single typed vertex of a recipe graph.
//
// Description:
//
//	Nodes are created from a template in the registry, which supplies the
//	kind, default label and default configuration. The Config map's shape is
//	kind-specific; the registry owns the schema for each kind.
//
// Thread Safety:
//
//	Node values are owned by the graph model and must only be mutated
//	through it.
type Node struct {
	// ID is unique within a recipe, assigned at creation, never reused.
	ID string `json:"id"`

	// Kind references a known node template.
	Kind NodeKind `json:"kind"`

	// Label is the user-visible name of the node.
	Label string `json:"label"`

	// Position is the canvas placement (presentation only).
	Position Position `json:"position"`

	// Config holds the kind-specific configuration values.
	Config map[string]any `json:"config,omitempty"`

	// Inputs are the declared input port names, if the kind has several.
	Inputs []string `json:"inputs,omitempty"`

	// Outputs are the declared output port names, if the kind has several.
	Outputs []string `json:"outputs,omitempty"`
}

// Edge is a directed connection between two nodes.
//
// Invariant: Source and Target always reference nodes present in the same
// recipe. Self-loops and duplicate edges are permitted; flagging them is
// the validator's concern, not the model's.
type Edge struct {
	// ID is unique within a recipe.
	ID string `json:"id"`

	// Source is the upstream node's ID.
	Source string `json:"source"`

	// Target is the downstream node's ID.
	Target string `json:"target"`

	// SourceHandle names the output port on the source node, if any.
	SourceHandle string `json:"source_handle,omitempty"`

	// TargetHandle names the input port on the target node, if any.
	TargetHandle string `json:"target_handle,omitempty"`

	// Data carries optional presentation metadata for the connection.
	Data map[string]any `json:"data,omitempty"`
}

// =============================================================================
// Recipe Aggregate
// =============================================================================

// RecipeMetadata carries the bookkeeping fields of a stored recipe.
type RecipeMetadata struct {
	// Version is the recipe format version.
	Version string `json:"version,omitempty"`

	// Author identifies who created the recipe.
	Author string `json:"author,omitempty"`

	// Tags are free-form labels used by the catalog.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt is set by the store on first save.
	CreatedAt time.Time `json:"created_at,omitzero"`

	// UpdatedAt is set by the store on every save.
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Recipe is the aggregate root: the unit of editing, persistence and
// compilation.
//
// Description:
//
//	A recipe owns its node and edge sets. Node IDs are unique within a
//	recipe and every edge's endpoints resolve to nodes in the same recipe.
//	ID is empty until the recipe has been saved once; the store assigns it.
//
// Thread Safety:
//
//	Recipe values returned by the graph model's Snapshot are deep copies
//	and safe to read from any goroutine.
type Recipe struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Metadata    RecipeMetadata `json:"metadata"`
	Nodes       []Node         `json:"nodes"`
	Edges       []Edge         `json:"edges"`
}

// NodeByID returns the node with the given ID, or nil if absent.
func (r *Recipe) NodeByID(id string) *Node {
	for i := range r.Nodes {
		if r.Nodes[i].ID == id {
			return &r.Nodes[i]
		}
	}
	return nil
}

// EdgeByID returns the edge with the given ID, or nil if absent.
func (r *Recipe) EdgeByID(id string) *Edge {
	for i := range r.Edges {
		if r.Edges[i].ID == id {
			return &r.Edges[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the recipe.
//
// Maps and slices are copied one level deep, which is sufficient because
// config values are treated as immutable once set.
func (r *Recipe) Clone() Recipe {
	out := *r
	out.Nodes = make([]Node, len(r.Nodes))
	for i, n := range r.Nodes {
		out.Nodes[i] = n
		if n.Config != nil {
			cfg := make(map[string]any, len(n.Config))
			for k, v := range n.Config {
				cfg[k] = v
			}
			out.Nodes[i].Config = cfg
		}
		out.Nodes[i].Inputs = append([]string(nil), n.Inputs...)
		out.Nodes[i].Outputs = append([]string(nil), n.Outputs...)
	}
	out.Edges = make([]Edge, len(r.Edges))
	for i, e := range r.Edges {
		out.Edges[i] = e
		if e.Data != nil {
			data := make(map[string]any, len(e.Data))
			for k, v := range e.Data {
				data[k] = v
			}
			out.Edges[i].Data = data
		}
	}
	out.Metadata.Tags = append([]string(nil), r.Metadata.Tags...)
	return out
}
