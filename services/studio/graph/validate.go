// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"fmt"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
	"github.com/jinterlante1206/RecipeStudio/services/studio/registry"
)

// ValidationCode identifies a class of recipe validation failure.
type ValidationCode string

const (
	// CodeEmptyGraph: the recipe has no nodes at all.
	CodeEmptyGraph ValidationCode = "EmptyGraph"

	// CodeMissingOutput: no node of kind "output" exists.
	CodeMissingOutput ValidationCode = "MissingOutput"

	// CodeMissingInput: no node of kind "dataSource" exists.
	CodeMissingInput ValidationCode = "MissingInput"

	// CodeDisconnectedNodes: one or more nodes have no incident edge.
	CodeDisconnectedNodes ValidationCode = "DisconnectedNodes"

	// CodeConfigInvalid: a node's config fails its kind's schema.
	CodeConfigInvalid ValidationCode = "ConfigInvalid"
)

// ValidationError is one user-facing problem with a recipe.
type ValidationError struct {
	// Code classifies the problem.
	Code ValidationCode `json:"code"`

	// Message is the display text.
	Message string `json:"message"`

	// NodeIDs lists the offending nodes, when the problem is node-scoped.
	NodeIDs []string `json:"node_ids,omitempty"`
}

// Validate checks a recipe snapshot for structural and configuration
// problems.
//
// Description:
//
//	Pure function: it never mutates the snapshot or the registry and
//	returns the same ordered list for the same input every time. Rules run
//	in a fixed order so error lists are deterministic and test-stable:
//
//	 1. EmptyGraph (suppresses all other rules — they would be redundant)
//	 2. MissingOutput
//	 3. MissingInput
//	 4. DisconnectedNodes (only when the recipe has more than one node)
//	 5. ConfigInvalid, per node in node order
//
//	A recipe is compilable iff the returned list is empty.
func Validate(reg *registry.Registry, snapshot datatypes.Recipe) []ValidationError {
	if len(snapshot.Nodes) == 0 {
		return []ValidationError{{
			Code:    CodeEmptyGraph,
			Message: "recipe has no nodes",
		}}
	}

	var errs []ValidationError

	hasOutput := false
	hasInput := false
	for _, n := range snapshot.Nodes {
		switch n.Kind {
		case datatypes.KindOutput:
			hasOutput = true
		case datatypes.KindDataSource:
			hasInput = true
		}
	}
	if !hasOutput {
		errs = append(errs, ValidationError{
			Code:    CodeMissingOutput,
			Message: "recipe has no output node",
		})
	}
	if !hasInput {
		errs = append(errs, ValidationError{
			Code:    CodeMissingInput,
			Message: "recipe has no data source node",
		})
	}

	// A single-node recipe is never disconnected from itself.
	if len(snapshot.Nodes) > 1 {
		connected := make(map[string]bool, len(snapshot.Nodes))
		for _, e := range snapshot.Edges {
			connected[e.Source] = true
			connected[e.Target] = true
		}
		var orphans []string
		for _, n := range snapshot.Nodes {
			if !connected[n.ID] {
				orphans = append(orphans, n.ID)
			}
		}
		if len(orphans) > 0 {
			errs = append(errs, ValidationError{
				Code:    CodeDisconnectedNodes,
				Message: fmt.Sprintf("%d node(s) are not connected to the pipeline", len(orphans)),
				NodeIDs: orphans,
			})
		}
	}

	for _, n := range snapshot.Nodes {
		problems, err := reg.ValidateConfig(n.Kind, n.Config)
		if err != nil {
			problems = []string{err.Error()}
		}
		for _, p := range problems {
			errs = append(errs, ValidationError{
				Code:    CodeConfigInvalid,
				Message: p,
				NodeIDs: []string{n.ID},
			})
		}
	}

	return errs
}
