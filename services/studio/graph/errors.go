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

import "errors"

// Sentinel errors for structural failures. These indicate a bad mutation
// request from the caller; the model is left unchanged when they occur.
var (
	// ErrNodeNotFound indicates a node ID that is not in the recipe.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound indicates an edge ID that is not in the recipe.
	ErrEdgeNotFound = errors.New("edge not found")
)
