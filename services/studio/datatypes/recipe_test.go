// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"testing"
)

func TestOptimizationLevel_IsValid(t *testing.T) {
	tests := []struct {
		level OptimizationLevel
		want  bool
	}{
		{OptimizationBasic, true},
		{OptimizationOptimized, true},
		{OptimizationAggressive, true},
		{OptimizationLevel("turbo"), false},
		{OptimizationLevel(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := tt.level.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTargetRuntime_IsValid(t *testing.T) {
	tests := []struct {
		runtime TargetRuntime
		want    bool
	}{
		{RuntimePython, true},
		{RuntimeJavaScript, true},
		{RuntimeQuantum, true},
		{TargetRuntime("cobol"), false},
		{TargetRuntime(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.runtime), func(t *testing.T) {
			if got := tt.runtime.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecutionStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status ExecutionStatus
		want   bool
	}{
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{ExecutionStatus("queued"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecipe_NodeByID(t *testing.T) {
	r := Recipe{Nodes: []Node{
		{ID: "a", Label: "first"},
		{ID: "b", Label: "second"},
	}}

	got := r.NodeByID("b")
	if got == nil || got.Label != "second" {
		t.Fatalf("NodeByID(b) = %v", got)
	}
	// The pointer references the backing slice, so edits stick.
	got.Label = "renamed"
	if r.Nodes[1].Label != "renamed" {
		t.Error("NodeByID did not return a pointer into the recipe")
	}
	if r.NodeByID("missing") != nil {
		t.Error("NodeByID(missing) != nil")
	}
}

func TestRecipe_EdgeByID(t *testing.T) {
	r := Recipe{Edges: []Edge{{ID: "e1", Source: "a", Target: "b"}}}

	if got := r.EdgeByID("e1"); got == nil || got.Source != "a" {
		t.Fatalf("EdgeByID(e1) = %v", got)
	}
	if r.EdgeByID("nope") != nil {
		t.Error("EdgeByID(nope) != nil")
	}
}

func TestRecipe_Clone(t *testing.T) {
	original := Recipe{
		ID:   "r1",
		Name: "Pipeline",
		Nodes: []Node{{
			ID:     "n1",
			Kind:   KindProcessor,
			Config: map[string]any{"operation": "transform"},
			Inputs: []string{"in"},
		}},
		Edges: []Edge{{ID: "e1", Source: "n1", Target: "n1"}},
		Metadata: RecipeMetadata{
			Version: "1.0",
			Tags:    []string{"demo"},
		},
	}

	clone := original.Clone()
	clone.Nodes[0].Config["operation"] = "mutated"
	clone.Nodes[0].Inputs[0] = "mutated"
	clone.Edges[0].Target = "mutated"
	clone.Metadata.Tags[0] = "mutated"

	if original.Nodes[0].Config["operation"] != "transform" {
		t.Error("Clone shares node config maps")
	}
	if original.Nodes[0].Inputs[0] != "in" {
		t.Error("Clone shares node port slices")
	}
	if original.Edges[0].Target != "n1" {
		t.Error("Clone shares the edge slice")
	}
	if original.Metadata.Tags[0] != "demo" {
		t.Error("Clone shares metadata tags")
	}
}
