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
// This file contains the types for the compile boundary: the request sent
// to the external compiler service, its synchronous response, and the
// progress events streamed back over the session's progress channel.
package datatypes

// =============================================================================
// ENUMS
// =============================================================================

// OptimizationLevel selects how aggressively the compiler optimizes.
//
// Valid Values:
//   - "basic": fast compile, no cross-node optimization
//   - "optimized": standard optimization passes
//   - "aggressive": full optimization, may reorder commutable stages
type OptimizationLevel string

const (
	OptimizationBasic      OptimizationLevel = "basic"
	OptimizationOptimized  OptimizationLevel = "optimized"
	OptimizationAggressive OptimizationLevel = "aggressive"
)

// validOptimizationLevels contains all valid OptimizationLevel values.
var validOptimizationLevels = map[OptimizationLevel]bool{
	OptimizationBasic:      true,
	OptimizationOptimized:  true,
	OptimizationAggressive: true,
}

// IsValid checks if the OptimizationLevel is a defined value.
func (l OptimizationLevel) IsValid() bool {
	return validOptimizationLevels[l]
}

// String returns the string representation of the level.
func (l OptimizationLevel) String() string {
	return string(l)
}

// TargetRuntime selects the execution backend the compiler emits for.
//
// The enumeration is backend-defined; these are the runtimes the current
// compiler service accepts.
type TargetRuntime string

const (
	RuntimePython     TargetRuntime = "python"
	RuntimeJavaScript TargetRuntime = "javascript"
	RuntimeQuantum    TargetRuntime = "quantum"
)

// validTargetRuntimes contains all valid TargetRuntime values.
var validTargetRuntimes = map[TargetRuntime]bool{
	RuntimePython:     true,
	RuntimeJavaScript: true,
	RuntimeQuantum:    true,
}

// IsValid checks if the TargetRuntime is a defined value.
func (t TargetRuntime) IsValid() bool {
	return validTargetRuntimes[t]
}

// String returns the string representation of the runtime.
func (t TargetRuntime) String() string {
	return string(t)
}

// ExecutionStatus is the lifecycle state of a remote compilation.
type ExecutionStatus string

const (
	// StatusRunning indicates the compilation is still in progress.
	StatusRunning ExecutionStatus = "running"

	// StatusCompleted indicates the compilation finished successfully.
	StatusCompleted ExecutionStatus = "completed"

	// StatusFailed indicates the compilation failed remotely.
	StatusFailed ExecutionStatus = "failed"
)

// IsTerminal returns true for completed and failed.
//
// Once a terminal status is observed for a correlation ID, every later
// update for that ID must be discarded.
func (s ExecutionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String returns the string representation of the status.
func (s ExecutionStatus) String() string {
	return string(s)
}

// =============================================================================
// Compile Boundary Wire Types
// =============================================================================

// RequestNodeData is the nested payload of a node on the compile wire.
type RequestNodeData struct {
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	Inputs      []string       `json:"inputs,omitempty"`
	Outputs     []string       `json:"outputs,omitempty"`
}

// RequestNode is a node as the compiler service expects it.
type RequestNode struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Position Position        `json:"position"`
	Data     RequestNodeData `json:"data"`
	Config   map[string]any  `json:"config,omitempty"`
}

// RequestEdge is an edge as the compiler service expects it.
type RequestEdge struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	SourceHandle string         `json:"source_handle,omitempty"`
	TargetHandle string         `json:"target_handle,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// RequestMetadata is the recipe metadata block on the compile wire.
type RequestMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// CompilationRequest is the immutable snapshot submitted to the compiler.
//
// Description:
//
//	Built once from a validated recipe snapshot plus the caller's level and
//	runtime choices, then never mutated. CorrelationID is generated by the
//	client and echoed on every progress event for this compilation; the
//	compiler ignores it when no progress channel is attached to the session.
type CompilationRequest struct {
	Nodes             []RequestNode     `json:"nodes"`
	Edges             []RequestEdge     `json:"edges"`
	Metadata          RequestMetadata   `json:"metadata"`
	OptimizationLevel OptimizationLevel `json:"optimization_level"`
	TargetRuntime     TargetRuntime     `json:"target_runtime"`
	RecipeName        string            `json:"recipe_name"`
	Description       string            `json:"description,omitempty"`
	CorrelationID     string            `json:"correlation_id,omitempty"`
}

// CompiledRecipe is the compiler's successful result.
//
// At most one CompiledRecipe is current per session; a newer one replaces
// it and any graph mutation invalidates it.
type CompiledRecipe struct {
	RecipeID          string         `json:"recipe_id"`
	CompiledCode      string         `json:"compiled_code"`
	ExecutionPlan     map[string]any `json:"execution_plan,omitempty"`
	EstimatedCost     float64        `json:"estimated_cost"`
	EstimatedDuration float64        `json:"estimated_duration"`
	Warnings          []string       `json:"warnings,omitempty"`
}

// ExecutionUpdate is one transient progress event for a compilation.
//
// Description:
//
//	Updates arrive on the session's progress channel keyed by the request's
//	correlation ID. Progress is monotonically non-decreasing per ID and
//	exactly one terminal event (completed or failed) closes the sequence.
//	Updates are consumed once and never persisted.
type ExecutionUpdate struct {
	// ID is the correlation ID of the compilation this update belongs to.
	ID string `json:"id"`

	// Progress is the completion fraction in [0, 1].
	Progress float64 `json:"progress"`

	// Message is a human-readable description of the current phase.
	Message string `json:"message,omitempty"`

	// Status is the lifecycle state carried by this update.
	Status ExecutionStatus `json:"status"`

	// Result carries the compiled recipe on a completed update.
	Result *CompiledRecipe `json:"result,omitempty"`

	// Error carries the backend failure message on a failed update.
	Error string `json:"error,omitempty"`
}
