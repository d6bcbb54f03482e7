// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session orchestrates one recipe editing session.
//
// The controller binds user intents (add node, connect, compile, save,
// load, new) to the graph model, validator, compiler client and
// persistence client, and exposes the UI-observable state through a
// finite state machine:
//
//	EMPTY → EDITING → COMPILABLE → COMPILING → COMPILED
//
// Any graph mutation after a successful compile drops back to EDITING or
// COMPILABLE; the compiled artifact never survives a graph change.
//
// Thread Safety:
//
//	All exported methods are safe for concurrent use. Intents are
//	serialized by a single controller lock, so no two mutations ever
//	apply concurrently to the same recipe.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jinterlante1206/RecipeStudio/services/studio/graph"
)

// State is a state in the session state machine.
type State string

const (
	// StateEmpty: no nodes yet.
	StateEmpty State = "EMPTY"

	// StateEditing: nodes present but validation errors remain.
	StateEditing State = "EDITING"

	// StateCompilable: the validator reports zero errors.
	StateCompilable State = "COMPILABLE"

	// StateCompiling: a compilation is in flight.
	StateCompiling State = "COMPILING"

	// StateCompiled: a compiled recipe is current and matches the graph.
	StateCompiled State = "COMPILED"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

var (
	// ErrCompilationInProgress indicates a compile intent while another
	// compilation is still in flight. The session rejects the new request
	// rather than silently discarding in-flight work.
	ErrCompilationInProgress = errors.New("compilation already in progress")

	// ErrNoCompilation indicates a cancel intent with nothing in flight.
	ErrNoCompilation = errors.New("no compilation in progress")
)

// NotCompilableError is returned when compile is requested while the
// validator still reports errors. No network call is made in that case.
type NotCompilableError struct {
	Errors []graph.ValidationError
}

func (e *NotCompilableError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msgs = append(msgs, ve.Message)
	}
	return fmt.Sprintf("recipe is not compilable: %s", strings.Join(msgs, "; "))
}

// CompilationFailedError carries the backend's failure message.
type CompilationFailedError struct {
	Message string
}

func (e *CompilationFailedError) Error() string {
	return "compilation failed: " + e.Message
}
