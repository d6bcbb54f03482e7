// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
	"github.com/jinterlante1206/RecipeStudio/services/studio/graph"
)

// EventType identifies the kind of session event.
type EventType string

const (
	// EventStateChanged is emitted on every state machine transition.
	EventStateChanged EventType = "state_changed"

	// EventValidation is emitted after every revalidation of the graph.
	EventValidation EventType = "validation"

	// EventProgress is emitted for each running execution update.
	EventProgress EventType = "progress"

	// EventCompiled is emitted when a compiled recipe becomes current.
	EventCompiled EventType = "compiled"

	// EventCompileFailed is emitted when a compilation fails or is
	// invalidated by a concurrent graph change.
	EventCompileFailed EventType = "compile_failed"

	// EventSaved is emitted after a successful save.
	EventSaved EventType = "saved"
)

// Event is one observable session occurrence.
//
// Events let a UI subscribe to validation results, state transitions and
// compile progress without polling, and without the session knowing
// anything about rendering.
type Event struct {
	// Type identifies the kind of event.
	Type EventType `json:"type"`

	// SessionID links the event to its session.
	SessionID string `json:"session_id"`

	// State is the session state after the event.
	State State `json:"state"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// ValidationErrors carries the current error list on validation events.
	ValidationErrors []graph.ValidationError `json:"validation_errors,omitempty"`

	// Update carries the execution update on progress events.
	Update *datatypes.ExecutionUpdate `json:"update,omitempty"`

	// Compiled carries the result on compiled events.
	Compiled *datatypes.CompiledRecipe `json:"compiled,omitempty"`

	// Error carries the failure message on compile_failed events.
	Error string `json:"error,omitempty"`
}

// Listener receives session events. Listeners must not block; they are
// invoked synchronously on the emitting goroutine.
type Listener func(Event)

// notifier fans session events out to subscribed listeners.
type notifier struct {
	mu        sync.RWMutex
	listeners map[string]Listener
}

func newNotifier() *notifier {
	return &notifier{listeners: make(map[string]Listener)}
}

// subscribe registers a listener and returns its subscription ID.
func (n *notifier) subscribe(l Listener) string {
	id := uuid.New().String()
	n.mu.Lock()
	n.listeners[id] = l
	n.mu.Unlock()
	return id
}

// unsubscribe removes a listener. Unknown IDs are ignored.
func (n *notifier) unsubscribe(id string) {
	n.mu.Lock()
	delete(n.listeners, id)
	n.mu.Unlock()
}

// emit delivers an event to every listener.
func (n *notifier) emit(ev Event) {
	n.mu.RLock()
	listeners := make([]Listener, 0, len(n.listeners))
	for _, l := range n.listeners {
		listeners = append(listeners, l)
	}
	n.mu.RUnlock()
	for _, l := range listeners {
		l(ev)
	}
}
