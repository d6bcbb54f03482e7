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
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jinterlante1206/RecipeStudio/services/studio/compiler"
	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
	"github.com/jinterlante1206/RecipeStudio/services/studio/graph"
	"github.com/jinterlante1206/RecipeStudio/services/studio/registry"
	"github.com/jinterlante1206/RecipeStudio/services/studio/store"
)

// Compiler is the compile boundary the session depends on.
type Compiler interface {
	Compile(ctx context.Context, snapshot datatypes.Recipe,
		level datatypes.OptimizationLevel, runtime datatypes.TargetRuntime) (*compiler.Handle, error)
	Cancel(h *compiler.Handle)
}

// Store is the persistence boundary the session depends on.
type Store interface {
	Save(ctx context.Context, snapshot datatypes.Recipe, existingID string) (store.SavedRecipeRef, error)
	Load(ctx context.Context, id string) (datatypes.Recipe, error)
}

// draftKey is the stable draft-store key for the active recipe. Session
// IDs are random per process, so drafts keyed by them would never survive
// a restart; one controller edits one recipe at a time, so a fixed key is
// enough.
const draftKey = "active"

// Drafts is the optional local autosave boundary.
type Drafts interface {
	Put(sessionID string, recipe datatypes.Recipe) error
	Get(sessionID string) (datatypes.Recipe, bool, error)
	Delete(sessionID string) error
}

// Controller owns one editing session: the single active recipe, the
// single current compiled artifact (if any), and the state machine tying
// them together. All collaborators are injected; there is no ambient
// global state.
type Controller struct {
	id       string
	registry *registry.Registry
	compiler Compiler
	store    Store
	drafts   Drafts
	notify   *notifier

	mu        sync.Mutex
	model     *graph.Model
	state     State
	valErrors []graph.ValidationError
	compiled  *datatypes.CompiledRecipe
	compiling bool
	inflight  *compiler.Handle

	// version counts graph mutations. A compile remembers the version it
	// snapshotted; a result arriving for an older version is discarded.
	version uint64

	// flight counts compile attempts and aborts. A cancel, New or Load
	// while the submit request is still outstanding bumps it, so the
	// returning Compile can tell its flight was aborted and must not
	// install the handle or apply the result.
	flight uint64
}

// NewController builds a session around the given collaborators.
//
// drafts may be nil to disable local autosave.
func NewController(reg *registry.Registry, comp Compiler, st Store, drafts Drafts) *Controller {
	c := &Controller{
		id:       uuid.New().String(),
		registry: reg,
		compiler: comp,
		store:    st,
		drafts:   drafts,
		notify:   newNotifier(),
		model:    graph.NewModel(reg),
		state:    StateEmpty,
	}
	c.valErrors = graph.Validate(reg, c.model.Snapshot())
	return c
}

// ID returns the session's identifier.
func (c *Controller) ID() string {
	return c.id
}

// Subscribe registers an event listener and returns its subscription ID.
//
// Listeners are invoked outside the controller lock, so they may call
// back into the controller.
func (c *Controller) Subscribe(l Listener) string {
	return c.notify.subscribe(l)
}

// Unsubscribe removes a previously registered listener.
func (c *Controller) Unsubscribe(id string) {
	c.notify.unsubscribe(id)
}

// =============================================================================
// Read Side
// =============================================================================

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ValidationErrors returns the current ordered validation error list.
func (c *Controller) ValidationErrors() []graph.ValidationError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]graph.ValidationError(nil), c.valErrors...)
}

// Compiled returns the current compiled recipe, or nil.
func (c *Controller) Compiled() *datatypes.CompiledRecipe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compiled
}

// Snapshot returns a deep copy of the recipe being edited.
func (c *Controller) Snapshot() datatypes.Recipe {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.Snapshot()
}

// Dirty reports whether the recipe has unsaved changes.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model.Dirty()
}

// =============================================================================
// Editing Intents
// =============================================================================

// AddNode adds a node of the given kind at the given canvas position.
func (c *Controller) AddNode(kind datatypes.NodeKind, pos datatypes.Position) (datatypes.Node, error) {
	c.mu.Lock()
	node, err := c.model.AddNode(kind, pos)
	if err != nil {
		c.mu.Unlock()
		return datatypes.Node{}, err
	}
	evs := c.afterMutation()
	c.mu.Unlock()
	c.emit(evs)
	return node, nil
}

// UpdateNode merges a patch into an existing node.
func (c *Controller) UpdateNode(id string, patch graph.NodePatch) error {
	c.mu.Lock()
	if err := c.model.UpdateNode(id, patch); err != nil {
		c.mu.Unlock()
		return err
	}
	evs := c.afterMutation()
	c.mu.Unlock()
	c.emit(evs)
	return nil
}

// RemoveNode deletes a node and all its incident edges.
func (c *Controller) RemoveNode(id string) error {
	c.mu.Lock()
	if err := c.model.RemoveNode(id); err != nil {
		c.mu.Unlock()
		return err
	}
	evs := c.afterMutation()
	c.mu.Unlock()
	c.emit(evs)
	return nil
}

// Connect creates an edge between two existing nodes.
func (c *Controller) Connect(source, target, sourceHandle, targetHandle string) (datatypes.Edge, error) {
	c.mu.Lock()
	edge, err := c.model.Connect(source, target, sourceHandle, targetHandle)
	if err != nil {
		c.mu.Unlock()
		return datatypes.Edge{}, err
	}
	evs := c.afterMutation()
	c.mu.Unlock()
	c.emit(evs)
	return edge, nil
}

// RemoveEdge deletes a single edge.
func (c *Controller) RemoveEdge(id string) error {
	c.mu.Lock()
	if err := c.model.RemoveEdge(id); err != nil {
		c.mu.Unlock()
		return err
	}
	evs := c.afterMutation()
	c.mu.Unlock()
	c.emit(evs)
	return nil
}

// Rename changes the recipe's name and description. Renaming does not
// invalidate a current compiled artifact; the graph is unchanged.
func (c *Controller) Rename(name, description string) {
	c.mu.Lock()
	c.model.Rename(name, description)
	c.autosave()
	c.mu.Unlock()
}

// New resets the session to an empty recipe unconditionally.
func (c *Controller) New() {
	c.mu.Lock()
	if c.inflight != nil {
		c.compiler.Cancel(c.inflight)
		c.inflight = nil
	}
	c.compiling = false
	c.flight++
	c.model.Reset(nil)
	c.compiled = nil
	c.version++
	evs := c.revalidate()
	c.mu.Unlock()
	if c.drafts != nil {
		if err := c.drafts.Delete(draftKey); err != nil {
			slog.Warn("Failed to drop session draft", "error", err)
		}
	}
	c.emit(evs)
}

// =============================================================================
// Persistence Intents
// =============================================================================

// Save persists the recipe, upserting by its stored ID.
//
// A non-empty name renames the recipe before saving. On failure the
// in-memory recipe and its previous saved ID stay untouched.
func (c *Controller) Save(ctx context.Context, name, description string) (store.SavedRecipeRef, error) {
	c.mu.Lock()
	if name != "" || description != "" {
		c.model.Rename(name, description)
	}
	snapshot := c.model.Snapshot()
	existingID := c.model.SavedID()
	version := c.version
	c.mu.Unlock()

	ref, err := c.store.Save(ctx, snapshot, existingID)
	if err != nil {
		return store.SavedRecipeRef{}, fmt.Errorf("save failed: %w", err)
	}

	c.mu.Lock()
	clean := c.version == version
	if clean {
		c.model.MarkSaved(ref.ID, ref.CreatedAt, ref.UpdatedAt)
	} else {
		// The graph moved while the save was outstanding. Record the
		// store-assigned ID so the next save upserts, but the recipe
		// stays dirty and its draft stays put.
		c.model.RecordSavedRef(ref.ID, ref.CreatedAt, ref.UpdatedAt)
	}
	state := c.state
	c.mu.Unlock()

	if clean && c.drafts != nil {
		if err := c.drafts.Delete(draftKey); err != nil {
			slog.Warn("Failed to drop session draft after save", "error", err)
		}
	}
	c.emit([]Event{c.event(EventSaved, state)})
	return ref, nil
}

// Load replaces the session's graph with a stored recipe.
//
// The session lands in EDITING or COMPILABLE depending on the loaded
// graph's validity; any compiled artifact is dropped.
func (c *Controller) Load(ctx context.Context, id string) error {
	recipe, err := c.store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	c.mu.Lock()
	if c.inflight != nil {
		c.compiler.Cancel(c.inflight)
		c.inflight = nil
	}
	c.compiling = false
	c.flight++
	c.model.Reset(&recipe)
	c.compiled = nil
	c.version++
	evs := c.revalidate()
	c.mu.Unlock()
	c.emit(evs)
	return nil
}

// RestoreDraft loads the session's autosaved draft, if one exists.
//
// Outputs:
//   - bool: true when a draft was found and restored
func (c *Controller) RestoreDraft() (bool, error) {
	if c.drafts == nil {
		return false, nil
	}
	recipe, found, err := c.drafts.Get(draftKey)
	if err != nil || !found {
		return false, err
	}
	c.mu.Lock()
	c.model.Reset(&recipe)
	c.compiled = nil
	c.version++
	evs := c.revalidate()
	c.mu.Unlock()
	c.emit(evs)
	return true, nil
}

// =============================================================================
// Compilation Intents
// =============================================================================

// Compile submits the current graph for compilation.
//
// Description:
//
//	Refuses to run while validation errors exist (NotCompilableError, no
//	network call is made) or while another compilation is in flight
//	(ErrCompilationInProgress). On the synchronous path the result is
//	applied before Compile returns; on the streaming path Compile returns
//	once the request is acknowledged and the result arrives through the
//	progress channel.
func (c *Controller) Compile(ctx context.Context, level datatypes.OptimizationLevel,
	runtime datatypes.TargetRuntime) error {

	if !level.IsValid() {
		return fmt.Errorf("invalid optimization level %q", level)
	}
	if !runtime.IsValid() {
		return fmt.Errorf("invalid target runtime %q", runtime)
	}

	c.mu.Lock()
	if c.compiling {
		c.mu.Unlock()
		return ErrCompilationInProgress
	}
	if len(c.valErrors) > 0 {
		errs := append([]graph.ValidationError(nil), c.valErrors...)
		c.mu.Unlock()
		return &NotCompilableError{Errors: errs}
	}
	snapshot := c.model.Snapshot()
	version := c.version
	c.compiling = true
	c.flight++
	flight := c.flight
	evs := c.setState(StateCompiling)
	c.mu.Unlock()
	c.emit(evs)

	handle, err := c.compiler.Compile(ctx, snapshot, level, runtime)

	c.mu.Lock()
	if c.flight != flight {
		// Cancelled or reset while the submit was outstanding. Release
		// the acknowledged handle so its updates are no longer applied.
		c.mu.Unlock()
		if err == nil && handle != nil {
			c.compiler.Cancel(handle)
		}
		return nil
	}
	if err != nil {
		evs := c.failCompile(err.Error())
		c.mu.Unlock()
		c.emit(evs)
		return &CompilationFailedError{Message: err.Error()}
	}

	if handle.Result != nil {
		evs := c.finishCompile(version, handle.Result)
		c.mu.Unlock()
		c.emit(evs)
		return nil
	}

	c.inflight = handle
	c.mu.Unlock()
	go c.watch(handle, version)
	return nil
}

// CancelCompile stops the in-flight compilation, client-side only.
//
// The remote job is not guaranteed to stop; further updates for its
// correlation ID are simply no longer applied.
func (c *Controller) CancelCompile() error {
	c.mu.Lock()
	if !c.compiling {
		c.mu.Unlock()
		return ErrNoCompilation
	}
	handle := c.inflight
	c.inflight = nil
	c.compiling = false
	c.flight++
	evs := c.recomputeState()
	c.mu.Unlock()

	if handle != nil {
		c.compiler.Cancel(handle)
	}
	slog.Info("Compilation cancelled", "session_id", c.id)
	c.emit(evs)
	return nil
}

// watch consumes the progress stream for one compilation.
func (c *Controller) watch(handle *compiler.Handle, version uint64) {
	for update := range handle.Updates {
		switch update.Status {
		case datatypes.StatusCompleted:
			c.mu.Lock()
			if c.inflight != handle {
				c.mu.Unlock()
				return
			}
			c.inflight = nil
			var evs []Event
			if update.Result != nil {
				evs = c.finishCompile(version, update.Result)
			} else {
				evs = c.failCompile("compiler reported completion without a result")
			}
			c.mu.Unlock()
			c.emit(evs)
			return
		case datatypes.StatusFailed:
			c.mu.Lock()
			if c.inflight != handle {
				c.mu.Unlock()
				return
			}
			c.inflight = nil
			evs := c.failCompile(update.Error)
			c.mu.Unlock()
			c.emit(evs)
			return
		default:
			c.mu.Lock()
			mine := c.inflight == handle
			state := c.state
			c.mu.Unlock()
			if !mine {
				return
			}
			ev := c.event(EventProgress, state)
			u := update
			ev.Update = &u
			c.emit([]Event{ev})
		}
	}

	// Stream ended without a terminal event: cancelled locally, or the
	// progress channel dropped underneath the compilation.
	c.mu.Lock()
	if c.inflight != handle {
		c.mu.Unlock()
		return
	}
	c.inflight = nil
	evs := c.failCompile("progress channel closed before completion")
	c.mu.Unlock()
	c.emit(evs)
}

// =============================================================================
// Internal State Management (all require c.mu held)
// =============================================================================

// afterMutation runs the shared post-mutation sequence: bump the graph
// version, invalidate any current compiled artifact, revalidate, recompute
// the state and autosave the draft.
func (c *Controller) afterMutation() []Event {
	c.version++
	c.compiled = nil
	c.autosave()
	return c.revalidate()
}

// revalidate re-runs the validator and recomputes the state.
func (c *Controller) revalidate() []Event {
	c.valErrors = graph.Validate(c.registry, c.model.Snapshot())
	evs := c.recomputeState()
	ev := c.event(EventValidation, c.state)
	ev.ValidationErrors = append([]graph.ValidationError(nil), c.valErrors...)
	return append(evs, ev)
}

// recomputeState derives the state from the current facts.
func (c *Controller) recomputeState() []Event {
	switch {
	case c.compiling:
		return c.setState(StateCompiling)
	case len(c.model.Snapshot().Nodes) == 0:
		return c.setState(StateEmpty)
	case len(c.valErrors) > 0:
		return c.setState(StateEditing)
	case c.compiled != nil:
		return c.setState(StateCompiled)
	default:
		return c.setState(StateCompilable)
	}
}

// setState transitions the machine, emitting an event on actual change.
func (c *Controller) setState(next State) []Event {
	if c.state == next {
		return nil
	}
	prev := c.state
	c.state = next
	slog.Debug("Session state transition",
		"session_id", c.id, "from", prev, "to", next)
	return []Event{c.event(EventStateChanged, next)}
}

// finishCompile applies a successful result, unless the graph moved on
// while the compilation was in flight.
func (c *Controller) finishCompile(version uint64, result *datatypes.CompiledRecipe) []Event {
	c.compiling = false
	if version != c.version {
		// The user edited during compilation; the artifact no longer
		// matches the editable graph and is not silently kept.
		slog.Info("Discarding stale compilation result", "session_id", c.id)
		evs := c.recomputeState()
		ev := c.event(EventCompileFailed, c.state)
		ev.Error = "compiled artifact is stale: the graph changed during compilation"
		return append(evs, ev)
	}
	c.compiled = result
	evs := c.recomputeState()
	ev := c.event(EventCompiled, c.state)
	ev.Compiled = result
	return append(evs, ev)
}

// failCompile records a failed or aborted compilation. The previous
// compiled artifact, if any, stays current.
func (c *Controller) failCompile(msg string) []Event {
	c.compiling = false
	evs := c.recomputeState()
	ev := c.event(EventCompileFailed, c.state)
	ev.Error = msg
	return append(evs, ev)
}

// autosave writes the current recipe to the draft store, best-effort.
func (c *Controller) autosave() {
	if c.drafts == nil {
		return
	}
	if err := c.drafts.Put(draftKey, c.model.Snapshot()); err != nil {
		slog.Warn("Draft autosave failed", "session_id", c.id, "error", err)
	}
}

// event builds a base event with the common fields filled in.
func (c *Controller) event(t EventType, state State) Event {
	return Event{
		Type:      t,
		SessionID: c.id,
		State:     state,
		Timestamp: time.Now(),
	}
}

// emit delivers events outside the controller lock.
func (c *Controller) emit(evs []Event) {
	for _, ev := range evs {
		c.notify.emit(ev)
	}
}
