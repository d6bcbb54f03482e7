// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package registry provides the node template catalog for RecipeStudio.
//
// The registry is the single authority on which node kinds exist, what a
// freshly added node of each kind looks like, and which configuration
// schema applies to it. The graph model and validator consume the registry
// through its read interface only, so new kinds can be introduced here (or
// through a YAML overlay file) without touching either of them.
//
// Thread Safety:
//
//	Registry is safe for concurrent use. Templates are copied on read.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
)

// ErrUnknownKind indicates a node kind with no registered template.
var ErrUnknownKind = errors.New("unknown node kind")

// Template is an immutable catalog entry describing one node kind.
type Template struct {
	// Kind uniquely identifies the template.
	Kind datatypes.NodeKind `json:"kind" yaml:"kind"`

	// Label is the default user-visible name for new nodes.
	Label string `json:"label" yaml:"label"`

	// Category groups templates in the editor palette.
	Category string `json:"category" yaml:"category"`

	// DefaultConfig seeds the config of every new node of this kind.
	DefaultConfig map[string]any `json:"default_config,omitempty" yaml:"default_config,omitempty"`

	// Inputs and Outputs declare the named ports, when the kind has several.
	Inputs  []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// clone returns a deep copy so callers can't mutate registry state.
func (t Template) clone() Template {
	out := t
	if t.DefaultConfig != nil {
		cfg := make(map[string]any, len(t.DefaultConfig))
		for k, v := range t.DefaultConfig {
			cfg[k] = v
		}
		out.DefaultConfig = cfg
	}
	out.Inputs = append([]string(nil), t.Inputs...)
	out.Outputs = append([]string(nil), t.Outputs...)
	return out
}

// Registry holds the available node templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[datatypes.NodeKind]Template
}

// New returns a registry seeded with the built-in templates.
func New() *Registry {
	r := &Registry{templates: make(map[datatypes.NodeKind]Template, len(builtinTemplates))}
	for _, t := range builtinTemplates {
		r.templates[t.Kind] = t
	}
	return r
}

// Get returns the template for kind.
//
// Outputs:
//   - Template: a copy of the catalog entry
//   - error: ErrUnknownKind if no template is registered for kind
func (r *Registry) Get(kind datatypes.NodeKind) (Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[kind]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return t.clone(), nil
}

// Has reports whether a template is registered for kind.
func (r *Registry) Has(kind datatypes.NodeKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[kind]
	return ok
}

// Kinds returns all registered kinds in sorted order.
func (r *Registry) Kinds() []datatypes.NodeKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]datatypes.NodeKind, 0, len(r.templates))
	for k := range r.templates {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Templates returns all registered templates in kind order.
func (r *Registry) Templates() []Template {
	kinds := r.Kinds()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Template, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, r.templates[k].clone())
	}
	return out
}

// Register adds or replaces a template.
//
// Used by the overlay loader and by extensions registering custom kinds.
// A template with an empty Kind is rejected.
func (r *Registry) Register(t Template) error {
	if t.Kind == "" {
		return errors.New("template kind must not be empty")
	}
	if t.Label == "" {
		t.Label = string(t.Kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Kind] = t.clone()
	return nil
}

// builtinTemplates is the static catalog shipped with the studio.
var builtinTemplates = []Template{
	{
		Kind:     datatypes.KindDataSource,
		Label:    "Data Source",
		Category: "input",
		DefaultConfig: map[string]any{
			"source_type": "dataset",
			"uri":         "",
			"format":      "json",
		},
		Outputs: []string{"out"},
	},
	{
		Kind:     datatypes.KindProcessor,
		Label:    "Processor",
		Category: "processing",
		DefaultConfig: map[string]any{
			"operation":  "transform",
			"expression": "",
		},
		Inputs:  []string{"in"},
		Outputs: []string{"out"},
	},
	{
		Kind:     datatypes.KindAIModel,
		Label:    "AI Model",
		Category: "ai",
		DefaultConfig: map[string]any{
			"model":       "default",
			"temperature": 0.2,
			"max_tokens":  1024,
		},
		Inputs:  []string{"in"},
		Outputs: []string{"out"},
	},
	{
		Kind:     datatypes.KindQuantum,
		Label:    "Quantum Op",
		Category: "quantum",
		DefaultConfig: map[string]any{
			"qubits": 2,
			"shots":  1024,
		},
		Inputs:  []string{"in"},
		Outputs: []string{"out"},
	},
	{
		Kind:     datatypes.KindQuantumGate,
		Label:    "Quantum Gate",
		Category: "quantum",
		DefaultConfig: map[string]any{
			"gate":   "H",
			"qubits": 1,
		},
		Inputs:  []string{"in"},
		Outputs: []string{"out"},
	},
	{
		Kind:     datatypes.KindQuantumCircuit,
		Label:    "Quantum Circuit",
		Category: "quantum",
		DefaultConfig: map[string]any{
			"qubits": 4,
			"depth":  8,
			"shots":  1024,
		},
		Inputs:  []string{"in"},
		Outputs: []string{"out"},
	},
	{
		Kind:     datatypes.KindQuantumAlgorithm,
		Label:    "Quantum Algorithm",
		Category: "quantum",
		DefaultConfig: map[string]any{
			"algorithm": "qaoa",
			"qubits":    4,
			"shots":     1024,
		},
		Inputs:  []string{"in"},
		Outputs: []string{"out"},
	},
	{
		Kind:     datatypes.KindConditional,
		Label:    "Conditional",
		Category: "control",
		DefaultConfig: map[string]any{
			"predicate": "",
		},
		Inputs:  []string{"in"},
		Outputs: []string{"true", "false"},
	},
	{
		Kind:     datatypes.KindIntegration,
		Label:    "Integration",
		Category: "integration",
		DefaultConfig: map[string]any{
			"endpoint": "",
			"method":   "POST",
		},
		Inputs:  []string{"in"},
		Outputs: []string{"out"},
	},
	{
		Kind:     datatypes.KindOutput,
		Label:    "Output",
		Category: "output",
		DefaultConfig: map[string]any{
			"destination": "result",
			"format":      "json",
		},
		Inputs: []string{"in"},
	},
}
