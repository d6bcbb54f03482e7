// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
)

// validate is the shared validator instance. validator.Validate caches
// struct metadata internally and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// =============================================================================
// Per-Kind Config Schemas
// =============================================================================

// Node configuration travels as an opaque map on the wire; these structs
// give each kind a typed shape so the validator can reject malformed
// configuration before compilation instead of passing blobs through.

type dataSourceConfig struct {
	SourceType string `json:"source_type" validate:"required,oneof=dataset stream api file"`
	URI        string `json:"uri"`
	Format     string `json:"format" validate:"omitempty,oneof=json csv parquet arrow"`
}

type processorConfig struct {
	Operation  string `json:"operation" validate:"required"`
	Expression string `json:"expression"`
}

type aiModelConfig struct {
	Model       string   `json:"model" validate:"required"`
	Temperature *float64 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `json:"max_tokens" validate:"omitempty,gt=0"`
}

type quantumConfig struct {
	Qubits int `json:"qubits" validate:"required,gte=1,lte=64"`
	Shots  int `json:"shots" validate:"omitempty,gte=1"`
}

type quantumGateConfig struct {
	Gate   string `json:"gate" validate:"required,oneof=H X Y Z CNOT CZ S T RX RY RZ"`
	Qubits int    `json:"qubits" validate:"required,gte=1,lte=3"`
}

type quantumCircuitConfig struct {
	Qubits int `json:"qubits" validate:"required,gte=1,lte=64"`
	Depth  int `json:"depth" validate:"omitempty,gte=1"`
	Shots  int `json:"shots" validate:"omitempty,gte=1"`
}

type quantumAlgorithmConfig struct {
	Algorithm string `json:"algorithm" validate:"required,oneof=qaoa vqe grover shor annealing"`
	Qubits    int    `json:"qubits" validate:"required,gte=1,lte=64"`
	Shots     int    `json:"shots" validate:"omitempty,gte=1"`
}

type conditionalConfig struct {
	Predicate string `json:"predicate" validate:"required"`
}

type integrationConfig struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Method   string `json:"method" validate:"omitempty,oneof=GET POST PUT DELETE"`
}

type outputConfig struct {
	Destination string `json:"destination" validate:"required"`
	Format      string `json:"format" validate:"omitempty,oneof=json csv parquet"`
}

// configSchemas maps each built-in kind to a fresh schema value.
// Kinds absent from this map (custom overlay kinds) skip schema checking.
var configSchemas = map[datatypes.NodeKind]func() any{
	datatypes.KindDataSource:       func() any { return &dataSourceConfig{} },
	datatypes.KindProcessor:        func() any { return &processorConfig{} },
	datatypes.KindAIModel:          func() any { return &aiModelConfig{} },
	datatypes.KindQuantum:          func() any { return &quantumConfig{} },
	datatypes.KindQuantumGate:      func() any { return &quantumGateConfig{} },
	datatypes.KindQuantumCircuit:   func() any { return &quantumCircuitConfig{} },
	datatypes.KindQuantumAlgorithm: func() any { return &quantumAlgorithmConfig{} },
	datatypes.KindConditional:      func() any { return &conditionalConfig{} },
	datatypes.KindIntegration:      func() any { return &integrationConfig{} },
	datatypes.KindOutput:           func() any { return &outputConfig{} },
}

// ValidateConfig checks a node's config map against the schema for its kind.
//
// Description:
//
//	The map is decoded into the kind's typed schema struct and run through
//	the struct validator. Unknown keys are ignored (forward compatibility);
//	kinds without a registered schema pass unconditionally so overlay-added
//	kinds remain usable.
//
// Outputs:
//   - []string: one human-readable problem per failed field, empty when valid
//   - error: decoding failures only; a non-validating config is not an error
func (r *Registry) ValidateConfig(kind datatypes.NodeKind, config map[string]any) ([]string, error) {
	mk, ok := configSchemas[kind]
	if !ok {
		return nil, nil
	}
	schema := mk()

	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config for %s: %w", kind, err)
	}
	if err := json.Unmarshal(raw, schema); err != nil {
		return []string{fmt.Sprintf("config does not match the %s schema: %v", kind, err)}, nil
	}

	err = validate.Struct(schema)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("config validation for %s: %w", kind, err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describeFieldError(kind, fe))
	}
	return problems, nil
}

// describeFieldError renders one field failure in user-facing terms.
func describeFieldError(kind datatypes.NodeKind, fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: %s is required", kind, field)
	case "oneof":
		return fmt.Sprintf("%s: %s must be one of [%s]", kind, field, fe.Param())
	case "gte", "gt", "lte", "lt":
		return fmt.Sprintf("%s: %s is out of range (%s %s)", kind, field, fe.Tag(), fe.Param())
	case "url":
		return fmt.Sprintf("%s: %s must be a valid URL", kind, field)
	default:
		return fmt.Sprintf("%s: %s failed %s validation", kind, field, fe.Tag())
	}
}
