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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
	"github.com/jinterlante1206/RecipeStudio/services/studio/registry"
)

func codes(errs []ValidationError) []ValidationCode {
	out := make([]ValidationCode, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

// buildPipeline assembles a connected dataSource -> output recipe, the
// smallest graph that validates clean.
func buildPipeline(t *testing.T, m *Model) (datatypes.Node, datatypes.Node) {
	t.Helper()
	src, err := m.AddNode(datatypes.KindDataSource, datatypes.Position{})
	require.NoError(t, err)
	out, err := m.AddNode(datatypes.KindOutput, datatypes.Position{})
	require.NoError(t, err)
	_, err = m.Connect(src.ID, out.ID, "out", "in")
	require.NoError(t, err)
	return src, out
}

func TestValidate_EmptyGraph(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg)

	errs := Validate(reg, m.Snapshot())

	// An empty graph reports exactly one problem; piling on MissingOutput
	// and MissingInput would just restate it.
	require.Len(t, errs, 1)
	assert.Equal(t, CodeEmptyGraph, errs[0].Code)
}

func TestValidate_MinimalPipeline(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg)
	buildPipeline(t, m)

	assert.Empty(t, Validate(reg, m.Snapshot()))
}

func TestValidate_MissingOutput(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg)
	_, err := m.AddNode(datatypes.KindDataSource, datatypes.Position{})
	require.NoError(t, err)

	errs := Validate(reg, m.Snapshot())
	assert.Equal(t, []ValidationCode{CodeMissingOutput}, codes(errs))
}

func TestValidate_MissingInput(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg)
	_, err := m.AddNode(datatypes.KindOutput, datatypes.Position{})
	require.NoError(t, err)

	errs := Validate(reg, m.Snapshot())
	assert.Equal(t, []ValidationCode{CodeMissingInput}, codes(errs))
}

func TestValidate_DisconnectedNodes(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg)
	src, err := m.AddNode(datatypes.KindDataSource, datatypes.Position{})
	require.NoError(t, err)
	out, err := m.AddNode(datatypes.KindOutput, datatypes.Position{})
	require.NoError(t, err)

	errs := Validate(reg, m.Snapshot())
	require.Equal(t, []ValidationCode{CodeDisconnectedNodes}, codes(errs))
	assert.ElementsMatch(t, []string{src.ID, out.ID}, errs[0].NodeIDs)
}

func TestValidate_SingleNodeNeverDisconnected(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg)
	_, err := m.AddNode(datatypes.KindDataSource, datatypes.Position{})
	require.NoError(t, err)

	for _, e := range Validate(reg, m.Snapshot()) {
		assert.NotEqual(t, CodeDisconnectedNodes, e.Code)
	}
}

func TestValidate_ConfigInvalid(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg)
	buildPipeline(t, m)

	// Conditional ships with an empty predicate, which the kind's schema
	// requires the user to fill in before compiling.
	cond, err := m.AddNode(datatypes.KindConditional, datatypes.Position{})
	require.NoError(t, err)
	src := m.Snapshot().Nodes[0]
	_, err = m.Connect(src.ID, cond.ID, "out", "in")
	require.NoError(t, err)

	errs := Validate(reg, m.Snapshot())
	require.Equal(t, []ValidationCode{CodeConfigInvalid}, codes(errs))
	assert.Equal(t, []string{cond.ID}, errs[0].NodeIDs)
	assert.Contains(t, errs[0].Message, "predicate")
}

func TestValidate_FixedRuleOrder(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg)
	// One lonely conditional: wrong on every axis at once.
	_, err := m.AddNode(datatypes.KindConditional, datatypes.Position{})
	require.NoError(t, err)
	_, err = m.AddNode(datatypes.KindProcessor, datatypes.Position{})
	require.NoError(t, err)

	errs := Validate(reg, m.Snapshot())
	assert.Equal(t, []ValidationCode{
		CodeMissingOutput,
		CodeMissingInput,
		CodeDisconnectedNodes,
		CodeConfigInvalid,
	}, codes(errs))
}

func TestValidate_Deterministic(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg)
	_, err := m.AddNode(datatypes.KindConditional, datatypes.Position{})
	require.NoError(t, err)
	_, err = m.AddNode(datatypes.KindIntegration, datatypes.Position{})
	require.NoError(t, err)

	snap := m.Snapshot()
	first := Validate(reg, snap)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Validate(reg, snap))
	}
}

func TestValidate_DoesNotMutateSnapshot(t *testing.T) {
	reg := registry.New()
	m := NewModel(reg)
	buildPipeline(t, m)

	before := m.Snapshot()
	snap := m.Snapshot()
	_ = Validate(reg, snap)
	assert.Equal(t, before, snap)
}
