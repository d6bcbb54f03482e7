// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
)

func sampleRecipe() datatypes.Recipe {
	return datatypes.Recipe{
		Name:        "Fraud Pipeline",
		Description: "scores transactions",
		Nodes: []datatypes.Node{
			{ID: "n1", Kind: datatypes.KindDataSource, Label: "Transactions"},
			{ID: "n2", Kind: datatypes.KindOutput, Label: "Scores"},
		},
		Edges: []datatypes.Edge{
			{ID: "e1", Source: "n1", Target: "n2"},
		},
		Metadata: datatypes.RecipeMetadata{
			Version: "1.0",
			Author:  "test",
			Tags:    []string{"fraud", "demo"},
		},
	}
}

// =============================================================================
// Save Tests
// =============================================================================

func TestClient_Save_CreatesWithPost(t *testing.T) {
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	var gotPayload pipelinePayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pipelines", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		json.NewEncoder(w).Encode(SavedRecipeRef{
			ID:        "stored-1",
			CreatedAt: created,
			UpdatedAt: created,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ref, err := client.Save(context.Background(), sampleRecipe(), "")
	require.NoError(t, err)

	assert.Equal(t, "stored-1", ref.ID)
	assert.Equal(t, created, ref.CreatedAt)
	assert.Equal(t, "Fraud Pipeline", gotPayload.Name)
	assert.Len(t, gotPayload.Nodes, 2)
	assert.Equal(t, []string{"fraud", "demo"}, gotPayload.Tags)
}

func TestClient_Save_UpdatesWithPut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/pipelines/stored-1", r.URL.Path)

		json.NewEncoder(w).Encode(SavedRecipeRef{
			ID:        "stored-1",
			UpdatedAt: time.Now().UTC(),
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	ref, err := client.Save(context.Background(), sampleRecipe(), "stored-1")
	require.NoError(t, err)
	assert.Equal(t, "stored-1", ref.ID)
}

func TestClient_Save_StoreError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail": "name too long"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Save(context.Background(), sampleRecipe(), "")
	require.Error(t, err)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Equal(t, "name too long", se.Detail)
}

func TestClient_Save_ServerUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Save(context.Background(), sampleRecipe(), "")
	assert.Error(t, err)
}

// =============================================================================
// Load Tests
// =============================================================================

func TestClient_Load(t *testing.T) {
	created := time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/pipelines/stored-1", r.URL.Path)

		json.NewEncoder(w).Encode(storedRecipe{
			ID:          "stored-1",
			Name:        "Fraud Pipeline",
			Description: "scores transactions",
			Nodes: []datatypes.Node{
				{ID: "n1", Kind: datatypes.KindDataSource},
			},
			Edges:     []datatypes.Edge{},
			Metadata:  datatypes.RecipeMetadata{Version: "1.0"},
			Tags:      []string{"fraud"},
			CreatedAt: created,
			UpdatedAt: updated,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	recipe, err := client.Load(context.Background(), "stored-1")
	require.NoError(t, err)

	assert.Equal(t, "stored-1", recipe.ID)
	assert.Equal(t, "Fraud Pipeline", recipe.Name)
	require.Len(t, recipe.Nodes, 1)
	assert.Equal(t, []string{"fraud"}, recipe.Metadata.Tags)
	assert.Equal(t, created, recipe.Metadata.CreatedAt)
	assert.Equal(t, updated, recipe.Metadata.UpdatedAt)
}

func TestClient_Load_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestClient_Load_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Load(context.Background(), "stored-1")
	assert.Error(t, err)
}

// =============================================================================
// Round Trip Tests
// =============================================================================

func TestClient_SaveThenLoad_RoundTrip(t *testing.T) {
	// A minimal in-memory pipeline store honoring the upsert contract.
	recipes := map[string]storedRecipe{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/pipelines":
			var p pipelinePayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
			stored := storedRecipe{
				ID: "stored-1", Name: p.Name, Description: p.Description,
				Nodes: p.Nodes, Edges: p.Edges, Metadata: p.Metadata, Tags: p.Tags,
				CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
			}
			recipes[stored.ID] = stored
			json.NewEncoder(w).Encode(SavedRecipeRef{ID: stored.ID, CreatedAt: stored.CreatedAt, UpdatedAt: stored.UpdatedAt})
		case r.Method == http.MethodGet:
			stored, ok := recipes["stored-1"]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(stored)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	original := sampleRecipe()

	ref, err := client.Save(context.Background(), original, "")
	require.NoError(t, err)

	loaded, err := client.Load(context.Background(), ref.ID)
	require.NoError(t, err)

	assert.Equal(t, ref.ID, loaded.ID)
	assert.Equal(t, original.Name, loaded.Name)
	assert.Equal(t, original.Nodes, loaded.Nodes)
	assert.Equal(t, original.Edges, loaded.Edges)
	assert.Equal(t, original.Metadata.Tags, loaded.Metadata.Tags)
}
