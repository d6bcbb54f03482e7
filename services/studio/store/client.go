// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists named recipes through the external pipeline
// store and keeps local drafts for crash recovery.
//
// The remote contract is a plain HTTP upsert keyed by ID, not by name —
// two stored recipes may share a name. The latest successful save wins;
// there is no cross-call ordering requirement beyond that.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
)

var tracer = otel.Tracer("recipestudio.store")

const defaultTimeout = 30 * time.Second

// SavedRecipeRef identifies a stored recipe after a successful save.
type SavedRecipeRef struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// pipelinePayload is the request body for create and update.
type pipelinePayload struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Nodes       []datatypes.Node         `json:"nodes"`
	Edges       []datatypes.Edge         `json:"edges"`
	Metadata    datatypes.RecipeMetadata `json:"metadata"`
	Tags        []string                 `json:"tags,omitempty"`
}

// storedRecipe is the store's full recipe representation.
type storedRecipe struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Nodes       []datatypes.Node         `json:"nodes"`
	Edges       []datatypes.Edge         `json:"edges"`
	Metadata    datatypes.RecipeMetadata `json:"metadata"`
	Tags        []string                 `json:"tags,omitempty"`
	CreatedAt   time.Time                `json:"created_at,omitzero"`
	UpdatedAt   time.Time                `json:"updated_at,omitzero"`
}

// Client talks to the pipeline store's HTTP boundary.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a persistence client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// Save upserts a recipe snapshot.
//
// Description:
//
//	Creates a new stored recipe when existingID is empty (POST /pipelines),
//	updates the existing one otherwise (PUT /pipelines/{id}). On failure
//	nothing local changes; the caller keeps its previous saved ID.
//
// Outputs:
//   - SavedRecipeRef: the store-assigned ID and timestamps
//   - error: transport failures and *StoreError for non-2xx replies
func (c *Client) Save(ctx context.Context, snapshot datatypes.Recipe, existingID string) (SavedRecipeRef, error) {
	ctx, span := tracer.Start(ctx, "StoreClient.Save")
	defer span.End()
	span.SetAttributes(
		attribute.String("recipe.name", snapshot.Name),
		attribute.Bool("recipe.update", existingID != ""),
	)

	payload := pipelinePayload{
		Name:        snapshot.Name,
		Description: snapshot.Description,
		Nodes:       snapshot.Nodes,
		Edges:       snapshot.Edges,
		Metadata:    snapshot.Metadata,
		Tags:        snapshot.Metadata.Tags,
	}

	method, url := http.MethodPost, c.baseURL+"/pipelines"
	if existingID != "" {
		method, url = http.MethodPut, c.baseURL+"/pipelines/"+existingID
	}

	body, err := c.do(ctx, method, url, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return SavedRecipeRef{}, err
	}

	var ref SavedRecipeRef
	if err := json.Unmarshal(body, &ref); err != nil {
		return SavedRecipeRef{}, fmt.Errorf("failed to decode save response: %w", err)
	}
	slog.Info("Recipe saved", "id", ref.ID, "name", snapshot.Name)
	return ref, nil
}

// Load fetches a stored recipe by ID.
//
// Outputs:
//   - datatypes.Recipe: the full stored representation
//   - error: ErrRecipeNotFound when the store replies 404
func (c *Client) Load(ctx context.Context, id string) (datatypes.Recipe, error) {
	ctx, span := tracer.Start(ctx, "StoreClient.Load")
	defer span.End()
	span.SetAttributes(attribute.String("recipe.id", id))

	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/pipelines/"+id, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return datatypes.Recipe{}, err
	}

	var stored storedRecipe
	if err := json.Unmarshal(body, &stored); err != nil {
		return datatypes.Recipe{}, fmt.Errorf("failed to decode stored recipe: %w", err)
	}

	recipe := datatypes.Recipe{
		ID:          stored.ID,
		Name:        stored.Name,
		Description: stored.Description,
		Nodes:       stored.Nodes,
		Edges:       stored.Edges,
		Metadata:    stored.Metadata,
	}
	if len(stored.Tags) > 0 {
		recipe.Metadata.Tags = stored.Tags
	}
	if !stored.CreatedAt.IsZero() {
		recipe.Metadata.CreatedAt = stored.CreatedAt
	}
	if !stored.UpdatedAt.IsZero() {
		recipe.Metadata.UpdatedAt = stored.UpdatedAt
	}
	return recipe, nil
}

// do sends one JSON request and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal store request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create store request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Pipeline store call failed", "method", method, "error", err)
		return nil, fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read store response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StoreError{StatusCode: resp.StatusCode, Detail: decodeDetail(body)}
	}
	return body, nil
}

// decodeDetail extracts the {"detail": ...} message from an error body.
func decodeDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Detail == "" {
		return strings.TrimSpace(string(body))
	}
	return payload.Detail
}
