// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package compiler submits recipe snapshots to the external compiler
// service and reconciles either a synchronous response or an asynchronous
// progress stream into a single result.
//
// Two paths exist because the remote compiler may take arbitrarily long
// and the editor must never block:
//
//   - No progress channel attached: the HTTP response is authoritative and
//     carries the compiled recipe.
//   - Progress channel attached: the HTTP response is only an ack; the
//     result is solely the execution update whose status is "completed".
package compiler

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

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
)

var tracer = otel.Tracer("recipestudio.compiler")

// defaultTimeout bounds the synchronous compile call. Streaming progress
// is not affected; long compilations ride the progress channel.
const defaultTimeout = 2 * time.Minute

// Handle links an in-flight compilation to its eventual result.
//
// Exactly one of Result and Updates is set: Result on the synchronous
// path, Updates on the streaming path. Updates is closed after the
// terminal event has been delivered.
type Handle struct {
	// CorrelationID ties the request to its progress events.
	CorrelationID string

	// Result is the compiled recipe when the transport was synchronous.
	Result *datatypes.CompiledRecipe

	// Updates delivers progress events when a progress channel is attached.
	Updates <-chan datatypes.ExecutionUpdate
}

// Client talks to the external compiler boundary.
type Client struct {
	httpClient *http.Client
	baseURL    string
	progress   *ProgressChannel
}

// NewClient returns a compiler client for the given base URL.
//
// The progress channel is optional; pass nil for synchronous-only
// operation (results ride the HTTP response).
func NewClient(baseURL string, progress *ProgressChannel) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		progress:   progress,
	}
}

// BuildRequest shapes a recipe snapshot into the compiler's wire format.
func BuildRequest(snapshot datatypes.Recipe, level datatypes.OptimizationLevel,
	runtime datatypes.TargetRuntime, correlationID string) datatypes.CompilationRequest {

	nodes := make([]datatypes.RequestNode, 0, len(snapshot.Nodes))
	for _, n := range snapshot.Nodes {
		nodes = append(nodes, datatypes.RequestNode{
			ID:       n.ID,
			Type:     n.Kind.String(),
			Position: n.Position,
			Data: datatypes.RequestNodeData{
				Label:   n.Label,
				Config:  n.Config,
				Inputs:  n.Inputs,
				Outputs: n.Outputs,
			},
			Config: n.Config,
		})
	}
	edges := make([]datatypes.RequestEdge, 0, len(snapshot.Edges))
	for _, e := range snapshot.Edges {
		edges = append(edges, datatypes.RequestEdge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
			Data:         e.Data,
		})
	}
	return datatypes.CompilationRequest{
		Nodes: nodes,
		Edges: edges,
		Metadata: datatypes.RequestMetadata{
			Name:        snapshot.Name,
			Description: snapshot.Description,
			Version:     snapshot.Metadata.Version,
			Author:      snapshot.Metadata.Author,
			Tags:        snapshot.Metadata.Tags,
		},
		OptimizationLevel: level,
		TargetRuntime:     runtime,
		RecipeName:        snapshot.Name,
		Description:       snapshot.Description,
		CorrelationID:     correlationID,
	}
}

// Compile submits a snapshot and returns a handle to its result.
//
// Description:
//
//	Serializes the snapshot, POSTs it to /compile and returns immediately.
//	When the progress channel is connected the subscription is registered
//	before the request is sent, so no update can be lost in the gap
//	between ack and first event.
//
// Outputs:
//   - *Handle: carries either the synchronous result or the update stream
//   - error: transport failures and *BackendError for non-2xx replies
func (c *Client) Compile(ctx context.Context, snapshot datatypes.Recipe,
	level datatypes.OptimizationLevel, runtime datatypes.TargetRuntime) (*Handle, error) {

	ctx, span := tracer.Start(ctx, "CompilerClient.Compile")
	defer span.End()

	correlationID := uuid.New().String()
	span.SetAttributes(
		attribute.String("compile.correlation_id", correlationID),
		attribute.String("compile.optimization_level", level.String()),
		attribute.String("compile.target_runtime", runtime.String()),
		attribute.Int("compile.nodes", len(snapshot.Nodes)),
		attribute.Int("compile.edges", len(snapshot.Edges)),
	)

	req := BuildRequest(snapshot, level, runtime, correlationID)

	streaming := c.progress != nil && c.progress.Connected()
	var updates <-chan datatypes.ExecutionUpdate
	if streaming {
		ch, err := c.progress.Subscribe(correlationID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		updates = ch
	}

	body, err := c.post(ctx, "/compile", req)
	if err != nil {
		if streaming {
			c.progress.Cancel(correlationID)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if streaming {
		// The HTTP body is only an acknowledgment on this path.
		slog.Debug("Compilation submitted, awaiting progress stream",
			"correlation_id", correlationID)
		return &Handle{CorrelationID: correlationID, Updates: updates}, nil
	}

	var compiled datatypes.CompiledRecipe
	if err := json.Unmarshal(body, &compiled); err != nil {
		return nil, fmt.Errorf("failed to decode compiler response: %w", err)
	}
	slog.Info("Compilation completed synchronously",
		"recipe_id", compiled.RecipeID, "warnings", len(compiled.Warnings))
	return &Handle{CorrelationID: correlationID, Result: &compiled}, nil
}

// Cancel stops forwarding updates for a handle's correlation ID.
//
// Best-effort and client-side only: the remote job is not guaranteed to
// stop, this merely detaches the editor from its progress stream.
func (c *Client) Cancel(h *Handle) {
	if h == nil || c.progress == nil {
		return
	}
	c.progress.Cancel(h.CorrelationID)
	slog.Info("Compilation cancelled locally", "correlation_id", h.CorrelationID)
}

// post sends one JSON request and returns the raw 2xx body.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compile request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to create compile request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Compiler call failed", "error", err)
		return nil, fmt.Errorf("compiler request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read compiler response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &BackendError{StatusCode: resp.StatusCode, Detail: decodeDetail(body)}
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
