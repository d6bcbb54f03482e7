// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers exposes the editing session's intents over HTTP.
//
// Handlers are thin: they bind and validate the request body, invoke the
// session controller and map domain errors to status codes. All graph
// semantics live below this layer.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinterlante1206/RecipeStudio/services/studio/compiler"
	"github.com/jinterlante1206/RecipeStudio/services/studio/graph"
	"github.com/jinterlante1206/RecipeStudio/services/studio/registry"
	"github.com/jinterlante1206/RecipeStudio/services/studio/session"
	"github.com/jinterlante1206/RecipeStudio/services/studio/store"
)

// respondError maps a domain error to an HTTP status and JSON body.
func respondError(c *gin.Context, err error) {
	var notCompilable *session.NotCompilableError
	var compileFailed *session.CompilationFailedError
	var backendErr *compiler.BackendError
	var storeErr *store.StoreError

	switch {
	case errors.Is(err, graph.ErrNodeNotFound),
		errors.Is(err, graph.ErrEdgeNotFound),
		errors.Is(err, store.ErrRecipeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, registry.ErrUnknownKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrCompilationInProgress),
		errors.Is(err, session.ErrNoCompilation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &notCompilable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":             "recipe is not compilable",
			"validation_errors": notCompilable.Errors,
		})
	case errors.As(err, &compileFailed), errors.As(err, &backendErr), errors.As(err, &storeErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
