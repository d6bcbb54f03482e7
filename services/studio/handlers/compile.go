// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
	"github.com/jinterlante1206/RecipeStudio/services/studio/observability"
	"github.com/jinterlante1206/RecipeStudio/services/studio/session"
)

// CompileRequest is the body for POST /recipe/compile.
type CompileRequest struct {
	OptimizationLevel string `json:"optimization_level" binding:"required,oneof=basic optimized aggressive"`
	TargetRuntime     string `json:"target_runtime" binding:"required,oneof=python javascript quantum"`
}

// SaveRequest is the body for POST /recipe/save.
type SaveRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadRequest is the body for POST /recipe/load.
type LoadRequest struct {
	ID string `json:"id" binding:"required"`
}

// Compile submits the current recipe for compilation.
func Compile(ctrl *session.Controller, metrics *observability.StudioMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CompileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		start := time.Now()
		err := ctrl.Compile(c.Request.Context(),
			datatypes.OptimizationLevel(req.OptimizationLevel),
			datatypes.TargetRuntime(req.TargetRuntime))
		if err != nil {
			if metrics != nil {
				var notCompilable *session.NotCompilableError
				switch {
				case errors.As(err, &notCompilable):
					metrics.CompilationsTotal.WithLabelValues("not_compilable").Inc()
				case errors.Is(err, session.ErrCompilationInProgress):
					metrics.CompilationsTotal.WithLabelValues("rejected").Inc()
				default:
					metrics.CompilationsTotal.WithLabelValues("failed").Inc()
				}
			}
			respondError(c, err)
			return
		}
		if metrics != nil {
			metrics.CompilationsTotal.WithLabelValues("success").Inc()
			transport := "stream"
			if ctrl.Compiled() != nil {
				transport = "sync"
			}
			metrics.CompilationDurationSeconds.WithLabelValues(transport).
				Observe(time.Since(start).Seconds())
		}
		c.JSON(http.StatusAccepted, gin.H{
			"state":    ctrl.State(),
			"compiled": ctrl.Compiled(),
		})
	}
}

// CancelCompile aborts the in-flight compilation, client-side only.
func CancelCompile(ctrl *session.Controller, metrics *observability.StudioMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ctrl.CancelCompile(); err != nil {
			respondError(c, err)
			return
		}
		if metrics != nil {
			metrics.CompilationsTotal.WithLabelValues("cancelled").Inc()
		}
		c.JSON(http.StatusOK, gin.H{"state": ctrl.State()})
	}
}

// Save persists the current recipe through the pipeline store.
func Save(ctrl *session.Controller, metrics *observability.StudioMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ref, err := ctrl.Save(c.Request.Context(), req.Name, req.Description)
		if err != nil {
			if metrics != nil {
				metrics.SavesTotal.WithLabelValues("failed").Inc()
			}
			respondError(c, err)
			return
		}
		if metrics != nil {
			metrics.SavesTotal.WithLabelValues("success").Inc()
		}
		c.JSON(http.StatusOK, gin.H{"saved": ref, "state": ctrl.State()})
	}
}

// Load replaces the session's graph with a stored recipe.
func Load(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := ctrl.Load(c.Request.Context(), req.ID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, viewOf(ctrl))
	}
}
