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
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
	"github.com/jinterlante1206/RecipeStudio/services/studio/graph"
	"github.com/jinterlante1206/RecipeStudio/services/studio/registry"
	"github.com/jinterlante1206/RecipeStudio/services/studio/session"
)

// AddNodeRequest is the body for POST /recipe/nodes.
type AddNodeRequest struct {
	Kind     string             `json:"kind" binding:"required"`
	Position datatypes.Position `json:"position"`
}

// UpdateNodeRequest is the body for PATCH /recipe/nodes/:nodeId.
// All fields are optional; absent fields leave the node untouched.
type UpdateNodeRequest struct {
	Label    *string             `json:"label"`
	Position *datatypes.Position `json:"position"`
	Config   map[string]any      `json:"config"`
}

// ConnectRequest is the body for POST /recipe/edges.
type ConnectRequest struct {
	Source       string `json:"source" binding:"required"`
	Target       string `json:"target" binding:"required"`
	SourceHandle string `json:"source_handle"`
	TargetHandle string `json:"target_handle"`
}

// recipeView is the UI-observable projection of the session.
type recipeView struct {
	SessionID        string                    `json:"session_id"`
	State            session.State             `json:"state"`
	Recipe           datatypes.Recipe          `json:"recipe"`
	ValidationErrors []graph.ValidationError   `json:"validation_errors"`
	Compiled         *datatypes.CompiledRecipe `json:"compiled,omitempty"`
	Dirty            bool                      `json:"dirty"`
}

func viewOf(ctrl *session.Controller) recipeView {
	return recipeView{
		SessionID:        ctrl.ID(),
		State:            ctrl.State(),
		Recipe:           ctrl.Snapshot(),
		ValidationErrors: ctrl.ValidationErrors(),
		Compiled:         ctrl.Compiled(),
		Dirty:            ctrl.Dirty(),
	}
}

// GetRecipe returns the current editing state.
func GetRecipe(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, viewOf(ctrl))
	}
}

// ListTemplates returns the node template catalog.
func ListTemplates(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"templates": reg.Templates()})
	}
}

// AddNode adds a node of the requested kind.
func AddNode(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddNodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		node, err := ctrl.AddNode(datatypes.NodeKind(req.Kind), req.Position)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"node": node, "state": ctrl.State()})
	}
}

// UpdateNode patches a node's label, position or config.
func UpdateNode(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateNodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		err := ctrl.UpdateNode(c.Param("nodeId"), graph.NodePatch{
			Label:    req.Label,
			Position: req.Position,
			Config:   req.Config,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": ctrl.State()})
	}
}

// RemoveNode deletes a node and its incident edges.
func RemoveNode(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ctrl.RemoveNode(c.Param("nodeId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": ctrl.State()})
	}
}

// Connect creates an edge between two nodes.
func Connect(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ConnectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		edge, err := ctrl.Connect(req.Source, req.Target, req.SourceHandle, req.TargetHandle)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"edge": edge, "state": ctrl.State()})
	}
}

// RemoveEdge deletes a single edge.
func RemoveEdge(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ctrl.RemoveEdge(c.Param("edgeId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"state": ctrl.State()})
	}
}

// NewRecipe resets the session to an empty graph.
func NewRecipe(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctrl.New()
		c.JSON(http.StatusOK, viewOf(ctrl))
	}
}
