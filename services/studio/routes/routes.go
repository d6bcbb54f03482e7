// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jinterlante1206/RecipeStudio/services/studio/handlers"
	"github.com/jinterlante1206/RecipeStudio/services/studio/observability"
	"github.com/jinterlante1206/RecipeStudio/services/studio/registry"
	"github.com/jinterlante1206/RecipeStudio/services/studio/session"
)

// SetupRoutes registers the studio API on the given engine.
func SetupRoutes(router *gin.Engine, ctrl *session.Controller, reg *registry.Registry,
	metrics *observability.StudioMetrics) {

	router.Use(otelgin.Middleware("studio-service"))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.GET("/templates", handlers.ListTemplates(reg))
		v1.GET("/events/ws", handlers.HandleEventsWebSocket(ctrl))

		recipe := v1.Group("/recipe")
		{
			recipe.GET("", handlers.GetRecipe(ctrl))
			recipe.POST("/new", handlers.NewRecipe(ctrl))
			recipe.POST("/nodes", handlers.AddNode(ctrl))
			recipe.PATCH("/nodes/:nodeId", handlers.UpdateNode(ctrl))
			recipe.DELETE("/nodes/:nodeId", handlers.RemoveNode(ctrl))
			recipe.POST("/edges", handlers.Connect(ctrl))
			recipe.DELETE("/edges/:edgeId", handlers.RemoveEdge(ctrl))
			recipe.POST("/compile", handlers.Compile(ctrl, metrics))
			recipe.POST("/compile/cancel", handlers.CancelCompile(ctrl, metrics))
			recipe.POST("/save", handlers.Save(ctrl, metrics))
			recipe.POST("/load", handlers.Load(ctrl))
		}
	}
}
