// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command studio runs the RecipeStudio editing backend: one HTTP service
// exposing the recipe editing session, its compile boundary and its
// persistence boundary.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/jinterlante1206/RecipeStudio/pkg/logging"
	"github.com/jinterlante1206/RecipeStudio/services/studio/compiler"
	"github.com/jinterlante1206/RecipeStudio/services/studio/observability"
	"github.com/jinterlante1206/RecipeStudio/services/studio/registry"
	"github.com/jinterlante1206/RecipeStudio/services/studio/routes"
	"github.com/jinterlante1206/RecipeStudio/services/studio/session"
	"github.com/jinterlante1206/RecipeStudio/services/studio/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("STUDIO_LOG_LEVEL")),
		LogDir:  os.Getenv("STUDIO_LOG_DIR"),
		Service: "studio",
		JSON:    os.Getenv("STUDIO_LOG_JSON") == "true",
	})
	defer logger.Close()
	logger.SetAsDefault()

	compilerURL := envOr("COMPILER_BASE_URL", "http://localhost:8081")
	storeURL := envOr("PIPELINE_STORE_URL", "http://localhost:8082")
	progressURL := os.Getenv("PROGRESS_WS_URL")
	port := envOr("STUDIO_PORT", "8080")

	ctx := context.Background()

	// Template catalog, with optional site-local overlay.
	reg := registry.New()
	if overlay := os.Getenv("TEMPLATES_FILE"); overlay != "" {
		if err := reg.LoadOverlay(overlay); err != nil {
			slog.Warn("Template overlay not loaded", "path", overlay, "error", err)
		} else if watcher, err := reg.WatchOverlay(ctx, overlay); err != nil {
			slog.Warn("Template overlay watching disabled", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	// The progress channel is optional: without it the compiler's
	// synchronous response is authoritative.
	var progress *compiler.ProgressChannel
	if progressURL != "" {
		p, err := compiler.Dial(ctx, progressURL)
		if err != nil {
			slog.Warn("Progress channel unavailable, compiling synchronously", "error", err)
		} else {
			progress = p
			defer progress.Close()
		}
	}

	compileClient := compiler.NewClient(compilerURL, progress)
	storeClient := store.NewClient(storeURL)

	var drafts session.Drafts
	if dir := envOr("DRAFTS_DIR", ""); dir != "" {
		ds, err := store.OpenDrafts(store.DefaultDraftConfig(dir))
		if err != nil {
			slog.Warn("Draft store unavailable, autosave disabled", "error", err)
		} else {
			drafts = ds
			defer ds.Close()
		}
	}

	metrics := observability.NewStudioMetrics()
	ctrl := session.NewController(reg, compileClient, storeClient, drafts)
	metrics.ActiveSessions.Inc()
	ctrl.Subscribe(func(ev session.Event) {
		if ev.Type != session.EventValidation {
			return
		}
		for _, ve := range ev.ValidationErrors {
			metrics.ValidationErrorsTotal.WithLabelValues(string(ve.Code)).Inc()
		}
	})

	if restored, err := ctrl.RestoreDraft(); err != nil {
		slog.Warn("Draft restore failed", "error", err)
	} else if restored {
		slog.Info("Restored unsaved draft", "session_id", ctrl.ID())
	}

	router := gin.Default()
	routes.SetupRoutes(router, ctrl, reg, metrics)

	slog.Info("RecipeStudio listening",
		"port", port, "compiler", compilerURL, "store", storeURL,
		"streaming", progress != nil)
	if err := router.Run(":" + port); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
