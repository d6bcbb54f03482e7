// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the studio.
//
// Metrics are exposed via the /metrics endpoint. All metric operations
// are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics.
const metricsNamespace = "recipestudio"

// StudioMetrics holds the Prometheus metrics for editing sessions.
//
// Initialize once at startup via NewStudioMetrics().
type StudioMetrics struct {
	// CompilationsTotal counts compile intents by outcome.
	// Labels: status (success, failed, cancelled, not_compilable, rejected)
	CompilationsTotal *prometheus.CounterVec

	// CompilationDurationSeconds measures the compile submit latency. On
	// the sync transport this covers the whole compilation; on stream it
	// covers submission only, the rest rides the progress channel.
	// Labels: transport (sync, stream)
	CompilationDurationSeconds *prometheus.HistogramVec

	// SavesTotal counts save intents by outcome.
	// Labels: status (success, failed)
	SavesTotal *prometheus.CounterVec

	// ValidationErrorsTotal counts validation findings by code.
	// Labels: code (EmptyGraph, MissingOutput, ...)
	ValidationErrorsTotal *prometheus.CounterVec

	// ActiveSessions tracks currently open editing sessions.
	ActiveSessions prometheus.Gauge
}

// NewStudioMetrics creates and registers all studio metrics on the
// default registry. Call once at application startup.
func NewStudioMetrics() *StudioMetrics {
	return &StudioMetrics{
		CompilationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compilations_total",
			Help:      "Compile intents by outcome.",
		}, []string{"status"}),
		CompilationDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "compilation_duration_seconds",
			Help:      "Compile submit latency by transport.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"transport"}),
		SavesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "saves_total",
			Help:      "Recipe saves by outcome.",
		}, []string{"status"}),
		ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "validation_errors_total",
			Help:      "Validation findings by code.",
		}, []string{"code"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_sessions",
			Help:      "Currently open editing sessions.",
		}),
	}
}
