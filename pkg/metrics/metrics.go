// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-avp.
//
// go-avp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for the AVP protocol
// engine. Counters and histograms are labeled by opcode and outcome so the
// simulator's scrape endpoint exposes per-operation health.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all AVP metrics
	Namespace = "avp"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorCode = "error_code"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// RequestsTotal tracks processed requests by opcode and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Total number of AVP requests by operation and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// ErrorsTotal tracks failure responses by opcode and wire error code.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of AVP failure responses by operation and error code",
		},
		[]string{LabelOperation, LabelErrorCode},
	)

	// RequestDuration observes request processing latency by opcode.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "AVP request processing duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelOperation},
	)

	// SessionActive is 1 while an authorization session is live.
	SessionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "session_active",
			Help:      "Whether an authorization session is currently active",
		},
	)

	// PINFailuresTotal counts rejected PIN verification attempts.
	PINFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pin_failures_total",
			Help:      "Total number of failed PIN verification attempts",
		},
	)

	// SecretsStored tracks the metadata table occupancy.
	SecretsStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "secrets_stored",
			Help:      "Number of secrets currently indexed on the device",
		},
	)
)

// RecordRequest updates the request counters and latency histogram for one
// processed operation. errorCode is empty on success.
func RecordRequest(operation, errorCode string, start time.Time) {
	status := StatusSuccess
	if errorCode != "" {
		status = StatusError
		ErrorsTotal.WithLabelValues(operation, errorCode).Inc()
	}
	RequestsTotal.WithLabelValues(operation, status).Inc()
	RequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
