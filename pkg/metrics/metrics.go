// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-seedshard.
//
// go-seedshard is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for seedshard
// operations. Metrics live on a dedicated registry rather than the global
// default one, so a short-lived process can dump exactly what it recorded
// with WriteTextfile.
//
// Labels never carry secret material: only operation names, statuses,
// error classes, entropy source modes and languages.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all seedshard metrics
	Namespace = "seedshard"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelSource    = "source"
	LabelLanguage  = "language"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpGenerate      = "generate"
	OpValidate      = "validate"
	OpEntropy       = "entropy"
	OpSeed          = "seed"
	OpShardCreate   = "shard_create"
	OpShardCombine  = "shard_combine"
	OpShardValidate = "shard_validate"
	OpShardInfo     = "shard_info"
)

var (
	// Registry holds every seedshard metric plus the Go runtime collector.
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	// OperationsTotal tracks operations by name and status.
	OperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of seedshard operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks operation latency. Seed derivation runs
	// 2048 PBKDF2 rounds and shard combine runs the SLIP-39 Feistel
	// rounds, so the buckets reach into whole seconds.
	OperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of seedshard operations in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{LabelOperation},
	)

	// ErrorsTotal tracks failures by operation and error class
	// (e.g. "invalid_checksum", "insufficient_shards").
	ErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	// EntropyBytesTotal counts bytes drawn from each entropy source.
	EntropyBytesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "entropy",
			Name:      "bytes_total",
			Help:      "Total bytes of entropy drawn by source",
		},
		[]string{LabelSource},
	)

	// MnemonicsTotal counts mnemonics produced, by wordlist language.
	MnemonicsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "mnemonic",
			Name:      "generated_total",
			Help:      "Total number of mnemonics generated by language",
		},
		[]string{LabelLanguage},
	)

	// ShardsTotal counts shards produced by create and consumed by combine.
	ShardsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "shard",
			Name:      "shards_total",
			Help:      "Total number of shards processed by operation",
		},
		[]string{LabelOperation},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	enabled.Store(true)
	Registry.MustRegister(collectors.NewGoCollector())
}

// RecordOperation records an operation with its duration and status.
//
// Example:
//
//	start := time.Now()
//	shards, err := engine.Create(m, cfg)
//	metrics.RecordOperation(metrics.OpShardCreate, metrics.Status(err), time.Since(start).Seconds())
func RecordOperation(operation, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records a failure of operation classified as errorType.
func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordEntropy adds n bytes drawn from source.
func RecordEntropy(source string, n int) {
	if !enabled.Load() || n <= 0 {
		return
	}
	EntropyBytesTotal.WithLabelValues(source).Add(float64(n))
}

// RecordMnemonic counts one generated mnemonic in language.
func RecordMnemonic(language string) {
	if !enabled.Load() {
		return
	}
	MnemonicsTotal.WithLabelValues(language).Inc()
}

// RecordShards adds n shards handled by operation.
func RecordShards(operation string, n int) {
	if !enabled.Load() || n <= 0 {
		return
	}
	ShardsTotal.WithLabelValues(operation).Add(float64(n))
}

// Status maps an operation result to StatusSuccess or StatusError.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Observe runs fn and records it as operation. When fn fails and classify
// is non-nil, the error is also counted under classify(err).
func Observe(operation string, classify func(error) string, fn func() error) error {
	start := time.Now()
	err := fn()
	RecordOperation(operation, Status(err), time.Since(start).Seconds())
	if err != nil && classify != nil {
		RecordError(operation, classify(err))
	}
	return err
}

// Reset clears every seedshard metric. Runtime metrics are not affected.
func Reset() {
	OperationsTotal.Reset()
	OperationDuration.Reset()
	ErrorsTotal.Reset()
	EntropyBytesTotal.Reset()
	MnemonicsTotal.Reset()
	ShardsTotal.Reset()
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
