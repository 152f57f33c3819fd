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

package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RunInfo is 1 for the command the current process ran.
	RunInfo = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_info",
			Help:      "Command executed by this seedshard run",
		},
		[]string{"command", "version"},
	)

	// LastRunTimestamp is the unix time the run finished.
	LastRunTimestamp = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last seedshard run finished",
		},
	)

	// RunDuration is the wall time of the run in seconds.
	RunDuration = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last seedshard run in seconds",
		},
	)
)

// RunCollector records per-run gauges for a single CLI invocation.
//
//	run := metrics.NewRunCollector("shard create", version)
//	defer run.WriteTextfile(path)
type RunCollector struct {
	command string
	version string
	started time.Time
}

// NewRunCollector starts timing a run of command.
func NewRunCollector(command, version string) *RunCollector {
	return &RunCollector{
		command: command,
		version: version,
		started: time.Now(),
	}
}

// Collect updates the run gauges.
func (rc *RunCollector) Collect() {
	if !IsEnabled() {
		return
	}
	RunInfo.Reset()
	RunInfo.WithLabelValues(rc.command, rc.version).Set(1)
	RunDuration.Set(time.Since(rc.started).Seconds())
	LastRunTimestamp.Set(float64(time.Now().Unix()))
}

// WriteTextfile collects the run gauges and writes the registry to path in
// the node exporter textfile format. The file is replaced atomically.
func (rc *RunCollector) WriteTextfile(path string) error {
	rc.Collect()
	return WriteTextfile(path)
}

// WriteTextfile writes the registry to path. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
