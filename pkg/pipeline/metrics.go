// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds Prometheus metrics for the pipeline driver,
// grounded on pkg/ingestion/metrics.go's lazily-registered, package-level
// metrics struct (Counter/Histogram pairs registered once via sync.Once).
type metricsPipeline struct {
	once sync.Once

	runsTotal        prometheus.Counter
	runsFailedTotal  prometheus.Counter
	stepsTotal       prometheus.Counter
	stepsFailedTotal prometheus.Counter
	stepDuration     prometheus.Histogram
	runDuration      prometheus.Histogram
}

var pipeMetrics metricsPipeline

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.runsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jsdeob_pipeline_runs_total", Help: "Pipeline runs started",
		})
		m.runsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jsdeob_pipeline_runs_failed_total", Help: "Pipeline runs that ended in a step failure",
		})
		m.stepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jsdeob_pipeline_steps_total", Help: "Flattened recipe steps executed",
		})
		m.stepsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jsdeob_pipeline_steps_failed_total", Help: "Flattened recipe steps that failed",
		})
		buckets := []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}
		m.stepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "jsdeob_pipeline_step_duration_seconds", Help: "Per-step execution duration", Buckets: buckets,
		})
		m.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "jsdeob_pipeline_run_duration_seconds", Help: "Whole-recipe run duration", Buckets: buckets,
		})
		prometheus.MustRegister(
			m.runsTotal, m.runsFailedTotal, m.stepsTotal, m.stepsFailedTotal,
			m.stepDuration, m.runDuration,
		)
	})
}
