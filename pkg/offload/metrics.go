// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package offload

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsOffload mirrors pkg/pipeline's lazily-registered metrics struct,
// gauging the worker pool's queue/in-flight depth (GaugeFunc, sampled from
// Pool's atomic counters rather than pushed on every Submit/Close).
type metricsOffload struct {
	once sync.Once

	queueDepth prometheus.GaugeFunc
	inFlight   prometheus.GaugeFunc
}

var offMetrics metricsOffload

func (m *metricsOffload) init(p *Pool) {
	m.once.Do(func() {
		m.queueDepth = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "jsdeob_worker_queue_depth", Help: "Runs queued waiting for an offload worker",
		}, func() float64 { return float64(p.QueueDepth()) })
		m.inFlight = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "jsdeob_worker_in_flight", Help: "Runs currently executing on offload workers",
		}, func() float64 { return float64(p.InFlight()) })
		prometheus.MustRegister(m.queueDepth, m.inFlight)
	})
}
