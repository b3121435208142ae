// Copyright © 2025 Attestant Limited.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package prometheus

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/skeanproxy/skean/core"
)

func (s *Service) setupDispatcherMetrics() error {
	s.dispatcherCoalesced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skean",
		Subsystem: "dispatcher",
		Name:      "coalesced_total",
		Help:      "The number of requests that attached to an in-flight generation.",
	})
	if err := prometheus.Register(s.dispatcherCoalesced); err != nil {
		return err
	}

	s.dispatcherTimer = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "skean",
		Subsystem: "dispatcher",
		Name:      "duration_seconds",
		Help:      "The time skean spends satisfying a dispatch request.",
		Buckets: []float64{
			0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0,
		},
	})
	if err := prometheus.Register(s.dispatcherTimer); err != nil {
		return err
	}

	s.dispatcherRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skean",
		Subsystem: "dispatcher",
		Name:      "requests_total",
		Help:      "The number of dispatch requests.",
	}, []string{"result"})
	if err := prometheus.Register(s.dispatcherRequests); err != nil {
		return err
	}

	s.dispatcherQueue = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "skean",
		Subsystem: "dispatcher",
		Name:      "queue_depth",
		Help:      "The number of generation tasks awaiting a worker.",
	})
	return prometheus.Register(s.dispatcherQueue)
}

// RequestCoalesced is called when a request attaches to an in-flight task.
func (s *Service) RequestCoalesced() {
	s.dispatcherCoalesced.Inc()
}

// RequestCompleted is called when a dispatch request has completed.
func (s *Service) RequestCompleted(started time.Time, result core.Result) {
	s.dispatcherTimer.Observe(time.Since(started).Seconds())
	s.dispatcherRequests.WithLabelValues(strings.ToLower(result.String())).Inc()
}

// QueueDepth is called when the generation queue depth changes.
func (s *Service) QueueDepth(depth int) {
	s.dispatcherQueue.Set(float64(depth))
}
