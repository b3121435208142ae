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

func (s *Service) setupGeneratorMetrics() error {
	s.generationTimer = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skean",
		Subsystem: "generator",
		Name:      "duration_seconds",
		Help:      "The time skean spends generating a leaf certificate.",
		Buckets: []float64{
			0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0,
		},
	}, []string{"backend"})
	if err := prometheus.Register(s.generationTimer); err != nil {
		return err
	}

	s.generationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skean",
		Subsystem: "generator",
		Name:      "requests_total",
		Help:      "The number of leaf generation requests.",
	}, []string{"backend", "result"})
	return prometheus.Register(s.generationRequests)
}

// GenerationCompleted is called when a certificate generation has completed.
func (s *Service) GenerationCompleted(started time.Time, backend string, result core.Result) {
	s.generationTimer.WithLabelValues(backend).Observe(time.Since(started).Seconds())
	s.generationRequests.WithLabelValues(backend, strings.ToLower(result.String())).Inc()
}
