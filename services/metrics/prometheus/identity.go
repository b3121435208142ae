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

func (s *Service) setupIdentityMetrics() error {
	s.identityTimer = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "skean",
		Subsystem: "identity",
		Name:      "duration_seconds",
		Help:      "The time skean spends resolving a handshake identity.",
		Buckets: []float64{
			0.0001, 0.0002, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0,
		},
	})
	if err := prometheus.Register(s.identityTimer); err != nil {
		return err
	}

	s.identityRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skean",
		Subsystem: "identity",
		Name:      "requests_total",
		Help:      "The number of handshake identity requests.",
	}, []string{"result"})
	return prometheus.Register(s.identityRequests)
}

// IdentityRequestCompleted is called when a handshake identity request has completed.
func (s *Service) IdentityRequestCompleted(started time.Time, result core.Result) {
	s.identityTimer.Observe(time.Since(started).Seconds())
	s.identityRequests.WithLabelValues(strings.ToLower(result.String())).Inc()
}
