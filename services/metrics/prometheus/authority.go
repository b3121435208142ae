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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/skeanproxy/skean/core"
)

func (s *Service) setupAuthorityMetrics() error {
	s.authorityGeneration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "skean",
		Subsystem: "authority",
		Name:      "generation",
		Help:      "The generation of the currently installed signing authority.",
	})
	if err := prometheus.Register(s.authorityGeneration); err != nil {
		return err
	}

	s.authorityReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skean",
		Subsystem: "authority",
		Name:      "reloads_total",
		Help:      "The number of authority reload attempts.",
	}, []string{"result"})
	return prometheus.Register(s.authorityReloads)
}

// AuthorityGeneration is called when a new authority generation is installed.
func (s *Service) AuthorityGeneration(generation uint64) {
	s.authorityGeneration.Set(float64(generation))
}

// ReloadCompleted is called when an authority reload has completed.
func (s *Service) ReloadCompleted(result core.Result) {
	s.authorityReloads.WithLabelValues(strings.ToLower(result.String())).Inc()
}
