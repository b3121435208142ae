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
	"github.com/prometheus/client_golang/prometheus"
)

func (s *Service) setupCacheMetrics() error {
	s.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skean",
		Subsystem: "certificate_cache",
		Name:      "hits_total",
		Help:      "The number of lookups served from the cache.",
	})
	if err := prometheus.Register(s.cacheHits); err != nil {
		return err
	}

	s.cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skean",
		Subsystem: "certificate_cache",
		Name:      "misses_total",
		Help:      "The number of lookups not served from the cache.",
	}, []string{"reason"})
	if err := prometheus.Register(s.cacheMisses); err != nil {
		return err
	}

	s.cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "skean",
		Subsystem: "certificate_cache",
		Name:      "evictions_total",
		Help:      "The number of entries evicted to make room.",
	})
	if err := prometheus.Register(s.cacheEvictions); err != nil {
		return err
	}

	s.cacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "skean",
		Subsystem: "certificate_cache",
		Name:      "size",
		Help:      "The number of entries in the cache.",
	})
	return prometheus.Register(s.cacheSize)
}

// CacheHit is called when a lookup is served from the cache.
func (s *Service) CacheHit() {
	s.cacheHits.Inc()
}

// CacheMiss is called when a lookup misses, with the reason for the miss.
func (s *Service) CacheMiss(reason string) {
	s.cacheMisses.WithLabelValues(reason).Inc()
}

// CacheEviction is called when an entry is evicted to make room.
func (s *Service) CacheEviction() {
	s.cacheEvictions.Inc()
}

// CacheSize is called when the number of cached entries changes.
func (s *Service) CacheSize(size int) {
	s.cacheSize.Set(float64(size))
}
