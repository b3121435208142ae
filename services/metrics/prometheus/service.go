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
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
)

// Service is a metrics service exposing metrics via prometheus.
type Service struct {
	build prometheus.Gauge
	ready prometheus.Gauge

	cacheHits      prometheus.Counter
	cacheMisses    *prometheus.CounterVec
	cacheEvictions prometheus.Counter
	cacheSize      prometheus.Gauge

	dispatcherCoalesced prometheus.Counter
	dispatcherTimer     prometheus.Histogram
	dispatcherRequests  *prometheus.CounterVec
	dispatcherQueue     prometheus.Gauge

	generationTimer    *prometheus.HistogramVec
	generationRequests *prometheus.CounterVec

	authorityGeneration prometheus.Gauge
	authorityReloads    *prometheus.CounterVec

	identityTimer    prometheus.Histogram
	identityRequests *prometheus.CounterVec
}

// module-wide log.
var log zerolog.Logger

// New creates a new prometheus metrics service.
func New(ctx context.Context, params ...Parameter) (*Service, error) {
	parameters, err := parseAndCheckParameters(params...)
	if err != nil {
		return nil, errors.Wrap(err, "problem with parameters")
	}

	// Set logging.
	log = zerologger.With().Str("service", "metrics").Str("impl", "prometheus").Logger()
	if parameters.logLevel != log.GetLevel() {
		log = log.Level(parameters.logLevel)
	}

	s := &Service{}

	if err := s.setupBaseMetrics(); err != nil {
		return nil, errors.Wrap(err, "failed to set up base metrics")
	}
	if err := s.setupCacheMetrics(); err != nil {
		return nil, errors.Wrap(err, "failed to set up cache metrics")
	}
	if err := s.setupDispatcherMetrics(); err != nil {
		return nil, errors.Wrap(err, "failed to set up dispatcher metrics")
	}
	if err := s.setupGeneratorMetrics(); err != nil {
		return nil, errors.Wrap(err, "failed to set up generator metrics")
	}
	if err := s.setupAuthorityMetrics(); err != nil {
		return nil, errors.Wrap(err, "failed to set up authority metrics")
	}
	if err := s.setupIdentityMetrics(); err != nil {
		return nil, errors.Wrap(err, "failed to set up identity metrics")
	}

	go func() {
		server := &http.Server{
			Addr:              parameters.address,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		if err := server.ListenAndServe(); err != nil {
			log.Warn().Str("metrics_address", parameters.address).Err(err).Msg("Failed to run metrics server")
		}
	}()

	return s, nil
}
