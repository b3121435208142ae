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

// Package rest provides the administrative REST API.
package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"github.com/skeanproxy/skean/services/authority"
	"github.com/skeanproxy/skean/services/cache"
	"github.com/skeanproxy/skean/services/metrics"
	"github.com/skeanproxy/skean/services/reloader"
)

// Service provides the administrative REST daemon.
type Service struct {
	monitor   metrics.APIMonitor
	authority authority.Service
	reloader  reloader.Service
	cache     cache.Service
	srv       *http.Server
}

// module-wide log.
var log zerolog.Logger

// New creates a new administrative API service over REST.
func New(_ context.Context, params ...Parameter) (*Service, error) {
	parameters, err := parseAndCheckParameters(params...)
	if err != nil {
		return nil, errors.Wrap(err, "problem with parameters")
	}

	// Set logging.
	log = zerologger.With().Str("service", "api").Str("impl", "rest").Logger()
	if parameters.logLevel != log.GetLevel() {
		log = log.Level(parameters.logLevel)
	}

	s := &Service{
		monitor:   parameters.monitor,
		authority: parameters.authority,
		reloader:  parameters.reloader,
		cache:     parameters.cache,
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/v1/authority", s.handleAuthority).Methods(http.MethodGet)
	router.HandleFunc("/v1/authority/reload", s.handleReload).Methods(http.MethodPost)
	router.HandleFunc("/v1/cache", s.handleCache).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              parameters.listenAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := s.serve(); err != nil {
		return nil, errors.Wrap(err, "failed to start API server")
	}
	log.Info().Str("address", parameters.listenAddress).Msg("Listening")

	return s, nil
}

func (s *Service) serve() error {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server shut down unexpectedly")
		}
	}()

	return nil
}

// Shutdown stops the API server, waiting for in-flight requests to complete.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
