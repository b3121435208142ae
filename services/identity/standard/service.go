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

// Package standard is the standard server identity provider.
package standard

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/cache"
	"github.com/skeanproxy/skean/services/dispatcher"
	"github.com/skeanproxy/skean/services/metrics"
)

// Service is the standard server identity provider.
type Service struct {
	monitor    metrics.IdentityMonitor
	cache      cache.Service
	dispatcher dispatcher.Service
}

// module-wide log.
var log zerolog.Logger

// New creates a new server identity provider.
func New(_ context.Context, params ...Parameter) (*Service, error) {
	parameters, err := parseAndCheckParameters(params...)
	if err != nil {
		return nil, errors.Wrap(err, "problem with parameters")
	}

	log = zerologger.With().Str("service", "identity").Str("impl", "standard").Logger()
	if parameters.logLevel != log.GetLevel() {
		log = log.Level(parameters.logLevel)
	}

	s := &Service{
		monitor:    parameters.monitor,
		cache:      parameters.cache,
		dispatcher: parameters.dispatcher,
	}

	return s, nil
}

// GetCertificate returns the certificate to serve for the handshake's SNI host.
func (s *Service) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	identity, err := s.ServerIdentity(hello.Context(), hello.ServerName)
	if err != nil {
		return nil, err
	}

	return &identity.Certificate, nil
}

// ServerIdentity returns the identity for a host, issuing one if the cache cannot serve it.
func (s *Service) ServerIdentity(ctx context.Context, host string) (*core.CachedCertificate, error) {
	started := time.Now()

	normalized, err := core.NormalizeHost(host)
	if err != nil {
		log.Debug().Err(err).Str("host", host).Msg("Rejecting identity request")
		s.monitor.IdentityRequestCompleted(started, core.ResultFailed)
		return nil, err
	}

	if identity, present := s.cache.Lookup(ctx, normalized); present {
		s.monitor.IdentityRequestCompleted(started, core.ResultSucceeded)
		return identity, nil
	}

	identity, err := s.dispatcher.Dispatch(ctx, normalized, nil)
	if err != nil {
		s.monitor.IdentityRequestCompleted(started, resultFor(err))
		return nil, err
	}

	s.monitor.IdentityRequestCompleted(started, core.ResultSucceeded)
	return identity, nil
}

func resultFor(err error) core.Result {
	switch {
	case errors.Is(err, core.ErrBusy):
		return core.ResultBusy
	case errors.Is(err, core.ErrTimeout):
		return core.ResultTimeout
	default:
		return core.ResultFailed
	}
}
