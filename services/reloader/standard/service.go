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

package standard

import (
	"bytes"
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/authority"
	"github.com/skeanproxy/skean/services/backend"
	"github.com/skeanproxy/skean/services/metrics"
	"github.com/wealdtech/go-majordomo"
)

// Service validates and installs replacement signing authorities.  It is the
// sole writer to the authority store, so swaps are serialized here without
// further coordination.
type Service struct {
	monitor   metrics.AuthorityMonitor
	backend   backend.Service
	authority authority.Service
	majordomo majordomo.Service
	certURI   string
	keyURI    string
}

// module-wide log.
var log zerolog.Logger

// New creates a new authority reloader.  If a reload interval is configured
// the service also refetches the configured CA material on that interval and
// installs it when it has changed.
func New(ctx context.Context, params ...Parameter) (*Service, error) {
	parameters, err := parseAndCheckParameters(params...)
	if err != nil {
		return nil, errors.Wrap(err, "problem with parameters")
	}

	// Set logging.
	log = zerologger.With().Str("service", "reloader").Str("impl", "standard").Logger()
	if parameters.logLevel != log.GetLevel() {
		log = log.Level(parameters.logLevel)
	}

	s := &Service{
		monitor:   parameters.monitor,
		backend:   parameters.backend,
		authority: parameters.authority,
		majordomo: parameters.majordomo,
		certURI:   parameters.certURI,
		keyURI:    parameters.keyURI,
	}

	if parameters.reloadInterval > 0 {
		go s.runTimedReloads(ctx, parameters.reloadInterval)
	}

	return s, nil
}

// Reload validates the supplied CA material and installs it as the next
// authority generation.
func (s *Service) Reload(ctx context.Context, certPEM []byte, keyPEM []byte) error {
	next, err := s.backend.ParseAuthority(ctx, certPEM, keyPEM)
	if err != nil {
		s.monitor.ReloadCompleted(core.ResultFailed)
		log.Warn().Err(err).Msg("Rejected replacement signing authority")
		return err
	}

	previous := s.authority.Swap(next)
	s.monitor.ReloadCompleted(core.ResultSucceeded)
	log.Info().
		Uint64("previous_generation", previous.Generation).
		Time("valid_until", next.NotAfter).
		Msg("Installed replacement signing authority")

	return nil
}

// runTimedReloads refetches the configured CA material on each tick and
// installs it when it differs from the active authority's material.
func (s *Service) runTimedReloads(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tryTimedReload(ctx)
		}
	}
}

func (s *Service) tryTimedReload(ctx context.Context) {
	certPEM, err := s.majordomo.Fetch(ctx, s.certURI)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to obtain CA certificate during reload")
		return
	}
	keyPEM, err := s.majordomo.Fetch(ctx, s.keyURI)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to obtain CA key during reload")
		return
	}

	current := s.authority.Current()
	if bytes.Equal(certPEM, current.CertPEM) && bytes.Equal(keyPEM, current.KeyPEM) {
		// Material unchanged.
		return
	}

	if err := s.Reload(ctx, certPEM, keyPEM); err != nil {
		log.Warn().Err(err).Msg("Failed to install refetched signing authority")
	}
}
