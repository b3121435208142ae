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

package static

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/metrics"
)

// Service holds the active signing authority behind an atomically swappable
// snapshot.  Readers never block; the reloader is the sole writer.
type Service struct {
	monitor metrics.AuthorityMonitor

	swapMutex sync.Mutex
	current   atomic.Pointer[core.RootAuthority]
}

// module-wide log.
var log zerolog.Logger

// New creates a new static authority store holding the supplied authority at
// generation 1.
func New(ctx context.Context, params ...Parameter) (*Service, error) {
	parameters, err := parseAndCheckParameters(params...)
	if err != nil {
		return nil, errors.Wrap(err, "problem with parameters")
	}

	// Set logging.
	log = zerologger.With().Str("service", "authority").Str("impl", "static").Logger()
	if parameters.logLevel != log.GetLevel() {
		log = log.Level(parameters.logLevel)
	}

	initial := *parameters.authority
	initial.Generation = 1
	if initial.NotAfter.Before(time.Now()) {
		log.Warn().Time("expiry", initial.NotAfter).Msg("Signing authority certificate expired")
	}

	s := &Service{
		monitor: parameters.monitor,
	}
	s.current.Store(&initial)
	s.monitor.AuthorityGeneration(initial.Generation)

	log.Info().
		Str("subject", initial.Certificate.Subject.CommonName).
		Uint64("generation", initial.Generation).
		Time("valid_until", initial.NotAfter).
		Msg("Signing authority installed")

	return s, nil
}

// Current returns the currently installed signing authority.
func (s *Service) Current() *core.RootAuthority {
	return s.current.Load()
}

// Swap installs a new signing authority with the next generation and returns
// the previous one.
func (s *Service) Swap(authority *core.RootAuthority) *core.RootAuthority {
	s.swapMutex.Lock()
	defer s.swapMutex.Unlock()

	previous := s.current.Load()
	next := *authority
	next.Generation = previous.Generation + 1
	s.current.Store(&next)
	s.monitor.AuthorityGeneration(next.Generation)

	log.Info().
		Str("subject", next.Certificate.Subject.CommonName).
		Uint64("generation", next.Generation).
		Time("valid_until", next.NotAfter).
		Msg("Signing authority replaced")

	return previous
}
