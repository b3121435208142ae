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

package lru

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/authority"
	"github.com/skeanproxy/skean/services/metrics"
)

// Service is a bounded certificate cache with least-recently-used eviction.
// An entry is only served while its signing generation matches the authority
// store's current generation and it is within its time-to-live; the TTL is
// kept shorter than the leaf validity so entries are refreshed before they
// are served close to expiry.
type Service struct {
	monitor   metrics.CacheMonitor
	authority authority.Service
	ttl       time.Duration

	entries *lru.Cache[string, *core.CachedCertificate]
}

// module-wide log.
var log zerolog.Logger

// New creates a new LRU certificate cache.
func New(ctx context.Context, params ...Parameter) (*Service, error) {
	parameters, err := parseAndCheckParameters(params...)
	if err != nil {
		return nil, errors.Wrap(err, "problem with parameters")
	}

	// Set logging.
	log = zerologger.With().Str("service", "cache").Str("impl", "lru").Logger()
	if parameters.logLevel != log.GetLevel() {
		log = log.Level(parameters.logLevel)
	}

	entries, err := lru.New[string, *core.CachedCertificate](parameters.capacity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cache store")
	}

	return &Service{
		monitor:   parameters.monitor,
		authority: parameters.authority,
		ttl:       parameters.ttl,
		entries:   entries,
	}, nil
}

// Lookup returns the cached certificate for the host.
func (s *Service) Lookup(_ context.Context, host string) (*core.CachedCertificate, bool) {
	entry, exists := s.entries.Get(host)
	if !exists {
		s.monitor.CacheMiss("absent")
		return nil, false
	}

	if entry.Generation != s.authority.Current().Generation {
		s.remove(host)
		s.monitor.CacheMiss("stale_generation")
		return nil, false
	}

	now := time.Now()
	if now.Sub(entry.IssuedAt) > s.ttl || now.After(entry.NotAfter) {
		s.remove(host)
		s.monitor.CacheMiss("expired")
		return nil, false
	}

	s.monitor.CacheHit()
	return entry, true
}

// Insert stores a certificate for the host, evicting the least recently used
// entry if at capacity.
func (s *Service) Insert(_ context.Context, host string, certificate *core.CachedCertificate) {
	if evicted := s.entries.Add(host, certificate); evicted {
		s.monitor.CacheEviction()
	}
	s.monitor.CacheSize(s.entries.Len())
}

// Len returns the number of entries currently cached.
func (s *Service) Len() int {
	return s.entries.Len()
}

// remove drops an entry that can no longer be served.
func (s *Service) remove(host string) {
	s.entries.Remove(host)
	s.monitor.CacheSize(s.entries.Len())
}
