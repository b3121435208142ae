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
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/authority"
	"github.com/skeanproxy/skean/services/backend"
	"github.com/skeanproxy/skean/services/metrics"
)

// Service generates leaf certificates by running the configured backend
// against the current authority snapshot.
type Service struct {
	monitor   metrics.GeneratorMonitor
	backend   backend.Service
	authority authority.Service
}

// module-wide log.
var log zerolog.Logger

// New creates a new standard certificate generator.
func New(ctx context.Context, params ...Parameter) (*Service, error) {
	parameters, err := parseAndCheckParameters(params...)
	if err != nil {
		return nil, errors.Wrap(err, "problem with parameters")
	}

	// Set logging.
	log = zerologger.With().Str("service", "generator").Str("impl", "standard").Logger()
	if parameters.logLevel != log.GetLevel() {
		log = log.Level(parameters.logLevel)
	}

	return &Service{
		monitor:   parameters.monitor,
		backend:   parameters.backend,
		authority: parameters.authority,
	}, nil
}

// Generate generates a leaf certificate for the request, signed by the
// authority active at the time of the call.
func (s *Service) Generate(ctx context.Context, req *core.CertificateRequest) (*core.CachedCertificate, error) {
	started := time.Now()

	snapshot := s.authority.Current()
	cert, err := s.backend.GenerateLeaf(ctx, req, snapshot)
	if err != nil {
		s.monitor.GenerationCompleted(started, s.backend.Name(), core.ResultFailed)
		return nil, errors.Wrap(err, "generation failed")
	}

	s.monitor.GenerationCompleted(started, s.backend.Name(), core.ResultSucceeded)
	log.Trace().
		Str("host", req.Host).
		Uint64("generation", cert.Generation).
		Time("not_after", cert.NotAfter).
		Msg("Generated leaf certificate")

	return cert, nil
}
