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

package mock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/skeanproxy/skean/core"
)

// Service is a generator that fabricates results without cryptography,
// counting its executions.  Hosts that start with "fail" return an error.
type Service struct {
	delay      time.Duration
	executions atomic.Uint64
}

// New creates a new mock generator that takes delay to produce each result.
func New(delay time.Duration) *Service {
	return &Service{
		delay: delay,
	}
}

// Generate fabricates a result for the request.
func (s *Service) Generate(_ context.Context, req *core.CertificateRequest) (*core.CachedCertificate, error) {
	s.executions.Add(1)
	time.Sleep(s.delay)

	if len(req.Host) >= 4 && req.Host[:4] == "fail" {
		return nil, errors.New("generation failed")
	}

	now := time.Now()
	return &core.CachedCertificate{
		Generation: 1,
		IssuedAt:   now,
		NotAfter:   now.Add(24 * time.Hour),
	}, nil
}

// Executions returns the number of times Generate has been called.
func (s *Service) Executions() uint64 {
	return s.executions.Load()
}
