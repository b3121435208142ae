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
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/services/authority"
	"github.com/skeanproxy/skean/services/metrics"
)

type parameters struct {
	logLevel  zerolog.Level
	monitor   metrics.CacheMonitor
	authority authority.Service
	capacity  int
	ttl       time.Duration
}

// Parameter is the interface for service parameters.
type Parameter interface {
	apply(p *parameters)
}

type parameterFunc func(*parameters)

func (f parameterFunc) apply(p *parameters) {
	f(p)
}

// WithLogLevel sets the log level for the module.
func WithLogLevel(logLevel zerolog.Level) Parameter {
	return parameterFunc(func(p *parameters) {
		p.logLevel = logLevel
	})
}

// WithMonitor sets the monitor for this module.
func WithMonitor(monitor metrics.CacheMonitor) Parameter {
	return parameterFunc(func(p *parameters) {
		p.monitor = monitor
	})
}

// WithAuthority sets the authority store for this module.
func WithAuthority(authority authority.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.authority = authority
	})
}

// WithCapacity sets the maximum number of cached entries.
func WithCapacity(capacity int) Parameter {
	return parameterFunc(func(p *parameters) {
		p.capacity = capacity
	})
}

// WithTTL sets the time-to-live for cached entries.
func WithTTL(ttl time.Duration) Parameter {
	return parameterFunc(func(p *parameters) {
		p.ttl = ttl
	})
}

// parseAndCheckParameters parses and checks parameters to ensure that mandatory parameters are present and correct.
func parseAndCheckParameters(params ...Parameter) (*parameters, error) {
	parameters := parameters{
		logLevel: zerolog.GlobalLevel(),
		capacity: 4096,
		ttl:      time.Hour,
	}
	for _, p := range params {
		if params != nil {
			p.apply(&parameters)
		}
	}

	if parameters.monitor == nil {
		// Use no-op monitor.
		parameters.monitor = &noopMonitor{}
	}
	if parameters.authority == nil {
		return nil, errors.New("no authority specified")
	}
	if parameters.capacity <= 0 {
		return nil, errors.New("no capacity specified")
	}
	if parameters.ttl <= 0 {
		return nil, errors.New("no TTL specified")
	}

	return &parameters, nil
}
