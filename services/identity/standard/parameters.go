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
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/services/cache"
	"github.com/skeanproxy/skean/services/dispatcher"
	"github.com/skeanproxy/skean/services/metrics"
)

type parameters struct {
	logLevel   zerolog.Level
	monitor    metrics.IdentityMonitor
	cache      cache.Service
	dispatcher dispatcher.Service
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
func WithMonitor(monitor metrics.IdentityMonitor) Parameter {
	return parameterFunc(func(p *parameters) {
		p.monitor = monitor
	})
}

// WithCache sets the certificate cache for this module.
func WithCache(cache cache.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.cache = cache
	})
}

// WithDispatcher sets the issuance dispatcher for this module.
func WithDispatcher(dispatcher dispatcher.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.dispatcher = dispatcher
	})
}

// parseAndCheckParameters parses and checks parameters to ensure that mandatory parameters are present and correct.
func parseAndCheckParameters(params ...Parameter) (*parameters, error) {
	parameters := parameters{
		logLevel: zerolog.GlobalLevel(),
	}
	for _, p := range params {
		if params != nil {
			p.apply(&parameters)
		}
	}

	if parameters.monitor == nil {
		parameters.monitor = &noopMonitor{}
	}
	if parameters.cache == nil {
		return nil, errors.New("no cache specified")
	}
	if parameters.dispatcher == nil {
		return nil, errors.New("no dispatcher specified")
	}

	return &parameters, nil
}
