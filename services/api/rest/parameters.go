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

package rest

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/services/authority"
	"github.com/skeanproxy/skean/services/cache"
	"github.com/skeanproxy/skean/services/metrics"
	"github.com/skeanproxy/skean/services/reloader"
)

type parameters struct {
	logLevel      zerolog.Level
	monitor       metrics.APIMonitor
	listenAddress string
	authority     authority.Service
	reloader      reloader.Service
	cache         cache.Service
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
func WithMonitor(monitor metrics.APIMonitor) Parameter {
	return parameterFunc(func(p *parameters) {
		p.monitor = monitor
	})
}

// WithListenAddress sets the listen address for this module.
func WithListenAddress(listenAddress string) Parameter {
	return parameterFunc(func(p *parameters) {
		p.listenAddress = listenAddress
	})
}

// WithAuthority sets the authority store for this module.
func WithAuthority(authority authority.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.authority = authority
	})
}

// WithReloader sets the authority reloader for this module.
func WithReloader(reloader reloader.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.reloader = reloader
	})
}

// WithCache sets the certificate cache for this module.
func WithCache(cache cache.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.cache = cache
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
	if parameters.listenAddress == "" {
		return nil, errors.New("no listen address specified")
	}
	if parameters.authority == nil {
		return nil, errors.New("no authority specified")
	}
	if parameters.reloader == nil {
		return nil, errors.New("no reloader specified")
	}
	if parameters.cache == nil {
		return nil, errors.New("no cache specified")
	}

	return &parameters, nil
}
