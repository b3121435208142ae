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
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/services/authority"
	"github.com/skeanproxy/skean/services/backend"
	"github.com/skeanproxy/skean/services/metrics"
	"github.com/wealdtech/go-majordomo"
)

type parameters struct {
	logLevel       zerolog.Level
	monitor        metrics.AuthorityMonitor
	backend        backend.Service
	authority      authority.Service
	majordomo      majordomo.Service
	certURI        string
	keyURI         string
	reloadInterval time.Duration
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
func WithMonitor(monitor metrics.AuthorityMonitor) Parameter {
	return parameterFunc(func(p *parameters) {
		p.monitor = monitor
	})
}

// WithBackend sets the cryptographic backend for this module.
func WithBackend(backend backend.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.backend = backend
	})
}

// WithAuthority sets the authority store for this module.
func WithAuthority(authority authority.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.authority = authority
	})
}

// WithMajordomo sets the majordomo for this module.
func WithMajordomo(service majordomo.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.majordomo = service
	})
}

// WithCertURI sets the URI of the CA certificate for timed reloads.
func WithCertURI(certURI string) Parameter {
	return parameterFunc(func(p *parameters) {
		p.certURI = certURI
	})
}

// WithKeyURI sets the URI of the CA key for timed reloads.
func WithKeyURI(keyURI string) Parameter {
	return parameterFunc(func(p *parameters) {
		p.keyURI = keyURI
	})
}

// WithReloadInterval sets the interval between timed reloads; 0 disables them.
func WithReloadInterval(reloadInterval time.Duration) Parameter {
	return parameterFunc(func(p *parameters) {
		p.reloadInterval = reloadInterval
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
		// Use no-op monitor.
		parameters.monitor = &noopMonitor{}
	}
	if parameters.backend == nil {
		return nil, errors.New("no backend specified")
	}
	if parameters.authority == nil {
		return nil, errors.New("no authority specified")
	}
	if parameters.reloadInterval > 0 {
		if parameters.majordomo == nil {
			return nil, errors.New("no majordomo specified")
		}
		if parameters.certURI == "" {
			return nil, errors.New("no certificate URI specified")
		}
		if parameters.keyURI == "" {
			return nil, errors.New("no key URI specified")
		}
	}

	return &parameters, nil
}
