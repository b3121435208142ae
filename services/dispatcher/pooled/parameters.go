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

package pooled

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/authority"
	"github.com/skeanproxy/skean/services/cache"
	"github.com/skeanproxy/skean/services/generator"
	"github.com/skeanproxy/skean/services/metrics"
)

type parameters struct {
	logLevel       zerolog.Level
	monitor        metrics.DispatcherMonitor
	generator      generator.Service
	cache          cache.Service
	authority      authority.Service
	keyAlgorithm   core.KeyAlgorithm
	workers        int
	queueDepth     int
	enqueueTimeout time.Duration
	requestTimeout time.Duration
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
func WithMonitor(monitor metrics.DispatcherMonitor) Parameter {
	return parameterFunc(func(p *parameters) {
		p.monitor = monitor
	})
}

// WithGenerator sets the certificate generator for this module.
func WithGenerator(generator generator.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.generator = generator
	})
}

// WithCache sets the certificate cache for this module.
func WithCache(cache cache.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.cache = cache
	})
}

// WithAuthority sets the authority store for this module.
func WithAuthority(authority authority.Service) Parameter {
	return parameterFunc(func(p *parameters) {
		p.authority = authority
	})
}

// WithKeyAlgorithm sets the key algorithm for generated leaves.
func WithKeyAlgorithm(keyAlgorithm core.KeyAlgorithm) Parameter {
	return parameterFunc(func(p *parameters) {
		p.keyAlgorithm = keyAlgorithm
	})
}

// WithWorkers sets the number of generation workers for this module.
func WithWorkers(workers int) Parameter {
	return parameterFunc(func(p *parameters) {
		p.workers = workers
	})
}

// WithQueueDepth sets the depth of the generation queue for this module.
func WithQueueDepth(queueDepth int) Parameter {
	return parameterFunc(func(p *parameters) {
		p.queueDepth = queueDepth
	})
}

// WithEnqueueTimeout sets how long a request may wait for queue space before
// being rejected as busy.
func WithEnqueueTimeout(enqueueTimeout time.Duration) Parameter {
	return parameterFunc(func(p *parameters) {
		p.enqueueTimeout = enqueueTimeout
	})
}

// WithRequestTimeout sets how long a waiter may await a generation result.
func WithRequestTimeout(requestTimeout time.Duration) Parameter {
	return parameterFunc(func(p *parameters) {
		p.requestTimeout = requestTimeout
	})
}

// parseAndCheckParameters parses and checks parameters to ensure that mandatory parameters are present and correct.
func parseAndCheckParameters(params ...Parameter) (*parameters, error) {
	parameters := parameters{
		logLevel:       zerolog.GlobalLevel(),
		keyAlgorithm:   core.KeyAlgorithmECDSAP256,
		workers:        4,
		queueDepth:     256,
		enqueueTimeout: 100 * time.Millisecond,
		requestTimeout: 10 * time.Second,
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
	if parameters.generator == nil {
		return nil, errors.New("no generator specified")
	}
	if parameters.cache == nil {
		return nil, errors.New("no cache specified")
	}
	if parameters.authority == nil {
		return nil, errors.New("no authority specified")
	}
	if parameters.workers <= 0 {
		return nil, errors.New("no workers specified")
	}
	if parameters.queueDepth <= 0 {
		return nil, errors.New("no queue depth specified")
	}
	if parameters.requestTimeout <= 0 {
		return nil, errors.New("no request timeout specified")
	}

	return &parameters, nil
}
