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
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/authority"
	"github.com/skeanproxy/skean/services/cache"
	"github.com/skeanproxy/skean/services/generator"
	"github.com/skeanproxy/skean/services/metrics"
)

// taskKey identifies a generation task: at most one task exists per key at
// any instant.
type taskKey struct {
	host       string
	generation uint64
}

// task is a single unit of generation work shared by all coalesced waiters.
// result and err are written once, before done is closed.
type task struct {
	id   uuid.UUID
	key  taskKey
	req  *core.CertificateRequest
	done chan struct{}

	result *core.CachedCertificate
	err    error
}

// Service dispatches certificate generation to a bounded worker pool.
// Generation never runs inline on the calling goroutine; requests are queued
// and duplicate in-flight requests for the same key are coalesced.
type Service struct {
	monitor        metrics.DispatcherMonitor
	generator      generator.Service
	cache          cache.Service
	authority      authority.Service
	keyAlgorithm   core.KeyAlgorithm
	enqueueTimeout time.Duration
	requestTimeout time.Duration

	queue chan *task

	inflightMutex sync.Mutex
	inflight      map[taskKey]*task
}

// module-wide log.
var log zerolog.Logger

// New creates a new pooled generation dispatcher.  The workers run until ctx
// is cancelled.
func New(ctx context.Context, params ...Parameter) (*Service, error) {
	parameters, err := parseAndCheckParameters(params...)
	if err != nil {
		return nil, errors.Wrap(err, "problem with parameters")
	}

	// Set logging.
	log = zerologger.With().Str("service", "dispatcher").Str("impl", "pooled").Logger()
	if parameters.logLevel != log.GetLevel() {
		log = log.Level(parameters.logLevel)
	}

	s := &Service{
		monitor:        parameters.monitor,
		generator:      parameters.generator,
		cache:          parameters.cache,
		authority:      parameters.authority,
		keyAlgorithm:   parameters.keyAlgorithm,
		enqueueTimeout: parameters.enqueueTimeout,
		requestTimeout: parameters.requestTimeout,
		queue:          make(chan *task, parameters.queueDepth),
		inflight:       make(map[taskKey]*task),
	}

	for i := 0; i < parameters.workers; i++ {
		go s.runWorker(ctx)
	}
	log.Debug().Int("workers", parameters.workers).Int("queue_depth", parameters.queueDepth).Msg("Workers started")

	return s, nil
}

// Dispatch obtains a certificate for the host, generating one if the cache
// cannot serve it.
func (s *Service) Dispatch(ctx context.Context, host string, sans []string) (*core.CachedCertificate, error) {
	started := time.Now()

	if certificate, exists := s.cache.Lookup(ctx, host); exists {
		s.monitor.RequestCompleted(started, core.ResultSucceeded)
		return certificate, nil
	}

	key := taskKey{
		host:       host,
		generation: s.authority.Current().Generation,
	}

	s.inflightMutex.Lock()
	t, exists := s.inflight[key]
	if exists {
		s.inflightMutex.Unlock()
		s.monitor.RequestCoalesced()
		return s.await(ctx, started, t)
	}
	t = &task{
		id:  uuid.New(),
		key: key,
		req: &core.CertificateRequest{
			Host:         host,
			SANs:         sans,
			KeyAlgorithm: s.keyAlgorithm,
		},
		done: make(chan struct{}),
	}
	s.inflight[key] = t
	s.inflightMutex.Unlock()

	if err := s.enqueue(ctx, t); err != nil {
		// Release any waiters that attached while we awaited queue space.
		s.complete(t, nil, err)
		s.monitor.RequestCompleted(started, core.ResultBusy)
		return nil, err
	}
	s.monitor.QueueDepth(len(s.queue))

	return s.await(ctx, started, t)
}

// enqueue submits a task to the worker queue, waiting up to the enqueue
// timeout for space.
func (s *Service) enqueue(ctx context.Context, t *task) error {
	select {
	case s.queue <- t:
		return nil
	default:
	}

	timer := time.NewTimer(s.enqueueTimeout)
	defer timer.Stop()
	select {
	case s.queue <- t:
		return nil
	case <-timer.C:
		log.Debug().Str("host", t.req.Host).Str("task", t.id.String()).Msg("Generation queue saturated")
		return core.ErrBusy
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "context done awaiting queue space")
	}
}

// await waits for the task to complete, up to the request timeout.  A waiter
// that times out detaches; the task continues and still populates the cache.
func (s *Service) await(ctx context.Context, started time.Time, t *task) (*core.CachedCertificate, error) {
	timer := time.NewTimer(s.requestTimeout)
	defer timer.Stop()

	select {
	case <-t.done:
		if t.err != nil {
			s.monitor.RequestCompleted(started, resultFor(t.err))
			return nil, t.err
		}
		s.monitor.RequestCompleted(started, core.ResultSucceeded)
		return t.result, nil
	case <-timer.C:
		s.monitor.RequestCompleted(started, core.ResultTimeout)
		return nil, core.ErrTimeout
	case <-ctx.Done():
		s.monitor.RequestCompleted(started, core.ResultTimeout)
		return nil, errors.Wrap(ctx.Err(), "context done awaiting generation")
	}
}

// complete publishes the task's outcome and clears its registry slot.  It is
// called exactly once per task, however many waiters attached.
func (s *Service) complete(t *task, result *core.CachedCertificate, err error) {
	s.inflightMutex.Lock()
	if current, exists := s.inflight[t.key]; exists && current == t {
		delete(s.inflight, t.key)
	}
	s.inflightMutex.Unlock()

	t.result = result
	t.err = err
	close(t.done)
}

// runWorker pulls tasks from the queue and runs the generator.  A failed task
// reports its error to its waiters; the worker moves on to the next task.
func (s *Service) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.queue:
			s.monitor.QueueDepth(len(s.queue))
			result, err := s.generator.Generate(ctx, t.req)
			if err != nil {
				log.Debug().Err(err).Str("host", t.req.Host).Str("task", t.id.String()).Msg("Generation failed")
			} else {
				s.cache.Insert(ctx, t.req.Host, result)
			}
			s.complete(t, result, err)
		}
	}
}

// resultFor maps a dispatch error to its metrics result.
func resultFor(err error) core.Result {
	switch {
	case errors.Is(err, core.ErrBusy):
		return core.ResultBusy
	case errors.Is(err, core.ErrTimeout):
		return core.ResultTimeout
	default:
		return core.ResultFailed
	}
}
