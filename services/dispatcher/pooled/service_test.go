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

package pooled_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/authority/static"
	"github.com/skeanproxy/skean/services/backend/stdcrypto"
	"github.com/skeanproxy/skean/services/cache/lru"
	"github.com/skeanproxy/skean/services/dispatcher/pooled"
	"github.com/skeanproxy/skean/services/generator/mock"
	"github.com/skeanproxy/skean/testing/ca"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	authority *static.Service
	cache     *lru.Service
	generator *mock.Service
}

func setup(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	ctx := context.Background()

	backend, err := stdcrypto.New(ctx, stdcrypto.WithLogLevel(zerolog.Disabled))
	require.NoError(t, err)
	certPEM, keyPEM, err := ca.New("Test authority", time.Hour)
	require.NoError(t, err)
	parsed, err := backend.ParseAuthority(ctx, certPEM, keyPEM)
	require.NoError(t, err)

	authoritySvc, err := static.New(ctx,
		static.WithLogLevel(zerolog.Disabled),
		static.WithAuthority(parsed),
	)
	require.NoError(t, err)

	cacheSvc, err := lru.New(ctx,
		lru.WithLogLevel(zerolog.Disabled),
		lru.WithAuthority(authoritySvc),
	)
	require.NoError(t, err)

	return &fixture{
		authority: authoritySvc,
		cache:     cacheSvc,
		generator: mock.New(delay),
	}
}

func TestNew(t *testing.T) {
	f := setup(t, 0)

	tests := []struct {
		name   string
		params []pooled.Parameter
		err    string
	}{
		{
			name: "GeneratorMissing",
			params: []pooled.Parameter{
				pooled.WithLogLevel(zerolog.Disabled),
				pooled.WithCache(f.cache),
				pooled.WithAuthority(f.authority),
			},
			err: "problem with parameters: no generator specified",
		},
		{
			name: "CacheMissing",
			params: []pooled.Parameter{
				pooled.WithLogLevel(zerolog.Disabled),
				pooled.WithGenerator(f.generator),
				pooled.WithAuthority(f.authority),
			},
			err: "problem with parameters: no cache specified",
		},
		{
			name: "AuthorityMissing",
			params: []pooled.Parameter{
				pooled.WithLogLevel(zerolog.Disabled),
				pooled.WithGenerator(f.generator),
				pooled.WithCache(f.cache),
			},
			err: "problem with parameters: no authority specified",
		},
		{
			name: "WorkersInvalid",
			params: []pooled.Parameter{
				pooled.WithLogLevel(zerolog.Disabled),
				pooled.WithGenerator(f.generator),
				pooled.WithCache(f.cache),
				pooled.WithAuthority(f.authority),
				pooled.WithWorkers(-1),
			},
			err: "problem with parameters: no workers specified",
		},
		{
			name: "Good",
			params: []pooled.Parameter{
				pooled.WithLogLevel(zerolog.Disabled),
				pooled.WithGenerator(f.generator),
				pooled.WithCache(f.cache),
				pooled.WithAuthority(f.authority),
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := pooled.New(context.Background(), test.params...)
			if test.err != "" {
				require.EqualError(t, err, test.err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()
	f := setup(t, 0)
	service, err := pooled.New(ctx,
		pooled.WithLogLevel(zerolog.Disabled),
		pooled.WithGenerator(f.generator),
		pooled.WithCache(f.cache),
		pooled.WithAuthority(f.authority),
	)
	require.NoError(t, err)

	certificate, err := service.Dispatch(ctx, "example.com", nil)
	require.NoError(t, err)
	require.NotNil(t, certificate)
	require.Equal(t, uint64(1), f.generator.Executions())

	// A second dispatch is served from the cache without generating.
	again, err := service.Dispatch(ctx, "example.com", nil)
	require.NoError(t, err)
	require.Equal(t, certificate, again)
	require.Equal(t, uint64(1), f.generator.Executions())
}

func TestDispatchFailure(t *testing.T) {
	ctx := context.Background()
	f := setup(t, 0)
	service, err := pooled.New(ctx,
		pooled.WithLogLevel(zerolog.Disabled),
		pooled.WithGenerator(f.generator),
		pooled.WithCache(f.cache),
		pooled.WithAuthority(f.authority),
	)
	require.NoError(t, err)

	_, err = service.Dispatch(ctx, "fail.example.com", nil)
	require.ErrorContains(t, err, "generation failed")
	// A failure is not cached; the next dispatch tries again.
	_, err = service.Dispatch(ctx, "fail.example.com", nil)
	require.ErrorContains(t, err, "generation failed")
	require.Equal(t, uint64(2), f.generator.Executions())
}

// Concurrent dispatches for the same host must run the generator exactly
// once, with every waiter receiving the same certificate.
func TestDispatchCoalesces(t *testing.T) {
	ctx := context.Background()
	f := setup(t, 100*time.Millisecond)
	service, err := pooled.New(ctx,
		pooled.WithLogLevel(zerolog.Disabled),
		pooled.WithGenerator(f.generator),
		pooled.WithCache(f.cache),
		pooled.WithAuthority(f.authority),
	)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*core.CachedCertificate, 16)
	errs := make([]error, 16)
	for i := 0; i < 16; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = service.Dispatch(ctx, "example.com", nil)
		}()
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		require.NoError(t, errs[i])
		require.Same(t, results[0], results[i])
	}
	require.Equal(t, uint64(1), f.generator.Executions())
}

// With a single busy worker and a full queue, a further dispatch for a new
// host must report busy rather than wait indefinitely, and the in-flight
// requests must still complete.
func TestDispatchBusy(t *testing.T) {
	ctx := context.Background()
	f := setup(t, 500*time.Millisecond)
	service, err := pooled.New(ctx,
		pooled.WithLogLevel(zerolog.Disabled),
		pooled.WithGenerator(f.generator),
		pooled.WithCache(f.cache),
		pooled.WithAuthority(f.authority),
		pooled.WithWorkers(1),
		pooled.WithQueueDepth(1),
		pooled.WithEnqueueTimeout(10*time.Millisecond),
	)
	require.NoError(t, err)

	var wg sync.WaitGroup
	firstErrs := make([]error, 2)
	for i, host := range []string{"a.example.com", "b.example.com"} {
		i, host := i, host
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, firstErrs[i] = service.Dispatch(ctx, host, nil)
		}()
		// Give the dispatch time to occupy the worker or the queue slot.
		time.Sleep(50 * time.Millisecond)
	}

	_, err = service.Dispatch(ctx, "c.example.com", nil)
	require.ErrorIs(t, err, core.ErrBusy)

	wg.Wait()
	require.NoError(t, firstErrs[0])
	require.NoError(t, firstErrs[1])

	// The rejected host is not poisoned; once capacity frees up it works.
	_, err = service.Dispatch(ctx, "c.example.com", nil)
	require.NoError(t, err)
}

// A waiter that times out detaches, but the generation continues and
// populates the cache for later requests.
func TestDispatchTimeout(t *testing.T) {
	ctx := context.Background()
	f := setup(t, 200*time.Millisecond)
	service, err := pooled.New(ctx,
		pooled.WithLogLevel(zerolog.Disabled),
		pooled.WithGenerator(f.generator),
		pooled.WithCache(f.cache),
		pooled.WithAuthority(f.authority),
		pooled.WithRequestTimeout(50*time.Millisecond),
	)
	require.NoError(t, err)

	_, err = service.Dispatch(ctx, "example.com", nil)
	require.ErrorIs(t, err, core.ErrTimeout)

	require.Eventually(t, func() bool {
		_, exists := f.cache.Lookup(ctx, "example.com")
		return exists
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, uint64(1), f.generator.Executions())
}
