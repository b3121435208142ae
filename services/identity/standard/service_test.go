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

package standard_test

import (
	"context"
	"crypto/x509"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/authority/static"
	"github.com/skeanproxy/skean/services/backend/stdcrypto"
	"github.com/skeanproxy/skean/services/cache/lru"
	"github.com/skeanproxy/skean/services/dispatcher/pooled"
	standardgenerator "github.com/skeanproxy/skean/services/generator/standard"
	"github.com/skeanproxy/skean/services/identity/standard"
	standardreloader "github.com/skeanproxy/skean/services/reloader/standard"
	"github.com/skeanproxy/skean/testing/ca"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	authority *static.Service
	cache     *lru.Service
	reloader  *standardreloader.Service
	identity  *standard.Service
}

func setup(t *testing.T) *fixture {
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

	generatorSvc, err := standardgenerator.New(ctx,
		standardgenerator.WithLogLevel(zerolog.Disabled),
		standardgenerator.WithBackend(backend),
		standardgenerator.WithAuthority(authoritySvc),
	)
	require.NoError(t, err)

	dispatcherSvc, err := pooled.New(ctx,
		pooled.WithLogLevel(zerolog.Disabled),
		pooled.WithGenerator(generatorSvc),
		pooled.WithCache(cacheSvc),
		pooled.WithAuthority(authoritySvc),
	)
	require.NoError(t, err)

	reloaderSvc, err := standardreloader.New(ctx,
		standardreloader.WithLogLevel(zerolog.Disabled),
		standardreloader.WithBackend(backend),
		standardreloader.WithAuthority(authoritySvc),
	)
	require.NoError(t, err)

	identitySvc, err := standard.New(ctx,
		standard.WithLogLevel(zerolog.Disabled),
		standard.WithCache(cacheSvc),
		standard.WithDispatcher(dispatcherSvc),
	)
	require.NoError(t, err)

	return &fixture{
		authority: authoritySvc,
		cache:     cacheSvc,
		reloader:  reloaderSvc,
		identity:  identitySvc,
	}
}

func TestServerIdentity(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	identity, err := f.identity.ServerIdentity(ctx, "Example.COM.")
	require.NoError(t, err)
	require.NotNil(t, identity.Certificate.Leaf)
	require.Equal(t, []string{"example.com"}, identity.Certificate.Leaf.DNSNames)

	// Host normalization means the mixed-case request is the same identity.
	again, err := f.identity.ServerIdentity(ctx, "example.com")
	require.NoError(t, err)
	require.Same(t, identity, again)
}

func TestServerIdentityInvalidHost(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.identity.ServerIdentity(ctx, "exa mple.com")
	require.ErrorIs(t, err, core.ErrHostInvalid)
	_, err = f.identity.ServerIdentity(ctx, "")
	require.ErrorIs(t, err, core.ErrHostInvalid)
}

// After an authority reload the previously issued identity is stale; the next
// request is served with a certificate from the new authority.
func TestServerIdentityAfterReload(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	before, err := f.identity.ServerIdentity(ctx, "example.com")
	require.NoError(t, err)
	require.Equal(t, uint64(1), before.Generation)

	certPEM, keyPEM, err := ca.New("Replacement authority", time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.reloader.Reload(ctx, certPEM, keyPEM))

	after, err := f.identity.ServerIdentity(ctx, "example.com")
	require.NoError(t, err)
	require.Equal(t, uint64(2), after.Generation)
	require.NotSame(t, before, after)

	// The fresh identity chains to the new authority, and only to it.
	newRoots := x509.NewCertPool()
	newRoots.AddCert(f.authority.Current().Certificate)
	_, err = after.Certificate.Leaf.Verify(x509.VerifyOptions{
		Roots:     newRoots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	require.NoError(t, err)
	_, err = before.Certificate.Leaf.Verify(x509.VerifyOptions{
		Roots:     newRoots,
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	require.Error(t, err)
}
