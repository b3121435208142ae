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
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/authority/static"
	"github.com/skeanproxy/skean/services/backend/stdcrypto"
	"github.com/skeanproxy/skean/services/generator/standard"
	"github.com/skeanproxy/skean/testing/ca"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
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

	tests := []struct {
		name   string
		params []standard.Parameter
		err    string
	}{
		{
			name: "BackendMissing",
			params: []standard.Parameter{
				standard.WithLogLevel(zerolog.Disabled),
				standard.WithAuthority(authoritySvc),
			},
			err: "problem with parameters: no backend specified",
		},
		{
			name: "AuthorityMissing",
			params: []standard.Parameter{
				standard.WithLogLevel(zerolog.Disabled),
				standard.WithBackend(backend),
			},
			err: "problem with parameters: no authority specified",
		},
		{
			name: "Good",
			params: []standard.Parameter{
				standard.WithLogLevel(zerolog.Disabled),
				standard.WithBackend(backend),
				standard.WithAuthority(authoritySvc),
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := standard.New(context.Background(), test.params...)
			if test.err != "" {
				require.EqualError(t, err, test.err)
			} else {
				require.NoError(t, err)
			}
		})
	}

	service, err := standard.New(ctx,
		standard.WithLogLevel(zerolog.Disabled),
		standard.WithBackend(backend),
		standard.WithAuthority(authoritySvc),
	)
	require.NoError(t, err)

	result, err := service.Generate(ctx, &core.CertificateRequest{Host: "example.com"})
	require.NoError(t, err)
	require.NotNil(t, result.Certificate.Leaf)
	require.Equal(t, authoritySvc.Current().Generation, result.Generation)
	require.Equal(t, "example.com", result.Certificate.Leaf.Subject.CommonName)
}
