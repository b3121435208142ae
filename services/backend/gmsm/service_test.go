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

package gmsm_test

import (
	"context"
	"crypto/x509"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/backend/gmsm"
	"github.com/skeanproxy/skean/testing/ca"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAuthority(t *testing.T) {
	ctx := context.Background()
	service, err := gmsm.New(ctx, gmsm.WithLogLevel(zerolog.Disabled))
	require.NoError(t, err)

	goodCert, goodKey, err := ca.New("Test authority", time.Hour)
	require.NoError(t, err)
	_, otherKey, err := ca.New("Other authority", time.Hour)
	require.NoError(t, err)
	expiredCert, expiredKey, err := ca.New("Expired authority", -time.Hour)
	require.NoError(t, err)
	leafCert, leafKey, err := ca.NewEndEntity("Not an authority", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		certPEM []byte
		keyPEM  []byte
		err     string
	}{
		{
			name:    "Good",
			certPEM: goodCert,
			keyPEM:  goodKey,
		},
		{
			name:    "Garbage",
			certPEM: []byte("not pem"),
			keyPEM:  []byte("not pem"),
			err:     "certificate material does not contain a certificate",
		},
		{
			name:    "MismatchedKey",
			certPEM: goodCert,
			keyPEM:  otherKey,
			err:     "private key does not match certificate",
		},
		{
			name:    "Expired",
			certPEM: expiredCert,
			keyPEM:  expiredKey,
			err:     "certificate expired",
		},
		{
			name:    "NotCA",
			certPEM: leafCert,
			keyPEM:  leafKey,
			err:     "certificate is not a CA",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			authority, err := service.ParseAuthority(ctx, test.certPEM, test.keyPEM)
			if test.err != "" {
				require.Error(t, err)
				require.ErrorContains(t, err, test.err)
				require.True(t, core.IsAuthorityError(err))
			} else {
				require.NoError(t, err)
				require.NotNil(t, authority.Certificate)
				require.NotNil(t, authority.PrivateKey)
			}
		})
	}
}

// A leaf produced by this backend must be indistinguishable in semantics from
// one from the standard library backend, and must verify with the standard
// library verifier.
func TestGenerateLeafStandardInterop(t *testing.T) {
	ctx := context.Background()
	service, err := gmsm.New(ctx, gmsm.WithLogLevel(zerolog.Disabled))
	require.NoError(t, err)

	certPEM, keyPEM, err := ca.New("Test authority", 365*24*time.Hour)
	require.NoError(t, err)
	authority, err := service.ParseAuthority(ctx, certPEM, keyPEM)
	require.NoError(t, err)
	authority.Generation = 3

	result, err := service.GenerateLeaf(ctx, &core.CertificateRequest{
		Host: "example.com",
		SANs: []string{"alt.example.com", "192.0.2.10"},
	}, authority)
	require.NoError(t, err)

	leaf := result.Certificate.Leaf
	require.NotNil(t, leaf)
	assert.Equal(t, "example.com", leaf.Subject.CommonName)
	assert.Equal(t, []string{"example.com", "alt.example.com"}, leaf.DNSNames)
	require.Len(t, leaf.IPAddresses, 1)
	assert.Equal(t, "192.0.2.10", leaf.IPAddresses[0].String())
	assert.Contains(t, leaf.ExtKeyUsage, x509.ExtKeyUsageServerAuth)
	assert.Equal(t, uint64(3), result.Generation)

	roots := x509.NewCertPool()
	roots.AddCert(authority.Certificate)
	_, err = leaf.Verify(x509.VerifyOptions{
		Roots:     roots,
		DNSName:   "example.com",
		KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	require.NoError(t, err)
}

func TestGenerateLeafValidityClamped(t *testing.T) {
	ctx := context.Background()
	service, err := gmsm.New(ctx,
		gmsm.WithLogLevel(zerolog.Disabled),
		gmsm.WithValidity(30*24*time.Hour),
	)
	require.NoError(t, err)

	certPEM, keyPEM, err := ca.New("Short-lived authority", time.Hour)
	require.NoError(t, err)
	authority, err := service.ParseAuthority(ctx, certPEM, keyPEM)
	require.NoError(t, err)

	result, err := service.GenerateLeaf(ctx, &core.CertificateRequest{Host: "example.com"}, authority)
	require.NoError(t, err)
	require.False(t, result.NotAfter.After(authority.NotAfter))
}
