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

package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/services/api/rest"
	"github.com/skeanproxy/skean/services/authority/static"
	"github.com/skeanproxy/skean/services/backend/stdcrypto"
	"github.com/skeanproxy/skean/services/cache/lru"
	standardreloader "github.com/skeanproxy/skean/services/reloader/standard"
	"github.com/skeanproxy/skean/testing/ca"
	"github.com/stretchr/testify/require"
)

func startAPI(t *testing.T, address string) *rest.Service {
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
	reloaderSvc, err := standardreloader.New(ctx,
		standardreloader.WithLogLevel(zerolog.Disabled),
		standardreloader.WithBackend(backend),
		standardreloader.WithAuthority(authoritySvc),
	)
	require.NoError(t, err)

	service, err := rest.New(ctx,
		rest.WithLogLevel(zerolog.Disabled),
		rest.WithListenAddress(address),
		rest.WithAuthority(authoritySvc),
		rest.WithReloader(reloaderSvc),
		rest.WithCache(cacheSvc),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = service.Shutdown(context.Background())
	})

	// Wait for the listener to come up.
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/healthz", address))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	return service
}

func TestNew(t *testing.T) {
	_, err := rest.New(context.Background(), rest.WithLogLevel(zerolog.Disabled))
	require.EqualError(t, err, "problem with parameters: no listen address specified")
}

func TestEndpoints(t *testing.T) {
	address := "localhost:14726"
	startAPI(t, address)

	resp, err := http.Get(fmt.Sprintf("http://%s/v1/authority", address))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var authorityInfo struct {
		Generation uint64 `json:"generation"`
		Subject    string `json:"subject"`
		NotAfter   string `json:"not_after"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&authorityInfo))
	require.Equal(t, uint64(1), authorityInfo.Generation)
	require.Contains(t, authorityInfo.Subject, "Test authority")
	require.NotEmpty(t, authorityInfo.NotAfter)

	cacheResp, err := http.Get(fmt.Sprintf("http://%s/v1/cache", address))
	require.NoError(t, err)
	defer cacheResp.Body.Close()
	require.Equal(t, http.StatusOK, cacheResp.StatusCode)
	var cacheInfo struct {
		Entries int `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(cacheResp.Body).Decode(&cacheInfo))
	require.Equal(t, 0, cacheInfo.Entries)
}

func TestReloadEndpoint(t *testing.T) {
	address := "localhost:14727"
	startAPI(t, address)

	reloadURL := fmt.Sprintf("http://%s/v1/authority/reload", address)

	// Invalid JSON.
	resp, err := http.Post(reloadURL, "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing material.
	body, err := json.Marshal(map[string]string{"cert_pem": ""})
	require.NoError(t, err)
	resp, err = http.Post(reloadURL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Invalid material is rejected with a reason.
	expiredCert, expiredKey, err := ca.New("Expired authority", -time.Hour)
	require.NoError(t, err)
	body, err = json.Marshal(map[string]string{
		"cert_pem": string(expiredCert),
		"key_pem":  string(expiredKey),
	})
	require.NoError(t, err)
	resp, err = http.Post(reloadURL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var failure struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&failure))
	resp.Body.Close()
	require.Contains(t, failure.Reason, "expired")

	// Valid material installs the next generation.
	newCert, newKey, err := ca.New("Replacement authority", time.Hour)
	require.NoError(t, err)
	body, err = json.Marshal(map[string]string{
		"cert_pem": string(newCert),
		"key_pem":  string(newKey),
	})
	require.NoError(t, err)
	resp, err = http.Post(reloadURL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var success struct {
		Generation uint64 `json:"generation"`
		Subject    string `json:"subject"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&success))
	resp.Body.Close()
	require.Equal(t, uint64(2), success.Generation)
	require.Contains(t, success.Subject, "Replacement authority")
}
