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

package prometheus_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/core"
	"github.com/skeanproxy/skean/services/metrics/prometheus"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	ctx := context.Background()

	_, err := prometheus.New(ctx, prometheus.WithLogLevel(zerolog.Disabled))
	require.EqualError(t, err, "problem with parameters: no address specified")

	service, err := prometheus.New(ctx,
		prometheus.WithLogLevel(zerolog.Disabled),
		prometheus.WithAddress("localhost:11111"),
	)
	require.NoError(t, err)

	// Exercise the monitor surface.
	service.Build(1000)
	service.Ready(true)
	service.CacheHit()
	service.CacheMiss("absent")
	service.CacheEviction()
	service.CacheSize(1)
	service.RequestCoalesced()
	service.RequestCompleted(time.Now(), core.ResultSucceeded)
	service.QueueDepth(0)
	service.GenerationCompleted(time.Now(), "stdcrypto", core.ResultSucceeded)
	service.AuthorityGeneration(1)
	service.ReloadCompleted(core.ResultFailed)
	service.IdentityRequestCompleted(time.Now(), core.ResultSucceeded)
	service.Ready(false)
}
