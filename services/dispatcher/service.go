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

// Package dispatcher decouples CPU-bound certificate generation from the
// connection-accept path.
package dispatcher

import (
	"context"

	"github.com/skeanproxy/skean/core"
)

// Service is the generation dispatcher service.
type Service interface {
	// Dispatch obtains a certificate for the host, generating one if the
	// cache cannot serve it.  Concurrent requests for the same host and
	// authority generation are coalesced onto a single generation; all
	// waiters observe the same outcome.  Dispatch returns core.ErrBusy if
	// the generation queue is saturated and core.ErrTimeout if the request
	// deadline passes first; in the latter case the generation continues and
	// still populates the cache.
	Dispatch(ctx context.Context, host string, sans []string) (*core.CachedCertificate, error)
}
