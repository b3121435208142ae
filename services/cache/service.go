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

// Package cache stores generated leaf certificates keyed by normalized host.
package cache

import (
	"context"

	"github.com/skeanproxy/skean/core"
)

// Service is the certificate cache service.
type Service interface {
	// Lookup returns the cached certificate for the host.  An entry signed by
	// an authority generation other than the current one, or past its
	// time-to-live or expiry, is treated as absent.
	Lookup(ctx context.Context, host string) (*core.CachedCertificate, bool)

	// Insert stores a certificate for the host, evicting if at capacity.
	Insert(ctx context.Context, host string, certificate *core.CachedCertificate)

	// Len returns the number of entries currently cached.
	Len() int
}
