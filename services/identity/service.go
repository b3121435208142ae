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

// Package identity supplies per-host server identities during TLS handshakes.
package identity

import (
	"context"
	"crypto/tls"

	"github.com/skeanproxy/skean/core"
)

// Service is the server identity service.
type Service interface {
	// GetCertificate returns the certificate to serve for the handshake's
	// SNI host, for use as a tls.Config GetCertificate hook.  An error causes
	// the handshake to fail cleanly.
	GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error)

	// ServerIdentity returns the identity for a host, issuing one if the
	// cache cannot serve it.
	ServerIdentity(ctx context.Context, host string) (*core.CachedCertificate, error)
}
