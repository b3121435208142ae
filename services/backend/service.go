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

// Package backend defines the contract for cryptographic backends.  All
// implementations produce leaves with identical subject-alternative-name and
// extension semantics; the backend in use is selected at startup, never per
// request.
package backend

import (
	"context"

	"github.com/skeanproxy/skean/core"
)

// Service is the cryptographic backend service.
type Service interface {
	// Name returns the name of the backend.
	Name() string

	// GenerateLeaf generates a leaf certificate for the request, signed by the
	// supplied authority.  The leaf's subject alternative names are exactly
	// the requested host plus any additional SANs, and its validity is the
	// backend's configured duration clamped to the authority's remaining
	// validity.
	GenerateLeaf(ctx context.Context, req *core.CertificateRequest, authority *core.RootAuthority) (*core.CachedCertificate, error)

	// ParseAuthority parses and validates CA material.  The material must be
	// a well-formed, unexpired CA certificate with the certificate-signing
	// key usage, and the key must match the certificate.  The returned
	// authority carries no generation; the authority store assigns one on
	// installation.
	ParseAuthority(ctx context.Context, certPEM []byte, keyPEM []byte) (*core.RootAuthority, error)
}
