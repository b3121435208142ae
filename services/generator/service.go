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

// Package generator produces leaf certificates against the currently active
// signing authority.
package generator

import (
	"context"

	"github.com/skeanproxy/skean/core"
)

// Service is the certificate generator service.
type Service interface {
	// Generate generates a leaf certificate for the request, signed by the
	// authority active at the time of the call.
	Generate(ctx context.Context, req *core.CertificateRequest) (*core.CachedCertificate, error)
}
