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

package core

import (
	"crypto"
	"crypto/x509"
	"time"
)

// RootAuthority is a signing authority: the certificate and key used to sign
// leaf certificates, plus the generation at which it was installed.  It is
// immutable once constructed; the authority store replaces it wholesale and
// never mutates it in place.
type RootAuthority struct {
	// Certificate is the parsed CA certificate.
	Certificate *x509.Certificate
	// PrivateKey is the CA signing key.
	PrivateKey crypto.Signer
	// CertPEM is the PEM encoding of the CA certificate.
	CertPEM []byte
	// KeyPEM is the PEM encoding of the CA key.
	KeyPEM []byte
	// Generation identifies which installed authority this is; it increases
	// monotonically on each swap.
	Generation uint64
	// NotAfter is the expiry of the CA certificate.
	NotAfter time.Time
}
