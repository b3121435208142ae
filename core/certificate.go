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
	"crypto/tls"
	"time"
)

// KeyAlgorithm is the algorithm used for a leaf certificate's key.
type KeyAlgorithm int

// Supported leaf key algorithms.
const (
	KeyAlgorithmUnknown KeyAlgorithm = iota
	KeyAlgorithmECDSAP256
	KeyAlgorithmRSA2048
	KeyAlgorithmEd25519
)

func (k KeyAlgorithm) String() string {
	return [...]string{"Unknown", "ECDSA-P256", "RSA-2048", "Ed25519"}[k]
}

// ParseKeyAlgorithm parses a key algorithm from its configuration name.
func ParseKeyAlgorithm(name string) KeyAlgorithm {
	switch name {
	case "ecdsa-p256", "ecdsa", "":
		return KeyAlgorithmECDSAP256
	case "rsa-2048", "rsa":
		return KeyAlgorithmRSA2048
	case "ed25519":
		return KeyAlgorithmEd25519
	default:
		return KeyAlgorithmUnknown
	}
}

// CertificateRequest is a request for a leaf certificate.
type CertificateRequest struct {
	// Host is the normalized host the certificate is for.
	Host string
	// SANs are additional subject alternative names, beyond the host itself.
	SANs []string
	// KeyAlgorithm is the algorithm for the leaf key.
	KeyAlgorithm KeyAlgorithm
}

// CachedCertificate is a leaf certificate held by the certificate cache and
// shared read-only with any number of concurrent handshakes.
type CachedCertificate struct {
	// Certificate is the leaf and its key, ready to serve in a handshake.
	Certificate tls.Certificate
	// CertPEM is the PEM encoding of the leaf certificate.
	CertPEM []byte
	// KeyPEM is the PEM encoding of the leaf key.
	KeyPEM []byte
	// Generation is the generation of the authority that signed the leaf.
	Generation uint64
	// IssuedAt is when the leaf was generated.
	IssuedAt time.Time
	// NotAfter is the expiry of the leaf.
	NotAfter time.Time
}
