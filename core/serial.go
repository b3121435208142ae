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
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

// serialLimit bounds serial numbers to 128 bits, within RFC 5280's 20-octet cap.
var serialLimit = new(big.Int).Lsh(big.NewInt(1), 128)

// GenerateSerial generates a random certificate serial number.
func GenerateSerial(random io.Reader) (*big.Int, error) {
	serial, err := rand.Int(random, serialLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to obtain random serial")
	}
	return serial, nil
}

// SubjectKeyID derives a subject key identifier from a public key, as the
// truncated SHA-256 of its PKIX encoding.
func SubjectKeyID(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal public key")
	}
	sum := sha256.Sum256(der)
	return sum[:20], nil
}
