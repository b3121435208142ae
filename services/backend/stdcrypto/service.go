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

// Package stdcrypto is a cryptographic backend built on the standard
// crypto/x509 stack.
package stdcrypto

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"github.com/skeanproxy/skean/core"
)

// Service is a cryptographic backend using the Go standard library.
type Service struct {
	validity time.Duration
}

// module-wide log.
var log zerolog.Logger

// New creates a new standard library crypto backend.
func New(ctx context.Context, params ...Parameter) (*Service, error) {
	parameters, err := parseAndCheckParameters(params...)
	if err != nil {
		return nil, errors.Wrap(err, "problem with parameters")
	}

	// Set logging.
	log = zerologger.With().Str("service", "backend").Str("impl", "stdcrypto").Logger()
	if parameters.logLevel != log.GetLevel() {
		log = log.Level(parameters.logLevel)
	}

	return &Service{
		validity: parameters.validity,
	}, nil
}

// Name returns the name of the backend.
func (*Service) Name() string {
	return "stdcrypto"
}

// GenerateLeaf generates a leaf certificate for the request, signed by the
// supplied authority.
func (s *Service) GenerateLeaf(_ context.Context, req *core.CertificateRequest, authority *core.RootAuthority) (*core.CachedCertificate, error) {
	key, err := generateKey(req.KeyAlgorithm)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate leaf key")
	}

	template, err := leafTemplate(req, key.Public(), s.validity, authority.NotAfter)
	if err != nil {
		return nil, err
	}

	der, err := x509.CreateCertificate(rand.Reader, template, authority.Certificate, key.Public(), authority.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create leaf certificate")
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse generated leaf certificate")
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal leaf key")
	}

	return &core.CachedCertificate{
		Certificate: tls.Certificate{
			Certificate: [][]byte{der},
			PrivateKey:  key,
			Leaf:        leaf,
		},
		CertPEM:    pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:     pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
		Generation: authority.Generation,
		IssuedAt:   time.Now(),
		NotAfter:   leaf.NotAfter,
	}, nil
}

// ParseAuthority parses and validates CA material.
func (s *Service) ParseAuthority(_ context.Context, certPEM []byte, keyPEM []byte) (*core.RootAuthority, error) {
	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, core.NewAuthorityError("failed to load certificate pair: %v", err)
	}
	if len(pair.Certificate) == 0 {
		return nil, core.NewAuthorityError("certificate material does not contain a certificate")
	}
	cert, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, core.NewAuthorityError("failed to parse certificate: %v", err)
	}

	if err := validateAuthorityCertificate(cert); err != nil {
		return nil, err
	}

	signer, isSigner := pair.PrivateKey.(crypto.Signer)
	if !isSigner {
		return nil, core.NewAuthorityError("private key cannot sign")
	}

	return &core.RootAuthority{
		Certificate: cert,
		PrivateKey:  signer,
		CertPEM:     certPEM,
		KeyPEM:      keyPEM,
		NotAfter:    cert.NotAfter,
	}, nil
}

// validateAuthorityCertificate confirms the certificate can act as a signing
// authority.
func validateAuthorityCertificate(cert *x509.Certificate) error {
	now := time.Now()
	switch {
	case !cert.BasicConstraintsValid || !cert.IsCA:
		return core.NewAuthorityError("certificate is not a CA")
	case cert.KeyUsage&x509.KeyUsageCertSign == 0:
		return core.NewAuthorityError("certificate cannot sign certificates")
	case now.After(cert.NotAfter):
		return core.NewAuthorityError("certificate expired at %v", cert.NotAfter)
	case now.Before(cert.NotBefore):
		return core.NewAuthorityError("certificate not valid until %v", cert.NotBefore)
	}
	return nil
}

// generateKey generates a leaf key for the given algorithm.
func generateKey(algorithm core.KeyAlgorithm) (crypto.Signer, error) {
	switch algorithm {
	case core.KeyAlgorithmECDSAP256, core.KeyAlgorithmUnknown:
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case core.KeyAlgorithmRSA2048:
		return rsa.GenerateKey(rand.Reader, 2048)
	case core.KeyAlgorithmEd25519:
		_, key, err := ed25519.GenerateKey(rand.Reader)
		return key, err
	default:
		return nil, errors.Errorf("unsupported key algorithm %v", algorithm)
	}
}

// leafTemplate builds the certificate template shared by all requests.  The
// subject alternative names are exactly the requested host plus any
// additional SANs.
func leafTemplate(req *core.CertificateRequest, pub crypto.PublicKey, validity time.Duration, authorityNotAfter time.Time) (*x509.Certificate, error) {
	serial, err := core.GenerateSerial(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate serial number")
	}
	ski, err := core.SubjectKeyID(pub)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate subject key ID")
	}

	now := time.Now()
	notAfter := now.Add(validity)
	if notAfter.After(authorityNotAfter) {
		notAfter = authorityNotAfter
	}

	keyUsage := x509.KeyUsageDigitalSignature
	if _, isRSA := pub.(*rsa.PublicKey); isRSA {
		keyUsage |= x509.KeyUsageKeyEncipherment
	}

	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: req.Host},
		NotBefore:             now.Add(-5 * time.Minute),
		NotAfter:              notAfter,
		KeyUsage:              keyUsage,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		SubjectKeyId:          ski,
	}

	for _, name := range append([]string{req.Host}, req.SANs...) {
		if ip := net.ParseIP(name); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, name)
		}
	}

	return template, nil
}
