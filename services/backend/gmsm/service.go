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

// Package gmsm is a cryptographic backend built on the gmsm smx509 stack.  It
// produces standard DER with the same subject-alternative-name and extension
// semantics as the stdcrypto backend.
package gmsm

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

	"github.com/emmansun/gmsm/smx509"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologger "github.com/rs/zerolog/log"
	"github.com/skeanproxy/skean/core"
)

// Service is a cryptographic backend using the gmsm smx509 implementation.
type Service struct {
	validity time.Duration
}

// module-wide log.
var log zerolog.Logger

// New creates a new gmsm crypto backend.
func New(ctx context.Context, params ...Parameter) (*Service, error) {
	parameters, err := parseAndCheckParameters(params...)
	if err != nil {
		return nil, errors.Wrap(err, "problem with parameters")
	}

	// Set logging.
	log = zerologger.With().Str("service", "backend").Str("impl", "gmsm").Logger()
	if parameters.logLevel != log.GetLevel() {
		log = log.Level(parameters.logLevel)
	}

	return &Service{
		validity: parameters.validity,
	}, nil
}

// Name returns the name of the backend.
func (*Service) Name() string {
	return "gmsm"
}

// GenerateLeaf generates a leaf certificate for the request, signed by the
// supplied authority.
func (s *Service) GenerateLeaf(_ context.Context, req *core.CertificateRequest, authority *core.RootAuthority) (*core.CachedCertificate, error) {
	key, err := generateKey(req.KeyAlgorithm)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate leaf key")
	}

	serial, err := core.GenerateSerial(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate serial number")
	}
	ski, err := core.SubjectKeyID(key.Public())
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate subject key ID")
	}

	now := time.Now()
	notAfter := now.Add(s.validity)
	if notAfter.After(authority.NotAfter) {
		notAfter = authority.NotAfter
	}
	keyUsage := x509.KeyUsageDigitalSignature
	if req.KeyAlgorithm == core.KeyAlgorithmRSA2048 {
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

	der, err := smx509.CreateCertificate(rand.Reader, template, authority.Certificate, key.Public(), authority.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create leaf certificate")
	}
	// The leaf key algorithms here are standard, so the standard parser
	// provides the tls-ready certificate.
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse generated leaf certificate")
	}

	keyDER, err := smx509.MarshalPKCS8PrivateKey(key)
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
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil || certBlock.Type != "CERTIFICATE" {
		return nil, core.NewAuthorityError("certificate material does not contain a certificate")
	}
	if _, err := smx509.ParseCertificate(certBlock.Bytes); err != nil {
		return nil, core.NewAuthorityError("failed to parse certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, core.NewAuthorityError("failed to parse certificate: %v", err)
	}

	now := time.Now()
	switch {
	case !cert.BasicConstraintsValid || !cert.IsCA:
		return nil, core.NewAuthorityError("certificate is not a CA")
	case cert.KeyUsage&x509.KeyUsageCertSign == 0:
		return nil, core.NewAuthorityError("certificate cannot sign certificates")
	case now.After(cert.NotAfter):
		return nil, core.NewAuthorityError("certificate expired at %v", cert.NotAfter)
	case now.Before(cert.NotBefore):
		return nil, core.NewAuthorityError("certificate not valid until %v", cert.NotBefore)
	}

	signer, err := parseSigner(keyPEM)
	if err != nil {
		return nil, err
	}

	pub, hasEqual := cert.PublicKey.(interface{ Equal(crypto.PublicKey) bool })
	if !hasEqual || !pub.Equal(signer.Public()) {
		return nil, core.NewAuthorityError("private key does not match certificate")
	}

	return &core.RootAuthority{
		Certificate: cert,
		PrivateKey:  signer,
		CertPEM:     certPEM,
		KeyPEM:      keyPEM,
		NotAfter:    cert.NotAfter,
	}, nil
}

// parseSigner parses a PEM private key via the smx509 parsers.
func parseSigner(keyPEM []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, core.NewAuthorityError("key material does not contain a key")
	}

	var key any
	var err error
	switch block.Type {
	case "PRIVATE KEY":
		key, err = smx509.ParsePKCS8PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = smx509.ParseECPrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		key, err = smx509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, core.NewAuthorityError("unsupported key PEM type %q", block.Type)
	}
	if err != nil {
		return nil, core.NewAuthorityError("failed to parse key: %v", err)
	}

	signer, isSigner := key.(crypto.Signer)
	if !isSigner {
		return nil, core.NewAuthorityError("private key cannot sign")
	}
	return signer, nil
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
