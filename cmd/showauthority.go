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

// Package cmd provides commands that run and exit.
package cmd

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/wealdtech/go-majordomo"
)

// ShowAuthority shows information about the root authority configured for skean.
func ShowAuthority(ctx context.Context, majordomo majordomo.Service) error {
	certPEMBlock, err := majordomo.Fetch(ctx, viper.GetString("authority.cert"))
	if err != nil {
		return errors.Wrap(err, "failed to obtain authority certificate")
	}
	fmt.Fprintf(os.Stdout, "Authority certificate obtained from %s\n", viper.GetString("authority.cert"))
	keyPEMBlock, err := majordomo.Fetch(ctx, viper.GetString("authority.key"))
	if err != nil {
		return errors.Wrap(err, "failed to obtain authority key")
	}
	fmt.Fprintf(os.Stdout, "Authority key obtained from %s\n", viper.GetString("authority.key"))
	fmt.Fprintln(os.Stdout)

	authorityCert, err := tls.X509KeyPair(certPEMBlock, keyPEMBlock)
	if err != nil {
		return errors.Wrap(err, "invalid authority certificate/key")
	}
	if len(authorityCert.Certificate) == 0 {
		return errors.New("certificate file does not contain a certificate")
	}
	cert, err := x509.ParseCertificate(authorityCert.Certificate[0])
	if err != nil {
		return errors.Wrap(err, "could not read certificate")
	}
	fmt.Fprintf(os.Stdout, "Authority subject: %s\n", cert.Subject)
	fmt.Fprintf(os.Stdout, "Authority issuer: %s\n", cert.Issuer)
	if !cert.IsCA {
		fmt.Fprintf(os.Stdout, "WARNING: certificate is not a certificate authority\n")
	}
	if cert.KeyUsage&x509.KeyUsageCertSign == 0 {
		fmt.Fprintf(os.Stdout, "WARNING: certificate cannot sign other certificates\n")
	}
	if cert.NotAfter.Before(time.Now()) {
		fmt.Fprintf(os.Stdout, "WARNING: authority certificate expired at: %v\n", cert.NotAfter)
	} else {
		fmt.Fprintf(os.Stdout, "Authority certificate expires: %v\n", cert.NotAfter)
	}

	return nil
}
