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
	"net"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

// NormalizeHost canonicalises a host name as presented in SNI for use as a
// cache key and certificate subject: case-folded, trailing dot stripped,
// internationalised names converted to their ASCII form.  IP literals are
// returned unchanged.  A malformed host returns ErrHostInvalid.
func NormalizeHost(host string) (string, error) {
	host = strings.TrimSuffix(strings.TrimSpace(host), ".")
	if host == "" {
		return "", errors.Wrap(ErrHostInvalid, "empty host")
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	normalized, err := idna.Lookup.ToASCII(strings.ToLower(host))
	if err != nil {
		return "", errors.Wrap(ErrHostInvalid, err.Error())
	}

	return normalized, nil
}
