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

package core_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/skeanproxy/skean/core"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		name   string
		host   string
		result string
		err    bool
	}{
		{
			name:   "Simple",
			host:   "example.com",
			result: "example.com",
		},
		{
			name:   "UpperCase",
			host:   "Example.COM",
			result: "example.com",
		},
		{
			name:   "TrailingDot",
			host:   "example.com.",
			result: "example.com",
		},
		{
			name:   "Whitespace",
			host:   " example.com ",
			result: "example.com",
		},
		{
			name:   "IPv4",
			host:   "192.168.0.1",
			result: "192.168.0.1",
		},
		{
			name:   "IPv6",
			host:   "2001:DB8::1",
			result: "2001:db8::1",
		},
		{
			name:   "Internationalised",
			host:   "bücher.example",
			result: "xn--bcher-kva.example",
		},
		{
			name: "Empty",
			host: "",
			err:  true,
		},
		{
			name: "OnlyDot",
			host: ".",
			err:  true,
		},
		{
			name: "EmbeddedSpace",
			host: "exa mple.com",
			err:  true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result, err := core.NormalizeHost(test.host)
			if test.err {
				require.Error(t, err)
				require.True(t, errors.Is(err, core.ErrHostInvalid))
			} else {
				require.NoError(t, err)
				require.Equal(t, test.result, result)
			}
		})
	}
}
