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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/skeanproxy/skean/core"
	"github.com/stretchr/testify/require"
)

func TestGenerateSerial(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		serial, err := core.GenerateSerial(rand.Reader)
		require.NoError(t, err)
		require.True(t, serial.Sign() >= 0)
		require.LessOrEqual(t, serial.BitLen(), 128)
		require.False(t, seen[serial.String()])
		seen[serial.String()] = true
	}
}

func TestSubjectKeyID(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	ski, err := core.SubjectKeyID(key.Public())
	require.NoError(t, err)
	require.Len(t, ski, 20)

	// The identifier is a pure function of the key.
	again, err := core.SubjectKeyID(key.Public())
	require.NoError(t, err)
	require.Equal(t, ski, again)
}
