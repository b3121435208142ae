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

package util_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/skeanproxy/skean/util"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	viper.Set("log-level", "info")
	viper.Set("cache.log-level", "debug")
	viper.Set("api.rest.log-level", "trace")

	tests := []struct {
		name  string
		path  string
		level zerolog.Level
	}{
		{
			name:  "Global",
			path:  "",
			level: zerolog.InfoLevel,
		},
		{
			name:  "Direct",
			path:  "cache",
			level: zerolog.DebugLevel,
		},
		{
			name:  "Inherited",
			path:  "cache.lru",
			level: zerolog.DebugLevel,
		},
		{
			name:  "Nested",
			path:  "api.rest",
			level: zerolog.TraceLevel,
		},
		{
			name:  "Fallback",
			path:  "dispatcher",
			level: zerolog.InfoLevel,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.level, util.LogLevel(test.path))
		})
	}
}
