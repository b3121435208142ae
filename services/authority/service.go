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

// Package authority holds the currently active signing authority.
package authority

import "github.com/skeanproxy/skean/core"

// Service is the root authority store service.
type Service interface {
	// Current returns the currently installed signing authority.  It never
	// blocks and never returns a partially constructed authority.
	Current() *core.RootAuthority

	// Swap installs a new signing authority with the next generation and
	// returns the previous one.  Swaps are serialized; readers observe either
	// the old or the new authority in full.
	Swap(authority *core.RootAuthority) *core.RootAuthority
}
