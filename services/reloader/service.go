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

// Package reloader installs replacement signing authorities at runtime.
package reloader

import "context"

// Service is the authority reloader service.
type Service interface {
	// Reload validates the supplied CA material and installs it as the next
	// authority generation.  On validation failure a core.AuthorityError is
	// returned and the previous authority remains active.  Cached leaves from
	// earlier generations become stale on their next lookup; established
	// connections are unaffected.
	Reload(ctx context.Context, certPEM []byte, keyPEM []byte) error
}
