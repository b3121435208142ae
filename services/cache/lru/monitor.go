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

package lru

// noopMonitor is a monitor that does nothing, used in place of nil if an
// external monitor is not supplied.
type noopMonitor struct{}

// CacheHit is called when a lookup is served from the cache.
func (n *noopMonitor) CacheHit() {}

// CacheMiss is called when a lookup misses, with the reason for the miss.
func (n *noopMonitor) CacheMiss(_ string) {}

// CacheEviction is called when an entry is evicted to make room.
func (n *noopMonitor) CacheEviction() {}

// CacheSize is called when the number of cached entries changes.
func (n *noopMonitor) CacheSize(_ int) {}
