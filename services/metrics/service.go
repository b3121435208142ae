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

// Package metrics tracks various metrics that measure the performance of skean.
package metrics

import (
	"time"

	"github.com/skeanproxy/skean/core"
)

// Service is the generic metrics service.
type Service interface{}

// BaseMonitor provides base information about the instance.
type BaseMonitor interface {
	// Build is called when the build number is established.
	Build(build uint64)
}

// ReadyMonitor provides information about if the process is ready.
type ReadyMonitor interface {
	// Ready is called when the service is ready to serve requests, or when it stops being so.
	Ready(ready bool)
}

// CacheMonitor monitors the certificate cache service.
type CacheMonitor interface {
	// CacheHit is called when a lookup is served from the cache.
	CacheHit()
	// CacheMiss is called when a lookup misses, with the reason for the miss.
	CacheMiss(reason string)
	// CacheEviction is called when an entry is evicted to make room.
	CacheEviction()
	// CacheSize is called when the number of cached entries changes.
	CacheSize(size int)
}

// DispatcherMonitor monitors the generation dispatcher service.
type DispatcherMonitor interface {
	// RequestCoalesced is called when a request attaches to an in-flight task.
	RequestCoalesced()
	// RequestCompleted is called when a dispatch request has completed.
	RequestCompleted(started time.Time, result core.Result)
	// QueueDepth is called when the generation queue depth changes.
	QueueDepth(depth int)
}

// GeneratorMonitor monitors the certificate generator service.
type GeneratorMonitor interface {
	// GenerationCompleted is called when a certificate generation has completed.
	GenerationCompleted(started time.Time, backend string, result core.Result)
}

// AuthorityMonitor monitors the root authority store and reloader services.
type AuthorityMonitor interface {
	// AuthorityGeneration is called when a new authority generation is installed.
	AuthorityGeneration(generation uint64)
	// ReloadCompleted is called when an authority reload has completed.
	ReloadCompleted(result core.Result)
}

// IdentityMonitor monitors the server identity service.
type IdentityMonitor interface {
	// IdentityRequestCompleted is called when a handshake identity request has completed.
	IdentityRequestCompleted(started time.Time, result core.Result)
}

// APIMonitor monitors the API service.
type APIMonitor interface {
}
