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
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by the certificate issuance path.  All of these are
// per-request or per-operation; none of them indicates a state from which the
// process cannot continue serving.
var (
	// ErrBusy is returned when the dispatcher queue is saturated and the
	// request could not be accepted within the enqueue timeout.
	ErrBusy = errors.New("dispatcher busy")
	// ErrTimeout is returned when a waiter's deadline passed before the
	// generation completed.  The generation itself continues.
	ErrTimeout = errors.New("timed out awaiting certificate")
	// ErrHostInvalid is returned for a malformed or disallowed host.
	ErrHostInvalid = errors.New("invalid host")
)

// AuthorityError reports that supplied CA material failed validation.  The
// previously installed authority remains active.
type AuthorityError struct {
	Reason string
}

func (e *AuthorityError) Error() string {
	return fmt.Sprintf("invalid authority: %s", e.Reason)
}

// NewAuthorityError creates an AuthorityError with the given reason.
func NewAuthorityError(format string, args ...any) *AuthorityError {
	return &AuthorityError{Reason: fmt.Sprintf(format, args...)}
}

// IsAuthorityError reports whether err is an authority validation failure.
func IsAuthorityError(err error) bool {
	var authorityErr *AuthorityError
	return errors.As(err, &authorityErr)
}
