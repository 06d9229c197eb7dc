/*
   Copyright 2020 Docker Compose CLI authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package api

import (
	"github.com/pkg/errors"
)

// Sentinel errors for the reconciler's error-kind taxonomy. Components wrap
// one of these with contextual detail via errors.Wrap; callers classify a
// failure with the matching IsXxxError helper rather than string matching.
var (
	// ErrCommandFailed is returned when a subprocess exits with a non-success status.
	ErrCommandFailed = errors.New("command failed")
	// ErrParseFailed is returned for invalid YAML/TOML/JSON, or non-UTF-8 output
	// where text was expected.
	ErrParseFailed = errors.New("parse failed")
	// ErrSubstitutionFailed is returned when a required manifest variable is
	// missing, or an environment variable's value is not valid Unicode.
	ErrSubstitutionFailed = errors.New("substitution failed")
	// ErrContractFailed is returned when an external contract is violated: a
	// missing container label, a table row with the wrong column count, or an
	// unparseable daemon URL.
	ErrContractFailed = errors.New("contract failed")
	// ErrTimeout is the error kind for a bounded-wait operation that exceeded
	// its budget. command.StatusWithinTime reports its own timeout as the
	// StatusTimedOut result with a nil error, not as ErrTimeout.
	ErrTimeout = errors.New("timeout")
	// ErrCanceled is the error kind for an operation interrupted by a signal.
	// A canceled context kills the running child, and the runner reports that
	// as ErrCommandFailed, not as ErrCanceled.
	ErrCanceled = errors.New("canceled")
	// ErrUnknown is returned when the error type is unmapped.
	ErrUnknown = errors.New("unknown")
)

// IsCommandFailedError returns true if the unwrapped error is ErrCommandFailed.
func IsCommandFailedError(err error) bool {
	return errors.Is(err, ErrCommandFailed)
}

// IsParseFailedError returns true if the unwrapped error is ErrParseFailed.
func IsParseFailedError(err error) bool {
	return errors.Is(err, ErrParseFailed)
}

// IsSubstitutionFailedError returns true if the unwrapped error is ErrSubstitutionFailed.
func IsSubstitutionFailedError(err error) bool {
	return errors.Is(err, ErrSubstitutionFailed)
}

// IsContractFailedError returns true if the unwrapped error is ErrContractFailed.
func IsContractFailedError(err error) bool {
	return errors.Is(err, ErrContractFailed)
}

// IsTimeoutError returns true if the unwrapped error is ErrTimeout.
func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceledError returns true if the unwrapped error is ErrCanceled.
func IsCanceledError(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsUnknownError returns true if the unwrapped error is ErrUnknown.
func IsUnknownError(err error) bool {
	return errors.Is(err, ErrUnknown)
}
