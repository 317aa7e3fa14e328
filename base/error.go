// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import "log"

// Kind classifies an error by the part of the contract it violates, so
// callers at the API boundary can react without matching on message text.
type Kind string

const (
	// InvalidInput covers malformed or out-of-range caller-supplied data:
	// missing files, unparsable lines, indices outside [0,m) or [0,n),
	// nnz == 0, non-positive k/threads, nr_bins < 1.
	InvalidInput Kind = "invalid_input"
	// AllocationFailure covers failed allocation for P, Q, PG, QG or the
	// bulk triple buffer.
	AllocationFailure Kind = "allocation_failure"
	// CorruptModel covers a model file whose header is missing or whose
	// row counts don't match its declared dimensions.
	CorruptModel Kind = "corrupt_model"
	// ConfigError covers mutually incompatible option combinations.
	ConfigError Kind = "config_error"
	// Internal covers failures in the runtime itself, such as being
	// unable to start a worker goroutine.
	Internal Kind = "internal"
)

// Error pairs a Kind with the underlying cause so the classification
// survives wrapping by juju/errors.Trace.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Wrap tags err with a Kind. Wrapping a nil error returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, cause: err}
}

// WrapMessage creates a new error carrying msg, tagged with a Kind.
func WrapMessage(kind Kind, msg string) error {
	return &Error{Kind: kind, cause: errString(msg)}
}

type errString string

func (e errString) Error() string { return string(e) }

// KindOf walks err's Unwrap chain and returns the first Kind it finds,
// or "" if err was never tagged via Wrap/WrapMessage.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

func Must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func MustInt(val int, err error) int {
	if err != nil {
		log.Fatal(err)
	}
	return val
}
