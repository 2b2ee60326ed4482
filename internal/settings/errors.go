// SPDX-License-Identifier: MIT

package settings

import (
	"errors"
	"fmt"
)

// ErrNotInitialized classifies accessor calls made before Init has completed.
// Use errors.Is(err, ErrNotInitialized) instead of string matching.
var ErrNotInitialized = errors.New("settings store not initialized")

// WriteError reports a failed settings write (permissions, disk full). The
// originating update fails as a whole; the in-memory document is untouched.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write settings file %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
