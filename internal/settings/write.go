// SPDX-License-Identifier: MIT

package settings

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// writeDocument serializes doc as pretty-printed JSON and writes it with full
// durability guarantees using renameio: temp file in the same directory,
// fsync, atomic rename. A concurrent reader sees either the old or the new
// content, never a half-written file.
func writeDocument(path string, doc map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	data = append(data, '\n')

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() {
		// Cleanup removes the temp file if the replace never happened.
		_ = pending.Cleanup()
	}()

	if _, err := pending.Write(data); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
