// SPDX-License-Identifier: MIT

// Package settings owns the on-disk settings document of the agentdeck
// daemon.
//
// The document is a single pretty-printed JSON file. On load it is
// deep-merged onto the canonical default schema so that documents written by
// older releases gain any fields they are missing, without a versioning
// protocol. Keys the schema does not know about survive the merge and every
// rewrite, so newer releases can read files written by even newer ones.
//
// All reads are served from an in-memory cache that is committed only after a
// successful write, keeping the file and the cache identical outside of an
// in-flight update.
package settings
