// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include directory fixtures (MustMkdirAll, MustWriteFile,
// WriteTree, ListTree, Exists) and
// a fake upstream (NewUpstream) that serves a version manifest, per-version
// descriptors, and client bundles over HTTP.
package testutil
