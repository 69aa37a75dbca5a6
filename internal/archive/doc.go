// SPDX-License-Identifier: MPL-2.0

// Package archive reads and writes the zip archives rpbuild deals with: the
// client bundle it extracts reference assets from, and the resource pack
// archive it produces.
package archive
