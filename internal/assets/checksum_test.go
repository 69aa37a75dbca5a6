// SPDX-License-Identifier: MPL-2.0

package assets

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpbuild/rpbuild/internal/testutil"
)

// sha1("hello")
const helloSHA1 = "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"

func TestComputeFileHash(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f")
	testutil.MustWriteFile(t, path, "hello")

	got, err := ComputeFileHash(path)
	if err != nil {
		t.Fatalf("ComputeFileHash() error: %v", err)
	}
	if got != helloSHA1 {
		t.Errorf("ComputeFileHash() = %s, want %s", got, helloSHA1)
	}

	if _, err := ComputeFileHash(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVerifyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f")
	testutil.MustWriteFile(t, path, "hello")

	if err := VerifyFile(path, strings.ToUpper(helloSHA1)); err != nil {
		t.Errorf("VerifyFile() with upper-case hash: %v", err)
	}

	err := VerifyFile(path, strings.Repeat("0", 40))
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("VerifyFile() error = %v, want ErrChecksumMismatch", err)
	}
	var ce *ChecksumError
	if !errors.As(err, &ce) || ce.Got != helloSHA1 {
		t.Errorf("ChecksumError = %+v", ce)
	}
}
