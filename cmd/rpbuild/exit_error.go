// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/rpbuild/rpbuild/internal/issue"
	"github.com/rpbuild/rpbuild/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// classifyExitCode maps a failure to ExitUsage when the user can fix it by
// changing arguments or configuration, and to ExitFailure otherwise.
func classifyExitCode(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	switch issue.IssueOf(err) {
	case issue.PackNotFoundId, issue.ConfigLoadFailedId:
		return types.ExitUsage
	default:
		return types.ExitFailure
	}
}
