// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/rpbuild/rpbuild/cmd/rpbuild"

func main() {
	cmd.Execute()
}
