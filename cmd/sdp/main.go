// SPDX-License-Identifier: MIT

// Command sdp solves the bundled dynamic programming models.
//
//	sdp inventory --config sdp.yaml
//	sdp gambler --driver forward
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
