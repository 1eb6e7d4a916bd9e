// ATLAS - mobile manipulator task controller.
// Takes a spoken or typed command, plans it, then searches for, approaches,
// grasps and returns with the requested object.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
