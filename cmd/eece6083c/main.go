// Command eece6083c compiles a single source file to C, and, unless
// -c is given, invokes the host C compiler to produce an executable.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
