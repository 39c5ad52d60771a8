package main

import (
	"github.com/spf13/cobra"
)

var (
	flagOutput    string
	flagOptLevel  int
	flagEmitOnly  bool
	flagNoRuntime bool
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "eece6083c [file]",
	Short:         "Compile a source file to C (and, unless -c, to a native executable)",
	Args:          cobra.ExactArgs(1),
	RunE:          runCompile,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "a.out", "output executable path")
	rootCmd.Flags().IntVarP(&flagOptLevel, "optimize", "O", 0, "optimization level (0, 1 or 2)")
	rootCmd.Flags().BoolVarP(&flagEmitOnly, "emit-c", "c", false, "emit the generated C and stop, skipping the host compiler")
	rootCmd.Flags().BoolVarP(&flagNoRuntime, "no-runtime", "R", false, "do not link against the runtime I/O library")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose-assembly", "v", false, "annotate generated C with source comments")
}
