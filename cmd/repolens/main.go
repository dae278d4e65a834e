package main

import (
	"fmt"
	"io"
	"os"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes the root command. Cobra's own error printing is silenced
// on rootCmd, so this is the only place a fatal error reaches the user.
func run(args []string, errOut io.Writer) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return 1
	}
	return 0
}
