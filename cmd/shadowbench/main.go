package main

import (
	"fmt"
	"os"
)

const (
	ExitSuccess = 0
	ExitError   = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
