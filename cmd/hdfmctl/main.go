// Package main is the entry point for the hdfmctl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/hdfm-sec/prioritizer/cmd/hdfmctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
