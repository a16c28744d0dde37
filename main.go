// Package main is the entry point for the RAG backend server.
package main

import (
	"fmt"
	"os"

	"ragbackend/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
