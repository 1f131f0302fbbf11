// Package main provides the rag-cli entrypoint: ad hoc regulation lookups and
// index maintenance.
package main

import (
	"fmt"
	"os"

	"github.com/recyclens/rag-service/cmd/rag-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
