// Command denly runs a sample denly application.
//
// Run:
//
//	go run ./cmd/denly serve --port 8080
//
// Print the route table:
//
//	go run ./cmd/denly routes --format yaml
package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"     // overridden by ldflags
	commit  = "none"    // overridden by ldflags
	date    = "unknown" // overridden by ldflags
)

func main() {
	if err := newRootCommand(version, commit, date).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
