// Brainstorm keeps the technology and team-function reference lists and turns a
// selection from them into backlog suggestions. The HTTP server hosts the page,
// the JSON API and the MCP endpoint; the CLI and stdio MCP share the same core.
package main

import (
	"fmt"
	"os"
)

// Version is set by -ldflags at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
