// codesignbot: design critique MCP server for whiteboard boards.
//
// Mirrors a board's sticky notes and connectors into a local store, builds
// the decision forest, and merges near-duplicate critique points. With a
// model provider configured it also runs the critiques itself.
//
// Usage:
//
//	codesignbot serve                      # Start MCP server (stdio transport)
//	codesignbot merge < points.txt         # Merge near-duplicate points, one per line
//	codesignbot tree board.json            # Render a {notes, connections} file as a forest
//	codesignbot version
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
