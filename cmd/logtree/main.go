// Command logtree replays, checks and renders logical tree scenarios.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/logtree/cmd/logtree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
