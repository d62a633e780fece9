// Command kb is the entry point for the knowledge retrieval engine CLI.
package main

import (
	"os"

	"github.com/openclaw/kbcore/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
