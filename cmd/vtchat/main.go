package main

import (
	"os"

	"github.com/arturoeanton/go-video-rag-ollama/internal/cli"
)

// Set by ldflags at build time.
var version = "dev"

func main() {
	cmd := cli.NewRootCommand(version)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
