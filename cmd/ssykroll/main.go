// Package main provides the ssykroll command.
package main

import (
	"os"

	"github.com/joseph-data/05-employed-occupation-by-ai/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
