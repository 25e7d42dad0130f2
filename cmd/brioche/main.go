package main

import (
	"os"

	"github.com/briochehq/brioche/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
