package main

import (
	"os"

	"github.com/learnd-dev/learnd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
