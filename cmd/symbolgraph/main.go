package main

import (
	"os"

	"github.com/symbolgraph/symbolgraph/cmd/symbolgraph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
