package main

import (
	"os"

	"github.com/zjrosen/partymix/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
