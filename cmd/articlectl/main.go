package main

import (
	"fmt"
	"os"

	"articlegen/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(cli.Options{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
