// Command sqllint checks that every SQL string constant starts with a
// "--sql <uuid>" marker and that no marker is used twice. The marker is what
// infra.SQLRunner logs, so a duplicate makes two statements indistinguishable.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}
	os.Exit(run(targets, os.Stderr))
}

func run(targets []string, stderr io.Writer) int {
	violations, err := lintPaths(targets)
	if err != nil {
		fmt.Fprintf(stderr, "sqllint: %v\n", err)
		return 1
	}
	if len(violations) == 0 {
		return 0
	}
	fmt.Fprintln(stderr, "sqllint: SQL audit marker problems")
	for _, v := range violations {
		fmt.Fprintf(stderr, "  %s\n", v)
	}
	return 1
}
