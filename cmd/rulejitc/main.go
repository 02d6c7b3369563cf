// Command rulejitc translates and runs rule-set documents, per
// SPEC_FULL.md §B. Grounded on github.com/funvibe/funxy/cmd/funxy's
// main.go, trimmed to this tool's panic-recovery-plus-dispatch shape.
package main

import (
	"fmt"
	"os"

	"github.com/funvibe/rulejitc/pkg/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			os.Exit(1)
		}
	}()
	os.Exit(cli.Run(os.Args))
}
