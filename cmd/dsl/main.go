package main

import (
	"os"

	"github.com/dsljs/dsl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
