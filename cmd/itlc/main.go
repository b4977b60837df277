package main

import (
	"fmt"
	"os"

	itlccmd "github.com/itlusions/itlc/pkg/itlc/cmd"
)

func main() {
	root := itlccmd.NewRootCommand(itlccmd.DefaultConfig())
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
