package main

import (
	"fmt"
	"os"

	"github.com/joshburkard/MECMAdminService-sub003/cmd/cmscript/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
