package main

import (
	"os"

	"github.com/dojobyexample/docnav/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
