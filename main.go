package main

import (
	"os"

	"github.com/kfranzke/leitstelle/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
