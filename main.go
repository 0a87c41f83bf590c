package main

import (
	"os"

	"github.com/conneroisu/templmd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
