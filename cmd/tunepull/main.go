package main

import (
	"os"

	"github.com/tunepull/tunepull/cmd/tunepull/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
