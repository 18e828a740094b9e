package main

import (
	"os"

	"dhashvault/cmd/dv/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
