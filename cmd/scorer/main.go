package main

import (
	"os"

	"github.com/wonny/quantscore/cmd/scorer/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
