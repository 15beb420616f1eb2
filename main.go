package main

import (
	"os"

	"github.com/seqvault/seqvault/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
