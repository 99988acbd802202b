package main

import (
	"os"

	"github.com/webook-dev/webook-client/cmd"
)

func main() {
	if err := cmd.Execute(os.Stderr); err != nil {
		os.Exit(1)
	}
}
