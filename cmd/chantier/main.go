package main

import (
	"os"

	"github.com/stardustchris/Hub-Chantier-sub007/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
