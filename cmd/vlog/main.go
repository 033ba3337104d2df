package main

import (
	"os"

	"github.com/vlogtools/vlog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
