package main

import (
	"fmt"
	"os"

	"github.com/danmuck/vbanctl/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vbanctl: %v\n", err)
		os.Exit(1)
	}
}
