package main

import (
	"context"
	"fmt"
	"os"

	"github.com/avrabe/bbdeps/internal/cli"
)

// main is the entrypoint for the bbdeps tool.
func main() {
	if err := cli.Command().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
