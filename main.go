package main

import (
	"context"
	"os"

	"github.com/m-otsuka/wren/pkg/cli"
)

func main() {
	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		os.Exit(err.Code)
	}
}
