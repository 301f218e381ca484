package main

import (
	"context"
	"os"

	"kakeibo/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), cli.DefaultOpener, os.Args[1:]))
}
