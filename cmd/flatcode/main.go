package main

import (
	"os"

	"flatcode/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
