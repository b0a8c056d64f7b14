package main

import (
	"os"

	"vehicle-marketplace/cli"
)

func main() {
	os.Exit(cli.Execute())
}
