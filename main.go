package main

import (
	"os"

	"github.com/sadopc/inkwell/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
