package main

import (
	"github.com/custodia-labs/tabula-cli/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
