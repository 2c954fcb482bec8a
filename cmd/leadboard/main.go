// Command leadboard is the terminal client for the CRM task board.
package main

import (
	"os"

	"leadboard/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
