package main

import (
	"os"

	"github.com/hr-events/hr-events/hrevents/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
