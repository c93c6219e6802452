package main

import (
	"github.com/fleetops/dt-ingest/internal/adapters/cli"
)

func main() {
	cli.Execute()
}
