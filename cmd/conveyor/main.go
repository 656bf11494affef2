// cmd/conveyor/main.go
//
// Entry point for the conveyor orchestrator CLI. All commands live in
// internal/cli; this main only loads the optional .env file and dispatches.

package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/kingrea/conveyor/internal/cli"
)

func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	os.Exit(cli.Execute(context.Background()))
}
