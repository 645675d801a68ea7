package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/lakeway-labs/tablesync-cli/internal/adapters/driving/cli"
)

func main() {
	// A .env file is optional; environment variables may come from anywhere.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
