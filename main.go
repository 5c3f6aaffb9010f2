package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"leadagent/pkg/cli"
)

func main() {
	// A missing .env file is not an error, environment variables still apply
	_ = godotenv.Load()

	ctx := context.Background()
	if err := cli.Run(ctx, os.Args); err != nil {
		os.Exit(err.Code)
	}
}
