package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/dalemusser/churchroll/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
	"github.com/joho/godotenv"
)

func main() {
	// CHURCHROLL_ENV_FILE points at an alternate env file (e.g. .env.staging).
	envFile := os.Getenv("CHURCHROLL_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("load %s: %v", envFile, err)
	}

	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
