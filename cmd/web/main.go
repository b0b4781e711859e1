// Command web runs the claims comparison dashboard API server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"claimscope/internal/app"
	"claimscope/internal/config"
)

func main() {
	// A missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		application.Logger().Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
