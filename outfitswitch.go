package main

import (
	"fmt"
	"os"

	cli "github.com/neboloop/outfitswitch/cmd/outfitswitch"
	"github.com/neboloop/outfitswitch/internal/config"
	"github.com/neboloop/outfitswitch/internal/defaults"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Seed the data directory so config.yaml exists on first run
	if _, err := defaults.EnsureDataDir(); err != nil {
		fmt.Printf("Failed to initialize data directory: %v\n", err)
		os.Exit(1)
	}

	c, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cli.SetupRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
