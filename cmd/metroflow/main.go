// Package main is the entry point for the MetroFlow CLI application.
package main

import (
	"os"

	"github.com/lan-dot-party/metroflow/cmd/metroflow/cmd"
	"github.com/lan-dot-party/metroflow/internal/logger"
)

func main() {
	// Initialize default logger (will be reconfigured after config is loaded)
	logger.InitDefault()
	defer logger.Sync()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
