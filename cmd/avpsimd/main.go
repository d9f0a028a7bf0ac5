// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-avp.
//
// go-avp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jeremyhahn/go-avp/internal/config"
	"github.com/jeremyhahn/go-avp/internal/server"
	"github.com/jeremyhahn/go-avp/pkg/avp"
)

var (
	// Version information (set during build)
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("avpsimd - NexusClaw device simulator\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Protocol:   AVP %s\n", avp.Version)
		fmt.Printf("  Git Commit: %s\n", commit)
		fmt.Printf("  Built:      %s\n", date)
		os.Exit(0)
	}

	if envConfig := os.Getenv("AVPSIM_CONFIG"); envConfig != "" && *configPath == "" {
		*configPath = envConfig
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("Failed to load configuration", slog.Any("error", err))
			os.Exit(1)
		}
		cfg = loaded
	}

	slog.Info("Starting NexusClaw simulator",
		"listen", cfg.Server.Listen,
		"version", version,
		"protocol", avp.Version)

	srv, err := server.New(cfg)
	if err != nil {
		slog.Error("Failed to create server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx := server.SetupSignalHandler()
	if err := srv.Start(ctx); err != nil {
		slog.Error("Server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}
