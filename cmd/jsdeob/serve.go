// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jsdeobfuscator/internal/config"
	"github.com/kraklabs/jsdeobfuscator/internal/errors"
	"github.com/kraklabs/jsdeobfuscator/internal/ui"
	"github.com/kraklabs/jsdeobfuscator/pkg/api"
	"github.com/kraklabs/jsdeobfuscator/pkg/library"
	"github.com/kraklabs/jsdeobfuscator/pkg/offload"
	"github.com/kraklabs/jsdeobfuscator/pkg/pipeline"
	"github.com/kraklabs/jsdeobfuscator/pkg/txruntime"
)

// runServe executes the 'serve' subcommand: builds the Library, Runtime,
// Driver and optional offload Pool, then hands them to pkg/api.Server and
// blocks until an interrupt signal, at which point Server.Start shuts the
// HTTP listener down gracefully. Grounded on cmd/cie/start.go's
// pflag-FlagSet-per-subcommand shape, generalized from a Docker Compose
// supervisor to an in-process HTTP server.
func runServe(args []string, globals globalFlags) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", config.Port(), "Port to listen on")
	workers := fs.Int("workers", 0, "Background worker pool size (0 disables the pool; HTTP handlers run recipes in the foreground)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: jsdeob serve [options]

Starts the HTTP API server described by the external interface surface:
transform endpoints, plugin/script CRUD, and project management, plus a
/metrics endpoint.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	lib, err := library.New(config.DataDir(), config.PluginsDir())
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Failed to open library",
			err.Error(),
			"Check JSDEOB_DATA_DIR and JSDEOB_PLUGINS_DIR permissions",
			err,
		), globals.JSON)
	}

	logger := slog.Default()
	rt := txruntime.NewRuntime(logger, config.AllowEval())
	driver := pipeline.NewDriver(rt, logger)

	var pool *offload.Pool
	if *workers > 0 {
		pool = offload.NewPool(driver, *workers, *workers*4)
		pool.Start(*workers)
		ui.Successf("Background worker pool started with %d workers", *workers)
	}

	server := api.New(lib, driver, pool, logger)

	addr := fmt.Sprintf(":%d", *port)
	ui.Header("Starting jsdeob API server")
	ui.Infof("Listening on %s", addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, addr); err != nil {
		errors.FatalError(errors.NewNetworkError(
			"Server failed",
			err.Error(),
			"Check that the port is not already in use",
			err,
		), globals.JSON)
	}

	ui.Success("Server shut down cleanly")
}
