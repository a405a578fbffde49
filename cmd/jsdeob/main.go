// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

// Package main implements the jsdeob CLI: a local HTTP server plus a set of
// offline subcommands over the same Pipeline Driver and Library the server
// uses, grounded on cmd/cie/main.go's flag-dispatch shape.
//
// Usage:
//
//	jsdeob serve [--port 3000]                               Start the HTTP API (§6)
//	jsdeob [--json] run-chain --recipe <recipe.json> <file>  Run a recipe against a file, offline
//	jsdeob [--json] builtins                                 List built-in transforms
//	jsdeob --version                                         Show version and exit
//
// Global options go before the command; everything after it belongs to the
// subcommand.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jsdeobfuscator/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// globalFlags carries options meaningful to every subcommand, mirrored from
// cmd/cie's GlobalFlags convention (JSON output, no-color).
type globalFlags struct {
	JSON    bool
	NoColor bool
}

func main() {
	var (
		showVersion = flag.BoolP("version", "v", false, "Show version and exit")
		jsonOutput  = flag.Bool("json", false, "Output as JSON")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `jsdeob - JavaScript de-obfuscation workbench CLI

Usage:
  jsdeob [global options] <command> [options]

Commands:
  serve        Start the HTTP API server (§6 surface)
  run-chain    Run a recipe file against a source file, offline
  builtins     List built-in transforms

Global Options:
  --json       Output as JSON
  --no-color   Disable colored terminal output
  --version    Show version and exit

Examples:
  jsdeob serve --port 3000
  jsdeob run-chain --recipe recipe.json input.js
  jsdeob --json builtins

`)
	}

	flag.CommandLine.SetInterspersed(false)
	flag.Parse()

	if *showVersion {
		fmt.Printf("jsdeob version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := globalFlags{JSON: *jsonOutput, NoColor: *noColor}
	if globals.NoColor {
		ui.InitColors(true)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "serve":
		runServe(cmdArgs, globals)
	case "run-chain":
		runRunChain(cmdArgs, globals)
	case "builtins":
		runBuiltins(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
