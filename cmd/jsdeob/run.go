// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jsdeobfuscator/internal/config"
	"github.com/kraklabs/jsdeobfuscator/internal/errors"
	"github.com/kraklabs/jsdeobfuscator/internal/output"
	"github.com/kraklabs/jsdeobfuscator/internal/ui"
	"github.com/kraklabs/jsdeobfuscator/pkg/library"
	"github.com/kraklabs/jsdeobfuscator/pkg/pipeline"
	"github.com/kraklabs/jsdeobfuscator/pkg/txruntime"
)

// runRunChain executes the 'run-chain' subcommand: loads a recipe and a
// source file from disk and runs them through the same pipeline.Driver the
// HTTP server uses, printing the final code (or, with --json, the full
// RunReport) to stdout. Grounded on cmd/cie/status.go's --json/text dual
// output convention.
func runRunChain(args []string, globals globalFlags) {
	fs := flag.NewFlagSet("run-chain", flag.ExitOnError)
	recipePath := fs.String("recipe", "", "Path to a recipe JSON file")
	allowEval := fs.Bool("allow-eval", false, "Enable the run() eval capability inside transforms")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: jsdeob run-chain --recipe <recipe.json> <source.js>

Runs a recipe against a source file entirely offline (no HTTP server) and
prints the resulting code. Plugin/script steps are resolved against the
local library at JSDEOB_DATA_DIR/JSDEOB_PLUGINS_DIR.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *recipePath == "" || fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	recipeBytes, err := os.ReadFile(*recipePath)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError(
			"Recipe file not found",
			err.Error(),
			"Check the --recipe path",
		), globals.JSON)
	}
	var recipe pipeline.Recipe
	if err := json.Unmarshal(recipeBytes, &recipe); err != nil {
		errors.FatalError(errors.NewInputError(
			"Recipe file is not valid JSON",
			err.Error(),
			"Check the recipe file's structure against the run-chain wire format",
		), globals.JSON)
	}

	sourcePath := fs.Arg(0)
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError(
			"Source file not found",
			err.Error(),
			"Check the source file path",
		), globals.JSON)
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
	rt := txruntime.NewRuntime(logger, *allowEval)
	driver := pipeline.NewDriver(rt, logger)

	lookup := func(kind pipeline.StepKind, transformID string) (string, error) {
		switch kind {
		case pipeline.StepPlugin:
			return lib.LookupPluginCode(transformID)
		case pipeline.StepScript:
			return lib.LookupScriptCode(transformID)
		default:
			return "", &library.NotFoundError{Kind: string(kind), ID: transformID}
		}
	}

	report, err := driver.Run(context.Background(), source, recipe, lookup)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Recipe run failed",
			err.Error(),
			"Check the recipe's step configuration",
			err,
		), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(report)
		if !report.Success {
			os.Exit(1)
		}
		return
	}

	if !report.Success {
		ui.Errorf("Run failed at step %d: %s", derefInt(report.FailedAt), report.Error)
		os.Exit(1)
	}
	if report.FinalCode != nil {
		fmt.Println(*report.FinalCode)
	}
}

func derefInt(p *int) int {
	if p == nil {
		return -1
	}
	return *p
}
