// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/jsdeobfuscator/internal/output"
	"github.com/kraklabs/jsdeobfuscator/pkg/library"
)

// runBuiltins executes the 'builtins' subcommand, listing every registered
// built-in transform (the non-`__`-prefixed entries of library.Builtins),
// mirroring pkg/api's GET /api/transform/builtins filtering.
func runBuiltins(args []string, globals globalFlags) {
	fs := flag.NewFlagSet("builtins", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: jsdeob builtins [options]

Lists every built-in transform available to a recipe step.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ids := make([]string, 0, len(library.Builtins))
	for id := range library.Builtins {
		if strings.HasPrefix(id, "__") {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if globals.JSON {
		metas := make([]library.BuiltinMeta, 0, len(ids))
		for _, id := range ids {
			metas = append(metas, library.Builtins[id])
		}
		_ = output.JSON(map[string]any{"transforms": metas})
		return
	}

	fmt.Println("Built-in Transforms")
	fmt.Println("====================")
	for _, id := range ids {
		meta := library.Builtins[id]
		fmt.Printf("  %-28s %s\n", meta.ID, meta.Description)
	}
}
