// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package main

import (
	"fmt"
	"path/filepath"

	"github.com/YindSoft/surfacebridge"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type probeResult struct {
	path string
	abi  int
	err  error
}

func newProbeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "probe [library...]",
		Short: "Load renderer libraries and run their hello_world probe",
		Long: "Loads each renderer library, binds its entry points and calls hello_world.\n" +
			"Without arguments the platform default library is looked up in --base-dir.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			results := probeAll(opts, args)

			failed := 0
			for _, r := range results {
				if r.err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", color.RedString("FAIL"), r.path, r.err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (abi v%d)\n", color.GreenString("OK"), r.path, r.abi)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d renderers failed to load", failed, len(results))
			}
			return nil
		},
	}
}

func probeAll(opts *surfacebridge.Options, libs []string) []probeResult {
	if len(libs) == 0 {
		libs = []string{""}
	}
	results := make([]probeResult, len(libs))

	var g errgroup.Group
	for i, lib := range libs {
		g.Go(func() error {
			libOpts := *opts
			if lib != "" {
				libOpts.BaseDir = filepath.Dir(lib)
				libOpts.Library = filepath.Base(lib)
			}
			results[i] = probeOne(&libOpts)
			return nil
		})
	}
	g.Wait()
	return results
}

func probeOne(opts *surfacebridge.Options) probeResult {
	r, err := surfacebridge.LoadRenderer(opts)
	if err != nil {
		return probeResult{path: filepath.Join(opts.BaseDir, opts.Library), err: err}
	}
	return probeResult{path: r.Path(), abi: r.ABIVersion()}
}
