// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package main

import (
	"github.com/YindSoft/surfacebridge"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	config   string
	baseDir  string
	logLevel string
	debug    bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "surfacebridge",
		Short:         "Probe renderer modules and exercise the surface handshake",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "YAML options file")
	cmd.PersistentFlags().StringVar(&flags.baseDir, "base-dir", "", "directory containing the renderer library")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "log every session transition")

	cmd.AddCommand(newProbeCommand(flags))
	cmd.AddCommand(newSelftestCommand(flags))
	return cmd
}

// options merges the config file with command-line overrides.
func (f *rootFlags) options() (*surfacebridge.Options, error) {
	opts := &surfacebridge.Options{}
	if f.config != "" {
		loaded, err := surfacebridge.LoadOptions(f.config)
		if err != nil {
			return nil, err
		}
		opts = loaded
	}
	if f.baseDir != "" {
		opts.BaseDir = f.baseDir
	}
	if f.logLevel != "" {
		opts.LogLevel = f.logLevel
	}
	if f.debug {
		opts.Debug = true
	}
	logger, err := surfacebridge.NewLogger(opts.LogLevel, opts.LogFormat)
	if err != nil {
		return nil, err
	}
	if opts.Debug && opts.LogLevel == "" {
		logger.SetLevel(logrus.DebugLevel)
	}
	opts.Logger = logger
	return opts, nil
}
