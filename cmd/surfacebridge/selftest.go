// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/YindSoft/surfacebridge"
	"github.com/YindSoft/surfacebridge/internal/loopback"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type selftestFlags struct {
	delay   time.Duration
	silent  bool
	fail    bool
	twice   bool
	timeout time.Duration
}

func newSelftestCommand(flags *rootFlags) *cobra.Command {
	st := &selftestFlags{}
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the attach handshake against the in-process loopback renderer",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			if st.timeout != 0 {
				opts.AttachTimeout = st.timeout
			}
			return runSelftest(cmd, opts, st)
		},
	}
	cmd.Flags().DurationVar(&st.delay, "delay", 50*time.Millisecond, "renderer delay before reporting the swap chain")
	cmd.Flags().BoolVar(&st.silent, "silent", false, "renderer never calls back")
	cmd.Flags().BoolVar(&st.fail, "fail", false, "renderer refuses the surface")
	cmd.Flags().BoolVar(&st.twice, "twice", false, "renderer calls back twice")
	cmd.Flags().DurationVar(&st.timeout, "timeout", 0, "attach timeout (default from options)")
	return cmd
}

func runSelftest(cmd *cobra.Command, opts *surfacebridge.Options, st *selftestFlags) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	loop := surfacebridge.NewLoop()
	go loop.Run(ctx)

	renderer := &loopback.Renderer{
		Delay:         st.delay,
		Silent:        st.silent,
		FailInit:      st.fail,
		CallbackTwice: st.twice,
	}
	bridge := surfacebridge.New(renderer, &loopback.Provider{Loop: loop}, loop, opts)
	panel := loopback.NewPanel(400, 240)
	defer panel.Close()

	var session *surfacebridge.Session
	err := loop.Call(ctx, func() error {
		var err error
		session, err = bridge.Attach(panel)
		return err
	})
	if err == nil {
		err = session.Wait(ctx)
	}
	if err == nil && st.twice {
		// The second callback lands after the session settles.
		deadline := time.Now().Add(time.Second)
		for len(renderer.CallbackStatuses()) < 2 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
	}

	out := cmd.OutOrStdout()
	if session != nil {
		fmt.Fprintf(out, "session %s\n", session.ID())
		for _, s := range session.History() {
			fmt.Fprintf(out, "  -> %s\n", s)
		}
		fmt.Fprintf(out, "swap chain %#x, panel on ui thread: %v\n", session.SwapChain().Addr(), panel.AttachedOnUIThread())
	}
	for i, s := range renderer.CallbackStatuses() {
		fmt.Fprintf(out, "callback %d answered %s\n", i+1, s)
	}

	if cerr := loop.Call(ctx, bridge.Close); cerr != nil {
		opts.Logger.WithField("component", "surfacebridge").WithError(cerr).Warn("closing bridge")
	}
	if err != nil {
		fmt.Fprintln(out, color.RedString("FAIL"), err)
		return err
	}
	fmt.Fprintln(out, color.GreenString("OK"))
	return nil
}
