// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

// Package surfacebridge hands a UI toolkit's composition surface to a
// separately compiled native renderer and attaches the swap chain the renderer
// creates for it.
//
// The renderer is loaded at runtime through a fixed C ABI (no cgo):
//
//	void    hello_world(void);
//	int32_t send_swap_chain_panel(void *surface);
//	int32_t send_visual(void *surface, int32_t (*cb)(void *panel, void *swapchain));
//	int32_t send_visual_ctx(void *surface, int32_t (*cb)(uintptr_t ctx, void *panel, void *swapchain), uintptr_t ctx); // optional
//	void    release_surface(void *surface);                                                                          // optional
//
// Every entry point and callback returns a [Status]; 1 is success.
//
// Basic usage:
//
//	import "github.com/YindSoft/surfacebridge"
//
//	r, err := surfacebridge.LoadRenderer(&surfacebridge.Options{BaseDir: dir})
//	if err != nil { ... }
//
//	loop := surfacebridge.NewLoop()
//	go loop.Run(ctx) // or loop.Bind() + loop.Drain() from the toolkit's own loop
//
//	b := surfacebridge.New(r, surfacebridge.NewPlatformProvider(), loop, nil)
//
//	// On the UI thread:
//	loop.Call(ctx, func() error {
//	    session, err := b.Attach(surfacebridge.PointerObject(viewPtr))
//	    ...
//	})
//
//	// session.Wait(ctx) returns once the swap chain is attached, the attach
//	// failed or timed out, or the surface was destroyed.
//
// Threading: acquiring the surface and attaching the swap chain happen on the
// loop's thread only. The renderer may call back from any thread; the
// callback validates the session and posts the attachment to the loop. A
// surface destroyed before the callback arrives retires its handle
// generation, so the late callback is dropped.
//
// Embedded renderers:
//
// Use [LoadRendererFS] to extract the renderer library and its sibling
// libraries from an [embed.FS] or any [fs.FS] before loading it.
//
// Requirements: the renderer shared library (cappy3ds_render.dll on Windows,
// libcappy3ds_render.so on Linux, libcappy3ds_render.dylib on macOS) must be
// present next to the executable or in the directory specified by
// [Options.BaseDir].
package surfacebridge
