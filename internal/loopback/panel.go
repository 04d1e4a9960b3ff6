// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package loopback

import (
	"fmt"
	"sync"

	"github.com/YindSoft/surfacebridge"
)

// Panel is an in-process composition surface: the host-owned area a
// swap chain is displayed in.
type Panel struct {
	addr   uintptr
	width  int
	height int

	mu        sync.Mutex
	swapChain *SwapChain
	closed    bool
	onThread  bool
}

// NewPanel creates a panel of the given size in pixels.
func NewPanel(width, height int) *Panel {
	p := &Panel{width: width, height: height}
	p.addr = registerObject(p)
	return p
}

// NativePointer returns the panel's address, zero after Close.
func (p *Panel) NativePointer() uintptr {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0
	}
	return p.addr
}

// Size returns the panel size in pixels.
func (p *Panel) Size() (int, int) { return p.width, p.height }

// SwapChain returns the swap chain displayed by the panel, nil if none.
func (p *Panel) SwapChain() *SwapChain {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.swapChain
}

// AttachedOnUIThread reports whether the last swap chain was attached from
// the provider loop's UI thread.
func (p *Panel) AttachedOnUIThread() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onThread
}

func (p *Panel) setSwapChain(c *SwapChain) {
	p.mu.Lock()
	p.swapChain = c
	p.mu.Unlock()
}

// Close unpublishes the panel. Destroy its bridge session first.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.swapChain = nil
	unregisterObject(p.addr)
}

// Provider is the SurfaceProvider for panels.
type Provider struct {
	// Loop, when set, is consulted to record whether SetSwapChain ran on the UI thread.
	Loop *surfacebridge.Loop
}

var _ surfacebridge.SurfaceProvider = (*Provider)(nil)

func (pr *Provider) AcquireCompositionInterface(obj surfacebridge.CompositionObject) (uintptr, error) {
	if obj == nil {
		return 0, surfacebridge.ErrNullHandle
	}
	addr := obj.NativePointer()
	if addr == 0 {
		return 0, surfacebridge.ErrNullHandle
	}
	if _, ok := lookupPanel(addr); !ok {
		return 0, fmt.Errorf("%w: %#x is not a panel", surfacebridge.ErrUnsupportedSurface, addr)
	}
	return addr, nil
}

func (pr *Provider) SetSwapChain(surface surfacebridge.SurfaceHandle, sc surfacebridge.SwapChainHandle) error {
	panel, ok := lookupPanel(surface.Addr())
	if !ok {
		return surfacebridge.ErrNullHandle
	}
	chain, ok := lookupSwapChain(sc.Addr())
	if !ok {
		return fmt.Errorf("unknown swap chain %#x", sc.Addr())
	}
	panel.mu.Lock()
	panel.swapChain = chain
	panel.onThread = pr.Loop != nil && pr.Loop.OnThread()
	panel.mu.Unlock()
	return nil
}

func (pr *Provider) ReleaseCompositionInterface(surface surfacebridge.SurfaceHandle) {
	if panel, ok := lookupPanel(surface.Addr()); ok {
		panel.setSwapChain(nil)
	}
}
