// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"fmt"
	"sync"
)

// SurfaceHandle identifies a composition surface lent to the renderer.
// The zero value is the null handle.
//
// A handle is only valid while its generation is the live generation for its
// address in the bridge that issued it. Destroying the surface, or a failed
// attach, retires the generation so stale copies are detected instead of
// dereferenced.
type SurfaceHandle struct {
	addr       uintptr
	generation uint64
	owner      uint64
}

// Addr returns the raw interop pointer passed across the ABI boundary.
func (h SurfaceHandle) Addr() uintptr { return h.addr }

// Generation returns the acquisition generation of the handle.
func (h SurfaceHandle) Generation() uint64 { return h.generation }

// Owner returns the OS thread id of the UI thread that acquired the handle.
func (h SurfaceHandle) Owner() uint64 { return h.owner }

// IsNull reports whether the handle carries no surface.
func (h SurfaceHandle) IsNull() bool { return h.addr == 0 }

func (h SurfaceHandle) String() string {
	if h.IsNull() {
		return "surface(null)"
	}
	return fmt.Sprintf("surface(%#x gen=%d)", h.addr, h.generation)
}

// SwapChainHandle identifies a renderer-created presentation target together
// with the surface it was delivered for.
type SwapChainHandle struct {
	addr    uintptr
	surface SurfaceHandle
}

// Addr returns the raw swap chain pointer delivered by the renderer.
func (h SwapChainHandle) Addr() uintptr { return h.addr }

// Surface returns the surface the swap chain is bound to.
func (h SwapChainHandle) Surface() SurfaceHandle { return h.surface }

// IsNull reports whether no swap chain is held.
func (h SwapChainHandle) IsNull() bool { return h.addr == 0 }

// handleTable issues surface handles. An address can be live at most once,
// which is what keeps a surface to a single live session.
type handleTable struct {
	mu         sync.Mutex
	live       map[uintptr]uint64
	swapChains map[uintptr]uintptr // swap chain addr -> surface addr
	nextGen    uint64
}

func newHandleTable() *handleTable {
	return &handleTable{
		live:       make(map[uintptr]uint64),
		swapChains: make(map[uintptr]uintptr),
	}
}

// acquire issues a handle for addr. It fails with ErrDoubleAttach while a
// previous handle for the same address is still live.
func (t *handleTable) acquire(addr uintptr, owner uint64) (SurfaceHandle, error) {
	if addr == 0 {
		return SurfaceHandle{}, ErrNullHandle
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.live[addr]; ok {
		return SurfaceHandle{}, ErrDoubleAttach
	}
	t.nextGen++
	t.live[addr] = t.nextGen
	return SurfaceHandle{addr: addr, generation: t.nextGen, owner: owner}, nil
}

// validate returns ErrNullHandle unless h is the live handle for its address.
func (t *handleTable) validate(h SurfaceHandle) error {
	if h.IsNull() {
		return ErrNullHandle
	}
	t.mu.Lock()
	gen, ok := t.live[h.addr]
	t.mu.Unlock()
	if !ok || gen != h.generation {
		return ErrNullHandle
	}
	return nil
}

// bindSwapChain associates a swap chain with a live surface. A swap chain
// already bound to another surface is refused.
func (t *handleTable) bindSwapChain(h SurfaceHandle, swapChain uintptr) (SwapChainHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen, ok := t.live[h.addr]; !ok || gen != h.generation {
		return SwapChainHandle{}, ErrNullHandle
	}
	if owner, ok := t.swapChains[swapChain]; ok && owner != h.addr {
		return SwapChainHandle{}, fmt.Errorf("swap chain %#x already bound to surface %#x", swapChain, owner)
	}
	t.swapChains[swapChain] = h.addr
	return SwapChainHandle{addr: swapChain, surface: h}, nil
}

// release retires h. It reports false when h was not live.
func (t *handleTable) release(h SurfaceHandle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	gen, ok := t.live[h.addr]
	if !ok || gen != h.generation {
		return false
	}
	delete(t.live, h.addr)
	for sc, surface := range t.swapChains {
		if surface == h.addr {
			delete(t.swapChains, sc)
		}
	}
	return true
}

func (t *handleTable) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}
