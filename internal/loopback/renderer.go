// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

// Package loopback is an in-process stand-in for a native toolkit and
// renderer pair: panels play the composition surface, Renderer plays the
// separately compiled module. It speaks the same contract as a native
// renderer, so a host can exercise the full handshake without a shared
// library.
package loopback

import (
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YindSoft/surfacebridge"
	"golang.org/x/image/colornames"
)

var palette = []color.RGBA{
	colornames.Cornflowerblue,
	colornames.Mediumseagreen,
	colornames.Goldenrod,
	colornames.Tomato,
}

// Renderer builds a swap chain for each panel it is handed, on its own
// goroutine, and reports it through the callback token.
type Renderer struct {
	// Delay before the swap chain is reported.
	Delay time.Duration
	// PresentInterval between presented frames. Zero disables presenting.
	PresentInterval time.Duration

	// FailInit makes every attach return StatusInitFailed.
	FailInit bool
	// Silent accepts the attach but never calls back.
	Silent bool
	// CallbackTwice invokes the callback a second time for the same surface.
	CallbackTwice bool

	mu       sync.Mutex
	surfaces map[uintptr]*attachment
	attempts atomic.Int32
	statuses []surfacebridge.Status
}

type attachment struct {
	chain *SwapChain
	stop  chan struct{}
}

var _ surfacebridge.Renderer = (*Renderer)(nil)

func (r *Renderer) HelloWorld() {}

// Attempts returns how many attach requests reached the renderer.
func (r *Renderer) Attempts() int { return int(r.attempts.Load()) }

// CallbackStatuses returns what the host answered to each callback.
func (r *Renderer) CallbackStatuses() []surfacebridge.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]surfacebridge.Status, len(r.statuses))
	copy(out, r.statuses)
	return out
}

// Holds reports whether the renderer still references surface.
func (r *Renderer) Holds(surface uintptr) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.surfaces[surface]
	return ok
}

// begin validates and reserves surface.
func (r *Renderer) begin(surface uintptr) (*Panel, *attachment, surfacebridge.Status) {
	r.attempts.Add(1)
	panel, ok := lookupPanel(surface)
	if !ok {
		return nil, nil, surfacebridge.StatusInvalidSurface
	}
	if r.FailInit {
		return nil, nil, surfacebridge.StatusInitFailed
	}
	w, h := panel.Size()
	if w <= 0 || h <= 0 {
		return nil, nil, surfacebridge.StatusUnsupportedFormat
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.surfaces == nil {
		r.surfaces = make(map[uintptr]*attachment)
	}
	if _, busy := r.surfaces[surface]; busy {
		return nil, nil, surfacebridge.StatusBusy
	}
	a := &attachment{stop: make(chan struct{})}
	r.surfaces[surface] = a
	return panel, a, surfacebridge.StatusOK
}

// SendSwapChainPanel attaches synchronously, setting the swap chain on the
// panel itself.
func (r *Renderer) SendSwapChainPanel(surface uintptr) surfacebridge.Status {
	panel, a, st := r.begin(surface)
	if st != surfacebridge.StatusOK {
		return st
	}
	chain := newSwapChain(panel.Size())
	chain.present(palette[0])
	r.mu.Lock()
	a.chain = chain
	r.mu.Unlock()
	panel.setSwapChain(chain)
	go r.presentLoop(a)
	return surfacebridge.StatusOK
}

func (r *Renderer) SendVisual(surface uintptr, token surfacebridge.CallbackToken) surfacebridge.Status {
	panel, a, st := r.begin(surface)
	if st != surfacebridge.StatusOK {
		return st
	}
	go r.build(surface, panel, a, token)
	return surfacebridge.StatusOK
}

func (r *Renderer) build(surface uintptr, panel *Panel, a *attachment, token surfacebridge.CallbackToken) {
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-a.stop:
			return
		}
	}

	chain := newSwapChain(panel.Size())
	chain.present(palette[0])
	r.mu.Lock()
	select {
	case <-a.stop:
		// Released while building; ReleaseSurface never saw this chain.
		r.mu.Unlock()
		chain.release()
		return
	default:
	}
	a.chain = chain
	r.mu.Unlock()
	if r.Silent {
		return
	}

	st := token.Invoke(surface, chain.Addr())
	r.record(st)
	if r.CallbackTwice {
		r.record(token.Invoke(surface, chain.Addr()))
	}
	if st == surfacebridge.StatusOK {
		r.presentLoop(a)
	}
}

func (r *Renderer) record(st surfacebridge.Status) {
	r.mu.Lock()
	r.statuses = append(r.statuses, st)
	r.mu.Unlock()
}

// presentLoop cycles the palette into the swap chain until the surface is released.
func (r *Renderer) presentLoop(a *attachment) {
	if r.PresentInterval <= 0 {
		return
	}
	ticker := time.NewTicker(r.PresentInterval)
	defer ticker.Stop()
	for i := 1; ; i++ {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.chain.present(palette[i%len(palette)])
		}
	}
}

func (r *Renderer) ReleaseSurface(surface uintptr) {
	r.mu.Lock()
	a, ok := r.surfaces[surface]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.surfaces, surface)
	chain := a.chain
	// Closed under the lock so build either sees it or has already
	// published its chain.
	close(a.stop)
	r.mu.Unlock()
	if chain != nil {
		chain.release()
	}
}
