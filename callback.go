// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"sync"

	"github.com/ebitengine/purego"
)

// deliverFunc receives a validated swap chain for a session. It runs on the
// renderer's thread and must only hand the work over to the UI loop.
type deliverFunc func(s *Session, swapChain uintptr) Status

type callbackEntry struct {
	session *Session
	deliver deliverFunc
}

// callbackRegistry routes renderer callbacks to sessions. Native code only
// ever sees a cookie or the surface address, never a Go pointer.
type callbackRegistry struct {
	mu        sync.Mutex
	byCookie  map[uintptr]callbackEntry
	bySurface map[uintptr]uintptr
	next      uintptr
}

var callbacks = &callbackRegistry{
	byCookie:  make(map[uintptr]callbackEntry),
	bySurface: make(map[uintptr]uintptr),
}

// register opens a delivery slot for s and returns the token lent to the renderer.
func (r *callbackRegistry) register(s *Session, fn deliverFunc) CallbackToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	cookie := r.next
	r.byCookie[cookie] = callbackEntry{session: s, deliver: fn}
	r.bySurface[s.surface.addr] = cookie
	s.cookie = cookie
	return CallbackToken{Context: cookie}
}

// unregister closes the slot. Later callbacks for it are stale.
func (r *callbackRegistry) unregister(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byCookie, s.cookie)
	if r.bySurface[s.surface.addr] == s.cookie {
		delete(r.bySurface, s.surface.addr)
	}
}

func (r *callbackRegistry) lookup(cookie uintptr) (callbackEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byCookie[cookie]
	return e, ok
}

// deliver handles one callback invocation.
func (r *callbackRegistry) deliver(cookie, panel, swapChain uintptr) Status {
	e, ok := r.lookup(cookie)
	if !ok {
		return StatusStale
	}
	if panel != e.session.surface.addr || swapChain == 0 {
		return StatusRejected
	}
	if !e.session.delivered.CompareAndSwap(false, true) {
		return StatusDuplicate
	}
	return e.deliver(e.session, swapChain)
}

// deliverBySurface serves the context-less callback, which only identifies
// the session through the surface address.
func (r *callbackRegistry) deliverBySurface(panel, swapChain uintptr) Status {
	r.mu.Lock()
	cookie, ok := r.bySurface[panel]
	r.mu.Unlock()
	if !ok {
		return StatusStale
	}
	return r.deliver(cookie, panel, swapChain)
}

func (r *callbackRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byCookie)
}

// Native callback trampolines. purego only hands out a fixed number of
// callback slots per process, so each is created once.
var (
	trampolineOnce   sync.Once
	visualCallback   uintptr
	visualCallbackV2 uintptr
)

func trampolines() (v1, v2 uintptr) {
	trampolineOnce.Do(func() {
		visualCallback = purego.NewCallback(func(panel, swapChain uintptr) uintptr {
			return uintptr(guardCallback(func() Status {
				return callbacks.deliverBySurface(panel, swapChain)
			}))
		})
		visualCallbackV2 = purego.NewCallback(func(ctx, panel, swapChain uintptr) uintptr {
			return uintptr(guardCallback(func() Status {
				return callbacks.deliver(ctx, panel, swapChain)
			}))
		})
	})
	return visualCallback, visualCallbackV2
}

// guardCallback keeps a Go panic from unwinding into the renderer's stack.
func guardCallback(fn func() Status) (st Status) {
	defer func() {
		if r := recover(); r != nil {
			bridgeLog.WithField("panic", r).Error("swap chain callback panicked")
			st = StatusRejected
		}
	}()
	return fn()
}
