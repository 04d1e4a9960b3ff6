// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Bridge attaches composition surfaces to a renderer. Attach, AttachSync and
// Destroy must be called on the loop's UI thread; the renderer's callback may
// arrive on any thread and is marshalled back onto the loop before the
// surface is touched.
type Bridge struct {
	shim     *Shim
	provider SurfaceProvider
	loop     *Loop
	handles  *handleTable
	timeout  time.Duration
	debug    bool
	log      *logrus.Entry

	mu       sync.Mutex
	sessions map[uintptr]*Session // keyed by composition object pointer
}

// New creates a bridge. opts may be nil.
func New(r Renderer, provider SurfaceProvider, loop *Loop, opts *Options) *Bridge {
	log := logrus.NewEntry(opts.logger()).WithField("component", "surfacebridge")
	return &Bridge{
		shim:     NewShim(r, log),
		provider: provider,
		loop:     loop,
		handles:  newHandleTable(),
		timeout:  opts.attachTimeout(),
		debug:    opts != nil && opts.Debug,
		log:      log,
		sessions: make(map[uintptr]*Session),
	}
}

// Loop returns the UI loop the bridge is bound to.
func (b *Bridge) Loop() *Loop { return b.loop }

// Probe runs the renderer's liveness probe.
func (b *Bridge) Probe() error {
	return b.shim.Probe()
}

// Attach starts the asynchronous handshake for obj: it acquires the surface,
// hands it to send_visual and returns once the renderer has accepted the
// request. The session becomes Attached later, on the UI loop, when the
// renderer delivers its swap chain.
//
// When the renderer refuses the request the returned session is in
// AttachFailed and the error wraps a *RendererError.
func (b *Bridge) Attach(obj CompositionObject) (*Session, error) {
	const op = "Bridge.Attach"
	if err := b.loop.Check(op); err != nil {
		return nil, err
	}
	s, err := b.open(op, obj)
	if err != nil {
		return nil, err
	}

	token := callbacks.register(s, b.deliver)
	if err := b.shim.Attach(s.surface, token); err != nil {
		b.abort(s, err, false)
		return s, &BridgeError{Op: op, Surface: s.surface.Addr(), Err: err}
	}
	b.armTimeout(s)
	return s, nil
}

// AttachSync hands obj to send_swap_chain_panel, which attaches before
// returning. No swap chain is reported back, so the session's swap chain
// stays null.
func (b *Bridge) AttachSync(obj CompositionObject) (*Session, error) {
	const op = "Bridge.AttachSync"
	if err := b.loop.Check(op); err != nil {
		return nil, err
	}
	s, err := b.open(op, obj)
	if err != nil {
		return nil, err
	}
	if err := b.shim.AttachSync(s.surface); err != nil {
		b.abort(s, err, false)
		return s, &BridgeError{Op: op, Surface: s.surface.Addr(), Err: err}
	}
	b.step(s, StateSwapChainCreated)
	s.attach(SwapChainHandle{})
	b.logState(s, "surface attached")
	return s, nil
}

// Destroy tears down the session of obj as part of the surface's destruction.
// A pending session becomes Detached with ErrSurfaceDestroyed; a swap chain
// that arrives afterwards is dropped.
func (b *Bridge) Destroy(obj CompositionObject) error {
	const op = "Bridge.Destroy"
	if err := b.loop.Check(op); err != nil {
		return err
	}
	ptr := nativePointer(obj)
	b.mu.Lock()
	s, ok := b.sessions[ptr]
	b.mu.Unlock()
	if !ok {
		return &BridgeError{Op: op, Err: ErrNullHandle}
	}

	var cause error
	if s.State() != StateAttached {
		cause = ErrSurfaceDestroyed
	}
	s.fail(StateDetached, cause)
	b.teardown(s, true)
	b.logState(s, "surface detached")
	return nil
}

// Close destroys every live session. Must be called on the UI thread.
func (b *Bridge) Close() error {
	if err := b.loop.Check("Bridge.Close"); err != nil {
		return err
	}
	b.mu.Lock()
	objects := make([]uintptr, 0, len(b.sessions))
	for ptr := range b.sessions {
		objects = append(objects, ptr)
	}
	b.mu.Unlock()
	for _, ptr := range objects {
		if err := b.Destroy(PointerObject(ptr)); err != nil {
			b.log.WithError(err).WithField("object", fmt.Sprintf("%#x", ptr)).Warn("destroying session on close")
		}
	}
	return nil
}

// Session returns the live session of obj.
func (b *Bridge) Session(obj CompositionObject) (*Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[nativePointer(obj)]
	return s, ok
}

// Sessions returns the number of live sessions.
func (b *Bridge) Sessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// open acquires the surface of obj and registers a session in AttachRequested.
func (b *Bridge) open(op string, obj CompositionObject) (*Session, error) {
	ptr := nativePointer(obj)
	if ptr == 0 {
		return nil, &BridgeError{Op: op, Err: ErrNullHandle}
	}
	b.mu.Lock()
	_, live := b.sessions[ptr]
	b.mu.Unlock()
	if live {
		return nil, &BridgeError{Op: op, Surface: ptr, Err: ErrDoubleAttach}
	}

	addr, err := b.provider.AcquireCompositionInterface(obj)
	if err != nil {
		b.log.WithError(err).WithField("object", fmt.Sprintf("%#x", ptr)).Warn("surface acquisition failed")
		return nil, &BridgeError{Op: op, Surface: ptr, Err: err}
	}
	surface, err := b.handles.acquire(addr, b.loop.ThreadID())
	if err != nil {
		// Hand back the extra reference the provider just took.
		b.provider.ReleaseCompositionInterface(SurfaceHandle{addr: addr})
		return nil, &BridgeError{Op: op, Surface: addr, Err: err}
	}

	s := newSession(ptr, surface)
	b.mu.Lock()
	b.sessions[ptr] = s
	b.mu.Unlock()
	b.step(s, StateAttachRequested)
	return s, nil
}

// deliver runs on the renderer's thread.
func (b *Bridge) deliver(s *Session, swapChain uintptr) Status {
	if !b.step(s, StateSwapChainCreated) {
		return StatusStale
	}
	if !b.loop.Post(func() { b.complete(s, swapChain) }) {
		// Nothing will run the attachment; settle the session here.
		b.orphan(s, ErrLoopClosed)
		return StatusStale
	}
	return StatusOK
}

// complete runs on the UI loop and performs the final attachment.
func (b *Bridge) complete(s *Session, swapChain uintptr) {
	if err := b.handles.validate(s.surface); err != nil {
		b.log.WithFields(sessionFields(s)).Debug("dropping swap chain for retired surface")
		return
	}
	if s.State() != StateSwapChainCreated {
		return
	}
	sc, err := b.handles.bindSwapChain(s.surface, swapChain)
	if err == nil {
		err = b.provider.SetSwapChain(s.surface, sc)
	}
	if err != nil {
		b.abort(s, err, true)
		return
	}
	s.attach(sc)
	b.log.WithFields(sessionFields(s)).WithField("swap_chain", fmt.Sprintf("%#x", swapChain)).Info("swap chain attached")
}

func (b *Bridge) armTimeout(s *Session) {
	if b.timeout <= 0 {
		return
	}
	s.setTimer(time.AfterFunc(b.timeout, func() {
		posted := b.loop.Post(func() {
			if !s.pending() {
				return
			}
			b.abort(s, ErrAttachTimeout, true)
		})
		if !posted {
			b.orphan(s, ErrAttachTimeout)
		}
	}))
}

// orphan fails a pending session whose loop has stopped. It runs off the UI
// thread, so the surface itself is left to the host.
func (b *Bridge) orphan(s *Session, err error) {
	if !s.fail(StateAttachFailed, err) {
		return
	}
	callbacks.unregister(s)
	b.log.WithFields(sessionFields(s)).WithError(err).Error("attach abandoned, ui loop stopped")
}

// abort fails a pending session and releases everything it holds.
// rendererHolds says whether the renderer accepted the surface and may still
// reference it.
func (b *Bridge) abort(s *Session, err error, rendererHolds bool) {
	if !s.fail(StateAttachFailed, err) {
		return
	}
	b.teardown(s, rendererHolds)
	b.log.WithFields(sessionFields(s)).WithError(err).Error("attach failed")
}

func (b *Bridge) teardown(s *Session, releaseRenderer bool) {
	callbacks.unregister(s)
	if releaseRenderer {
		if err := b.shim.Release(s.surface); err != nil {
			b.log.WithFields(sessionFields(s)).WithError(err).Warn("release_surface failed")
		}
	}
	if b.handles.release(s.surface) {
		b.provider.ReleaseCompositionInterface(s.surface)
	}
	b.mu.Lock()
	if b.sessions[s.object] == s {
		delete(b.sessions, s.object)
	}
	b.mu.Unlock()
}

func (b *Bridge) step(s *Session, next State) bool {
	if !s.transition(next) {
		return false
	}
	if b.debug {
		b.logState(s, "session transition")
	}
	return true
}

func (b *Bridge) logState(s *Session, msg string) {
	b.log.WithFields(sessionFields(s)).Debug(msg)
}
