// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// --- Test doubles ---

// fakeRenderer records every crossing and lets tests decide what the
// renderer answers.
type fakeRenderer struct {
	mu          sync.Mutex
	status      Status
	panics      bool
	visualCalls int
	panelCalls  int
	tokens      []CallbackToken
	released    []uintptr

	// onVisual runs inside SendVisual, before it returns.
	onVisual func(surface uintptr, token CallbackToken)
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{status: StatusOK}
}

func (r *fakeRenderer) HelloWorld() {
	if r.panics {
		panic("hello_world exploded")
	}
}

func (r *fakeRenderer) SendSwapChainPanel(surface uintptr) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panelCalls++
	if r.panics {
		panic("send_swap_chain_panel exploded")
	}
	return r.status
}

func (r *fakeRenderer) SendVisual(surface uintptr, token CallbackToken) Status {
	r.mu.Lock()
	r.visualCalls++
	r.tokens = append(r.tokens, token)
	st, panics, hook := r.status, r.panics, r.onVisual
	r.mu.Unlock()
	if panics {
		panic("send_visual exploded")
	}
	if hook != nil {
		hook(surface, token)
	}
	return st
}

func (r *fakeRenderer) ReleaseSurface(surface uintptr) {
	r.mu.Lock()
	r.released = append(r.released, surface)
	r.mu.Unlock()
}

func (r *fakeRenderer) lastToken(t *testing.T) CallbackToken {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.tokens, "renderer never received a token")
	return r.tokens[len(r.tokens)-1]
}

func (r *fakeRenderer) calls() (visual, panel int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visualCalls, r.panelCalls
}

func (r *fakeRenderer) releasedSurfaces() []uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uintptr(nil), r.released...)
}

// fakeProvider hands out the object pointer as the surface address and
// records where SetSwapChain ran.
type fakeProvider struct {
	loop *Loop

	mu          sync.Mutex
	unsupported bool
	setErr      error
	acquired    int
	attached    map[uintptr]uintptr
	onThread    []bool
	released    []uintptr
}

func newFakeProvider(loop *Loop) *fakeProvider {
	return &fakeProvider{loop: loop, attached: make(map[uintptr]uintptr)}
}

func (p *fakeProvider) AcquireCompositionInterface(obj CompositionObject) (uintptr, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquired++
	ptr := nativePointer(obj)
	if ptr == 0 {
		return 0, ErrNullHandle
	}
	if p.unsupported {
		return 0, ErrUnsupportedSurface
	}
	return ptr, nil
}

func (p *fakeProvider) SetSwapChain(surface SurfaceHandle, sc SwapChainHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onThread = append(p.onThread, p.loop.OnThread())
	if p.setErr != nil {
		return p.setErr
	}
	p.attached[surface.Addr()] = sc.Addr()
	return nil
}

func (p *fakeProvider) ReleaseCompositionInterface(surface SurfaceHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attached, surface.Addr())
	p.released = append(p.released, surface.Addr())
}

func (p *fakeProvider) swapChainOf(surface uintptr) (uintptr, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sc, ok := p.attached[surface]
	return sc, ok
}

func (p *fakeProvider) setCalls() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.onThread...)
}

// --- Loop helpers ---

// startLoop runs a loop on its own locked goroutine for the test's lifetime.
func startLoop(t *testing.T) *Loop {
	t.Helper()
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, func() bool { return loop.ThreadID() != 0 }, time.Second, time.Millisecond)
	return loop
}

// onUI runs fn on the loop and waits for it.
func onUI(t *testing.T, loop *Loop, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, loop.Call(ctx, func() error {
		fn()
		return nil
	}))
}

func waitSettled(t *testing.T, s *Session) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "session never settled (state %s)", s.State())
	return err
}

func quietOptions() *Options {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &Options{Logger: logger}
}

type bridgeFixture struct {
	loop     *Loop
	renderer *fakeRenderer
	provider *fakeProvider
	bridge   *Bridge
}

func newBridgeFixture(t *testing.T, opts *Options) *bridgeFixture {
	t.Helper()
	if opts == nil {
		opts = quietOptions()
	}
	loop := startLoop(t)
	f := &bridgeFixture{
		loop:     loop,
		renderer: newFakeRenderer(),
		provider: newFakeProvider(loop),
	}
	f.bridge = New(f.renderer, f.provider, loop, opts)
	t.Cleanup(func() {
		onUI(t, loop, func() { f.bridge.Close() })
	})
	return f
}

func (f *bridgeFixture) attach(t *testing.T, obj CompositionObject) (*Session, error) {
	t.Helper()
	var (
		s   *Session
		err error
	)
	onUI(t, f.loop, func() { s, err = f.bridge.Attach(obj) })
	return s, err
}

// invokeOffThread delivers swapChain from a goroutine that is not the loop.
func invokeOffThread(token CallbackToken, panel, swapChain uintptr) Status {
	out := make(chan Status, 1)
	go func() { out <- token.Invoke(panel, swapChain) }()
	return <-out
}
