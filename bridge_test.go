// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPanel     = PointerObject(0x1000)
	testPanel2    = PointerObject(0x2000)
	testSwapChain = uintptr(0xBEEF)
)

func TestAttachDeliversSwapChainOnUIThread(t *testing.T) {
	f := newBridgeFixture(t, nil)

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	assert.Equal(t, StateAttachRequested, s.State())
	assert.Equal(t, uintptr(testPanel), s.Surface().Addr())
	assert.Equal(t, f.loop.ThreadID(), s.Surface().Owner())
	assert.NotEmpty(t, s.ID())

	st := invokeOffThread(f.renderer.lastToken(t), uintptr(testPanel), testSwapChain)
	assert.Equal(t, StatusOK, st)

	require.NoError(t, waitSettled(t, s))
	assert.Equal(t, StateAttached, s.State())
	assert.Equal(t, []State{
		StateUninitialized,
		StateAttachRequested,
		StateSwapChainCreated,
		StateAttached,
	}, s.History())

	sc := s.SwapChain()
	assert.Equal(t, testSwapChain, sc.Addr())
	assert.Equal(t, s.Surface(), sc.Surface())

	got, ok := f.provider.swapChainOf(uintptr(testPanel))
	require.True(t, ok)
	assert.Equal(t, testSwapChain, got)
	assert.Equal(t, []bool{true}, f.provider.setCalls(), "SetSwapChain must run on the UI thread")
}

func TestAttachWithSynchronousCallback(t *testing.T) {
	f := newBridgeFixture(t, nil)
	f.renderer.onVisual = func(surface uintptr, token CallbackToken) {
		token.Invoke(surface, testSwapChain)
	}

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	require.NoError(t, waitSettled(t, s))
	assert.Equal(t, StateAttached, s.State())
	assert.Equal(t, []bool{true}, f.provider.setCalls())
}

func TestAttachTwiceFailsWithoutCrossing(t *testing.T) {
	f := newBridgeFixture(t, nil)

	first, err := f.attach(t, testPanel)
	require.NoError(t, err)

	second, err := f.attach(t, testPanel)
	require.ErrorIs(t, err, ErrDoubleAttach)
	assert.Nil(t, second)

	visual, _ := f.renderer.calls()
	assert.Equal(t, 1, visual)
	assert.Equal(t, StateAttachRequested, first.State(), "first session is unaffected")
	assert.Equal(t, 1, f.bridge.Sessions())
}

func TestAttachAgainAfterAttached(t *testing.T) {
	f := newBridgeFixture(t, nil)

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	invokeOffThread(f.renderer.lastToken(t), uintptr(testPanel), testSwapChain)
	require.NoError(t, waitSettled(t, s))

	_, err = f.attach(t, testPanel)
	require.ErrorIs(t, err, ErrDoubleAttach)
	assert.Equal(t, StateAttached, s.State())
}

func TestAttachNullObject(t *testing.T) {
	f := newBridgeFixture(t, nil)

	for _, obj := range []CompositionObject{nil, PointerObject(0)} {
		s, err := f.attach(t, obj)
		require.ErrorIs(t, err, ErrNullHandle)
		assert.Nil(t, s)

		var berr *BridgeError
		require.ErrorAs(t, err, &berr)
		assert.Equal(t, "Bridge.Attach", berr.Op)
	}

	visual, panel := f.renderer.calls()
	assert.Zero(t, visual)
	assert.Zero(t, panel)
	assert.Zero(t, f.provider.acquired, "null objects never reach the provider")
}

func TestAttachSyncNullObject(t *testing.T) {
	f := newBridgeFixture(t, nil)

	var err error
	onUI(t, f.loop, func() { _, err = f.bridge.AttachSync(PointerObject(0)) })
	require.ErrorIs(t, err, ErrNullHandle)

	_, panel := f.renderer.calls()
	assert.Zero(t, panel)
}

func TestAttachSync(t *testing.T) {
	f := newBridgeFixture(t, nil)

	var (
		s   *Session
		err error
	)
	onUI(t, f.loop, func() { s, err = f.bridge.AttachSync(testPanel) })
	require.NoError(t, err)
	assert.Equal(t, StateAttached, s.State())
	assert.True(t, s.SwapChain().IsNull())
	assert.Equal(t, []State{
		StateUninitialized,
		StateAttachRequested,
		StateSwapChainCreated,
		StateAttached,
	}, s.History())

	_, panel := f.renderer.calls()
	assert.Equal(t, 1, panel)
	assert.Empty(t, f.provider.setCalls(), "renderer attaches on its own in the synchronous path")
}

func TestAttachSyncFailure(t *testing.T) {
	f := newBridgeFixture(t, nil)
	f.renderer.status = StatusUnspecified

	var (
		s   *Session
		err error
	)
	onUI(t, f.loop, func() { s, err = f.bridge.AttachSync(testPanel) })
	require.ErrorIs(t, err, ErrRendererInit)
	require.NotNil(t, s)
	assert.Equal(t, StateAttachFailed, s.State())
	assert.Zero(t, f.bridge.Sessions())
	assert.Empty(t, f.renderer.releasedSurfaces(), "a refused surface is not released in the renderer")
}

func TestAttachOffUIThread(t *testing.T) {
	f := newBridgeFixture(t, nil)

	s, err := f.bridge.Attach(testPanel)
	require.ErrorIs(t, err, ErrThreadAffinity)
	assert.Nil(t, s)
	assert.Zero(t, f.provider.acquired)

	_, err = f.bridge.AttachSync(testPanel)
	require.ErrorIs(t, err, ErrThreadAffinity)

	require.ErrorIs(t, f.bridge.Destroy(testPanel), ErrThreadAffinity)
}

func TestUnsupportedSurface(t *testing.T) {
	f := newBridgeFixture(t, nil)
	f.provider.unsupported = true

	s, err := f.attach(t, testPanel)
	require.ErrorIs(t, err, ErrUnsupportedSurface)
	assert.Nil(t, s)

	visual, _ := f.renderer.calls()
	assert.Zero(t, visual)
	assert.Zero(t, f.bridge.Sessions())
}

func TestRendererInitFailure(t *testing.T) {
	f := newBridgeFixture(t, nil)
	f.renderer.status = StatusInitFailed

	s, err := f.attach(t, testPanel)
	require.ErrorIs(t, err, ErrRendererInit)
	require.NotNil(t, s)

	var rerr *RendererError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, StatusInitFailed, rerr.Status)
	assert.Equal(t, symSendVisual, rerr.Symbol)

	assert.Equal(t, StateAttachFailed, s.State())
	assert.ErrorIs(t, s.Err(), ErrRendererInit)
	assert.Zero(t, f.bridge.Sessions())
	assert.Equal(t, []uintptr{uintptr(testPanel)}, f.provider.released)

	// No implicit retry, but the caller may try again.
	f.renderer.status = StatusOK
	s2, err := f.attach(t, testPanel)
	require.NoError(t, err)
	assert.NotEqual(t, s.ID(), s2.ID())
	assert.NotEqual(t, s.Surface().Generation(), s2.Surface().Generation())

	visual, _ := f.renderer.calls()
	assert.Equal(t, 2, visual)
}

func TestRendererBusy(t *testing.T) {
	f := newBridgeFixture(t, nil)
	f.renderer.status = StatusBusy

	s, err := f.attach(t, testPanel)
	require.ErrorIs(t, err, ErrDoubleAttach)
	assert.Equal(t, StateAttachFailed, s.State())
}

func TestRendererPanicIsContained(t *testing.T) {
	f := newBridgeFixture(t, nil)
	f.renderer.panics = true

	s, err := f.attach(t, testPanel)
	require.ErrorIs(t, err, ErrRendererInit)
	assert.Equal(t, StateAttachFailed, s.State())
}

func TestSecondCallbackIsIgnored(t *testing.T) {
	f := newBridgeFixture(t, nil)

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	token := f.renderer.lastToken(t)

	assert.Equal(t, StatusOK, invokeOffThread(token, uintptr(testPanel), testSwapChain))
	require.NoError(t, waitSettled(t, s))

	assert.Equal(t, StatusDuplicate, invokeOffThread(token, uintptr(testPanel), 0xF00D))
	onUI(t, f.loop, func() {})

	assert.Equal(t, testSwapChain, s.SwapChain().Addr())
	assert.Len(t, f.provider.setCalls(), 1)
}

func TestCallbackForWrongPanelIsRejected(t *testing.T) {
	f := newBridgeFixture(t, nil)

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	token := f.renderer.lastToken(t)

	assert.Equal(t, StatusRejected, invokeOffThread(token, uintptr(testPanel2), testSwapChain))
	assert.Equal(t, StatusRejected, invokeOffThread(token, uintptr(testPanel), 0))
	assert.Equal(t, StateAttachRequested, s.State())

	// A rejected delivery does not consume the slot.
	assert.Equal(t, StatusOK, invokeOffThread(token, uintptr(testPanel), testSwapChain))
	require.NoError(t, waitSettled(t, s))
}

func TestCallbackAfterDestroyIsNoop(t *testing.T) {
	f := newBridgeFixture(t, nil)

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	token := f.renderer.lastToken(t)

	onUI(t, f.loop, func() { assert.NoError(t, f.bridge.Destroy(testPanel)) })
	assert.Equal(t, StateDetached, s.State())
	assert.ErrorIs(t, s.Err(), ErrSurfaceDestroyed)
	assert.Equal(t, []uintptr{uintptr(testPanel)}, f.renderer.releasedSurfaces())

	assert.Equal(t, StatusStale, invokeOffThread(token, uintptr(testPanel), testSwapChain))
	onUI(t, f.loop, func() {})

	assert.Empty(t, f.provider.setCalls())
	assert.Equal(t, StateDetached, s.State())
	assert.Zero(t, f.bridge.Sessions())
}

func TestDestroyBetweenDeliveryAndAttachment(t *testing.T) {
	f := newBridgeFixture(t, nil)

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	token := f.renderer.lastToken(t)

	// Deliver and destroy inside the same UI turn, so the posted attachment
	// only runs after the surface is gone.
	onUI(t, f.loop, func() {
		assert.Equal(t, StatusOK, token.Invoke(uintptr(testPanel), testSwapChain))
		assert.NoError(t, f.bridge.Destroy(testPanel))
	})
	onUI(t, f.loop, func() {})

	assert.Empty(t, f.provider.setCalls())
	assert.Equal(t, StateDetached, s.State())
	assert.ErrorIs(t, s.Err(), ErrSurfaceDestroyed)
	assert.True(t, s.SwapChain().IsNull())
}

func TestDestroyAttachedSession(t *testing.T) {
	f := newBridgeFixture(t, nil)

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	invokeOffThread(f.renderer.lastToken(t), uintptr(testPanel), testSwapChain)
	require.NoError(t, waitSettled(t, s))

	onUI(t, f.loop, func() { assert.NoError(t, f.bridge.Destroy(testPanel)) })
	assert.Equal(t, StateDetached, s.State())
	assert.NoError(t, s.Err())
	_, attached := f.provider.swapChainOf(uintptr(testPanel))
	assert.False(t, attached)

	onUI(t, f.loop, func() {
		assert.ErrorIs(t, f.bridge.Destroy(testPanel), ErrNullHandle)
	})
}

func TestAttachTimeout(t *testing.T) {
	opts := quietOptions()
	opts.AttachTimeout = 30 * time.Millisecond
	f := newBridgeFixture(t, opts)

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	token := f.renderer.lastToken(t)

	err = waitSettled(t, s)
	require.ErrorIs(t, err, ErrAttachTimeout)
	onUI(t, f.loop, func() {})
	assert.Equal(t, StateAttachFailed, s.State())
	assert.Equal(t, []uintptr{uintptr(testPanel)}, f.renderer.releasedSurfaces())

	assert.Equal(t, StatusStale, invokeOffThread(token, uintptr(testPanel), testSwapChain))
	onUI(t, f.loop, func() {})
	assert.Empty(t, f.provider.setCalls())
	assert.Zero(t, f.bridge.Sessions())
}

func TestTimeoutDoesNotFireAfterAttach(t *testing.T) {
	opts := quietOptions()
	opts.AttachTimeout = 50 * time.Millisecond
	f := newBridgeFixture(t, opts)

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	invokeOffThread(f.renderer.lastToken(t), uintptr(testPanel), testSwapChain)
	require.NoError(t, waitSettled(t, s))

	time.Sleep(100 * time.Millisecond)
	onUI(t, f.loop, func() {})
	assert.Equal(t, StateAttached, s.State())
	assert.NoError(t, s.Err())
}

func TestSwapChainBoundToOneSurface(t *testing.T) {
	f := newBridgeFixture(t, nil)

	a, err := f.attach(t, testPanel)
	require.NoError(t, err)
	tokenA := f.renderer.lastToken(t)
	b, err := f.attach(t, testPanel2)
	require.NoError(t, err)
	tokenB := f.renderer.lastToken(t)

	invokeOffThread(tokenA, uintptr(testPanel), testSwapChain)
	require.NoError(t, waitSettled(t, a))

	invokeOffThread(tokenB, uintptr(testPanel2), testSwapChain)
	err = waitSettled(t, b)
	require.Error(t, err)
	onUI(t, f.loop, func() {})
	assert.Equal(t, StateAttachFailed, b.State())
	assert.Equal(t, StateAttached, a.State())
	assert.Equal(t, 1, f.bridge.Sessions())
}

func TestSetSwapChainFailure(t *testing.T) {
	f := newBridgeFixture(t, nil)
	f.provider.setErr = errors.New("put_SwapChain failed")

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)
	invokeOffThread(f.renderer.lastToken(t), uintptr(testPanel), testSwapChain)

	err = waitSettled(t, s)
	require.EqualError(t, err, "put_SwapChain failed")
	onUI(t, f.loop, func() {})
	assert.Equal(t, StateAttachFailed, s.State())
	assert.Equal(t, []uintptr{uintptr(testPanel)}, f.renderer.releasedSurfaces())
}

func TestCloseDetachesEverySession(t *testing.T) {
	f := newBridgeFixture(t, nil)

	a, err := f.attach(t, testPanel)
	require.NoError(t, err)
	b, err := f.attach(t, testPanel2)
	require.NoError(t, err)

	onUI(t, f.loop, func() { assert.NoError(t, f.bridge.Close()) })
	assert.Equal(t, StateDetached, a.State())
	assert.Equal(t, StateDetached, b.State())
	assert.Zero(t, f.bridge.Sessions())
	assert.Zero(t, f.bridge.handles.count())
	assert.ElementsMatch(t, []uintptr{uintptr(testPanel), uintptr(testPanel2)}, f.renderer.releasedSurfaces())
}

func TestSessionLookup(t *testing.T) {
	f := newBridgeFixture(t, nil)

	s, err := f.attach(t, testPanel)
	require.NoError(t, err)

	got, ok := f.bridge.Session(testPanel)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = f.bridge.Session(testPanel2)
	assert.False(t, ok)
}

func TestProbe(t *testing.T) {
	f := newBridgeFixture(t, nil)
	require.NoError(t, f.bridge.Probe())

	f.renderer.panics = true
	require.ErrorIs(t, f.bridge.Probe(), ErrRendererInit)
}

// stoppableBridge runs a bridge on a loop the test stops itself.
func stoppableBridge(t *testing.T, opts *Options) (*Bridge, *fakeRenderer, *Loop, func()) {
	t.Helper()
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()
	stop := func() {
		cancel()
		<-done
	}
	t.Cleanup(stop)
	require.Eventually(t, func() bool { return loop.ThreadID() != 0 }, time.Second, time.Millisecond)

	r := newFakeRenderer()
	return New(r, newFakeProvider(loop), loop, opts), r, loop, stop
}

func TestCallbackAfterLoopStopped(t *testing.T) {
	opts := quietOptions()
	opts.AttachTimeout = -1
	b, r, loop, stop := stoppableBridge(t, opts)

	var (
		s   *Session
		err error
	)
	onUI(t, loop, func() { s, err = b.Attach(testPanel) })
	require.NoError(t, err)
	stop()

	assert.Equal(t, StatusStale, invokeOffThread(r.lastToken(t), uintptr(testPanel), testSwapChain))
	require.ErrorIs(t, waitSettled(t, s), ErrLoopClosed)
	assert.Equal(t, StateAttachFailed, s.State())
	assert.True(t, s.SwapChain().IsNull())
}

func TestTimeoutAfterLoopStopped(t *testing.T) {
	opts := quietOptions()
	opts.AttachTimeout = 30 * time.Millisecond
	b, r, loop, stop := stoppableBridge(t, opts)

	var (
		s   *Session
		err error
	)
	onUI(t, loop, func() { s, err = b.Attach(testPanel) })
	require.NoError(t, err)
	token := r.lastToken(t)
	stop()

	require.ErrorIs(t, waitSettled(t, s), ErrAttachTimeout)
	assert.Equal(t, StateAttachFailed, s.State())
	assert.Equal(t, StatusStale, invokeOffThread(token, uintptr(testPanel), testSwapChain))
}

func TestCloseOffUIThread(t *testing.T) {
	f := newBridgeFixture(t, nil)
	_, err := f.attach(t, testPanel)
	require.NoError(t, err)

	require.ErrorIs(t, f.bridge.Close(), ErrThreadAffinity)
	assert.Equal(t, 1, f.bridge.Sessions())
}
