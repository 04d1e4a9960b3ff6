// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Loop is the UI-affinity event loop. Work posted from any goroutine runs in
// FIFO order on the single OS thread the loop is bound to.
//
// A loop is bound either by Run, which locks its own goroutine to a thread, or
// by Bind, for hosts whose toolkit already owns an update loop (call Drain from
// it every frame).
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool

	tid atomic.Uint64
}

// NewLoop creates an unbound loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Run binds the loop to the calling goroutine's OS thread and processes posted
// work until ctx is done. Once ctx is done the loop refuses further posts, and
// work already queued is drained before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	unbind, err := l.Bind()
	if err != nil {
		return err
	}
	defer unbind()

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.closed = true
			l.mu.Unlock()
			l.Drain()
			return ctx.Err()
		case <-l.wake:
			l.Drain()
		}
	}
}

// Bind locks the calling goroutine to its OS thread and makes that thread the
// loop's UI thread. The returned function undoes both.
func (l *Loop) Bind() (func(), error) {
	runtime.LockOSThread()
	tid, err := currentThreadID()
	if err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("binding ui loop: %w", err)
	}
	if !l.tid.CompareAndSwap(0, tid) {
		runtime.UnlockOSThread()
		return nil, errors.New("binding ui loop: already bound")
	}
	return func() {
		l.tid.Store(0)
		runtime.UnlockOSThread()
	}, nil
}

// ThreadID returns the OS thread id the loop is bound to, zero when unbound.
func (l *Loop) ThreadID() uint64 {
	return l.tid.Load()
}

// OnThread reports whether the caller is running on the loop's thread.
func (l *Loop) OnThread() bool {
	bound := l.tid.Load()
	if bound == 0 {
		return false
	}
	tid, err := currentThreadID()
	return err == nil && tid == bound
}

// Check returns ErrThreadAffinity, wrapped with op, when called off the loop's thread.
func (l *Loop) Check(op string) error {
	if l.OnThread() {
		return nil
	}
	return &BridgeError{Op: op, Err: ErrThreadAffinity}
}

// Post queues fn to run on the loop. It never blocks, so renderer threads may
// call it from inside a native callback. It reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for its result. On the loop's own thread
// fn runs inline.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	if l.OnThread() {
		return fn()
	}
	done := make(chan error, 1)
	if !l.Post(func() { done <- fn() }) {
		return ErrLoopClosed
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain runs everything queued so far and returns how many items ran. Work
// posted while draining runs on the next Drain. Must be called on the loop's thread.
func (l *Loop) Drain() int {
	if !l.OnThread() {
		return 0
	}
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Pending returns the number of queued items.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Close rejects further posts. Queued work is dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.mu.Unlock()
}
