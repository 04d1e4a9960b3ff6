// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is the attach state of a session.
type State int32

const (
	StateUninitialized State = iota
	StateAttachRequested
	StateSwapChainCreated
	StateAttached
	StateAttachFailed
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAttachRequested:
		return "attach-requested"
	case StateSwapChainCreated:
		return "swap-chain-created"
	case StateAttached:
		return "attached"
	case StateAttachFailed:
		return "attach-failed"
	case StateDetached:
		return "detached"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateAttachFailed || s == StateDetached
}

// transitions lists the legal edges. Detached is reachable from every live
// state because the host may destroy the surface at any time.
var transitions = map[State][]State{
	StateUninitialized:    {StateAttachRequested},
	StateAttachRequested:  {StateSwapChainCreated, StateAttachFailed, StateDetached},
	StateSwapChainCreated: {StateAttached, StateAttachFailed, StateDetached},
	StateAttached:         {StateDetached},
}

// Session is one attach attempt for one surface.
type Session struct {
	id      uuid.UUID
	surface SurfaceHandle
	object  uintptr
	cookie  uintptr

	mu        sync.Mutex
	state     State
	history   []State
	swapChain SwapChainHandle
	err       error
	timer     *time.Timer

	delivered atomic.Bool
	settled   chan struct{}
	once      sync.Once
}

func newSession(object uintptr, surface SurfaceHandle) *Session {
	return &Session{
		id:      uuid.New(),
		surface: surface,
		object:  object,
		state:   StateUninitialized,
		history: []State{StateUninitialized},
		settled: make(chan struct{}),
	}
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id.String() }

// Surface returns the handle the session was opened for.
func (s *Session) Surface() SurfaceHandle { return s.surface }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns every state the session has been in, oldest first.
func (s *Session) History() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]State, len(s.history))
	copy(out, s.history)
	return out
}

// SwapChain returns the attached swap chain. It is null until the session is
// Attached, and stays null for sessions attached through the synchronous path.
func (s *Session) SwapChain() SwapChainHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.swapChain
}

// Err returns the error that ended the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the session reaches Attached, AttachFailed or Detached.
func (s *Session) Done() <-chan struct{} { return s.settled }

// Wait blocks until the session settles and returns its error.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.settled:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// transition moves the session to next. It reports false, leaving the state
// untouched, when the edge is not legal.
func (s *Session) transition(next State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(next)
}

func (s *Session) transitionLocked(next State) bool {
	allowed := false
	for _, to := range transitions[s.state] {
		if to == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	s.state = next
	s.history = append(s.history, next)
	if next == StateAttached || next.Terminal() {
		s.stopTimerLocked()
		s.once.Do(func() { close(s.settled) })
	}
	return true
}

// attach records the swap chain and moves to Attached.
func (s *Session) attach(sc SwapChainHandle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transitionLocked(StateAttached) {
		return false
	}
	s.swapChain = sc
	return true
}

// fail moves a live session to to (AttachFailed or Detached) with err.
func (s *Session) fail(to State, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.transitionLocked(to) {
		return false
	}
	if s.err == nil {
		s.err = err
	}
	return true
}

// pending reports whether the session still waits for its swap chain.
func (s *Session) pending() bool {
	st := s.State()
	return st == StateAttachRequested || st == StateSwapChainCreated
}

func (s *Session) setTimer(t *time.Timer) {
	s.mu.Lock()
	s.timer = t
	s.mu.Unlock()
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
