// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to test for them; most are returned wrapped
// in a *BridgeError that records the operation and surface.
var (
	// ErrNullHandle is returned when a surface is absent, zero or has already
	// been freed.
	ErrNullHandle = errors.New("surfacebridge: null or freed surface handle")

	// ErrUnsupportedSurface is returned when the composition object does not
	// expose the native interop interface.
	ErrUnsupportedSurface = errors.New("surfacebridge: surface does not support native interop")

	// ErrDoubleAttach is returned when a session is already live for the surface.
	ErrDoubleAttach = errors.New("surfacebridge: surface already has a live session")

	// ErrThreadAffinity is returned when a UI-bound operation runs off the UI thread.
	ErrThreadAffinity = errors.New("surfacebridge: called off the UI thread")

	// ErrAttachTimeout is recorded when the renderer never delivered a swap chain.
	ErrAttachTimeout = errors.New("surfacebridge: timed out waiting for swap chain")

	// ErrRendererInit matches every *RendererError.
	ErrRendererInit = errors.New("surfacebridge: renderer initialization failed")

	// ErrSurfaceDestroyed is recorded on a pending session whose surface was
	// destroyed before the swap chain arrived.
	ErrSurfaceDestroyed = errors.New("surfacebridge: surface destroyed")

	// ErrLoopClosed is returned when posting to a loop that has stopped.
	ErrLoopClosed = errors.New("surfacebridge: ui loop closed")
)

// BridgeError records a failed bridge operation.
type BridgeError struct {
	// Op is the operation that failed (e.g. "Bridge.Attach").
	Op string
	// Surface is the raw surface address, zero if none was acquired.
	Surface uintptr
	// Err is the underlying error.
	Err error
}

func (e *BridgeError) Error() string {
	if e.Surface != 0 {
		return fmt.Sprintf("%s surface=%#x: %v", e.Op, e.Surface, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BridgeError) Unwrap() error {
	return e.Err
}

// RendererError is a non-OK status reported by the native renderer.
type RendererError struct {
	// Symbol is the entry point that returned the status.
	Symbol string
	Status Status
}

func (e *RendererError) Error() string {
	return fmt.Sprintf("%s failed: %s (code %d)", e.Symbol, e.Status, int32(e.Status))
}

func (e *RendererError) Is(target error) bool {
	return target == ErrRendererInit
}
