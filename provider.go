// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

// CompositionObject is the UI toolkit object that owns the on-screen area the
// renderer draws into (an NSView, a SwapChainPanel, a window). The UI shell
// owns it; the bridge only borrows its native pointer.
type CompositionObject interface {
	// NativePointer returns the toolkit's raw object pointer, zero once the
	// object has been torn down.
	NativePointer() uintptr
}

// SurfaceProvider turns a composition object into the pointer handed to the
// renderer and performs the final swap chain attachment. The bridge only
// calls it on the UI thread.
type SurfaceProvider interface {
	// AcquireCompositionInterface returns the interop pointer for obj. It
	// fails with ErrNullHandle when obj is absent and ErrUnsupportedSurface
	// when obj lacks the native interop interface.
	AcquireCompositionInterface(obj CompositionObject) (uintptr, error)

	// SetSwapChain displays swapChain on surface.
	SetSwapChain(surface SurfaceHandle, swapChain SwapChainHandle) error

	// ReleaseCompositionInterface drops the reference taken by
	// AcquireCompositionInterface.
	ReleaseCompositionInterface(surface SurfaceHandle)
}

// PointerObject adapts a raw native pointer to CompositionObject.
type PointerObject uintptr

func (p PointerObject) NativePointer() uintptr { return uintptr(p) }

func nativePointer(obj CompositionObject) uintptr {
	if obj == nil {
		return 0
	}
	return obj.NativePointer()
}
