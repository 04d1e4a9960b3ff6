// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

//go:build linux || darwin

package surfacebridge

// ViewProvider serves toolkits that expose the native view pointer directly
// (an NSView* on AppKit, a window id on X11). The handle is that pointer.
type ViewProvider struct {
	// OnSwapChain is called on the UI thread when a swap chain is delivered.
	// On AppKit the renderer installs its own CAMetalLayer on the view, so
	// nothing is required here; hosts use it to track the presentation target.
	OnSwapChain func(view, swapChain uintptr) error
}

// NewPlatformProvider returns the provider for the build platform.
func NewPlatformProvider() SurfaceProvider {
	return &ViewProvider{}
}

func (p *ViewProvider) AcquireCompositionInterface(obj CompositionObject) (uintptr, error) {
	ptr := nativePointer(obj)
	if ptr == 0 {
		return 0, ErrNullHandle
	}
	return ptr, nil
}

func (p *ViewProvider) SetSwapChain(surface SurfaceHandle, swapChain SwapChainHandle) error {
	if p.OnSwapChain == nil {
		return nil
	}
	return p.OnSwapChain(surface.Addr(), swapChain.Addr())
}

func (p *ViewProvider) ReleaseCompositionInterface(SurfaceHandle) {}
