// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

// Renderer is the contract exported by the rendering module. NativeRenderer
// binds it to a shared library; in-process renderers implement it directly.
type Renderer interface {
	// HelloWorld is the liveness probe.
	HelloWorld()

	// SendSwapChainPanel hands over a surface with no callback. The renderer
	// attaches to it before returning.
	SendSwapChainPanel(surface uintptr) Status

	// SendVisual hands over a surface and the token through which the
	// renderer reports the swap chain it creates. It returns once the request
	// is accepted; the token is invoked later, on any thread.
	SendVisual(surface uintptr, token CallbackToken) Status

	// ReleaseSurface drops any reference the renderer holds on surface.
	ReleaseSurface(surface uintptr)
}

// CallbackToken is what the host lends the renderer at attach time. Native
// renderers receive the package trampoline plus Context; in-process renderers
// call Invoke.
type CallbackToken struct {
	// Context is the opaque cookie identifying the session.
	Context uintptr
}

// Invoke delivers swapChain for panel. It is safe to call from any goroutine.
func (t CallbackToken) Invoke(panel, swapChain uintptr) Status {
	return callbacks.deliver(t.Context, panel, swapChain)
}

// IsZero reports whether the token identifies no session.
func (t CallbackToken) IsZero() bool { return t.Context == 0 }
