// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import "github.com/sirupsen/logrus"

// Shim crosses the ABI boundary. It validates arguments before the call,
// converts status codes into errors after it, and keeps Go panics raised by
// in-process renderers from propagating. It holds no state of its own.
type Shim struct {
	renderer Renderer
	log      *logrus.Entry
}

// NewShim wraps r.
func NewShim(r Renderer, log *logrus.Entry) *Shim {
	if log == nil {
		log = bridgeLog
	}
	return &Shim{renderer: r, log: log}
}

// Probe calls hello_world.
func (s *Shim) Probe() (err error) {
	defer s.recoverInto(symHelloWorld, &err)
	s.renderer.HelloWorld()
	return nil
}

// Attach hands surface and token to send_visual. The surface is only
// guaranteed valid for the duration of the call.
func (s *Shim) Attach(surface SurfaceHandle, token CallbackToken) (err error) {
	if surface.IsNull() {
		return &BridgeError{Op: symSendVisual, Err: ErrNullHandle}
	}
	if token.IsZero() {
		return &BridgeError{Op: symSendVisual, Surface: surface.Addr(), Err: ErrNullHandle}
	}
	defer s.recoverInto(symSendVisual, &err)
	st := s.renderer.SendVisual(surface.Addr(), token)
	s.log.WithFields(logrus.Fields{"surface": surface.String(), "status": st.String()}).Debug(symSendVisual)
	return statusError(symSendVisual, st)
}

// AttachSync hands surface to send_swap_chain_panel, which attaches before
// returning.
func (s *Shim) AttachSync(surface SurfaceHandle) (err error) {
	if surface.IsNull() {
		return &BridgeError{Op: symSendSwapChainPanel, Err: ErrNullHandle}
	}
	defer s.recoverInto(symSendSwapChainPanel, &err)
	st := s.renderer.SendSwapChainPanel(surface.Addr())
	s.log.WithFields(logrus.Fields{"surface": surface.String(), "status": st.String()}).Debug(symSendSwapChainPanel)
	return statusError(symSendSwapChainPanel, st)
}

// Release tells the renderer to drop its reference to surface.
func (s *Shim) Release(surface SurfaceHandle) (err error) {
	if surface.IsNull() {
		return nil
	}
	defer s.recoverInto(symReleaseSurface, &err)
	s.renderer.ReleaseSurface(surface.Addr())
	return nil
}

func (s *Shim) recoverInto(symbol string, err *error) {
	if r := recover(); r != nil {
		s.log.WithFields(logrus.Fields{"symbol": symbol, "panic": r}).Error("renderer panicked")
		*err = &RendererError{Symbol: symbol, Status: StatusUnspecified}
	}
}
