// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package surfacebridge

import (
	"fmt"
	"path/filepath"

	"github.com/ebitengine/purego"
)

// Exported symbol names of the renderer module.
const (
	symHelloWorld         = "hello_world"
	symSendSwapChainPanel = "send_swap_chain_panel"
	symSendVisual         = "send_visual"
	symSendVisualCtx      = "send_visual_ctx"
	symReleaseSurface     = "release_surface"
)

const rendererBaseName = "cappy3ds_render"

// NativeRenderer is a Renderer backed by a shared library loaded at runtime.
type NativeRenderer struct {
	path   string
	handle uintptr

	helloWorld         func()
	sendSwapChainPanel func(surface uintptr) int32
	sendVisual         func(surface, callback uintptr) int32

	// ABI v2, optional.
	sendVisualCtx  func(surface, callback, ctx uintptr) int32
	releaseSurface func(surface uintptr)
}

// LoadRenderer loads the renderer library from opts.BaseDir, binds its entry
// points and runs the hello_world liveness probe.
func LoadRenderer(opts *Options) (*NativeRenderer, error) {
	baseDir, library := resolveOpts(opts)
	libPath := filepath.Join(baseDir, library)
	absPath, err := filepath.Abs(libPath)
	if err != nil {
		absPath = libPath
	}
	return loadRendererPath(absPath)
}

func loadRendererPath(path string) (*NativeRenderer, error) {
	handle, err := openLibrary(path)
	if err != nil {
		return nil, err
	}
	r := &NativeRenderer{path: path, handle: handle}
	if err := r.resolveSymbols(); err != nil {
		return nil, err
	}
	r.HelloWorld()
	bridgeLog.WithField("path", path).WithField("abi", r.ABIVersion()).Debug("renderer loaded")
	return r, nil
}

func (r *NativeRenderer) resolveSymbols() error {
	for _, reg := range []struct {
		fptr interface{}
		name string
	}{
		{&r.helloWorld, symHelloWorld},
		{&r.sendSwapChainPanel, symSendSwapChainPanel},
		{&r.sendVisual, symSendVisual},
	} {
		if err := registerSymbol(reg.fptr, r.handle, reg.name); err != nil {
			return fmt.Errorf("%s: %w (rebuild %s)", reg.name, err, filepath.Base(r.path))
		}
	}
	for _, reg := range []struct {
		fptr interface{}
		name string
	}{
		{&r.sendVisualCtx, symSendVisualCtx},
		{&r.releaseSurface, symReleaseSurface},
	} {
		if err := registerSymbol(reg.fptr, r.handle, reg.name); err != nil {
			bridgeLog.WithField("symbol", reg.name).Debug("optional renderer symbol missing")
		}
	}
	return nil
}

func registerSymbol(fptr interface{}, handle uintptr, name string) error {
	sym, err := getSymbolAddr(handle, name)
	if err != nil {
		return err
	}
	purego.RegisterFunc(fptr, sym)
	return nil
}

// Path returns the absolute path the library was loaded from.
func (r *NativeRenderer) Path() string { return r.path }

// ABIVersion returns 2 when the library exports the context-carrying
// send_visual_ctx entry point, 1 otherwise.
func (r *NativeRenderer) ABIVersion() int {
	if r.sendVisualCtx != nil {
		return 2
	}
	return 1
}

func (r *NativeRenderer) HelloWorld() {
	r.helloWorld()
}

func (r *NativeRenderer) SendSwapChainPanel(surface uintptr) Status {
	return Status(r.sendSwapChainPanel(surface))
}

func (r *NativeRenderer) SendVisual(surface uintptr, token CallbackToken) Status {
	v1, v2 := trampolines()
	if r.sendVisualCtx != nil {
		return Status(r.sendVisualCtx(surface, v2, token.Context))
	}
	return Status(r.sendVisual(surface, v1))
}

func (r *NativeRenderer) ReleaseSurface(surface uintptr) {
	if r.releaseSurface == nil {
		bridgeLog.WithField("surface", fmt.Sprintf("%#x", surface)).Debug("renderer has no release_surface")
		return
	}
	r.releaseSurface(surface)
}
