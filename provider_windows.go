// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

//go:build windows

package surfacebridge

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// IID of ISwapChainPanelNative from microsoft.ui.xaml.media.dxinterop.h.
var iidSwapChainPanelNative = windows.GUID{
	Data1: 0x63aad0b8,
	Data2: 0x7c24,
	Data3: 0x40ff,
	Data4: [8]byte{0x85, 0xa8, 0x64, 0x0d, 0x94, 0x4c, 0xc3, 0x25},
}

// swapChainPanelNativeVtbl is IUnknown followed by SetSwapChain.
type swapChainPanelNativeVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
	SetSwapChain   uintptr
}

type comObject struct {
	vtbl *swapChainPanelNativeVtbl
}

// vtblOf reads the vtable of a COM interface pointer. The object is owned by
// COM, not the Go heap, so vet's unsafe.Pointer warning here is expected.
func vtblOf(ptr uintptr) *swapChainPanelNativeVtbl {
	return (*comObject)(unsafe.Pointer(ptr)).vtbl
}

// PanelProvider queries a WinUI SwapChainPanel (its IInspectable pointer) for
// ISwapChainPanelNative. QueryInterface returns an AddRef'd interface, which
// the provider releases when the surface goes away.
type PanelProvider struct{}

// NewPlatformProvider returns the provider for the build platform.
func NewPlatformProvider() SurfaceProvider {
	return &PanelProvider{}
}

func (p *PanelProvider) AcquireCompositionInterface(obj CompositionObject) (uintptr, error) {
	inspectable := nativePointer(obj)
	if inspectable == 0 {
		return 0, ErrNullHandle
	}
	var native uintptr
	hr, _, _ := syscall.SyscallN(vtblOf(inspectable).QueryInterface,
		inspectable,
		uintptr(unsafe.Pointer(&iidSwapChainPanelNative)),
		uintptr(unsafe.Pointer(&native)))
	if int32(hr) < 0 || native == 0 {
		return 0, fmt.Errorf("%w: QueryInterface(ISwapChainPanelNative) hr=%#x", ErrUnsupportedSurface, uint32(hr))
	}
	return native, nil
}

func (p *PanelProvider) SetSwapChain(surface SurfaceHandle, swapChain SwapChainHandle) error {
	hr, _, _ := syscall.SyscallN(vtblOf(surface.Addr()).SetSwapChain, surface.Addr(), swapChain.Addr())
	if int32(hr) < 0 {
		return fmt.Errorf("ISwapChainPanelNative::SetSwapChain hr=%#x", uint32(hr))
	}
	return nil
}

func (p *PanelProvider) ReleaseCompositionInterface(surface SurfaceHandle) {
	if surface.IsNull() {
		return
	}
	syscall.SyscallN(vtblOf(surface.Addr()).Release, surface.Addr())
}
