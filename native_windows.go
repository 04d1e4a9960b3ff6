// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

//go:build windows

package surfacebridge

import (
	"fmt"
	"path/filepath"
	"syscall"
)

func openLibrary(path string) (uintptr, error) {
	lib, err := syscall.LoadLibrary(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s from %s: %w", filepath.Base(path), filepath.Dir(path), err)
	}
	return uintptr(lib), nil
}

func getSymbolAddr(handle uintptr, name string) (uintptr, error) {
	sym, err := syscall.GetProcAddress(syscall.Handle(handle), name)
	if err != nil {
		return 0, err
	}
	if sym == 0 {
		return 0, fmt.Errorf("symbol %q not found in DLL", name)
	}
	return sym, nil
}

func rendererLibName() string {
	return rendererBaseName + ".dll"
}
