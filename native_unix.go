// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

//go:build linux || darwin

package surfacebridge

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/ebitengine/purego"
)

func openLibrary(path string) (uintptr, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s from %s: %w", filepath.Base(path), filepath.Dir(path), err)
	}
	return handle, nil
}

func getSymbolAddr(handle uintptr, name string) (uintptr, error) {
	sym, err := purego.Dlsym(handle, name)
	if err != nil {
		return 0, err
	}
	return sym, nil
}

func rendererLibName() string {
	if runtime.GOOS == "darwin" {
		return "lib" + rendererBaseName + ".dylib"
	}
	return "lib" + rendererBaseName + ".so"
}
