// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

//go:build darwin

package surfacebridge

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	pthreadThreadIDNP func(thread uintptr, id *uint64) int32

	libSystemOnce sync.Once
	libSystemErr  error
)

func loadLibSystem() error {
	libSystemOnce.Do(func() {
		lib, err := purego.Dlopen("/usr/lib/libSystem.B.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			libSystemErr = fmt.Errorf("failed to load libSystem: %w", err)
			return
		}
		purego.RegisterLibFunc(&pthreadThreadIDNP, lib, "pthread_threadid_np")
	})
	return libSystemErr
}

func currentThreadID() (uint64, error) {
	if err := loadLibSystem(); err != nil {
		return 0, err
	}
	var id uint64
	// A zero thread means the calling thread.
	if rc := pthreadThreadIDNP(0, &id); rc != 0 {
		return 0, fmt.Errorf("pthread_threadid_np failed with code %d", rc)
	}
	return id, nil
}
