// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

//go:build windows

package surfacebridge

import "golang.org/x/sys/windows"

func currentThreadID() (uint64, error) {
	return uint64(windows.GetCurrentThreadId()), nil
}
