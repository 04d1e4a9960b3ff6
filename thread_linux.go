// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

//go:build linux

package surfacebridge

import "golang.org/x/sys/unix"

func currentThreadID() (uint64, error) {
	return uint64(unix.Gettid()), nil
}
