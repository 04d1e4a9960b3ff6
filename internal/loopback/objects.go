// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package loopback

import "sync"

// Go objects cannot cross the ABI boundary as pointers, so panels and swap
// chains are published under stable integer addresses.
var (
	objectsMu sync.RWMutex
	objects   = make(map[uintptr]any)
)

var nextObject = uintptr(0x10000)

const objectStride = 0x10

func registerObject(v any) uintptr {
	objectsMu.Lock()
	defer objectsMu.Unlock()
	nextObject += objectStride
	objects[nextObject] = v
	return nextObject
}

func lookupObject(addr uintptr) any {
	objectsMu.RLock()
	defer objectsMu.RUnlock()
	return objects[addr]
}

func unregisterObject(addr uintptr) {
	objectsMu.Lock()
	defer objectsMu.Unlock()
	delete(objects, addr)
}

func lookupPanel(addr uintptr) (*Panel, bool) {
	p, ok := lookupObject(addr).(*Panel)
	return p, ok
}

func lookupSwapChain(addr uintptr) (*SwapChain, bool) {
	c, ok := lookupObject(addr).(*SwapChain)
	return c, ok
}
