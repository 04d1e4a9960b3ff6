// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

package loopback

import (
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
)

// SwapChain is a double-buffered presentation target sized to a panel.
type SwapChain struct {
	addr uintptr

	mu      sync.Mutex
	buffers [2]*image.RGBA
	front   int
	frames  uint64
}

func newSwapChain(width, height int) *SwapChain {
	c := &SwapChain{}
	for i := range c.buffers {
		c.buffers[i] = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	c.addr = registerObject(c)
	return c
}

// Addr returns the address the swap chain was published under.
func (c *SwapChain) Addr() uintptr { return c.addr }

// Bounds returns the buffer bounds.
func (c *SwapChain) Bounds() image.Rectangle { return c.buffers[0].Bounds() }

// Frames returns the number of presented frames.
func (c *SwapChain) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// CopyFront copies the front buffer into dst, which must have the same bounds.
func (c *SwapChain) CopyFront(dst *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(dst.Pix, c.buffers[c.front].Pix)
}

// present fills the back buffer and flips it to the front.
func (c *SwapChain) present(col color.Color) {
	c.mu.Lock()
	back := c.buffers[1-c.front]
	c.mu.Unlock()

	// Only the presenter touches the back buffer.
	draw.Draw(back, back.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)

	c.mu.Lock()
	c.front = 1 - c.front
	c.frames++
	c.mu.Unlock()
}

func (c *SwapChain) release() {
	unregisterObject(c.addr)
}
