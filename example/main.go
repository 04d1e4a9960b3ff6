// Copyright (c) 2026 Javier Podavini (YindSoft)
// Licensed under the MIT License. See LICENSE file in the project root.

// Preview host: an Ebiten window whose update goroutine is the UI thread. A
// loopback panel is attached through the bridge and the swap chain's front
// buffer is drawn every frame.
//
// Keys: D destroys the panel's session, A attaches again, S uses the
// synchronous entry point, F toggles a failing renderer.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/YindSoft/surfacebridge"
	"github.com/YindSoft/surfacebridge/internal/loopback"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/sirupsen/logrus"
)

const (
	screenWidth  = 800
	screenHeight = 600
	panelWidth   = 640
	panelHeight  = 480
	panelX       = 80
	panelY       = 80
)

type Game struct {
	loop     *surfacebridge.Loop
	unbind   func()
	renderer *loopback.Renderer
	bridge   *surfacebridge.Bridge
	panel    *loopback.Panel
	session  *surfacebridge.Session
	lastErr  error

	frame  *ebiten.Image
	pixels *image.RGBA
}

func newGame(opts *surfacebridge.Options) *Game {
	loop := surfacebridge.NewLoop()
	renderer := &loopback.Renderer{
		Delay:           300 * time.Millisecond,
		PresentInterval: 500 * time.Millisecond,
	}
	return &Game{
		loop:     loop,
		renderer: renderer,
		bridge:   surfacebridge.New(renderer, &loopback.Provider{Loop: loop}, loop, opts),
		panel:    loopback.NewPanel(panelWidth, panelHeight),
		frame:    ebiten.NewImage(panelWidth, panelHeight),
		pixels:   image.NewRGBA(image.Rect(0, 0, panelWidth, panelHeight)),
	}
}

func (g *Game) attach(sync bool) {
	if sync {
		g.session, g.lastErr = g.bridge.AttachSync(g.panel)
	} else {
		g.session, g.lastErr = g.bridge.Attach(g.panel)
	}
	if g.lastErr != nil {
		logrus.WithError(g.lastErr).Warn("attach failed")
	}
}

func (g *Game) Update() error {
	if g.unbind == nil {
		// Ebiten calls Update and Draw from one goroutine; pin it and make it
		// the bridge's UI thread.
		unbind, err := g.loop.Bind()
		if err != nil {
			return err
		}
		g.unbind = unbind
		g.attach(false)
	}
	if ebiten.IsWindowBeingClosed() {
		g.close()
		return ebiten.Termination
	}
	g.loop.Drain()

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		if err := g.bridge.Destroy(g.panel); err != nil {
			g.lastErr = err
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		g.attach(false)
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.attach(true)
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		g.renderer.FailInit = !g.renderer.FailInit
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{30, 30, 40, 255})

	if chain := g.panel.SwapChain(); chain != nil {
		chain.CopyFront(g.pixels)
		g.frame.WritePixels(g.pixels.Pix)
		opts := &ebiten.DrawImageOptions{}
		opts.GeoM.Translate(panelX, panelY)
		screen.DrawImage(g.frame, opts)
	}

	status := "no session"
	if g.session != nil {
		status = fmt.Sprintf("session %s  state=%s  swapchain=%#x",
			g.session.ID()[:8], g.session.State(), g.session.SwapChain().Addr())
		if err := g.session.Err(); err != nil {
			status += "\nsession error: " + err.Error()
		}
	}
	if g.lastErr != nil {
		status += "\nlast error: " + g.lastErr.Error()
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS: %.1f  fail-init=%v  [A]ttach [S]ync [D]estroy [F]ail\n%s",
		ebiten.ActualTPS(), g.renderer.FailInit, status))
}

func (g *Game) Layout(_, _ int) (int, int) {
	return screenWidth, screenHeight
}

func (g *Game) close() {
	if err := g.bridge.Close(); err != nil {
		logrus.WithError(err).Warn("closing bridge")
	}
	g.panel.Close()
	g.unbind()
}

func main() {
	configPath := flag.String("config", "", "YAML options file")
	flag.Parse()

	opts := &surfacebridge.Options{Debug: true}
	if *configPath != "" {
		loaded, err := surfacebridge.LoadOptions(*configPath)
		if err != nil {
			logrus.Fatalf("options: %v", err)
		}
		opts = loaded
	}

	game := newGame(opts)

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("surfacebridge - loopback preview")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	ebiten.SetWindowClosingHandled(true)

	if err := ebiten.RunGame(game); err != nil {
		logrus.Errorf("run: %v", err)
		os.Exit(1)
	}
}
