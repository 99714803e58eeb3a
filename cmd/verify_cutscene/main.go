// Package main provides a cutscene and boss phase verification tool.
//
// The tool runs a real session with a level divisor of 1 and taps the heart
// automatically, so the final level cutscene starts within a few seconds.
// With --auto the boss phase is also played automatically: the pointer is
// held until the meter is full, then the finish is fired.
//
// Usage:
//
//	go run ./cmd/verify_cutscene [flags]
//
// Flags:
//
//	--seed <n>     Random seed (default: 1)
//	--speed <x>    Time scale (default: 1)
//	--auto         Play the boss phase automatically
//	--verbose      Enable verbose logging
//
// Controls:
//
//	Mouse/Touch  - Normal game input
//	P            - Pause / resume
//	R            - Restart session
//	Q            - Quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/decker502/lovetap/pkg/app"
	"github.com/decker502/lovetap/pkg/game"
	"github.com/decker502/lovetap/pkg/session"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const autoTapInterval = 300 * time.Millisecond

var (
	seedFlag    = flag.Int64("seed", 1, "Random seed")
	speedFlag   = flag.Float64("speed", 1, "Time scale")
	autoFlag    = flag.Bool("auto", false, "Play the boss phase automatically")
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging")
)

var errQuit = errors.New("quit")

// CutsceneVerifyGame implements ebiten.Game for cutscene verification
type CutsceneVerifyGame struct {
	configs app.Configs
	rm      *game.ResourceManager
	backend *game.EbitenAudioBackend
	view    *app.View

	session *session.Session
	paused  bool
	lastTap time.Duration
	holding bool

	// Mode timeline, printed in the overlay
	entered map[session.Mode]time.Duration
}

// NewCutsceneVerifyGame creates the verifier and starts the first session
func NewCutsceneVerifyGame() (*CutsceneVerifyGame, error) {
	configs := app.LoadConfigs()
	configs.Game.Progression.LevelDivisor = 1

	rm := game.NewResourceManager(audio.NewContext(48000))
	g := &CutsceneVerifyGame{
		configs: configs,
		rm:      rm,
		backend: game.NewEbitenAudioBackend(rm),
		view:    app.NewView(rm, configs.Game, configs.Assets),
	}
	if err := g.restart(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *CutsceneVerifyGame) restart() error {
	if g.session != nil {
		g.session.Close()
	}

	s, err := session.New(session.Options{
		Config:       g.configs.Game,
		Assets:       g.configs.Assets,
		AudioCatalog: g.configs.Audio,
		Backend:      g.backend,
		Seed:         *seedFlag,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if err := s.Start(context.Background()); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	g.session = s
	g.lastTap = 0
	g.holding = false
	g.entered = map[session.Mode]time.Duration{session.ModeLoading: 0}
	log.Printf("[Verify] Session restarted (seed %d)", *seedFlag)
	return nil
}

// Update advances the session and applies automatic input
func (g *CutsceneVerifyGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return errQuit
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.restart(); err != nil {
			return err
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}

	g.backend.Update()
	if g.paused {
		return nil
	}

	s := g.session
	now := s.Now()
	switch s.Mode() {
	case session.ModePlaying:
		if now-g.lastTap >= autoTapInterval {
			s.Tap(session.TapEvent{Target: session.TargetHeart})
			g.lastTap = now
		}
	case session.ModeBossPhaseRunning:
		if *autoFlag {
			g.autoBoss()
		} else {
			g.forwardPointer()
		}
	}

	dt := time.Duration(float64(time.Second) / float64(ebiten.TPS()) * *speedFlag)
	s.Update(dt)

	if _, ok := g.entered[s.Mode()]; !ok {
		g.entered[s.Mode()] = s.Now()
		log.Printf("[Verify] %s at %s", s.Mode(), s.Now())
	}
	return nil
}

func (g *CutsceneVerifyGame) autoBoss() {
	s := g.session
	snap := s.Snapshot()
	if snap.Boss.Finishable {
		if g.holding {
			s.PointerUp()
			g.holding = false
		}
		s.Tap(session.TapEvent{Target: session.TargetFire})
		return
	}
	if !g.holding {
		w, h := g.configs.Game.Screen.Width, g.configs.Game.Screen.Height
		s.PointerDown(float64(w)/2, float64(h)-160)
		g.holding = true
	}
}

func (g *CutsceneVerifyGame) forwardPointer() {
	s := g.session
	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		snap := s.Snapshot()
		if snap.Boss.Finishable && s.Tap(session.TapEvent{Target: session.TargetFire}) {
			return
		}
		s.PointerDown(float64(x), float64(y))
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		s.PointerUp()
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		s.PointerMove(float64(x), float64(y))
	}
}

// Draw renders the session and the debug overlay
func (g *CutsceneVerifyGame) Draw(screen *ebiten.Image) {
	snap := g.session.Snapshot()
	g.view.Draw(screen, snap)

	debugText := fmt.Sprintf("Time: %s  Speed: %.1fx  Paused: %v\n", snap.Now.Truncate(time.Millisecond), *speedFlag, g.paused)
	debugText += fmt.Sprintf("Mode: %s  Score: %d  Level: %d\n", snap.Mode, snap.Score, snap.Level)
	if c := snap.Cutscene; c != nil {
		debugText += fmt.Sprintf("Cutscene: %s\n  heart %.2f  white %.2f  hole %.2f  red %.2f\n",
			c.Phase, c.HeartScale, c.WhiteOverlay, c.BlackHoleScale, c.RedOverlay)
	}
	if b := snap.Boss; b != nil {
		debugText += fmt.Sprintf("Boss: %s %s  meter %.1f  finishable %v\n  shots %d  stars %d\n",
			b.State, b.Phase, b.Meter, b.Finishable, len(b.Shots), len(b.Stars))
	}
	for m := session.ModeLoading; m <= session.ModeConclusion; m++ {
		if at, ok := g.entered[m]; ok {
			debugText += fmt.Sprintf("  %-20s %s\n", m, at.Truncate(time.Millisecond))
		}
	}
	debugText += "[P] Pause  [R] Restart  [Q] Quit"
	ebitenutil.DebugPrint(screen, debugText)
}

// Layout returns the logical screen size
func (g *CutsceneVerifyGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.configs.Game.Screen.Width, g.configs.Game.Screen.Height
}

func main() {
	flag.Parse()
	if !*verboseFlag {
		log.SetOutput(io.Discard)
	}

	g, err := NewCutsceneVerifyGame()
	if err != nil {
		log.Fatalf("Failed to create game: %v", err)
	}
	defer g.session.Close()

	ebiten.SetWindowSize(g.Layout(0, 0))
	ebiten.SetWindowTitle("Cutscene Verifier")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, errQuit) {
		log.Fatalf("Game error: %v", err)
	}
}
