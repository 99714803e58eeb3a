// Package main 提供无窗口的整局模拟工具
//
// 使用内存音频后端驱动一局完整游戏：按固定间隔点击主爱心直到最终关卡，
// 过场动画结束后按住拖动充能，充满后发射，直到结局画面淡出。
// 运行过程中打印会话事件和模式切换，用于验证关卡节奏和时间轴。
//
// Usage:
//
//	go run ./cmd/simulate [flags]
//
// Flags:
//
//	--seed <n>        随机种子（默认 1）
//	--divisor <n>     关卡除数（默认 10）
//	--tap-ms <ms>     两次点击间隔（默认 250）
//	--max <duration>  模拟时长上限（默认 30m）
//	--verbose         打印组件日志
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/event"
	"github.com/decker502/lovetap/pkg/game"
	"github.com/decker502/lovetap/pkg/session"
)

const frame = time.Second / 60

var (
	seedFlag    = flag.Int64("seed", 1, "Random seed")
	divisorFlag = flag.Int("divisor", 10, "Level divisor (taps per level)")
	tapFlag     = flag.Int("tap-ms", 250, "Milliseconds between heart taps")
	maxFlag     = flag.Duration("max", 30*time.Minute, "Simulated time limit")
	verboseFlag = flag.Bool("verbose", false, "Enable component logging")
)

func main() {
	flag.Parse()
	if !*verboseFlag {
		log.SetOutput(io.Discard)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.DefaultGameConfig()
	if *divisorFlag > 0 {
		cfg.Progression.LevelDivisor = *divisorFlag
	}

	backend := game.NewMemoryAudioBackend()
	s, err := session.New(session.Options{Config: cfg, Backend: backend, Seed: *seedFlag})
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		return err
	}
	if err := s.AwaitLoading(ctx); err != nil {
		return err
	}

	printEvents(s)

	var (
		tapEvery  = time.Duration(*tapFlag) * time.Millisecond
		lastTap   = -tapEvery
		mode      = s.Mode()
		holding   bool
		fired     bool
		fadeStart time.Duration
		taps      int
	)
	fmt.Printf("%10s  mode %s\n", s.Now(), mode)

	for s.Now() < *maxFlag {
		now := s.Now()

		switch s.Mode() {
		case session.ModePlaying:
			if now-lastTap >= tapEvery {
				s.Tap(session.TapEvent{Target: session.TargetHeart})
				lastTap = now
				taps++
			}
		case session.ModeBossPhaseRunning:
			snap := s.Snapshot()
			switch {
			case snap.Boss.Finishable && !fired:
				if holding {
					s.PointerUp()
					holding = false
				}
				fired = s.Tap(session.TapEvent{Target: session.TargetFire})
			case !holding && !fired:
				x, y := cfg.Screen.Width/2, cfg.Screen.Height-160
				s.PointerDown(float64(x), float64(y))
				holding = true
			}
		case session.ModeConclusion:
			if fadeStart == 0 {
				fadeStart = now
			}
			if now-fadeStart >= time.Duration(cfg.Boss.Finish.ConclusionMs)*time.Millisecond {
				fmt.Printf("%10s  conclusion faded, %d heart taps\n", now, taps)
				printAudioSummary(backend)
				return nil
			}
		}

		s.Update(frame)

		if m := s.Mode(); m != mode {
			mode = m
			snap := s.Snapshot()
			fmt.Printf("%10s  mode %s (score %d, level %d)\n", s.Now(), mode, snap.Score, snap.Level)
		}
	}
	return fmt.Errorf("time limit %s reached in mode %s", *maxFlag, s.Mode())
}

func printEvents(s *session.Session) {
	s.Subscribe(event.LevelChanged, event.ListenerFunc(func(e event.Event) {
		c := e.Data.(event.LevelChange)
		dir := "up"
		if !c.Up {
			dir = "down"
		}
		fmt.Printf("%10s  level %s %d -> %d (score %d)\n", s.Now(), dir, c.From, c.To, s.Snapshot().Score)
	}))
	s.Subscribe(event.FinalLevelReached, event.ListenerFunc(func(e event.Event) {
		c := e.Data.(event.LevelChange)
		fmt.Printf("%10s  final level %d\n", s.Now(), c.To)
	}))
	s.Subscribe(event.PhotoRevealed, event.ListenerFunc(func(e event.Event) {
		p := e.Data.(event.PhotoReveal)
		fmt.Printf("%10s  photo %d (voice %d)\n", s.Now(), p.PhotoIndex, p.VoiceIndex)
	}))
	s.Subscribe(event.EnemyResolved, event.ListenerFunc(func(e event.Event) {
		r := e.Data.(event.EnemyResolution)
		what := "destroyed"
		if r.Reached {
			what = "reached the heart"
		}
		fmt.Printf("%10s  enemy %d %s\n", s.Now(), r.Entity, what)
	}))
}

func printAudioSummary(b *game.MemoryAudioBackend) {
	counts := make(map[string]int)
	var order []string
	for _, c := range b.Calls() {
		if c.Op != "play" {
			continue
		}
		if counts[c.Key] == 0 {
			order = append(order, c.Key)
		}
		counts[c.Key]++
	}
	fmt.Println("audio plays:")
	for _, key := range order {
		fmt.Printf("  %-24s %d\n", key, counts[key])
	}
}
