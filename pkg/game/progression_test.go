package game

import (
	"testing"
	"time"

	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/event"
)

type recordedEvents struct {
	events []event.Event
}

func (r *recordedEvents) OnEvent(e event.Event) {
	r.events = append(r.events, e)
}

func newTestProgression(divisor int) (*Progression, *recordedEvents) {
	cfg := config.DefaultGameConfig()
	cfg.Progression.LevelDivisor = divisor
	d := event.NewDispatcher()
	rec := &recordedEvents{}
	d.Subscribe(event.LevelChanged, rec)
	d.Subscribe(event.FinalLevelReached, rec)
	return NewProgression(cfg, d), rec
}

func TestLevelUpsAtMultiplesOfDivisor(t *testing.T) {
	p, rec := newTestProgression(10)

	var upAt []int
	for i := 1; i <= 30; i++ {
		res := p.ApplyTap()
		if res.NewScore != i {
			t.Fatalf("tap %d: score got %d, want %d", i, res.NewScore, i)
		}
		if res.LeveledUp {
			upAt = append(upAt, i)
		}
	}

	want := []int{10, 20, 30}
	if len(upAt) != len(want) {
		t.Fatalf("level ups: got %v, want %v", upAt, want)
	}
	for i := range want {
		if upAt[i] != want[i] {
			t.Errorf("level up %d: got tap %d, want %d", i, upAt[i], want[i])
		}
	}
	if p.Level() != 4 {
		t.Errorf("Level: got %d, want 4", p.Level())
	}
	if len(rec.events) != 3 {
		t.Fatalf("events: got %d, want 3", len(rec.events))
	}
	last := rec.events[2].Data.(event.LevelChange)
	if last.From != 3 || last.To != 4 || !last.Up {
		t.Errorf("last event: got %+v, want 3->4 up", last)
	}
}

func TestEnemyHitClampsScoreWithoutLevelDown(t *testing.T) {
	p, rec := newTestProgression(10)
	for i := 0; i < 3; i++ {
		p.ApplyTap()
	}

	res := p.ApplyEnemyHit()
	if res.NewScore != 0 {
		t.Errorf("score: got %d, want 0", res.NewScore)
	}
	if res.LeveledDown {
		t.Error("LeveledDown: got true at level 1")
	}
	if len(rec.events) != 0 {
		t.Errorf("events: got %d, want 0", len(rec.events))
	}
}

func TestEnemyHitLevelsDown(t *testing.T) {
	tests := []struct {
		name      string
		taps      int
		wantScore int
		wantLevel int
		wantDown  bool
	}{
		{"crosses boundary", 12, 7, 1, true},
		{"stays in level", 18, 13, 2, false},
		{"exactly on boundary", 20, 15, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := newTestProgression(10)
			for i := 0; i < tt.taps; i++ {
				p.ApplyTap()
			}
			before := len(rec.events)

			res := p.ApplyEnemyHit()
			if res.NewScore != tt.wantScore || res.NewLevel != tt.wantLevel || res.LeveledDown != tt.wantDown {
				t.Errorf("got %+v, want score %d level %d down %v", res, tt.wantScore, tt.wantLevel, tt.wantDown)
			}
			emitted := len(rec.events) - before
			if tt.wantDown && emitted != 1 {
				t.Errorf("events: got %d, want 1", emitted)
			}
			if !tt.wantDown && emitted != 0 {
				t.Errorf("events: got %d, want 0", emitted)
			}
		})
	}
}

func TestFinalLevelDeactivates(t *testing.T) {
	p, rec := newTestProgression(10)
	for i := 0; i < 79; i++ {
		p.ApplyTap()
	}
	if !p.IsGameActive() {
		t.Fatal("game inactive before final level")
	}

	res := p.ApplyTap()
	if !res.LeveledUp || res.NewLevel != 9 {
		t.Errorf("tap 80: got %+v, want level up to 9", res)
	}
	if p.IsGameActive() {
		t.Error("IsGameActive: got true after level 9")
	}
	lastEvent := rec.events[len(rec.events)-1]
	if lastEvent.Type != event.FinalLevelReached {
		t.Errorf("last event: got %s, want %s", lastEvent.Type, event.FinalLevelReached)
	}

	// 冻结后两个操作都是空操作
	count := len(rec.events)
	if res := p.ApplyTap(); res.NewScore != 80 || res.LeveledUp {
		t.Errorf("tap after final: got %+v", res)
	}
	if res := p.ApplyEnemyHit(); res.NewScore != 80 || res.LeveledDown {
		t.Errorf("hit after final: got %+v", res)
	}
	if len(rec.events) != count {
		t.Errorf("events after final: got %d, want %d", len(rec.events), count)
	}
}

func TestProgressionSpawnInterval(t *testing.T) {
	p, _ := newTestProgression(10)
	if got := p.SpawnInterval(); got != 10*time.Second {
		t.Errorf("level 1: got %v, want 10s", got)
	}
	for i := 0; i < 40; i++ {
		p.ApplyTap()
	}
	if got := p.SpawnInterval(); got < 8140*time.Millisecond || got > 8150*time.Millisecond {
		t.Errorf("level 5: got %v, want ~8145ms", got)
	}
	if p.LevelIndex() != 4 {
		t.Errorf("LevelIndex: got %d, want 4", p.LevelIndex())
	}
}
