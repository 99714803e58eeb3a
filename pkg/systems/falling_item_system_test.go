package systems

import (
	"testing"
	"time"

	"github.com/decker502/lovetap/pkg/clock"
	"github.com/decker502/lovetap/pkg/components"
	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/ecs"
	"github.com/decker502/lovetap/pkg/event"
	"github.com/decker502/lovetap/pkg/utils"
)

// testWorld 系统测试共用的调度器、实体管理器和事件记录
type testWorld struct {
	sched      *clock.Scheduler
	em         *ecs.EntityManager
	cfg        *config.GameConfig
	rng        *utils.Random
	dispatcher *event.Dispatcher
	events     []event.Event
}

func newTestWorld() *testWorld {
	w := &testWorld{
		sched:      clock.NewScheduler(),
		em:         ecs.NewEntityManager(),
		cfg:        config.DefaultGameConfig(),
		rng:        utils.NewRandom(42),
		dispatcher: event.NewDispatcher(),
	}
	record := event.ListenerFunc(func(e event.Event) { w.events = append(w.events, e) })
	w.dispatcher.Subscribe(event.PhotoRevealed, record)
	w.dispatcher.Subscribe(event.EnemyResolved, record)
	return w
}

func (w *testWorld) eventsOf(t event.Type) []event.Event {
	var out []event.Event
	for _, e := range w.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func kindsOf(em *ecs.EntityManager, ids []ecs.EntityID) []components.ItemKind {
	kinds := make([]components.ItemKind, 0, len(ids))
	for _, id := range ids {
		item, _ := ecs.GetComponent[*components.FallingItemComponent](em, id)
		kinds = append(kinds, item.Kind)
	}
	return kinds
}

func TestOnTapTriggersAreIndependent(t *testing.T) {
	tests := []struct {
		score int
		want  []components.ItemKind
	}{
		{1, []components.ItemKind{components.ItemHeart}},
		{3, []components.ItemKind{components.ItemHeart, components.ItemKiss}},
		{10, []components.ItemKind{components.ItemHeart, components.ItemPhoto}},
		{30, []components.ItemKind{components.ItemHeart, components.ItemKiss, components.ItemPhoto}},
	}
	for _, tt := range tests {
		w := newTestWorld()
		s := NewFallingItemSystem(w.em, w.sched, w.cfg, w.rng, w.dispatcher, 58, 15)
		got := kindsOf(w.em, s.OnTap(tt.score))
		if len(got) != len(tt.want) {
			t.Errorf("OnTap(%d): got %v, want %v", tt.score, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("OnTap(%d)[%d]: got %v, want %v", tt.score, i, got[i], tt.want[i])
			}
		}
	}
}

func TestHeartVariantToggles(t *testing.T) {
	w := newTestWorld()
	s := NewFallingItemSystem(w.em, w.sched, w.cfg, w.rng, w.dispatcher, 58, 15)

	for i, want := range []int{0, 1, 0, 1} {
		id := s.OnTap(i + 1)[0]
		heart, _ := ecs.GetComponent[*components.FallingItemComponent](w.em, id)
		if heart.Variant != want {
			t.Errorf("tap %d variant: got %d, want %d", i+1, heart.Variant, want)
		}
	}
}

func TestSpawnPositions(t *testing.T) {
	w := newTestWorld()
	s := NewFallingItemSystem(w.em, w.sched, w.cfg, w.rng, w.dispatcher, 58, 15)

	for score := 1; score <= 30; score++ {
		s.OnTap(score)
	}
	for _, item := range s.Items() {
		if item.X < 0 || item.X >= float64(w.cfg.Screen.Width) {
			t.Errorf("item %d x: got %v, outside screen", item.ID, item.X)
		}
		wantY := w.cfg.Items.SpawnY
		if item.Kind == components.ItemPhoto {
			wantY = w.cfg.Items.PhotoSpawnY
		}
		if item.Y != wantY {
			t.Errorf("item %d (%v) y: got %v, want %v", item.ID, item.Kind, item.Y, wantY)
		}
	}
}

func TestPhotoSpawnEmitsReveal(t *testing.T) {
	w := newTestWorld()
	s := NewFallingItemSystem(w.em, w.sched, w.cfg, w.rng, w.dispatcher, 58, 15)

	for i := 0; i < 50; i++ {
		s.Spawn(components.ItemPhoto, 0, 0)
	}
	reveals := w.eventsOf(event.PhotoRevealed)
	if len(reveals) != 50 {
		t.Fatalf("reveals: got %d, want 50", len(reveals))
	}
	for _, e := range reveals {
		r := e.Data.(event.PhotoReveal)
		if r.PhotoIndex < 0 || r.PhotoIndex >= 58 {
			t.Errorf("photo index out of range: %d", r.PhotoIndex)
		}
		if r.VoiceIndex < 0 || r.VoiceIndex >= 15 {
			t.Errorf("voice index out of range: %d", r.VoiceIndex)
		}
		item, _ := ecs.GetComponent[*components.FallingItemComponent](w.em, r.Entity)
		if item.PhotoIndex != r.PhotoIndex {
			t.Errorf("event photo %d does not match entity photo %d", r.PhotoIndex, item.PhotoIndex)
		}
	}
}

func TestItemsRemovedAfterLifetime(t *testing.T) {
	w := newTestWorld()
	s := NewFallingItemSystem(w.em, w.sched, w.cfg, w.rng, w.dispatcher, 58, 15)

	first := s.OnTap(1)
	w.sched.Advance(time.Second)
	second := s.OnTap(2)

	w.sched.Advance(4 * time.Second)
	w.em.RemoveMarkedEntities()
	if w.em.Exists(first[0]) {
		t.Error("first heart should be removed at 5000ms")
	}
	if !w.em.Exists(second[0]) {
		t.Error("second heart removed early")
	}
	if got := len(s.Items()); got != 1 {
		t.Errorf("items: got %d, want 1", got)
	}
	if got := s.Items()[0].Progress; got != 0.8 {
		t.Errorf("Progress: got %v, want 0.8", got)
	}

	w.sched.Advance(time.Second)
	w.em.RemoveMarkedEntities()
	if got := len(s.Items()); got != 0 {
		t.Errorf("items after all expired: got %d, want 0", got)
	}
}
