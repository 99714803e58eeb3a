package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/game"
	"github.com/decker502/lovetap/pkg/systems"
)

const frame = 100 * time.Millisecond

// newTestSession 创建并加载完成一局游戏；关卡除数为 10，方便快速升级
func newTestSession(t *testing.T) (*Session, *game.MemoryAudioBackend) {
	t.Helper()
	cfg := config.DefaultGameConfig()
	cfg.Progression.LevelDivisor = 10

	backend := game.NewMemoryAudioBackend()
	s, err := New(Options{Config: cfg, Backend: backend, Seed: 42})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.AwaitLoading(context.Background()); err != nil {
		t.Fatalf("AwaitLoading: %v", err)
	}
	t.Cleanup(s.Close)
	return s, backend
}

// tapHeart 点击 n 次主爱心，每次等待防抖结束
func tapHeart(s *Session, n int) {
	for i := 0; i < n; i++ {
		s.Tap(TapEvent{Target: TargetHeart})
		s.Update(frame)
	}
}

func playsWithPrefix(backend *game.MemoryAudioBackend, prefix string) int {
	n := 0
	for _, c := range backend.Calls() {
		if c.Op == "play" && strings.HasPrefix(c.Key, prefix) {
			n++
		}
	}
	return n
}

func TestNewRequiresBackend(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("New without backend: got nil error")
	}
}

func TestLoadingThenPlaying(t *testing.T) {
	backend := game.NewMemoryAudioBackend()
	s, err := New(Options{Backend: backend, Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if got := s.Snapshot().Mode; got != ModeLoading {
		t.Fatalf("initial mode: got %s, want Loading", got)
	}
	if s.Tap(TapEvent{Target: TargetHeart}) {
		t.Error("heart tap accepted while loading")
	}
	if s.Tap(TapEvent{Target: TargetMute}) {
		t.Error("mute tap accepted while loading")
	}
	if err := s.AwaitLoading(context.Background()); err == nil {
		t.Error("AwaitLoading before Start: got nil error")
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start: got nil error")
	}
	if err := s.AwaitLoading(context.Background()); err != nil {
		t.Fatalf("AwaitLoading: %v", err)
	}

	snap := s.Snapshot()
	if snap.Mode != ModePlaying {
		t.Errorf("mode after loading: got %s, want Playing", snap.Mode)
	}
	if snap.Score != 0 || snap.Level != 1 {
		t.Errorf("initial progress: got score %d level %d, want 0/1", snap.Score, snap.Level)
	}
	if snap.SpawnInterval != 10*time.Second {
		t.Errorf("SpawnInterval: got %v, want 10s", snap.SpawnInterval)
	}

	playing := backend.Playing()
	if !playing["ambience/0"] {
		t.Error("ambience/0 not playing")
	}
	bgm := 0
	for key := range playing {
		if strings.HasPrefix(key, "bgm/") {
			bgm++
		}
	}
	if bgm != 1 {
		t.Errorf("playing bgm tracks: got %d, want 1", bgm)
	}
}

func TestHeartTapIsDebounced(t *testing.T) {
	s, _ := newTestSession(t)

	s.Tap(TapEvent{Target: TargetHeart})
	s.Update(50 * time.Millisecond)
	s.Tap(TapEvent{Target: TargetHeart})
	s.Update(99 * time.Millisecond)
	if got := s.Snapshot().Score; got != 0 {
		t.Fatalf("score inside debounce window: got %d, want 0", got)
	}
	s.Update(time.Millisecond)

	snap := s.Snapshot()
	if snap.Score != 1 {
		t.Errorf("score: got %d, want 1", snap.Score)
	}
	if len(snap.Items) != 1 || snap.Items[0].Kind.String() != "heart" {
		t.Errorf("items: got %+v, want one heart", snap.Items)
	}

	s.Update(150 * time.Millisecond)
	if got := s.Snapshot().HeartScale; got != 1.2 {
		t.Errorf("HeartScale at pulse peak: got %v, want 1.2", got)
	}
	s.Update(150 * time.Millisecond)
	if got := s.Snapshot().HeartScale; got != 1 {
		t.Errorf("HeartScale after pulse: got %v, want 1", got)
	}
}

func TestItemsExpireAfterLifetime(t *testing.T) {
	s, _ := newTestSession(t)
	tapHeart(s, 3)

	// 第 3 次点击同时掉落亲吻
	if got := len(s.Snapshot().Items); got != 4 {
		t.Fatalf("items after 3 taps: got %d, want 4", got)
	}
	s.Update(5 * time.Second)
	if got := len(s.Snapshot().Items); got != 0 {
		t.Errorf("items after lifetime: got %d, want 0", got)
	}
}

func TestLevelUpSideEffects(t *testing.T) {
	s, backend := newTestSession(t)
	tapHeart(s, 10)

	snap := s.Snapshot()
	if snap.Level != 2 {
		t.Fatalf("level after 10 taps: got %d, want 2", snap.Level)
	}
	if snap.SpawnInterval != 9500*time.Millisecond {
		t.Errorf("SpawnInterval at level 2: got %v, want 9.5s", snap.SpawnInterval)
	}
	if snap.BackgroundIndex != 1 {
		t.Errorf("BackgroundIndex: got %d, want 1", snap.BackgroundIndex)
	}
	if got := backend.PlayCount("levelCue/1"); got != 1 {
		t.Errorf("level cue plays: got %d, want 1", got)
	}
	playing := backend.Playing()
	if !playing["ambience/1"] || playing["ambience/0"] {
		t.Errorf("ambience after level up: got %v, want only ambience/1", playing)
	}
	// 10 颗爱心 + 3 个亲吻 + 1 张照片
	if got := len(snap.Items); got != 14 {
		t.Errorf("items after 10 taps: got %d, want 14", got)
	}
	if got := playsWithPrefix(backend, "endorsement/"); got != 1 {
		t.Errorf("photo voice plays: got %d, want 1", got)
	}
}

func TestEnemyReachDeductsScore(t *testing.T) {
	s, _ := newTestSession(t)
	tapHeart(s, 7)

	// 第一只敌人在 10s 生成，最远 ~5.4s 到达
	s.Update(10 * time.Second)
	if got := len(s.Snapshot().Enemies); got != 1 {
		t.Fatalf("enemies at 10s: got %d, want 1", got)
	}
	s.Update(6 * time.Second)

	snap := s.Snapshot()
	if snap.Score != 2 {
		t.Errorf("score after hit: got %d, want 2", snap.Score)
	}
	if len(snap.Enemies) != 0 {
		t.Errorf("enemies after arrival: got %d, want 0", len(snap.Enemies))
	}
}

func TestEnemyTapDestroysOnce(t *testing.T) {
	s, _ := newTestSession(t)
	tapHeart(s, 7)
	s.Update(10 * time.Second)

	enemies := s.Snapshot().Enemies
	if len(enemies) != 1 {
		t.Fatalf("enemies: got %d, want 1", len(enemies))
	}
	id := enemies[0].ID
	if !s.Tap(TapEvent{Target: TargetEnemy, EnemyID: id}) {
		t.Fatal("enemy tap: got false")
	}
	if s.Tap(TapEvent{Target: TargetEnemy, EnemyID: id}) {
		t.Error("second enemy tap: got true")
	}
	s.Update(6 * time.Second)
	if got := s.Snapshot().Score; got != 7 {
		t.Errorf("score after destroyed enemy: got %d, want 7", got)
	}
}

func TestMuteTapTogglesAllSounds(t *testing.T) {
	s, backend := newTestSession(t)

	if !s.Tap(TapEvent{Target: TargetMute}) {
		t.Fatal("mute tap: got false")
	}
	if !s.Snapshot().Muted {
		t.Error("Muted: got false after tap")
	}
	if got := backend.Volume("ambience/0"); got != 0 {
		t.Errorf("muted ambience volume: got %v, want 0", got)
	}

	s.Tap(TapEvent{Target: TargetMute})
	if s.Snapshot().Muted {
		t.Error("Muted: got true after second tap")
	}
	if got := backend.Volume("ambience/0"); got != 0.1 {
		t.Errorf("restored ambience volume: got %v, want 0.1", got)
	}
}

func TestFinalLevelEntersCutscene(t *testing.T) {
	s, backend := newTestSession(t)
	tapHeart(s, 79)
	if got := s.Mode(); got != ModePlaying {
		t.Fatalf("mode at score 79: got %s, want Playing", got)
	}

	tapHeart(s, 1)
	snap := s.Snapshot()
	if snap.Mode != ModeCutsceneRunning {
		t.Fatalf("mode at score 80: got %s, want CutsceneRunning", snap.Mode)
	}
	if snap.Level != 9 || snap.Score != 80 {
		t.Errorf("progress: got level %d score %d, want 9/80", snap.Level, snap.Score)
	}
	if snap.Cutscene == nil {
		t.Fatal("Cutscene view missing")
	}
	if len(snap.Items) != 0 || len(snap.Enemies) != 0 {
		t.Errorf("gameplay entities during cutscene: %d items, %d enemies", len(snap.Items), len(snap.Enemies))
	}
	for key := range backend.Playing() {
		if strings.HasPrefix(key, "bgm/") || strings.HasPrefix(key, "ambience/") {
			t.Errorf("%s still playing during cutscene", key)
		}
	}

	if s.Tap(TapEvent{Target: TargetHeart}) {
		t.Error("heart tap accepted during cutscene")
	}
	s.Update(time.Second)
	if got := s.Snapshot().Score; got != 80 {
		t.Errorf("score changed during cutscene: got %d", got)
	}
}

func TestFullPlaythroughToConclusion(t *testing.T) {
	s, backend := newTestSession(t)
	tapHeart(s, 80)

	s.Update(27249 * time.Millisecond)
	if got := s.Mode(); got != ModeCutsceneRunning {
		t.Fatalf("mode before cutscene end: got %s", got)
	}
	s.Update(time.Millisecond)
	if got := s.Mode(); got != ModeBossPhaseRunning {
		t.Fatalf("mode after cutscene: got %s, want BossPhaseRunning", got)
	}
	if got := backend.PlayCount("cue/heartbeat"); got != 10 {
		t.Errorf("heartbeat cues: got %d, want 10", got)
	}

	if s.Tap(TapEvent{Target: TargetFire}) {
		t.Error("fire accepted with empty meter")
	}

	s.PointerDown(195, 700)
	s.Update(80 * time.Second)
	s.PointerUp()
	s.Update(3 * time.Second)

	snap := s.Snapshot()
	if snap.Boss == nil || !snap.Boss.Finishable {
		t.Fatalf("boss not finishable after holding: %+v", snap.Boss)
	}
	if !s.Tap(TapEvent{Target: TargetFire}) {
		t.Fatal("fire with full meter: got false")
	}

	s.Update(13600 * time.Millisecond)
	snap = s.Snapshot()
	if snap.Mode != ModeConclusion {
		t.Fatalf("mode after finish: got %s, want Conclusion", snap.Mode)
	}
	if snap.Boss == nil || snap.Boss.State != systems.BossDone {
		t.Errorf("boss view at conclusion: %+v", snap.Boss)
	}
	if snap.ConclusionFade != 1 {
		t.Errorf("ConclusionFade at start: got %v, want 1", snap.ConclusionFade)
	}

	s.Update(5 * time.Second)
	if got := s.Snapshot().ConclusionFade; got != 0 {
		t.Errorf("ConclusionFade at end: got %v, want 0", got)
	}
}

func TestCloseUnloadsAudio(t *testing.T) {
	s, backend := newTestSession(t)
	tapHeart(s, 3)
	s.Close()

	if backend.IsLoaded("bgm/0") || backend.IsLoaded("ambience/0") {
		t.Error("sounds still loaded after Close")
	}
	if s.Tap(TapEvent{Target: TargetHeart}) {
		t.Error("tap accepted after Close")
	}
	s.Update(time.Minute)
	s.Close()
}

func TestCloseWhileLoading(t *testing.T) {
	s, err := New(Options{Backend: game.NewMemoryAudioBackend(), Seed: 3})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Close()
	if got := s.Mode(); got != ModeLoading {
		t.Errorf("mode after Close: got %s, want Loading", got)
	}
}
