// Package session 组合游戏核心：分数关卡、掉落物、敌人、音频、过场动画与 Boss 阶段
//
// Session 不依赖 Ebitengine 的渲染或输入，由外层（pkg/app、cmd/simulate）
// 每帧调用 Update 推进时间，通过 Tap/Pointer* 输入，通过 Snapshot 读取画面状态。
// 所有方法都必须在同一个 goroutine（帧循环）中调用；只有音频加载在后台进行，
// 结果经 channel 交还给帧循环。
package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/decker502/lovetap/pkg/anim"
	"github.com/decker502/lovetap/pkg/clock"
	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/ecs"
	"github.com/decker502/lovetap/pkg/event"
	"github.com/decker502/lovetap/pkg/game"
	"github.com/decker502/lovetap/pkg/systems"
	"github.com/decker502/lovetap/pkg/utils"
)

// Target 点击目标
type Target int

const (
	// TargetHeart 主爱心（防抖）
	TargetHeart Target = iota
	// TargetEnemy 敌人（立即结算）
	TargetEnemy
	// TargetFire Boss 阶段的发射键
	TargetFire
	// TargetMute 静音键
	TargetMute
)

// TapEvent 一次点击
type TapEvent struct {
	Target  Target
	EnemyID ecs.EntityID // 仅 TargetEnemy 使用
}

// Snapshot 当前帧的只读状态
type Snapshot struct {
	Mode            Mode
	Now             time.Duration
	Score           int
	Level           int
	BackgroundIndex int
	HeartScale      float64
	Muted           bool
	SpawnInterval   time.Duration

	Items   []systems.ItemView
	Enemies []systems.EnemyView

	Cutscene *systems.CutsceneView // 仅 CutsceneRunning
	Boss     *systems.BossView     // BossPhaseRunning 与 Conclusion

	// ConclusionFade 结局画面上白色遮罩的不透明度（1 → 0）
	ConclusionFade float64
}

// Options 会话配置
type Options struct {
	Config       *config.GameConfig   // nil 时使用默认配置
	Assets       *config.AssetCatalog // nil 时使用默认目录
	AudioCatalog *config.AudioCatalog // nil 时使用默认目录
	Backend      game.AudioBackend
	Settings     *game.SettingsManager // 可为 nil
	Seed         int64                 // 0 表示使用当前时间
}

// Session 一局游戏
type Session struct {
	cfg          *config.GameConfig
	assets       *config.AssetCatalog
	audioCatalog *config.AudioCatalog

	rng         *utils.Random
	sched       *clock.Scheduler
	em          *ecs.EntityManager
	dispatcher  *event.Dispatcher
	audio       *game.AudioManager
	progression *game.Progression

	mode      Mode
	modeGroup *clock.Group
	audioSubs []func()
	playSubs  []func()

	started    bool
	loading    bool
	loadDone   chan error
	loadCancel context.CancelFunc

	items    *systems.FallingItemSystem
	waves    *systems.EnemyWaveSystem
	cutscene *systems.CutsceneSystem
	boss     *systems.BossPhaseSystem

	heartTap       *Debouncer
	heartScale     *anim.Value
	heartPulse     anim.Node
	conclusionFade *anim.Value

	closed bool
}

// New 创建会话，初始模式为 Loading
//
// 返回：
//   - error: 缺少音频后端时返回错误
func New(opts Options) (*Session, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("session: audio backend is required")
	}
	if opts.Config == nil {
		opts.Config = config.DefaultGameConfig()
	}
	if opts.Assets == nil {
		opts.Assets = config.DefaultAssetCatalog()
	}
	if opts.AudioCatalog == nil {
		opts.AudioCatalog = config.DefaultAudioCatalog()
	}

	s := &Session{
		cfg:            opts.Config,
		assets:         opts.Assets,
		audioCatalog:   opts.AudioCatalog,
		rng:            utils.NewRandom(opts.Seed),
		sched:          clock.NewScheduler(),
		em:             ecs.NewEntityManager(),
		dispatcher:     event.NewDispatcher(),
		loadDone:       make(chan error, 1),
		heartScale:     anim.NewValue(1),
		conclusionFade: anim.NewValue(1),
	}
	s.modeGroup = clock.NewGroup(s.sched)
	s.audio = game.NewAudioManager(opts.Backend, s.audioCatalog, opts.Settings, s.rng)
	s.progression = game.NewProgression(s.cfg, s.dispatcher)

	leg := config.Ms(s.cfg.Boss.HeartbeatLegMs)
	s.heartPulse = anim.Sequence(
		anim.Timing(s.heartScale, 1.2, leg, anim.EaseInOut),
		anim.Timing(s.heartScale, 1, leg, anim.EaseInOut),
	)

	// 音频先订阅，关卡音效在刷怪间隔调整之前播放
	s.audioSubs = append(s.audioSubs,
		s.dispatcher.Subscribe(event.LevelChanged, s.audio),
		s.dispatcher.Subscribe(event.PhotoRevealed, s.audio),
	)
	return s, nil
}

// Start 在后台开始加载音频；加载完成后的第一次 Update 进入 Playing
func (s *Session) Start(ctx context.Context) error {
	if s.started {
		return fmt.Errorf("session already started")
	}
	if s.closed {
		return fmt.Errorf("session closed")
	}
	s.started = true
	s.loading = true

	loadCtx, cancel := context.WithCancel(ctx)
	s.loadCancel = cancel
	log.Printf("[Session] Loading audio...")
	go func() {
		s.loadDone <- s.audio.LoadAll(loadCtx)
	}()
	return nil
}

// AwaitLoading 阻塞直到音频加载完成并进入 Playing（测试和命令行工具使用）
func (s *Session) AwaitLoading(ctx context.Context) error {
	if !s.started {
		return fmt.Errorf("session not started")
	}
	if !s.loading {
		return nil
	}
	select {
	case err := <-s.loadDone:
		s.finishLoading(err)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) finishLoading(err error) {
	s.loading = false
	if err != nil {
		log.Printf("[Session] Warning: Audio loading failed: %v", err)
	}
	log.Printf("[Session] Loaded %d sounds", s.audio.LoadedCount())
	s.enterPlaying()
}

// Update 推进 dt 时间：触发到期的定时器并清理被销毁的实体
func (s *Session) Update(dt time.Duration) {
	if s.closed {
		return
	}
	if s.loading {
		select {
		case err := <-s.loadDone:
			s.finishLoading(err)
		default:
		}
	}
	s.sched.Advance(dt)
	s.em.RemoveMarkedEntities()
}

// transition 切换模式并更换定时器组，旧模式的定时器全部取消
func (s *Session) transition(next Mode) bool {
	if !s.mode.CanTransitionTo(next) {
		log.Printf("[Session] Warning: Invalid transition %s -> %s", s.mode, next)
		return false
	}
	log.Printf("[Session] Mode %s -> %s", s.mode, next)
	s.modeGroup.Cancel()
	s.modeGroup = clock.NewGroup(s.sched)
	s.mode = next
	return true
}

func (s *Session) enterPlaying() {
	if !s.transition(ModePlaying) {
		return
	}
	g := s.modeGroup

	s.items = systems.NewFallingItemSystem(s.em, g, s.cfg, s.rng, s.dispatcher,
		s.assets.Photos.Len(), s.audioCatalog.Endorsements.Len())
	s.waves = systems.NewEnemyWaveSystem(s.em, g, s.cfg, s.assets.EnemySprites, s.rng, s.dispatcher,
		s.progression.LevelIndex)
	s.heartTap = NewDebouncer(g, config.Ms(s.cfg.Input.DebounceMs))

	s.playSubs = append(s.playSubs,
		s.dispatcher.Subscribe(event.LevelChanged, event.ListenerFunc(s.onLevelChanged)),
		s.dispatcher.Subscribe(event.EnemyResolved, event.ListenerFunc(s.onEnemyResolved)),
		s.dispatcher.Subscribe(event.FinalLevelReached, event.ListenerFunc(s.onFinalLevel)),
	)

	s.audio.StartMusic(g)
	s.audio.PlayAmbience(s.progression.LevelIndex())
	s.waves.Start(s.progression.SpawnInterval())
}

func (s *Session) onLevelChanged(e event.Event) {
	s.waves.SetSpawnInterval(s.progression.SpawnInterval())
}

func (s *Session) onEnemyResolved(e event.Event) {
	res, ok := e.Data.(event.EnemyResolution)
	if !ok || !res.Reached {
		return
	}
	s.progression.ApplyEnemyHit()
}

func (s *Session) onFinalLevel(e event.Event) {
	s.enterCutscene()
}

// leavePlaying 移除游戏模式的实体、订阅和声音
func (s *Session) leavePlaying() {
	s.waves.Stop()
	s.heartTap.Cancel()
	s.heartPulse.Stop()
	s.heartScale.Set(1)
	for _, unsub := range s.playSubs {
		unsub()
	}
	s.playSubs = nil
	s.em.Clear()
	s.audio.StopAmbience()
	s.audio.StopAllMusic()
}

func (s *Session) enterCutscene() {
	if !s.mode.CanTransitionTo(ModeCutsceneRunning) {
		return
	}
	s.leavePlaying()
	s.transition(ModeCutsceneRunning)

	s.cutscene = systems.NewCutsceneSystem(s.cfg, s.audio)
	s.cutscene.Start(s.modeGroup, s.enterBossPhase)
}

func (s *Session) enterBossPhase() {
	if !s.transition(ModeBossPhaseRunning) {
		return
	}
	s.boss = systems.NewBossPhaseSystem(s.em, s.cfg, s.assets.BossGallery, s.rng)
	s.boss.Start(s.modeGroup, s.enterConclusion)
}

func (s *Session) enterConclusion() {
	if !s.transition(ModeConclusion) {
		return
	}
	fade := anim.Timing(s.conclusionFade, 0, config.Ms(s.cfg.Boss.Finish.ConclusionMs), nil)
	fade.Start(s.modeGroup, func() {
		log.Printf("[Session] Conclusion shown")
	})
}

// Tap 处理一次点击
//
// 返回：
//   - bool: 点击是否被接受（主爱心的点击在防抖结束后才结算）
func (s *Session) Tap(ev TapEvent) bool {
	if s.closed {
		return false
	}
	switch ev.Target {
	case TargetMute:
		if s.mode == ModeLoading {
			return false
		}
		s.audio.ToggleMute()
		return true
	case TargetHeart:
		if s.mode != ModePlaying {
			return false
		}
		s.heartTap.Trigger(s.applyHeartTap)
		return true
	case TargetEnemy:
		if s.mode != ModePlaying {
			return false
		}
		return s.waves.Destroy(ev.EnemyID)
	case TargetFire:
		if s.mode != ModeBossPhaseRunning {
			return false
		}
		return s.boss.TriggerFinish()
	}
	return false
}

func (s *Session) applyHeartTap() {
	res := s.progression.ApplyTap()
	// 最终关卡的那次点击已经切换到过场动画
	if s.mode != ModePlaying {
		return
	}
	s.heartPulse.Start(s.modeGroup, func() {})
	s.items.OnTap(res.NewScore)
}

// PointerDown Boss 阶段按下
func (s *Session) PointerDown(x, y float64) {
	if s.mode == ModeBossPhaseRunning {
		s.boss.PointerDown(x, y)
	}
}

// PointerMove Boss 阶段拖动
func (s *Session) PointerMove(x, y float64) {
	if s.mode == ModeBossPhaseRunning {
		s.boss.PointerMove(x, y)
	}
}

// PointerUp Boss 阶段松开
func (s *Session) PointerUp() {
	if s.mode == ModeBossPhaseRunning {
		s.boss.PointerUp()
	}
}

// EnemyAt 返回 (x, y) 处的敌人，供外层把屏幕点击映射为 TargetEnemy
func (s *Session) EnemyAt(x, y float64) (ecs.EntityID, bool) {
	if s.mode != ModePlaying {
		return 0, false
	}
	return s.waves.EnemyAt(x, y)
}

// Mode 返回当前模式
func (s *Session) Mode() Mode {
	return s.mode
}

// Now 返回会话时钟
func (s *Session) Now() time.Duration {
	return s.sched.Now()
}

// Config 返回数值配置
func (s *Session) Config() *config.GameConfig {
	return s.cfg
}

// Subscribe 订阅会话事件（命令行工具打印事件使用）
func (s *Session) Subscribe(t event.Type, l event.Listener) func() {
	return s.dispatcher.Subscribe(t, l)
}

// Snapshot 返回当前帧的只读状态
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Mode:            s.mode,
		Now:             s.sched.Now(),
		Score:           s.progression.Score(),
		Level:           s.progression.Level(),
		BackgroundIndex: s.assets.Backgrounds.Clamp(s.progression.LevelIndex()),
		HeartScale:      s.heartScale.Get(),
		Muted:           s.audio.Muted(),
		ConclusionFade:  s.conclusionFade.Get(),
	}

	switch s.mode {
	case ModePlaying:
		snap.SpawnInterval = s.waves.Interval()
		snap.Items = s.items.Items()
		snap.Enemies = s.waves.Enemies()
	case ModeCutsceneRunning:
		v := s.cutscene.View()
		snap.Cutscene = &v
	case ModeBossPhaseRunning, ModeConclusion:
		v := s.boss.View()
		snap.Boss = &v
	}
	return snap
}

// Close 停止所有动画和定时器并释放音频；加载中时等待加载协程退出
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.loading {
		s.loadCancel()
		<-s.loadDone
		s.loading = false
	} else if s.loadCancel != nil {
		s.loadCancel()
	}

	if s.cutscene != nil {
		s.cutscene.Stop()
	}
	if s.boss != nil {
		s.boss.Stop()
	}
	if s.waves != nil {
		s.waves.Stop()
	}
	s.heartPulse.Stop()
	s.modeGroup.Cancel()

	for _, unsub := range append(s.playSubs, s.audioSubs...) {
		unsub()
	}
	s.playSubs = nil
	s.audioSubs = nil

	s.audio.Close()
	log.Printf("[Session] Closed at %v (mode %s, score %d)", s.sched.Now(), s.mode, s.progression.Score())
}
