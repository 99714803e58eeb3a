package systems

import (
	"image/color"
	"log"

	"github.com/decker502/lovetap/pkg/anim"
	"github.com/decker502/lovetap/pkg/clock"
	"github.com/decker502/lovetap/pkg/components"
	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/ecs"
	"github.com/decker502/lovetap/pkg/utils"
)

// BossState Boss 阶段的状态
type BossState int

const (
	BossIdle BossState = iota
	BossRoaming
	BossFinishing
	BossDone
)

// String 返回状态名称
func (s BossState) String() string {
	switch s {
	case BossIdle:
		return "idle"
	case BossRoaming:
		return "roaming"
	case BossFinishing:
		return "finishing"
	case BossDone:
		return "done"
	default:
		return "unknown"
	}
}

// ShotView 爱心子弹
type ShotView struct {
	ID   ecs.EntityID
	X, Y float64
}

// StarView 星星
type StarView struct {
	Index   int
	X, Y    float64
	Opacity float64
}

// BossView Boss 阶段当前帧的数值
type BossView struct {
	State      BossState
	Phase      string // 收尾动画的阶段名
	Meter      float64
	MeterColor color.RGBA
	Finishable bool

	Pressed    bool
	CursorX    float64
	CursorY    float64
	HeartScale float64

	BossX      float64
	BossY      float64
	BossSprite int

	Shots []ShotView
	Stars []StarView

	EnergyBall float64
	Laser      float64
	ShakeX     float64
	ShakeY     float64
	White      float64
}

var meterWhite = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// BossPhaseSystem 最终 Boss 小游戏
//
// 按住屏幕时发射爱心（立即一发，之后每 fireInterval 一发），每发爱心飞出屏幕
// 后爱心值 +0.4。爱心值以十分位整数保存，250 发正好是 100。
// 爱心值达到阈值后点击发射键触发收尾动画，结束后调用 onConclusion。
type BossPhaseSystem struct {
	cfg     config.BossConfig
	screen  config.ScreenConfig
	em      *ecs.EntityManager
	rng     *utils.Random
	sprites config.Gallery

	state        BossState
	parent       *clock.Group
	roaming      *clock.Group
	finishing    *clock.Group
	onConclusion func()

	// 发射爱心
	cursorX, cursorY *anim.Value
	heartScale       *anim.Value
	heartbeat        anim.Node
	pressed          bool
	fireTimer        *clock.Timer
	shotNodes        map[ecs.EntityID]anim.Node

	// 爱心值
	meterTenths  int
	meterColor   color.RGBA
	flickerTimer *clock.Timer

	// Boss
	bossX, bossY *anim.Value
	sway, bob    anim.Node
	sprite       int
	spriteTimer  *clock.Timer

	// 星空
	stars      []ecs.EntityID
	driftTimer *clock.Timer

	// 收尾
	script         *anim.Script
	energyBall     *anim.Value
	laser          *anim.Value
	shakeX, shakeY *anim.Value
	white          *anim.Value
}

// NewBossPhaseSystem 创建 Boss 阶段
//
// 参数：
//   - em: 实体管理器（子弹和星星是实体）
//   - cfg: 数值配置
//   - sprites: Boss 图集，每隔 spriteInterval 换成另一张
//   - rng: 会话随机数源
func NewBossPhaseSystem(em *ecs.EntityManager, cfg *config.GameConfig, sprites config.Gallery, rng *utils.Random) *BossPhaseSystem {
	b := cfg.Boss
	s := &BossPhaseSystem{
		cfg:        b,
		screen:     cfg.Screen,
		em:         em,
		rng:        rng,
		sprites:    sprites,
		cursorX:    anim.NewValue(b.Finish.AimX),
		cursorY:    anim.NewValue(b.Finish.AimY),
		heartScale: anim.NewValue(1),
		shotNodes:  make(map[ecs.EntityID]anim.Node),
		meterColor: meterWhite,
		bossX:      anim.NewValue(0),
		bossY:      anim.NewValue(b.BobTop),
		energyBall: anim.NewValue(0),
		laser:      anim.NewValue(0),
		shakeX:     anim.NewValue(0),
		shakeY:     anim.NewValue(0),
		white:      anim.NewValue(0),
	}

	leg := config.Ms(b.HeartbeatLegMs)
	s.heartbeat = anim.Loop(anim.Sequence(
		anim.Timing(s.heartScale, 1.2, leg, anim.EaseInOut),
		anim.Timing(s.heartScale, 1, leg, anim.EaseInOut),
	), 0)

	sway := config.Ms(b.SwayLegMs)
	s.sway = anim.Loop(anim.Sequence(
		anim.Timing(s.bossX, b.SwayAmplitude, sway, nil),
		anim.Timing(s.bossX, 0, sway, nil),
		anim.Timing(s.bossX, -b.SwayAmplitude, sway, nil),
		anim.Timing(s.bossX, 0, sway, nil),
	), 0)

	bob := config.Ms(b.BobLegMs)
	s.bob = anim.Loop(anim.Sequence(
		anim.Timing(s.bossY, b.BobBottom, bob, anim.EaseInOut),
		anim.Timing(s.bossY, b.BobTop, bob, nil),
	), 0)

	return s
}

// Start 进入 Boss 阶段：Boss 开始摇摆换图，星空开始闪烁
//
// 参数：
//   - parent: 模式的定时器组；Boss 阶段在它的子组中运行
//   - onConclusion: 收尾动画结束后调用一次
func (s *BossPhaseSystem) Start(parent *clock.Group, onConclusion func()) bool {
	if s.state != BossIdle {
		return false
	}
	s.state = BossRoaming
	s.parent = parent
	s.roaming = parent.NewChild()
	s.onConclusion = onConclusion

	s.sway.Start(s.roaming, func() {})
	s.bob.Start(s.roaming, func() {})
	s.spriteTimer = s.roaming.Every(config.Ms(s.cfg.SpriteIntervalMs), func() {
		s.sprite = s.rng.IntnExcept(s.sprites.Len(), s.sprite)
	})

	s.spawnStars()
	s.driftTimer = s.roaming.Every(config.Ms(s.cfg.DriftEveryMs), s.driftStars)

	log.Printf("[BossPhaseSystem] Started with %d stars", len(s.stars))
	return true
}

func (s *BossPhaseSystem) randomX() float64 { return s.rng.Range(0, float64(s.screen.Width)) }
func (s *BossPhaseSystem) randomY() float64 { return s.rng.Range(0, float64(s.screen.Height)) }

func (s *BossPhaseSystem) spawnStars() {
	twinkle := config.Ms(s.cfg.TwinkleMs)
	drift := config.Ms(s.cfg.DriftMs)
	for i := 0; i < s.cfg.StarCount; i++ {
		star := &components.StarComponent{
			Index:   i,
			X:       anim.NewValue(s.randomX()),
			Y:       anim.NewValue(s.randomY()),
			Opacity: anim.NewValue(0),
		}
		star.Twinkle = anim.Sequence(
			anim.Delay(config.Ms(i*s.cfg.StarStaggerMs)),
			anim.Loop(anim.Sequence(
				anim.Timing(star.Opacity, 0.7, twinkle, anim.EaseInOut),
				anim.Timing(star.Opacity, 0, twinkle, anim.EaseInOut),
				anim.Call(func() {
					star.X.Set(s.randomX())
					star.Y.Set(s.randomY())
				}),
			), 0),
		)
		star.Drift = anim.Parallel(
			anim.TimingFunc(star.X, s.randomX, drift, anim.EaseInOut),
			anim.TimingFunc(star.Y, s.randomY, drift, anim.EaseInOut),
		)

		id := s.em.CreateEntity()
		ecs.AddComponent(s.em, id, star)
		s.stars = append(s.stars, id)
		star.Twinkle.Start(s.roaming, func() {})
	}
}

func (s *BossPhaseSystem) driftStars() {
	for _, id := range s.stars {
		if star, ok := ecs.GetComponent[*components.StarComponent](s.em, id); ok {
			star.Drift.Start(s.roaming, func() {})
		}
	}
}

// PointerDown 按下：发射爱心开始心跳，立即发射一发并开始连发
func (s *BossPhaseSystem) PointerDown(x, y float64) {
	if s.state != BossRoaming || s.pressed {
		return
	}
	s.pressed = true
	s.cursorX.Set(x)
	s.cursorY.Set(y)
	s.heartbeat.Start(s.roaming, func() {})
	s.fire()
	s.fireTimer = s.roaming.Every(config.Ms(s.cfg.FireIntervalMs), s.fire)
}

// PointerMove 拖动：发射爱心跟随光标（连发节奏不变）
func (s *BossPhaseSystem) PointerMove(x, y float64) {
	if s.state != BossRoaming || !s.pressed {
		return
	}
	s.cursorX.Set(x)
	s.cursorY.Set(y)
}

// PointerUp 松开：停止连发，心跳复位
func (s *BossPhaseSystem) PointerUp() {
	if !s.pressed {
		return
	}
	s.pressed = false
	s.fireTimer.Stop()
	s.fireTimer = nil
	s.heartbeat.Stop()
	s.heartScale.Set(1)
}

// fire 从光标处发射一发爱心，飞出屏幕后计入爱心值
func (s *BossPhaseSystem) fire() {
	id := s.em.CreateEntity()
	shot := &components.HeartShotComponent{
		X: anim.NewValue(s.cursorX.Get()),
		Y: anim.NewValue(s.cursorY.Get()),
	}
	ecs.AddComponent(s.em, id, shot)

	node := anim.Timing(shot.Y, -float64(s.screen.Height), config.Ms(s.cfg.ShotTravelMs), nil)
	s.shotNodes[id] = node
	node.Start(s.roaming, func() {
		delete(s.shotNodes, id)
		s.em.DestroyEntity(id)
		s.addMeter(config.Tenths(s.cfg.MeterIncrement))
	})
}

func (s *BossPhaseSystem) addMeter(tenths int) {
	before := s.meterTenths
	s.meterTenths += tenths

	flickerAt := config.Tenths(s.cfg.FlickerAt)
	if before < flickerAt && s.meterTenths >= flickerAt && s.flickerTimer == nil {
		s.flickerTimer = s.roaming.Every(config.Ms(s.cfg.FlickerMs), func() {
			s.meterColor = color.RGBA{
				R: uint8(s.rng.Intn(256)),
				G: uint8(s.rng.Intn(256)),
				B: uint8(s.rng.Intn(256)),
				A: 0xff,
			}
		})
	}
	threshold := config.Tenths(s.cfg.MeterThreshold)
	if before < threshold && s.meterTenths >= threshold {
		log.Printf("[BossPhaseSystem] Love meter full")
	}
}

// Meter 返回爱心值
func (s *BossPhaseSystem) Meter() float64 {
	return float64(s.meterTenths) / 10
}

// Finishable 返回爱心值是否已达到阈值
func (s *BossPhaseSystem) Finishable() bool {
	return s.meterTenths >= config.Tenths(s.cfg.MeterThreshold)
}

// State 返回当前状态
func (s *BossPhaseSystem) State() BossState {
	return s.state
}

// TriggerFinish 点击发射键；爱心值未满或不在漫游状态时返回 false
func (s *BossPhaseSystem) TriggerFinish() bool {
	if s.state != BossRoaming || !s.Finishable() {
		return false
	}
	s.state = BossFinishing
	s.stopRoaming()

	s.finishing = s.parent.NewChild()
	s.script = s.buildFinish()
	log.Printf("[BossPhaseSystem] Love laser!")
	s.script.Start(s.finishing, func() {
		s.state = BossDone
		if s.onConclusion != nil {
			s.onConclusion()
		}
	})
	return true
}

// stopRoaming 停止漫游阶段的所有动画并移除子弹和星星；Boss 停在当前位置
func (s *BossPhaseSystem) stopRoaming() {
	s.PointerUp()
	s.sway.Stop()
	s.bob.Stop()
	for id, node := range s.shotNodes {
		node.Stop()
		s.em.DestroyEntity(id)
	}
	s.shotNodes = make(map[ecs.EntityID]anim.Node)
	for _, id := range s.stars {
		if star, ok := ecs.GetComponent[*components.StarComponent](s.em, id); ok {
			star.Twinkle.Stop()
			star.Drift.Stop()
		}
		s.em.DestroyEntity(id)
	}
	s.stars = nil
	if s.roaming != nil {
		s.roaming.Cancel()
	}
	s.meterColor = meterWhite
}

func (s *BossPhaseSystem) shakeRound() anim.Node {
	f := s.cfg.Finish
	step := config.Ms(f.ShakeStepMs)
	offset := func() float64 { return s.rng.Range(-f.ShakeAmplitude, f.ShakeAmplitude) }

	steps := make([]anim.Node, 0, f.ShakeSteps)
	for i := 0; i < f.ShakeSteps-1; i++ {
		steps = append(steps, anim.Parallel(
			anim.TimingFunc(s.shakeX, offset, step, nil),
			anim.TimingFunc(s.shakeY, offset, step, nil),
		))
	}
	steps = append(steps, anim.Parallel(
		anim.Timing(s.shakeX, 0, step, nil),
		anim.Timing(s.shakeY, 0, step, nil),
	))
	return anim.Sequence(steps...)
}

func (s *BossPhaseSystem) buildFinish() *anim.Script {
	f := s.cfg.Finish
	return anim.NewScript("loveLaser",
		anim.Phase{Name: "center", Node: anim.Parallel(
			anim.Timing(s.bossX, 0, config.Ms(f.CenterMs), nil),
			anim.Timing(s.bossY, s.cfg.BobTop, config.Ms(f.CenterMs), nil),
		)},
		anim.Phase{Name: "aim", Node: anim.Parallel(
			anim.Timing(s.cursorX, f.AimX, config.Ms(f.AimMs), nil),
			anim.Timing(s.cursorY, f.AimY, config.Ms(f.AimMs), nil),
		)},
		anim.Phase{Name: "charge", Node: anim.Timing(s.energyBall, 1, config.Ms(f.ChargeMs), nil)},
		anim.Phase{Name: "collapse", Node: anim.Timing(s.energyBall, 0, config.Ms(f.CollapseMs), nil)},
		anim.Phase{Name: "pause", Node: anim.Delay(config.Ms(f.PauseMs))},
		anim.Phase{Name: "laserOn", Node: anim.Timing(s.laser, 1, config.Ms(f.LaserOnMs), nil)},
		anim.Phase{Name: "laserHold", Node: anim.Parallel(
			anim.Timing(s.laser, 1, config.Ms(f.LaserHoldMs), nil),
			anim.Loop(s.shakeRound(), f.ShakeRounds),
			anim.Timing(s.white, 1, config.Ms(f.WhiteFadeMs), nil),
		)},
	)
}

// Stop 中止 Boss 阶段（会话关闭时），不会再调用 onConclusion
func (s *BossPhaseSystem) Stop() {
	if s.state == BossRoaming {
		s.stopRoaming()
	}
	if s.script != nil {
		s.script.Stop()
	}
	if s.finishing != nil {
		s.finishing.Cancel()
	}
	s.onConclusion = nil
}

// View 返回当前帧的数值
func (s *BossPhaseSystem) View() BossView {
	v := BossView{
		State:      s.state,
		Meter:      s.Meter(),
		MeterColor: s.meterColor,
		Finishable: s.Finishable(),
		Pressed:    s.pressed,
		CursorX:    s.cursorX.Get(),
		CursorY:    s.cursorY.Get(),
		HeartScale: s.heartScale.Get(),
		BossX:      s.bossX.Get(),
		BossY:      s.bossY.Get(),
		BossSprite: s.sprite,
		EnergyBall: s.energyBall.Get(),
		Laser:      s.laser.Get(),
		ShakeX:     s.shakeX.Get(),
		ShakeY:     s.shakeY.Get(),
		White:      s.white.Get(),
	}
	if s.script != nil {
		v.Phase = s.script.PhaseName()
	}

	for _, id := range ecs.GetEntitiesWith1[*components.HeartShotComponent](s.em) {
		if s.em.IsMarkedForDestroy(id) {
			continue
		}
		shot, _ := ecs.GetComponent[*components.HeartShotComponent](s.em, id)
		v.Shots = append(v.Shots, ShotView{ID: id, X: shot.X.Get(), Y: shot.Y.Get()})
	}
	for _, id := range s.stars {
		star, ok := ecs.GetComponent[*components.StarComponent](s.em, id)
		if !ok {
			continue
		}
		v.Stars = append(v.Stars, StarView{Index: star.Index, X: star.X.Get(), Y: star.Y.Get(), Opacity: star.Opacity.Get()})
	}
	return v
}
