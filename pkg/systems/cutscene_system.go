package systems

import (
	"time"

	"github.com/decker502/lovetap/pkg/anim"
	"github.com/decker502/lovetap/pkg/clock"
	"github.com/decker502/lovetap/pkg/config"
)

// CuePlayer 播放命名的一次性音效
type CuePlayer interface {
	PlayCue(name string)
}

// CutsceneView 过场动画当前帧的数值
type CutsceneView struct {
	Phase          string
	SceneOpacity   float64 // 黑色背景
	HeartScale     float64
	HeartOpacity   float64
	WhiteOverlay   float64
	Background     float64 // 无红色背景
	BlackHoleScale float64
	RedOverlay     float64
	ShootingHeart  float64
	BossOffset     float64
}

// CutsceneSystem 最终关卡的过场动画
//
// 阶段：淡入 → 10 次心跳（逐渐加速）→ 白屏 → 终曲 + 交叉淡入背景 →
// 黑洞扩张与红色叠加 → 停顿 → 黑洞收缩为发射爱心 → Boss 语音、滑入。
// 每次心跳开始时播放心跳音效。
type CutsceneSystem struct {
	cfg  config.CutsceneConfig
	cues CuePlayer

	sceneOpacity   *anim.Value
	heartScale     *anim.Value
	heartOpacity   *anim.Value
	whiteOverlay   *anim.Value
	background     *anim.Value
	blackHoleScale *anim.Value
	redOverlay     *anim.Value
	shootingHeart  *anim.Value
	bossOffset     *anim.Value

	script *anim.Script
}

// NewCutsceneSystem 创建过场动画并构建一棵新的动画树
func NewCutsceneSystem(cfg *config.GameConfig, cues CuePlayer) *CutsceneSystem {
	s := &CutsceneSystem{
		cfg:            cfg.Cutscene,
		cues:           cues,
		sceneOpacity:   anim.NewValue(0),
		heartScale:     anim.NewValue(1),
		heartOpacity:   anim.NewValue(1),
		whiteOverlay:   anim.NewValue(0),
		background:     anim.NewValue(0),
		blackHoleScale: anim.NewValue(0),
		redOverlay:     anim.NewValue(0),
		shootingHeart:  anim.NewValue(0),
		bossOffset:     anim.NewValue(cfg.Cutscene.BossStartX),
	}
	s.script = s.build()
	return s
}

func (s *CutsceneSystem) cue(name string) anim.Node {
	return anim.Call(func() { s.cues.PlayCue(name) })
}

// heartbeat 一次心跳：30% 时间放大到 1.2，70% 时间恢复
func (s *CutsceneSystem) heartbeat(d time.Duration) anim.Node {
	up := d * 3 / 10
	return anim.Sequence(
		s.cue(config.CueHeartbeat),
		anim.Timing(s.heartScale, 1.2, up, anim.EaseInCubic),
		anim.Timing(s.heartScale, 1, d-up, anim.EaseOutCubic),
	)
}

func (s *CutsceneSystem) build() *anim.Script {
	c := s.cfg
	beats := make([]anim.Node, 0, len(c.HeartbeatsMs))
	for _, ms := range c.HeartbeatsMs {
		beats = append(beats, s.heartbeat(config.Ms(ms)))
	}

	return anim.NewScript("cutscene",
		anim.Phase{Name: "fadeIn", Node: anim.Timing(s.sceneOpacity, 1, config.Ms(c.FadeInMs), nil)},
		anim.Phase{Name: "heartbeats", Node: anim.Sequence(beats...)},
		anim.Phase{Name: "whiteOut", Node: anim.Parallel(
			anim.Timing(s.whiteOverlay, 1, config.Ms(c.WhiteOutMs), nil),
			anim.Timing(s.heartOpacity, 0, config.Ms(c.WhiteOutMs), nil),
		)},
		anim.Phase{Name: "crossFade", Node: anim.Sequence(
			s.cue(config.CueFinale),
			anim.Parallel(
				anim.Timing(s.whiteOverlay, 0, config.Ms(c.CrossFadeMs), nil),
				anim.Timing(s.background, 1, config.Ms(c.CrossFadeMs), nil),
			),
		)},
		anim.Phase{Name: "blackHole", Node: anim.Parallel(
			anim.Timing(s.blackHoleScale, 4, config.Ms(c.BlackHoleMs), nil),
			anim.Timing(s.redOverlay, 1, config.Ms(c.BlackHoleMs), nil),
		)},
		anim.Phase{Name: "pause", Node: anim.Delay(config.Ms(c.PauseMs))},
		anim.Phase{Name: "shootingHeart", Node: anim.Parallel(
			anim.Timing(s.blackHoleScale, 1, config.Ms(c.ShootingHeartMs), nil),
			anim.Timing(s.shootingHeart, 1, config.Ms(c.ShootingHeartMs), nil),
		)},
		anim.Phase{Name: "bossIntro", Node: anim.Sequence(
			s.cue(config.CueBossIntro),
			anim.Delay(config.Ms(c.PauseMs)),
			anim.Timing(s.bossOffset, c.BossEndX, config.Ms(c.BossSlideMs), nil),
			anim.Delay(config.Ms(c.PauseMs)),
		)},
	)
}

// Start 启动过场动画；只能启动一次
func (s *CutsceneSystem) Start(ts clock.TimerSource, onComplete func()) bool {
	return s.script.Start(ts, onComplete)
}

// Stop 中止过场动画，完成回调不会触发
func (s *CutsceneSystem) Stop() {
	s.script.Stop()
}

// State 返回脚本状态
func (s *CutsceneSystem) State() anim.ScriptState {
	return s.script.State()
}

// View 返回当前帧的数值
func (s *CutsceneSystem) View() CutsceneView {
	return CutsceneView{
		Phase:          s.script.PhaseName(),
		SceneOpacity:   s.sceneOpacity.Get(),
		HeartScale:     s.heartScale.Get(),
		HeartOpacity:   s.heartOpacity.Get(),
		WhiteOverlay:   s.whiteOverlay.Get(),
		Background:     s.background.Get(),
		BlackHoleScale: s.blackHoleScale.Get(),
		RedOverlay:     s.redOverlay.Get(),
		ShootingHeart:  s.shootingHeart.Get(),
		BossOffset:     s.bossOffset.Get(),
	}
}
