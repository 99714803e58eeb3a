package app

import (
	"image"
	"math"

	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/session"
	"github.com/decker502/lovetap/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// controlLayout 屏幕上可点击区域的位置（输入映射和绘制共用）
type controlLayout struct {
	heartX, heartY float64
	heartRadius    float64
	mute           image.Rectangle
	fire           image.Rectangle
}

func newControlLayout(cfg *config.GameConfig) controlLayout {
	w, h := cfg.Screen.Width, cfg.Screen.Height
	return controlLayout{
		heartX:      cfg.Target.X,
		heartY:      cfg.Target.Y,
		heartRadius: 90,
		mute:        image.Rect(w-56, 16, w-16, 56),
		fire:        image.Rect(w/2-70, h-110, w/2+70, h-50),
	}
}

func (l controlLayout) inHeart(x, y float64) bool {
	return math.Hypot(x-l.heartX, y-l.heartY) <= l.heartRadius
}

// inputMapper 把鼠标/触摸映射为会话输入
//
// Playing：点击敌人 → TargetEnemy，点击主爱心 → TargetHeart。
// BossPhaseRunning：发射键 → TargetFire，其余位置按下/拖动/松开转发给 Boss 阶段。
// 任何模式下点击静音键 → TargetMute。空格、M 键是桌面端的快捷键。
type inputMapper struct {
	pointer *utils.PointerTracker
	layout  controlLayout
}

func newInputMapper(cfg *config.GameConfig) *inputMapper {
	return &inputMapper{
		pointer: utils.NewPointerTracker(),
		layout:  newControlLayout(cfg),
	}
}

// Update 读取本帧输入并转发给会话
func (m *inputMapper) Update(s *session.Session) {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		s.Tap(session.TapEvent{Target: session.TargetHeart})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		s.Tap(session.TapEvent{Target: session.TargetMute})
	}

	m.pointer.Update()
	x, y := m.pointer.Position()
	fx, fy := float64(x), float64(y)

	switch m.pointer.Phase() {
	case utils.PointerPressed:
		m.press(s, x, y)
	case utils.PointerHeld:
		if m.pointer.Moved() {
			s.PointerMove(fx, fy)
		}
	case utils.PointerReleased:
		s.PointerUp()
	}
}

func (m *inputMapper) press(s *session.Session, x, y int) {
	pt := image.Pt(x, y)
	fx, fy := float64(x), float64(y)

	if pt.In(m.layout.mute) {
		s.Tap(session.TapEvent{Target: session.TargetMute})
		return
	}

	switch s.Mode() {
	case session.ModePlaying:
		if id, ok := s.EnemyAt(fx, fy); ok {
			s.Tap(session.TapEvent{Target: session.TargetEnemy, EnemyID: id})
			return
		}
		if m.layout.inHeart(fx, fy) {
			s.Tap(session.TapEvent{Target: session.TargetHeart})
		}
	case session.ModeBossPhaseRunning:
		if pt.In(m.layout.fire) && s.Tap(session.TapEvent{Target: session.TargetFire}) {
			return
		}
		s.PointerDown(fx, fy)
	}
}
