// Package utils 提供通用工具函数
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// PointerPhase 指针阶段
type PointerPhase int

const (
	// PointerIdle 没有按下
	PointerIdle PointerPhase = iota
	// PointerPressed 本帧刚按下
	PointerPressed
	// PointerHeld 按住中
	PointerHeld
	// PointerReleased 本帧刚松开（只持续一帧）
	PointerReleased
)

// pointerSample 一帧的原始输入
type pointerSample struct {
	justDown bool // 空闲时：本帧新按下
	down     bool // 跟踪中：仍然按着
	touch    bool
	touchID  ebiten.TouchID
	x, y     int
}

// PointerTracker 跟踪一个指针（第一根手指或鼠标左键）从按下到松开
// 同时支持触摸和鼠标，优先检测触摸
type PointerTracker struct {
	phase   PointerPhase
	touch   bool
	touchID ebiten.TouchID
	x, y    int
	moved   bool
}

// NewPointerTracker 创建指针跟踪器
func NewPointerTracker() *PointerTracker {
	return &PointerTracker{touchID: -1}
}

// Update 读取本帧输入（每帧调用一次）
func (p *PointerTracker) Update() {
	p.advance(p.sample())
}

func (p *PointerTracker) sample() pointerSample {
	if p.phase == PointerIdle || p.phase == PointerReleased {
		if ids := inpututil.AppendJustPressedTouchIDs(nil); len(ids) > 0 {
			x, y := ebiten.TouchPosition(ids[0])
			return pointerSample{justDown: true, touch: true, touchID: ids[0], x: x, y: y}
		}
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			return pointerSample{justDown: true, touchID: -1, x: x, y: y}
		}
		return pointerSample{}
	}

	if p.touch {
		for _, id := range ebiten.AppendTouchIDs(nil) {
			if id == p.touchID {
				x, y := ebiten.TouchPosition(id)
				return pointerSample{down: true, touch: true, touchID: id, x: x, y: y}
			}
		}
		// 触摸已释放，保留最后位置
		return pointerSample{touch: true, touchID: p.touchID, x: p.x, y: p.y}
	}
	x, y := ebiten.CursorPosition()
	return pointerSample{down: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft), touchID: -1, x: x, y: y}
}

func (p *PointerTracker) advance(s pointerSample) {
	p.moved = false
	switch p.phase {
	case PointerIdle, PointerReleased:
		if !s.justDown {
			p.phase = PointerIdle
			return
		}
		p.phase = PointerPressed
		p.touch = s.touch
		p.touchID = s.touchID
		p.x, p.y = s.x, s.y

	case PointerPressed, PointerHeld:
		if !s.down {
			p.phase = PointerReleased
			return
		}
		p.phase = PointerHeld
		p.moved = s.x != p.x || s.y != p.y
		p.x, p.y = s.x, s.y
	}
}

// Phase 返回当前阶段
func (p *PointerTracker) Phase() PointerPhase {
	return p.phase
}

// Position 返回指针位置（松开后为最后位置）
func (p *PointerTracker) Position() (int, int) {
	return p.x, p.y
}

// Moved 返回本帧按住时位置是否变化
func (p *PointerTracker) Moved() bool {
	return p.moved
}

// IsTouch 返回当前跟踪的是否为触摸
func (p *PointerTracker) IsTouch() bool {
	return p.touch
}

// Reset 回到空闲状态
func (p *PointerTracker) Reset() {
	*p = PointerTracker{touchID: -1}
}
