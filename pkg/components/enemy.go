package components

import (
	"time"

	"github.com/decker502/lovetap/pkg/clock"
)

// EnemyState 敌人状态；Destroyed 与 Reached 都是终态
type EnemyState int

const (
	EnemyAlive EnemyState = iota
	EnemyDestroyed
	EnemyReached
)

// String 返回状态名称
func (s EnemyState) String() string {
	switch s {
	case EnemyAlive:
		return "alive"
	case EnemyDestroyed:
		return "destroyed"
	case EnemyReached:
		return "reached"
	default:
		return "unknown"
	}
}

// EnemyComponent 从屏幕边缘直线飞向目标点的敌人
type EnemyComponent struct {
	StartX, StartY   float64
	TargetX, TargetY float64
	Angle            float64 // 朝向（弧度），生成时固定
	SpriteIndex      int     // 生成时的关卡索引（已钳制）
	SpawnedAt        time.Duration
	TravelTime       time.Duration
	State            EnemyState
	Arrival          *clock.Timer
}

// Resolve 一次性结算：第一次从 Alive 转换成功，之后的调用都返回 false
func (e *EnemyComponent) Resolve(state EnemyState) bool {
	if e.State != EnemyAlive || state == EnemyAlive {
		return false
	}
	e.State = state
	return true
}

// PositionAt 返回 now 时刻的插值位置
func (e *EnemyComponent) PositionAt(now time.Duration) (float64, float64) {
	if e.TravelTime <= 0 {
		return e.TargetX, e.TargetY
	}
	p := float64(now-e.SpawnedAt) / float64(e.TravelTime)
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return e.StartX + (e.TargetX-e.StartX)*p, e.StartY + (e.TargetY-e.StartY)*p
}
