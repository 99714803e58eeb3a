// Package anim 实现基于 clock 调度器的补间动画与脚本化阶段序列
//
// Value 是可被补间驱动的数值，读取时根据调度器当前时间惰性求值，
// 所以帧循环不需要逐个更新动画值。Node 组成顺序/并行树，Script 在
// 此基础上提供 Idle → Running → Finished 的阶段状态机。
package anim

import (
	"time"

	"github.com/decker502/lovetap/pkg/clock"
)

type tween struct {
	from, to float64
	start    time.Duration
	duration time.Duration
	ease     Easing
	source   clock.TimerSource
}

func (tw *tween) at(now time.Duration) float64 {
	if tw.duration <= 0 {
		return tw.to
	}
	p := clamp01(float64(now-tw.start) / float64(tw.duration))
	return Lerp(tw.from, tw.to, tw.ease(p))
}

// Value 可动画的数值
type Value struct {
	base  float64
	tween *tween
}

// NewValue 创建初始值为 v 的动画值
func NewValue(v float64) *Value {
	return &Value{base: v}
}

// Get 返回当前值
func (v *Value) Get() float64 {
	if v == nil {
		return 0
	}
	if v.tween != nil {
		return v.tween.at(v.tween.source.Now())
	}
	return v.base
}

// Set 立即设置值并中断正在进行的补间
func (v *Value) Set(x float64) {
	v.base = x
	v.tween = nil
}

func (v *Value) begin(source clock.TimerSource, to float64, d time.Duration, ease Easing) *tween {
	if ease == nil {
		ease = Linear
	}
	tw := &tween{
		from:     v.Get(),
		to:       to,
		start:    source.Now(),
		duration: d,
		ease:     ease,
		source:   source,
	}
	v.tween = tw
	return tw
}

// finish 仅当 tw 仍是当前补间时落定终值；被后续补间接管的值保持不变
func (v *Value) finish(tw *tween) {
	if v.tween == tw {
		v.Set(tw.to)
	}
}

// freeze 停止补间并保留当前中间值
func (v *Value) freeze(tw *tween) {
	if v.tween == tw {
		v.Set(v.Get())
	}
}
