package session

import (
	"time"

	"github.com/decker502/lovetap/pkg/clock"
)

// Debouncer 尾随防抖
// 窗口内的连续触发只在最后一次触发的 wait 之后执行一次
type Debouncer struct {
	timers clock.TimerSource
	wait   time.Duration
	timer  *clock.Timer
}

// NewDebouncer 创建防抖器；wait <= 0 时 Trigger 立即执行
func NewDebouncer(timers clock.TimerSource, wait time.Duration) *Debouncer {
	return &Debouncer{timers: timers, wait: wait}
}

// Trigger 重新开始等待，到期后执行 fn（之前未执行的 fn 被丢弃）
func (d *Debouncer) Trigger(fn func()) {
	d.timer.Stop()
	d.timer = nil
	if d.wait <= 0 {
		fn()
		return
	}
	d.timer = d.timers.After(d.wait, func() {
		d.timer = nil
		fn()
	})
}

// Pending 返回是否有等待执行的调用
func (d *Debouncer) Pending() bool {
	return d.timer.Active()
}

// Cancel 丢弃等待执行的调用
func (d *Debouncer) Cancel() {
	d.timer.Stop()
	d.timer = nil
}
