package anim

import (
	"log"
	"time"

	"github.com/decker502/lovetap/pkg/clock"
)

// Node 动画树节点
//
// Start 启动节点，节点结束时调用 done（可能同步调用）。
// Stop 取消节点持有的定时器，之后 done 不会再被调用。
// 节点可以在结束或停止后再次 Start（Loop 依赖这一点）。
type Node interface {
	Start(ts clock.TimerSource, done func())
	Stop()
}

// TimingNode 在指定时长内把 Value 补间到目标值
type TimingNode struct {
	value    *Value
	target   func() float64
	duration time.Duration
	ease     Easing

	tw    *tween
	timer *clock.Timer
}

// Timing 创建补间节点
//
// 参数:
//   - v: 被驱动的值
//   - to: 目标值
//   - d: 时长，<= 0 时立即落定
//   - ease: 缓动函数，nil 表示线性
func Timing(v *Value, to float64, d time.Duration, ease Easing) *TimingNode {
	return TimingFunc(v, func() float64 { return to }, d, ease)
}

// TimingFunc 与 Timing 相同，但目标值在节点启动时才计算（用于随机位置等）
func TimingFunc(v *Value, to func() float64, d time.Duration, ease Easing) *TimingNode {
	return &TimingNode{value: v, target: to, duration: d, ease: ease}
}

// Start 实现 Node
func (n *TimingNode) Start(ts clock.TimerSource, done func()) {
	n.Stop()
	to := n.target()
	if n.duration <= 0 {
		n.value.Set(to)
		done()
		return
	}
	tw := n.value.begin(ts, to, n.duration, n.ease)
	n.tw = tw
	n.timer = ts.After(n.duration, func() {
		n.timer = nil
		n.tw = nil
		n.value.finish(tw)
		done()
	})
	if n.timer == nil {
		// 定时器组已取消，保持值不动
		n.value.freeze(tw)
		n.tw = nil
	}
}

// Stop 实现 Node；值停留在当前中间状态
func (n *TimingNode) Stop() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if n.tw != nil {
		n.value.freeze(n.tw)
		n.tw = nil
	}
}

// DelayNode 等待一段时间
type DelayNode struct {
	duration time.Duration
	timer    *clock.Timer
}

// Delay 创建等待节点
func Delay(d time.Duration) *DelayNode {
	return &DelayNode{duration: d}
}

// Start 实现 Node
func (n *DelayNode) Start(ts clock.TimerSource, done func()) {
	n.Stop()
	n.timer = ts.After(n.duration, func() {
		n.timer = nil
		done()
	})
}

// Stop 实现 Node
func (n *DelayNode) Stop() {
	n.timer.Stop()
	n.timer = nil
}

// CallNode 同步执行回调后立即完成
type CallNode struct {
	fn func()
}

// Call 创建回调节点
func Call(fn func()) *CallNode {
	return &CallNode{fn: fn}
}

// Start 实现 Node
func (n *CallNode) Start(_ clock.TimerSource, done func()) {
	if n.fn != nil {
		n.fn()
	}
	done()
}

// Stop 实现 Node
func (n *CallNode) Stop() {}

// Set 创建立即设置值的节点
func Set(v *Value, x float64) *CallNode {
	return Call(func() { v.Set(x) })
}

// SequenceNode 依次执行子节点
type SequenceNode struct {
	children []Node
	gen      int
	current  int
}

// Sequence 创建顺序节点；空序列启动后立即完成
func Sequence(children ...Node) *SequenceNode {
	return &SequenceNode{children: children, current: -1}
}

// Start 实现 Node
func (n *SequenceNode) Start(ts clock.TimerSource, done func()) {
	n.Stop()
	n.gen++
	n.runFrom(0, ts, done, n.gen)
}

func (n *SequenceNode) runFrom(i int, ts clock.TimerSource, done func(), gen int) {
	if i >= len(n.children) {
		n.current = -1
		done()
		return
	}
	n.current = i
	n.children[i].Start(ts, func() {
		if n.gen != gen {
			return
		}
		n.runFrom(i+1, ts, done, gen)
	})
}

// Stop 实现 Node
func (n *SequenceNode) Stop() {
	n.gen++
	if n.current >= 0 && n.current < len(n.children) {
		n.children[n.current].Stop()
	}
	n.current = -1
}

// ParallelNode 同时启动所有子节点，全部完成后才完成
type ParallelNode struct {
	children  []Node
	gen       int
	remaining int
}

// Parallel 创建并行节点；空并行组启动后立即完成
func Parallel(children ...Node) *ParallelNode {
	return &ParallelNode{children: children}
}

// Start 实现 Node
func (n *ParallelNode) Start(ts clock.TimerSource, done func()) {
	n.Stop()
	n.gen++
	gen := n.gen
	n.remaining = len(n.children)
	if n.remaining == 0 {
		done()
		return
	}
	for _, child := range n.children {
		if n.gen != gen {
			return
		}
		child.Start(ts, func() {
			if n.gen != gen {
				return
			}
			n.remaining--
			if n.remaining == 0 {
				done()
			}
		})
	}
}

// Stop 实现 Node
func (n *ParallelNode) Stop() {
	n.gen++
	if n.remaining > 0 {
		for _, child := range n.children {
			child.Stop()
		}
	}
	n.remaining = 0
}

// LoopNode 重复执行子节点
type LoopNode struct {
	body  Node
	times int
	gen   int
	iter  int
}

// Loop 创建循环节点
//
// 参数:
//   - body: 循环体，无限循环时必须包含计时步骤
//   - times: 重复次数，<= 0 表示无限循环
func Loop(body Node, times int) *LoopNode {
	return &LoopNode{body: body, times: times}
}

// Start 实现 Node
func (n *LoopNode) Start(ts clock.TimerSource, done func()) {
	n.Stop()
	n.gen++
	n.iter = 0
	n.run(ts, done, n.gen)
}

func (n *LoopNode) run(ts clock.TimerSource, done func(), gen int) {
	for {
		inStart := true
		completedSync := false
		n.body.Start(ts, func() {
			if n.gen != gen {
				return
			}
			n.iter++
			if n.times > 0 && n.iter >= n.times {
				done()
				return
			}
			if inStart {
				completedSync = true
				return
			}
			n.run(ts, done, gen)
		})
		inStart = false

		if !completedSync {
			return
		}
		if n.times <= 0 {
			log.Printf("[Anim] Warning: infinite loop body completed without waiting, loop stopped")
			return
		}
	}
}

// Stop 实现 Node
func (n *LoopNode) Stop() {
	n.gen++
	n.body.Stop()
}
