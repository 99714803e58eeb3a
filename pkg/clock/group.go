package clock

import "time"

// Group 一组可整体取消的定时器
//
// 会话的每个模式持有一个 Group，离开模式时 Cancel，保证旧模式的回调
// 不会在后续模式中触发。Group 可以嵌套，取消父组会同时取消所有子组。
type Group struct {
	source    TimerSource
	timers    map[*Timer]struct{}
	children  []*Group
	cancelled bool
}

// NewGroup 基于 source 创建一个定时器组
func NewGroup(source TimerSource) *Group {
	return &Group{
		source: source,
		timers: make(map[*Timer]struct{}),
	}
}

// NewChild 创建子组；父组已取消时返回的子组同样处于取消状态
func (g *Group) NewChild() *Group {
	child := NewGroup(g)
	child.cancelled = g.cancelled
	if !g.cancelled {
		g.children = append(g.children, child)
	}
	return child
}

// Now 返回底层调度器的当前时间
func (g *Group) Now() time.Duration {
	return g.source.Now()
}

// After 在组内创建一次性定时器；组已取消时返回 nil
func (g *Group) After(d time.Duration, fn func()) *Timer {
	if g.cancelled {
		return nil
	}
	return g.track(g.source.After(d, fn))
}

// Every 在组内创建重复定时器；组已取消时返回 nil
func (g *Group) Every(period time.Duration, fn func()) *Timer {
	if g.cancelled {
		return nil
	}
	return g.track(g.source.Every(period, fn))
}

func (g *Group) track(t *Timer) *Timer {
	if t == nil {
		return nil
	}
	// 嵌套组时底层定时器已经被子组的父级登记过，这里改为归属当前组
	if t.group != nil {
		t.group.forget(t)
	}
	t.group = g
	g.timers[t] = struct{}{}
	return t
}

func (g *Group) forget(t *Timer) {
	delete(g.timers, t)
}

// Cancel 停止组内以及所有子组中的定时器，之后组不再接受新定时器
func (g *Group) Cancel() {
	if g.cancelled {
		return
	}
	g.cancelled = true
	for t := range g.timers {
		t.group = nil
		t.Stop()
	}
	g.timers = make(map[*Timer]struct{})
	for _, child := range g.children {
		child.Cancel()
	}
	g.children = nil
}

// Cancelled 返回组是否已被取消
func (g *Group) Cancelled() bool {
	return g.cancelled
}

// Len 返回组内仍处于活动状态的定时器数量（不含子组）
func (g *Group) Len() int {
	return len(g.timers)
}
