// Package event 提供同步事件分发
//
// 事件在 Dispatch 调用内同步送达所有订阅者，因此关卡变化的副作用
// （音效、背景、刷怪间隔）与分数更新在同一次调用中完成。
package event

import "github.com/decker502/lovetap/pkg/ecs"

// Type 事件类型
type Type string

const (
	// LevelChanged 关卡变化（升级或降级），Data 为 LevelChange
	LevelChanged Type = "level_changed"
	// FinalLevelReached 到达最终关卡，Data 为 LevelChange
	FinalLevelReached Type = "final_level_reached"
	// PhotoRevealed 照片掉落，Data 为 PhotoReveal
	PhotoRevealed Type = "photo_revealed"
	// EnemyResolved 敌人被消灭或到达目标，Data 为 EnemyResolution
	EnemyResolved Type = "enemy_resolved"
)

// Event 事件
type Event struct {
	Type Type
	Data interface{}
}

// LevelChange 关卡变化数据（关卡从 1 开始）
type LevelChange struct {
	From int
	To   int
	Up   bool
}

// PhotoReveal 照片揭示数据
type PhotoReveal struct {
	Entity     ecs.EntityID
	PhotoIndex int
	VoiceIndex int
}

// EnemyResolution 敌人结算数据
type EnemyResolution struct {
	Entity  ecs.EntityID
	Reached bool
}

// Listener 事件订阅者
type Listener interface {
	OnEvent(e Event)
}

// ListenerFunc 函数形式的订阅者
type ListenerFunc func(e Event)

// OnEvent 实现 Listener
func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}

type subscription struct {
	id       int
	listener Listener
}

// Dispatcher 事件分发器
type Dispatcher struct {
	nextID    int
	listeners map[Type][]subscription
}

// NewDispatcher 创建分发器
func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[Type][]subscription)}
}

// Subscribe 订阅事件，返回取消订阅函数
func (d *Dispatcher) Subscribe(t Type, l Listener) func() {
	d.nextID++
	id := d.nextID
	d.listeners[t] = append(d.listeners[t], subscription{id: id, listener: l})
	return func() { d.unsubscribe(t, id) }
}

func (d *Dispatcher) unsubscribe(t Type, id int) {
	subs := d.listeners[t]
	for i, s := range subs {
		if s.id == id {
			d.listeners[t] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Dispatch 按订阅顺序同步通知所有订阅者
func (d *Dispatcher) Dispatch(e Event) {
	subs := d.listeners[e.Type]
	for _, s := range subs {
		s.listener.OnEvent(e)
	}
}
