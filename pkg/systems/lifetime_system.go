package systems

import (
	"time"

	"github.com/decker502/lovetap/pkg/clock"
	"github.com/decker502/lovetap/pkg/components"
	"github.com/decker502/lovetap/pkg/ecs"
)

// LifetimeSystem 管理限时实体的生命周期
// 每个实体有自己的一次性过期定时器，到期时标记删除；Update 清理已标记的实体
type LifetimeSystem struct {
	entityManager *ecs.EntityManager
	timers        clock.TimerSource
}

// NewLifetimeSystem 创建一个新的生命周期系统
func NewLifetimeSystem(em *ecs.EntityManager, timers clock.TimerSource) *LifetimeSystem {
	return &LifetimeSystem{
		entityManager: em,
		timers:        timers,
	}
}

// Track 为实体添加生命周期组件并启动过期定时器
//
// 参数：
//   - id: 实体ID
//   - lifetime: 存活时长，到期时实体被标记删除
//   - onExpire: 过期回调，可为 nil
func (s *LifetimeSystem) Track(id ecs.EntityID, lifetime time.Duration, onExpire func(ecs.EntityID)) *components.LifetimeComponent {
	comp := &components.LifetimeComponent{
		CreatedAt:   s.timers.Now(),
		MaxLifetime: lifetime,
	}
	comp.Expiry = s.timers.After(lifetime, func() {
		comp.IsExpired = true
		s.entityManager.DestroyEntity(id)
		if onExpire != nil {
			onExpire(id)
		}
	})
	ecs.AddComponent(s.entityManager, id, comp)
	return comp
}

// Progress 返回实体的生命周期进度 [0, 1]；没有生命周期组件时返回 1
func (s *LifetimeSystem) Progress(id ecs.EntityID) float64 {
	comp, ok := ecs.GetComponent[*components.LifetimeComponent](s.entityManager, id)
	if !ok {
		return 1
	}
	return comp.Progress(s.timers.Now())
}
