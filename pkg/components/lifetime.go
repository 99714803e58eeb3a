package components

import (
	"time"

	"github.com/decker502/lovetap/pkg/clock"
)

// LifetimeComponent 管理限时实体的生命周期
// 每个实体持有自己的一次性过期定时器，到期后被移除（掉落物）
type LifetimeComponent struct {
	CreatedAt   time.Duration // 创建时刻（调度器时间）
	MaxLifetime time.Duration // 最大存活时长
	Expiry      *clock.Timer  // 过期定时器
	IsExpired   bool          // 是否已过期
}

// Progress 返回 elapsed / lifetime，范围 [0, 1]
func (c *LifetimeComponent) Progress(now time.Duration) float64 {
	if c.MaxLifetime <= 0 || c.IsExpired {
		return 1
	}
	p := float64(now-c.CreatedAt) / float64(c.MaxLifetime)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
