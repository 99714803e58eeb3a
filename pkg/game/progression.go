package game

import (
	"log"
	"time"

	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/event"
)

// TapResult 一次有效点击的结算结果
type TapResult struct {
	NewScore  int
	LeveledUp bool
	NewLevel  int
}

// HitResult 一次敌人到达的结算结果
type HitResult struct {
	NewScore    int
	LeveledDown bool
	NewLevel    int
}

// Progression 分数与关卡状态机
//
// 关卡由分数推导：level = clamp(floor(score / levelDivisor) + 1, 1, maxLevel)。
// 关卡变化时在同一次调用内同步派发事件，订阅者（音频、刷怪）的副作用
// 与分数更新一起完成。到达最终关卡后游戏停止，之后的调用不再改变状态。
type Progression struct {
	cfg        *config.GameConfig
	dispatcher *event.Dispatcher

	score  int
	level  int
	active bool
}

// NewProgression 创建状态机，分数为 0，关卡为 1
//
// 参数：
//   - cfg: 数值配置（关卡除数、最终关卡、扣分）
//   - dispatcher: 关卡事件的派发目标
func NewProgression(cfg *config.GameConfig, dispatcher *event.Dispatcher) *Progression {
	return &Progression{
		cfg:        cfg,
		dispatcher: dispatcher,
		level:      1,
		active:     true,
	}
}

// ApplyTap 结算一次有效点击：分数 +1，必要时升级
func (p *Progression) ApplyTap() TapResult {
	if !p.active {
		return TapResult{NewScore: p.score, NewLevel: p.level}
	}

	p.score++
	from := p.level
	to := p.cfg.LevelForScore(p.score)
	if to <= from {
		return TapResult{NewScore: p.score, NewLevel: p.level}
	}

	p.level = to
	change := event.LevelChange{From: from, To: to, Up: true}
	if to >= p.cfg.Progression.MaxLevel {
		p.active = false
		log.Printf("[Progression] Final level %d reached at score %d", to, p.score)
		p.dispatcher.Dispatch(event.Event{Type: event.FinalLevelReached, Data: change})
	} else {
		log.Printf("[Progression] Level up %d -> %d (score %d)", from, to, p.score)
		p.dispatcher.Dispatch(event.Event{Type: event.LevelChanged, Data: change})
	}
	return TapResult{NewScore: p.score, LeveledUp: true, NewLevel: to}
}

// ApplyEnemyHit 结算一次敌人到达：扣分（不低于 0），必要时降级
// 只有当前关卡大于 1 且新关卡严格更低时才降级
func (p *Progression) ApplyEnemyHit() HitResult {
	if !p.active {
		return HitResult{NewScore: p.score, NewLevel: p.level}
	}

	p.score -= p.cfg.Progression.EnemyHitPenalty
	if p.score < 0 {
		p.score = 0
	}

	from := p.level
	to := p.cfg.LevelForScore(p.score)
	if from <= 1 || to >= from {
		return HitResult{NewScore: p.score, NewLevel: p.level}
	}

	p.level = to
	log.Printf("[Progression] Level down %d -> %d (score %d)", from, to, p.score)
	p.dispatcher.Dispatch(event.Event{
		Type: event.LevelChanged,
		Data: event.LevelChange{From: from, To: to, Up: false},
	})
	return HitResult{NewScore: p.score, LeveledDown: true, NewLevel: to}
}

// Score 返回当前分数
func (p *Progression) Score() int {
	return p.score
}

// Level 返回当前关卡（从 1 开始）
func (p *Progression) Level() int {
	return p.level
}

// LevelIndex 返回当前关卡索引（从 0 开始），用于资源查找
func (p *Progression) LevelIndex() int {
	return p.level - 1
}

// SpawnInterval 返回当前关卡的敌人刷新间隔
func (p *Progression) SpawnInterval() time.Duration {
	return p.cfg.SpawnIntervalForLevel(p.level)
}

// IsGameActive 返回游戏是否仍在进行（未到达最终关卡）
func (p *Progression) IsGameActive() bool {
	return p.active
}
