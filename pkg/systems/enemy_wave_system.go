package systems

import (
	"log"
	"math"
	"time"

	"github.com/decker502/lovetap/pkg/clock"
	"github.com/decker502/lovetap/pkg/components"
	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/ecs"
	"github.com/decker502/lovetap/pkg/event"
	"github.com/decker502/lovetap/pkg/utils"
)

// 敌人生成的屏幕边
const (
	edgeTop = iota
	edgeRight
	edgeBottom
	edgeLeft
)

// EnemyView 敌人的只读视图
type EnemyView struct {
	ID          ecs.EntityID
	X, Y        float64
	Angle       float64
	SpriteIndex int
}

// EnemyWaveSystem 敌人波次控制
//
// 按刷新间隔周期性地在屏幕外生成敌人，敌人直线飞向目标点。
// 被点击消灭（Destroyed）或到达目标（Reached）后移除，两者只有一个生效。
// 到达时派发 EnemyResolved{Reached: true}，由订阅者扣分。
type EnemyWaveSystem struct {
	entityManager *ecs.EntityManager
	timers        clock.TimerSource
	cfg           *config.GameConfig
	sprites       config.Gallery
	rng           *utils.Random
	dispatcher    *event.Dispatcher
	levelIndex    func() int

	interval   time.Duration
	spawnTimer *clock.Timer
}

// NewEnemyWaveSystem 创建敌人波次系统
//
// 参数：
//   - em: 实体管理器
//   - timers: 刷新和到达定时器的来源（游戏模式的 clock.Group）
//   - cfg: 数值配置（屏幕、目标点、速度）
//   - sprites: 敌人贴图列表，贴图索引取当前关卡索引并钳制
//   - rng: 会话随机数源
//   - dispatcher: EnemyResolved 的派发目标
//   - levelIndex: 返回当前关卡索引
func NewEnemyWaveSystem(em *ecs.EntityManager, timers clock.TimerSource, cfg *config.GameConfig, sprites config.Gallery, rng *utils.Random, dispatcher *event.Dispatcher, levelIndex func() int) *EnemyWaveSystem {
	return &EnemyWaveSystem{
		entityManager: em,
		timers:        timers,
		cfg:           cfg,
		sprites:       sprites,
		rng:           rng,
		dispatcher:    dispatcher,
		levelIndex:    levelIndex,
	}
}

// Start 以给定间隔开始周期性生成
func (s *EnemyWaveSystem) Start(interval time.Duration) {
	s.interval = interval
	s.spawnTimer.Stop()
	s.spawnTimer = s.timers.Every(interval, func() { s.SpawnEnemy() })
	log.Printf("[EnemyWaveSystem] Spawning every %v", interval)
}

// SetSpawnInterval 更新刷新间隔；间隔变化时停止旧定时器并重新创建
func (s *EnemyWaveSystem) SetSpawnInterval(interval time.Duration) {
	if interval == s.interval && s.spawnTimer.Active() {
		return
	}
	s.Start(interval)
}

// Interval 返回当前刷新间隔
func (s *EnemyWaveSystem) Interval() time.Duration {
	return s.interval
}

// Stop 停止生成（已生成的敌人继续飞行）
func (s *EnemyWaveSystem) Stop() {
	s.spawnTimer.Stop()
	s.spawnTimer = nil
}

// SpawnEnemy 在随机一条屏幕边外生成一个敌人
func (s *EnemyWaveSystem) SpawnEnemy() ecs.EntityID {
	w := float64(s.cfg.Screen.Width)
	h := float64(s.cfg.Screen.Height)
	offset := s.cfg.Enemy.SpawnOffset

	var x, y float64
	switch s.rng.Intn(4) {
	case edgeTop:
		x, y = s.rng.Range(0, w), -offset
	case edgeRight:
		x, y = w+offset, s.rng.Range(0, h)
	case edgeBottom:
		x, y = s.rng.Range(0, w), h+offset
	case edgeLeft:
		x, y = -offset, s.rng.Range(0, h)
	}
	return s.spawnAt(x, y)
}

func (s *EnemyWaveSystem) spawnAt(x, y float64) ecs.EntityID {
	tx, ty := s.cfg.Target.X, s.cfg.Target.Y
	dx, dy := tx-x, ty-y
	distance := math.Hypot(dx, dy)
	travel := time.Duration(distance * s.cfg.Enemy.MsPerPixel * float64(time.Millisecond))

	id := s.entityManager.CreateEntity()
	enemy := &components.EnemyComponent{
		StartX:      x,
		StartY:      y,
		TargetX:     tx,
		TargetY:     ty,
		Angle:       math.Atan2(dy, dx),
		SpriteIndex: s.sprites.Clamp(s.levelIndex()),
		SpawnedAt:   s.timers.Now(),
		TravelTime:  travel,
	}
	enemy.Arrival = s.timers.After(travel, func() { s.arrive(id) })
	ecs.AddComponent(s.entityManager, id, enemy)
	return id
}

func (s *EnemyWaveSystem) arrive(id ecs.EntityID) {
	enemy, ok := ecs.GetComponent[*components.EnemyComponent](s.entityManager, id)
	if !ok || !enemy.Resolve(components.EnemyReached) {
		return
	}
	s.entityManager.DestroyEntity(id)
	s.dispatcher.Dispatch(event.Event{
		Type: event.EnemyResolved,
		Data: event.EnemyResolution{Entity: id, Reached: true},
	})
}

// Destroy 点击消灭敌人；已结算的敌人返回 false
func (s *EnemyWaveSystem) Destroy(id ecs.EntityID) bool {
	enemy, ok := ecs.GetComponent[*components.EnemyComponent](s.entityManager, id)
	if !ok || !enemy.Resolve(components.EnemyDestroyed) {
		return false
	}
	enemy.Arrival.Stop()
	s.entityManager.DestroyEntity(id)
	s.dispatcher.Dispatch(event.Event{
		Type: event.EnemyResolved,
		Data: event.EnemyResolution{Entity: id, Reached: false},
	})
	return true
}

// Enemies 返回所有存活的敌人及其当前位置
func (s *EnemyWaveSystem) Enemies() []EnemyView {
	now := s.timers.Now()
	ids := ecs.GetEntitiesWith1[*components.EnemyComponent](s.entityManager)
	views := make([]EnemyView, 0, len(ids))
	for _, id := range ids {
		enemy, _ := ecs.GetComponent[*components.EnemyComponent](s.entityManager, id)
		if enemy.State != components.EnemyAlive {
			continue
		}
		x, y := enemy.PositionAt(now)
		views = append(views, EnemyView{
			ID:          id,
			X:           x,
			Y:           y,
			Angle:       enemy.Angle,
			SpriteIndex: enemy.SpriteIndex,
		})
	}
	return views
}

// EnemyAt 返回 (x, y) 命中半径内最近的存活敌人
func (s *EnemyWaveSystem) EnemyAt(x, y float64) (ecs.EntityID, bool) {
	var best ecs.EntityID
	bestDist := s.cfg.Enemy.HitRadius
	found := false
	for _, e := range s.Enemies() {
		if d := math.Hypot(e.X-x, e.Y-y); d <= bestDist {
			best, bestDist, found = e.ID, d, true
		}
	}
	return best, found
}
