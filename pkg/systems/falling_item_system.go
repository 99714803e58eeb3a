package systems

import (
	"log"

	"github.com/decker502/lovetap/pkg/clock"
	"github.com/decker502/lovetap/pkg/components"
	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/ecs"
	"github.com/decker502/lovetap/pkg/event"
	"github.com/decker502/lovetap/pkg/utils"
)

// ItemView 掉落物的只读视图
type ItemView struct {
	ID         ecs.EntityID
	Kind       components.ItemKind
	X, Y       float64 // 生成位置
	Variant    int
	PhotoIndex int
	Progress   float64 // elapsed / lifetime，视图据此推导下落距离和透明度
}

// FallingItemSystem 点击掉落物（爱心、亲吻、照片）
//
// 每次有效点击掉落一颗爱心（颜色交替），分数是 kissEvery 的倍数时掉落亲吻，
// 是 photoEvery 的倍数时掉落照片。每个掉落物在 lifetime 后被移除。
// 照片掉落时立即派发 PhotoRevealed，由音频管理器播放语音。
type FallingItemSystem struct {
	entityManager *ecs.EntityManager
	lifetime      *LifetimeSystem
	cfg           *config.GameConfig
	rng           *utils.Random
	dispatcher    *event.Dispatcher

	photoCount int
	voiceCount int
	variant    int
}

// NewFallingItemSystem 创建掉落物系统
//
// 参数：
//   - em: 实体管理器
//   - timers: 过期定时器来源（游戏模式的 clock.Group）
//   - cfg: 数值配置
//   - rng: 会话随机数源
//   - dispatcher: PhotoRevealed 的派发目标
//   - photoCount: 照片数量
//   - voiceCount: 照片语音数量
func NewFallingItemSystem(em *ecs.EntityManager, timers clock.TimerSource, cfg *config.GameConfig, rng *utils.Random, dispatcher *event.Dispatcher, photoCount, voiceCount int) *FallingItemSystem {
	return &FallingItemSystem{
		entityManager: em,
		lifetime:      NewLifetimeSystem(em, timers),
		cfg:           cfg,
		rng:           rng,
		dispatcher:    dispatcher,
		photoCount:    photoCount,
		voiceCount:    voiceCount,
	}
}

// Spawn 在 (x, y) 生成一个掉落物并启动它的过期定时器
func (s *FallingItemSystem) Spawn(kind components.ItemKind, x, y float64) ecs.EntityID {
	id := s.entityManager.CreateEntity()
	item := &components.FallingItemComponent{
		Kind:   kind,
		SpawnX: x,
		SpawnY: y,
	}

	switch kind {
	case components.ItemHeart:
		item.Variant = s.variant
	case components.ItemPhoto:
		item.PhotoIndex = s.rng.Intn(s.photoCount)
	}

	ecs.AddComponent(s.entityManager, id, item)
	s.lifetime.Track(id, config.Ms(s.cfg.Items.LifetimeMs), nil)

	if kind == components.ItemPhoto {
		reveal := event.PhotoReveal{
			Entity:     id,
			PhotoIndex: item.PhotoIndex,
			VoiceIndex: s.rng.Intn(s.voiceCount),
		}
		log.Printf("[FallingItemSystem] Photo %d revealed (voice %d)", reveal.PhotoIndex, reveal.VoiceIndex)
		s.dispatcher.Dispatch(event.Event{Type: event.PhotoRevealed, Data: reveal})
	}
	return id
}

// OnTap 根据点击后的分数生成掉落物，三种触发互相独立
//
// 返回：
//   - []ecs.EntityID: 本次生成的实体（爱心总是第一个）
func (s *FallingItemSystem) OnTap(score int) []ecs.EntityID {
	width := float64(s.cfg.Screen.Width)
	items := s.cfg.Items

	spawned := []ecs.EntityID{s.Spawn(components.ItemHeart, s.rng.Range(0, width), items.SpawnY)}
	if items.HeartVariants > 0 {
		s.variant = (s.variant + 1) % items.HeartVariants
	}

	if items.KissEvery > 0 && score%items.KissEvery == 0 {
		spawned = append(spawned, s.Spawn(components.ItemKiss, s.rng.Range(0, width), items.SpawnY))
	}
	if items.PhotoEvery > 0 && score%items.PhotoEvery == 0 {
		spawned = append(spawned, s.Spawn(components.ItemPhoto, s.rng.Range(0, width), items.PhotoSpawnY))
	}
	return spawned
}

// Items 返回所有存活的掉落物（按创建顺序）
func (s *FallingItemSystem) Items() []ItemView {
	ids := ecs.GetEntitiesWith1[*components.FallingItemComponent](s.entityManager)
	views := make([]ItemView, 0, len(ids))
	for _, id := range ids {
		if s.entityManager.IsMarkedForDestroy(id) {
			continue
		}
		item, _ := ecs.GetComponent[*components.FallingItemComponent](s.entityManager, id)
		views = append(views, ItemView{
			ID:         id,
			Kind:       item.Kind,
			X:          item.SpawnX,
			Y:          item.SpawnY,
			Variant:    item.Variant,
			PhotoIndex: item.PhotoIndex,
			Progress:   s.lifetime.Progress(id),
		})
	}
	return views
}

