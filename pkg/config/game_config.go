package config

import (
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

// GameConfigPath 默认游戏配置路径
const GameConfigPath = "data/config/game.yaml"

// GameConfig 游戏数值配置（data/config/game.yaml）
// 所有时长以毫秒整数存储，通过 Duration 辅助方法转换
type GameConfig struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Target      PointConfig       `yaml:"target"`      // 敌人飞向的目标点（主爱心中心）
	Progression ProgressionConfig `yaml:"progression"` // 分数与关卡
	Spawn       SpawnConfig       `yaml:"spawn"`       // 敌人刷新间隔
	Items       ItemsConfig       `yaml:"items"`       // 掉落物
	Enemy       EnemyConfig       `yaml:"enemy"`
	Input       InputConfig       `yaml:"input"`
	Cutscene    CutsceneConfig    `yaml:"cutscene"`
	Boss        BossConfig        `yaml:"boss"`
}

// ScreenConfig 逻辑屏幕尺寸
type ScreenConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PointConfig 屏幕坐标
type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ProgressionConfig 关卡公式: level = clamp(floor(score / levelDivisor) + 1, 1, maxLevel)
type ProgressionConfig struct {
	LevelDivisor    int `yaml:"levelDivisor"`
	MaxLevel        int `yaml:"maxLevel"`
	EnemyHitPenalty int `yaml:"enemyHitPenalty"`
}

// SpawnConfig 刷新间隔: max(minIntervalMs, baseIntervalMs * decay^(level-1))
type SpawnConfig struct {
	BaseIntervalMs int     `yaml:"baseIntervalMs"`
	Decay          float64 `yaml:"decay"`
	MinIntervalMs  int     `yaml:"minIntervalMs"`
}

// ItemsConfig 掉落物配置
type ItemsConfig struct {
	LifetimeMs    int     `yaml:"lifetimeMs"`
	KissEvery     int     `yaml:"kissEvery"`  // 分数为其倍数时掉落亲吻
	PhotoEvery    int     `yaml:"photoEvery"` // 分数为其倍数时掉落照片
	HeartVariants int     `yaml:"heartVariants"`
	SpawnY        float64 `yaml:"spawnY"`      // 屏幕上方的生成高度（负数）
	PhotoSpawnY   float64 `yaml:"photoSpawnY"` // 照片稍低一些
}

// EnemyConfig 敌人配置
type EnemyConfig struct {
	MsPerPixel  float64 `yaml:"msPerPixel"`  // 每像素飞行耗时
	SpawnOffset float64 `yaml:"spawnOffset"` // 生成位置距屏幕边缘的距离
	HitRadius   float64 `yaml:"hitRadius"`   // 点击判定半径（视图使用）
}

// InputConfig 输入配置
type InputConfig struct {
	DebounceMs int `yaml:"debounceMs"`
}

// CutsceneConfig 过场动画时长
type CutsceneConfig struct {
	FadeInMs        int     `yaml:"fadeInMs"`
	HeartbeatsMs    []int   `yaml:"heartbeatsMs"`
	WhiteOutMs      int     `yaml:"whiteOutMs"`
	CrossFadeMs     int     `yaml:"crossFadeMs"`
	BlackHoleMs     int     `yaml:"blackHoleMs"`
	PauseMs         int     `yaml:"pauseMs"`
	ShootingHeartMs int     `yaml:"shootingHeartMs"`
	BossSlideMs     int     `yaml:"bossSlideMs"`
	BossStartX      float64 `yaml:"bossStartX"`
	BossEndX        float64 `yaml:"bossEndX"`
}

// BossConfig Boss 阶段配置
type BossConfig struct {
	FireIntervalMs   int          `yaml:"fireIntervalMs"`
	ShotTravelMs     int          `yaml:"shotTravelMs"`
	MeterIncrement   float64      `yaml:"meterIncrement"`
	MeterThreshold   float64      `yaml:"meterThreshold"`
	FlickerAt        float64      `yaml:"flickerAt"`
	FlickerMs        int          `yaml:"flickerMs"`
	StarCount        int          `yaml:"starCount"`
	StarStaggerMs    int          `yaml:"starStaggerMs"`
	TwinkleMs        int          `yaml:"twinkleMs"`
	DriftEveryMs     int          `yaml:"driftEveryMs"`
	DriftMs          int          `yaml:"driftMs"`
	SpriteIntervalMs int          `yaml:"spriteIntervalMs"`
	SwayAmplitude    float64      `yaml:"swayAmplitude"`
	SwayLegMs        int          `yaml:"swayLegMs"`
	BobTop           float64      `yaml:"bobTop"`
	BobBottom        float64      `yaml:"bobBottom"`
	BobLegMs         int          `yaml:"bobLegMs"`
	HeartbeatLegMs   int          `yaml:"heartbeatLegMs"`
	Finish           FinishConfig `yaml:"finish"`
}

// FinishConfig 终结序列时长
type FinishConfig struct {
	CenterMs       int     `yaml:"centerMs"`
	AimMs          int     `yaml:"aimMs"`
	ChargeMs       int     `yaml:"chargeMs"`
	CollapseMs     int     `yaml:"collapseMs"`
	PauseMs        int     `yaml:"pauseMs"`
	LaserOnMs      int     `yaml:"laserOnMs"`
	LaserHoldMs    int     `yaml:"laserHoldMs"`
	ShakeRounds    int     `yaml:"shakeRounds"`
	ShakeSteps     int     `yaml:"shakeSteps"`
	ShakeStepMs    int     `yaml:"shakeStepMs"`
	ShakeAmplitude float64 `yaml:"shakeAmplitude"`
	WhiteFadeMs    int     `yaml:"whiteFadeMs"`
	ConclusionMs   int     `yaml:"conclusionMs"`
	AimX           float64 `yaml:"aimX"`
	AimY           float64 `yaml:"aimY"`
}

// Ms 把毫秒整数转换为 time.Duration
func Ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Tenths 把 0.1 精度的小数转换为整数十分位（0.4 → 4, 100 → 1000）
func Tenths(v float64) int {
	return int(math.Round(v * 10))
}

// DefaultGameConfig 返回内置默认配置，与 data/config/game.yaml 一致
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Screen:      ScreenConfig{Width: 390, Height: 844},
		Target:      PointConfig{X: 195, Y: 422},
		Progression: ProgressionConfig{LevelDivisor: 100, MaxLevel: 9, EnemyHitPenalty: 5},
		Spawn:       SpawnConfig{BaseIntervalMs: 10000, Decay: 0.95, MinIntervalMs: 2000},
		Items: ItemsConfig{
			LifetimeMs:    5000,
			KissEvery:     3,
			PhotoEvery:    10,
			HeartVariants: 2,
			SpawnY:        -100,
			PhotoSpawnY:   -50,
		},
		Enemy: EnemyConfig{MsPerPixel: 10, SpawnOffset: 50, HitRadius: 40},
		Input: InputConfig{DebounceMs: 100},
		Cutscene: CutsceneConfig{
			FadeInMs:        1000,
			HeartbeatsMs:    []int{1000, 900, 800, 700, 600, 500, 400, 300, 200, 100},
			WhiteOutMs:      1000,
			CrossFadeMs:     7000,
			BlackHoleMs:     4000,
			PauseMs:         1000,
			ShootingHeartMs: 750,
			BossSlideMs:     5000,
			BossStartX:      -450,
			BossEndX:        -300,
		},
		Boss: BossConfig{
			FireIntervalMs:   300,
			ShotTravelMs:     2000,
			MeterIncrement:   0.4,
			MeterThreshold:   100,
			FlickerAt:        90,
			FlickerMs:        250,
			StarCount:        25,
			StarStaggerMs:    500,
			TwinkleMs:        1000,
			DriftEveryMs:     5000,
			DriftMs:          2000,
			SpriteIntervalMs: 2000,
			SwayAmplitude:    150,
			SwayLegMs:        2000,
			BobTop:           -300,
			BobBottom:        -270,
			BobLegMs:         1000,
			HeartbeatLegMs:   150,
			Finish: FinishConfig{
				CenterMs:       1000,
				AimMs:          2000,
				ChargeMs:       5000,
				CollapseMs:     250,
				PauseMs:        250,
				LaserOnMs:      100,
				LaserHoldMs:    3000,
				ShakeRounds:    20,
				ShakeSteps:     5,
				ShakeStepMs:    50,
				ShakeAmplitude: 10,
				WhiteFadeMs:    5000,
				ConclusionMs:   5000,
				AimX:           195,
				AimY:           600,
			},
		},
	}
}

// LoadGameConfig 从 YAML 文件加载游戏配置
// 文件中缺失的字段保留默认值
func LoadGameConfig(path string) (*GameConfig, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game config file: %w", err)
	}
	return ParseGameConfig(data)
}

// ParseGameConfig 解析并校验游戏配置
func ParseGameConfig(data []byte) (*GameConfig, error) {
	cfg := DefaultGameConfig()
	// 列表字段整体替换而不是合并
	cfg.Cutscene.HeartbeatsMs = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse game config YAML: %w", err)
	}
	if cfg.Cutscene.HeartbeatsMs == nil {
		cfg.Cutscene.HeartbeatsMs = DefaultGameConfig().Cutscene.HeartbeatsMs
	}
	if err := validateGameConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}
	return cfg, nil
}

// validateGameConfig 验证配置的有效性
func validateGameConfig(cfg *GameConfig) error {
	if cfg.Screen.Width <= 0 || cfg.Screen.Height <= 0 {
		return fmt.Errorf("screen size must be positive, got %dx%d", cfg.Screen.Width, cfg.Screen.Height)
	}
	if cfg.Progression.LevelDivisor < 1 {
		return fmt.Errorf("progression.levelDivisor must be >= 1, got %d", cfg.Progression.LevelDivisor)
	}
	if cfg.Progression.MaxLevel < 2 {
		return fmt.Errorf("progression.maxLevel must be >= 2, got %d", cfg.Progression.MaxLevel)
	}
	if cfg.Progression.EnemyHitPenalty < 0 {
		return fmt.Errorf("progression.enemyHitPenalty must be >= 0, got %d", cfg.Progression.EnemyHitPenalty)
	}
	if cfg.Spawn.BaseIntervalMs <= 0 || cfg.Spawn.MinIntervalMs <= 0 {
		return fmt.Errorf("spawn intervals must be positive, got base=%d min=%d", cfg.Spawn.BaseIntervalMs, cfg.Spawn.MinIntervalMs)
	}
	if cfg.Spawn.Decay <= 0 || cfg.Spawn.Decay > 1 {
		return fmt.Errorf("spawn.decay must be in (0, 1], got %v", cfg.Spawn.Decay)
	}
	if cfg.Items.LifetimeMs <= 0 {
		return fmt.Errorf("items.lifetimeMs must be positive, got %d", cfg.Items.LifetimeMs)
	}
	if cfg.Items.KissEvery < 1 || cfg.Items.PhotoEvery < 1 {
		return fmt.Errorf("items.kissEvery and items.photoEvery must be >= 1, got %d and %d", cfg.Items.KissEvery, cfg.Items.PhotoEvery)
	}
	if cfg.Items.HeartVariants < 1 {
		return fmt.Errorf("items.heartVariants must be >= 1, got %d", cfg.Items.HeartVariants)
	}
	if cfg.Enemy.MsPerPixel <= 0 {
		return fmt.Errorf("enemy.msPerPixel must be positive, got %v", cfg.Enemy.MsPerPixel)
	}
	if cfg.Input.DebounceMs < 0 {
		return fmt.Errorf("input.debounceMs must be >= 0, got %d", cfg.Input.DebounceMs)
	}
	for i, d := range cfg.Cutscene.HeartbeatsMs {
		if d <= 0 {
			return fmt.Errorf("cutscene.heartbeatsMs[%d] must be positive, got %d", i, d)
		}
	}
	if cfg.Boss.FireIntervalMs <= 0 {
		return fmt.Errorf("boss.fireIntervalMs must be positive, got %d", cfg.Boss.FireIntervalMs)
	}
	if Tenths(cfg.Boss.MeterIncrement) <= 0 {
		return fmt.Errorf("boss.meterIncrement must be >= 0.1, got %v", cfg.Boss.MeterIncrement)
	}
	if Tenths(cfg.Boss.MeterThreshold) <= 0 {
		return fmt.Errorf("boss.meterThreshold must be positive, got %v", cfg.Boss.MeterThreshold)
	}
	if cfg.Boss.StarCount < 0 {
		return fmt.Errorf("boss.starCount must be >= 0, got %d", cfg.Boss.StarCount)
	}
	if cfg.Boss.SpriteIntervalMs <= 0 || cfg.Boss.DriftEveryMs <= 0 || cfg.Boss.FlickerMs <= 0 {
		return fmt.Errorf("boss timer periods must be positive")
	}
	if cfg.Boss.Finish.ShakeRounds < 1 {
		return fmt.Errorf("boss.finish.shakeRounds must be >= 1, got %d", cfg.Boss.Finish.ShakeRounds)
	}
	if cfg.Boss.Finish.ShakeSteps < 1 {
		return fmt.Errorf("boss.finish.shakeSteps must be >= 1, got %d", cfg.Boss.Finish.ShakeSteps)
	}
	return nil
}

// LevelForScore 计算分数对应的关卡（1..maxLevel）
func (c *GameConfig) LevelForScore(score int) int {
	if score < 0 {
		score = 0
	}
	level := score/c.Progression.LevelDivisor + 1
	if level > c.Progression.MaxLevel {
		level = c.Progression.MaxLevel
	}
	return level
}

// SpawnIntervalForLevel 计算关卡对应的敌人刷新间隔
func (c *GameConfig) SpawnIntervalForLevel(level int) time.Duration {
	if level < 1 {
		level = 1
	}
	ms := float64(c.Spawn.BaseIntervalMs) * math.Pow(c.Spawn.Decay, float64(level-1))
	if ms < float64(c.Spawn.MinIntervalMs) {
		ms = float64(c.Spawn.MinIntervalMs)
	}
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
