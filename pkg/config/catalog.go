package config

import (
	"fmt"
	"os"

	"github.com/decker502/lovetap/pkg/embedded"
	"gopkg.in/yaml.v3"
)

const (
	// AudioCatalogPath 默认音频目录路径
	AudioCatalogPath = "data/config/audio.yaml"
	// AssetCatalogPath 默认图片目录路径
	AssetCatalogPath = "data/config/assets.yaml"
)

// Gallery 一组按索引访问的资源
// 可以显式列出 files，也可以用 pattern（fmt 格式，索引从 1 开始）加 count 生成
type Gallery struct {
	Pattern string   `yaml:"pattern"`
	Count   int      `yaml:"count"`
	Files   []string `yaml:"files"`
}

// Len 返回资源数量
func (g Gallery) Len() int {
	if len(g.Files) > 0 {
		return len(g.Files)
	}
	return g.Count
}

// Clamp 把索引钳制到 [0, Len()-1]
func (g Gallery) Clamp(i int) int {
	n := g.Len()
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Handle 返回索引对应的资源路径（索引越界时钳制）
func (g Gallery) Handle(i int) string {
	if g.Len() == 0 {
		return ""
	}
	i = g.Clamp(i)
	if len(g.Files) > 0 {
		return g.Files[i]
	}
	return fmt.Sprintf(g.Pattern, i+1)
}

// AssetCatalog 图片资源目录（data/config/assets.yaml）
type AssetCatalog struct {
	EnemySprites Gallery `yaml:"enemySprites"` // 每个关卡一种敌人
	Backgrounds  Gallery `yaml:"backgrounds"`  // 每个关卡一张背景
	BossGallery  Gallery `yaml:"bossGallery"`
	Photos       Gallery `yaml:"photos"`
	Conclusion   string  `yaml:"conclusion"`
}

// AudioVolumes 各类音频的默认音量
type AudioVolumes struct {
	BGMStart    float64 `yaml:"bgmStart"` // 第一首背景音乐
	BGM         float64 `yaml:"bgm"`
	Ambience    float64 `yaml:"ambience"`
	LevelCue    float64 `yaml:"levelCue"`
	Endorsement float64 `yaml:"endorsement"`
}

// AudioCue 命名的一次性音效
type AudioCue struct {
	File   string  `yaml:"file"`
	Volume float64 `yaml:"volume"`
}

// AudioCatalog 音频目录（data/config/audio.yaml）
type AudioCatalog struct {
	Volumes      AudioVolumes        `yaml:"volumes"`
	BGM          Gallery             `yaml:"bgm"`
	LevelCues    Gallery             `yaml:"levelCues"`
	Ambience     Gallery             `yaml:"ambience"`
	Endorsements Gallery             `yaml:"endorsements"` // 照片揭示时的语音
	Cues         map[string]AudioCue `yaml:"cues"`
}

// 命名音效
const (
	CueHeartbeat = "heartbeat"
	CueFinale    = "finale"
	CueBossIntro = "bossIntro"
)

// LoadAssetCatalog 从 YAML 文件加载图片目录
func LoadAssetCatalog(path string) (*AssetCatalog, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset catalog: %w", err)
	}
	var catalog AssetCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse asset catalog YAML: %w", err)
	}
	if err := validateAssetCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("invalid asset catalog: %w", err)
	}
	return &catalog, nil
}

func validateAssetCatalog(c *AssetCatalog) error {
	galleries := map[string]Gallery{
		"enemySprites": c.EnemySprites,
		"backgrounds":  c.Backgrounds,
		"bossGallery":  c.BossGallery,
		"photos":       c.Photos,
	}
	for name, g := range galleries {
		if err := validateGallery(name, g); err != nil {
			return err
		}
	}
	return nil
}

func validateGallery(name string, g Gallery) error {
	if g.Len() == 0 {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if len(g.Files) == 0 && g.Pattern == "" {
		return fmt.Errorf("%s needs either files or a pattern", name)
	}
	return nil
}

// LoadAudioCatalog 从 YAML 文件加载音频目录
func LoadAudioCatalog(path string) (*AudioCatalog, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio catalog: %w", err)
	}
	var catalog AudioCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse audio catalog YAML: %w", err)
	}
	if err := validateAudioCatalog(&catalog); err != nil {
		return nil, fmt.Errorf("invalid audio catalog: %w", err)
	}
	return &catalog, nil
}

func validateAudioCatalog(c *AudioCatalog) error {
	for name, g := range map[string]Gallery{
		"bgm":          c.BGM,
		"levelCues":    c.LevelCues,
		"ambience":     c.Ambience,
		"endorsements": c.Endorsements,
	} {
		if err := validateGallery(name, g); err != nil {
			return err
		}
	}
	volumes := map[string]float64{
		"bgmStart":    c.Volumes.BGMStart,
		"bgm":         c.Volumes.BGM,
		"ambience":    c.Volumes.Ambience,
		"levelCue":    c.Volumes.LevelCue,
		"endorsement": c.Volumes.Endorsement,
	}
	for name, v := range volumes {
		if v < 0 || v > 1 {
			return fmt.Errorf("volumes.%s must be in [0, 1], got %v", name, v)
		}
	}
	for name, cue := range c.Cues {
		if cue.File == "" {
			return fmt.Errorf("cue %s has no file", name)
		}
		if cue.Volume < 0 || cue.Volume > 1 {
			return fmt.Errorf("cue %s volume must be in [0, 1], got %v", name, cue.Volume)
		}
	}
	return nil
}

// readConfigFile 优先从嵌入资源读取，失败时回退到磁盘
func readConfigFile(path string) ([]byte, error) {
	if embedded.IsInitialized() {
		if data, err := embedded.ReadFile(path); err == nil {
			return data, nil
		}
	}
	return os.ReadFile(path)
}

// DefaultAssetCatalog 内置图片目录，与 data/config/assets.yaml 一致
func DefaultAssetCatalog() *AssetCatalog {
	return &AssetCatalog{
		EnemySprites: Gallery{Pattern: "assets/images/enemies/%d.png", Count: 8},
		Backgrounds:  Gallery{Pattern: "assets/images/backgrounds/%d.png", Count: 8},
		BossGallery:  Gallery{Pattern: "assets/images/boss/%d.jpeg", Count: 16},
		Photos:       Gallery{Pattern: "assets/images/photos/%d.jpeg", Count: 58},
		Conclusion:   "assets/images/backgrounds/conclusion.jpeg",
	}
}

// DefaultAudioCatalog 内置音频目录，与 data/config/audio.yaml 一致
func DefaultAudioCatalog() *AudioCatalog {
	return &AudioCatalog{
		Volumes: AudioVolumes{
			BGMStart:    0.1,
			BGM:         0.3,
			Ambience:    0.1,
			LevelCue:    0.1,
			Endorsement: 0.5,
		},
		BGM: Gallery{Files: []string{
			"assets/sound/bgm/afterDark.mp3",
			"assets/sound/bgm/harvestMoon.mp3",
			"assets/sound/bgm/justTheTwoOfUs.mp3",
			"assets/sound/bgm/kerosene.mp3",
			"assets/sound/bgm/muteCity.mp3",
			"assets/sound/bgm/nightcall.mp3",
		}},
		LevelCues: Gallery{Files: []string{
			"assets/sound/sfx/levelUp/grassRun.mp3",
			"assets/sound/sfx/levelUp/sandWalk.mp3",
			"assets/sound/sfx/levelUp/waterEmerge.mp3",
			"assets/sound/sfx/levelUp/mudWalk.mp3",
			"assets/sound/sfx/levelUp/snowWalk.mp3",
			"assets/sound/sfx/levelUp/rockBreak.mp3",
			"assets/sound/sfx/levelUp/airplane.mp3",
			"assets/sound/sfx/levelUp/rocket.mp3",
			"assets/sound/sfx/levelUp/8.mp3",
		}},
		Ambience: Gallery{Files: []string{
			"assets/sound/sfx/levelAmbience/grassAmbience.mp3",
			"assets/sound/sfx/levelAmbience/beachAmbience.mp3",
			"assets/sound/sfx/levelAmbience/underwaterAmbience.mp3",
			"assets/sound/sfx/levelAmbience/swampAmbience.mp3",
			"assets/sound/sfx/levelAmbience/winterAmbience.mp3",
			"assets/sound/sfx/levelAmbience/blizzardAmbience.mp3",
			"assets/sound/sfx/levelAmbience/windAmbience.mp3",
			"assets/sound/sfx/levelAmbience/spaceAmbience.mp3",
		}},
		Endorsements: Gallery{Pattern: "assets/sound/sfx/endorsements/%d.mp3", Count: 15},
		Cues: map[string]AudioCue{
			CueHeartbeat: {File: "assets/sound/sfx/heartbeat.mp3", Volume: 1},
			CueFinale:    {File: "assets/sound/bgm/hopesAndDreams.mp3", Volume: 0.75},
			CueBossIntro: {File: "assets/sound/sfx/bossIntro.mp3", Volume: 1},
		},
	}
}
