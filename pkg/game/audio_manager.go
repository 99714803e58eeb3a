package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/decker502/lovetap/pkg/clock"
	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/event"
	"github.com/decker502/lovetap/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// 并发加载的最大数量
const loadConcurrency = 4

// 背景音乐轮询间隔
const musicPollInterval = time.Second

// 音频 key 命名
func bgmKey(i int) string         { return fmt.Sprintf("bgm/%d", i) }
func levelCueKey(i int) string    { return fmt.Sprintf("levelCue/%d", i) }
func ambienceKey(i int) string    { return fmt.Sprintf("ambience/%d", i) }
func endorsementKey(i int) string { return fmt.Sprintf("endorsement/%d", i) }
func cueKey(name string) string   { return "cue/" + name }

// audioEntry 一个待加载的音频资源
type audioEntry struct {
	key    string
	path   string
	volume float64
	music  bool // 音乐类（背景音乐、环境音）使用 MusicVolume 系数
}

// AudioManager 音频管理器
// 职责：
//   - 加载音频目录中的全部资源（LoadAll）
//   - 背景音乐随机播放列表，播完自动切到下一首并循环
//   - 同一时间只有一个环境音
//   - 一次性音效：关卡切换、照片语音、心跳、过场音乐
//   - 全局静音
//
// AudioManager 是 AudioBackend 的唯一调用者。除 LoadAll 外所有方法都在帧循环中调用，
// 且从不向游戏逻辑返回错误：音频失败只记录警告。
type AudioManager struct {
	backend  AudioBackend
	catalog  *config.AudioCatalog
	settings *SettingsManager // 可为 nil
	rng      *utils.Random

	loaded  map[string]bool
	volumes map[string]float64 // 请求的音量（未乘设置系数）
	music   map[string]bool
	muted   bool

	playlist    []int
	playlistPos int
	currentBGM  string
	musicPoll   *clock.Timer

	currentAmbience string
}

// NewAudioManager 创建新的音频管理器
//
// 参数：
//   - backend: 底层播放后端
//   - catalog: 音频目录
//   - settings: 设置管理器，可为 nil（不持久化静音状态）
//   - rng: 会话随机数源（打乱播放列表）
//
// 返回：
//   - *AudioManager: 音频管理器实例
func NewAudioManager(backend AudioBackend, catalog *config.AudioCatalog, settings *SettingsManager, rng *utils.Random) *AudioManager {
	am := &AudioManager{
		backend:  backend,
		catalog:  catalog,
		settings: settings,
		rng:      rng,
		loaded:   make(map[string]bool),
		volumes:  make(map[string]float64),
		music:    make(map[string]bool),
	}
	if settings != nil {
		am.muted = settings.Settings().Muted
	}
	return am
}

func (am *AudioManager) entries() []audioEntry {
	c := am.catalog
	var list []audioEntry
	for i := 0; i < c.BGM.Len(); i++ {
		list = append(list, audioEntry{key: bgmKey(i), path: c.BGM.Handle(i), volume: c.Volumes.BGM, music: true})
	}
	for i := 0; i < c.LevelCues.Len(); i++ {
		list = append(list, audioEntry{key: levelCueKey(i), path: c.LevelCues.Handle(i), volume: c.Volumes.LevelCue})
	}
	for i := 0; i < c.Ambience.Len(); i++ {
		list = append(list, audioEntry{key: ambienceKey(i), path: c.Ambience.Handle(i), volume: c.Volumes.Ambience, music: true})
	}
	for i := 0; i < c.Endorsements.Len(); i++ {
		list = append(list, audioEntry{key: endorsementKey(i), path: c.Endorsements.Handle(i), volume: c.Volumes.Endorsement})
	}
	for name, cue := range c.Cues {
		list = append(list, audioEntry{key: cueKey(name), path: cue.File, volume: cue.Volume, music: name == config.CueFinale})
	}
	return list
}

// LoadAll 并发加载音频目录中的全部资源
//
// 单个资源加载失败只记录警告，对应 key 之后的播放都是空操作。
// 只有 ctx 被取消时返回错误。
func (am *AudioManager) LoadAll(ctx context.Context) error {
	list := am.entries()
	errs := make([]error, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, e := range list {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			errs[i] = am.backend.Load(e.key, e.path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("audio loading cancelled: %w", err)
	}

	failed := 0
	for i, e := range list {
		if errs[i] != nil {
			failed++
			log.Printf("[AudioManager] Warning: Failed to load %s (%s): %v", e.key, e.path, errs[i])
			continue
		}
		am.loaded[e.key] = true
		am.music[e.key] = e.music
		am.volumes[e.key] = e.volume
		am.backend.SetVolume(e.key, am.scaled(e.key, e.volume))
		if am.muted {
			am.backend.Mute(e.key)
		}
		if e.music {
			key := e.key
			am.backend.OnFinished(key, func() { am.handleTrackEnd(key) })
		}
	}

	log.Printf("[AudioManager] Loaded %d/%d sounds", len(list)-failed, len(list))
	return nil
}

// scaled 把请求音量乘上设置中的总音量系数
func (am *AudioManager) scaled(key string, volume float64) float64 {
	if am.settings == nil {
		return volume
	}
	s := am.settings.Settings()
	if am.music[key] {
		return volume * s.MusicVolume
	}
	return volume * s.SoundVolume
}

// IsLoaded 返回 key 是否已成功加载
func (am *AudioManager) IsLoaded(key string) bool {
	return am.loaded[key]
}

// LoadedCount 返回已加载的资源数量
func (am *AudioManager) LoadedCount() int {
	return len(am.loaded)
}

func (am *AudioManager) play(key string, loop bool) bool {
	if !am.loaded[key] {
		log.Printf("[AudioManager] Warning: Sound not loaded: %s", key)
		return false
	}
	am.backend.Play(key, loop)
	return true
}

// StartMusic 开始播放背景音乐列表
//
// 播放列表在第一次调用时打乱，之后整个会话保持不变。第一首使用 bgmStart 音量，
// 之后的曲目使用 bgm 音量。曲目结束既可以由后端的结束通知发现，也可以由
// 每秒一次的轮询发现，两条路径同时存在时只会前进一次。
//
// 参数：
//   - ts: 轮询定时器的来源（通常是当前模式的 clock.Group）
func (am *AudioManager) StartMusic(ts clock.TimerSource) {
	if am.playlist == nil {
		for _, i := range am.rng.Perm(am.catalog.BGM.Len()) {
			if am.loaded[bgmKey(i)] {
				am.playlist = append(am.playlist, i)
			}
		}
		if am.playlist == nil {
			am.playlist = []int{}
		}
	}
	if len(am.playlist) == 0 {
		log.Printf("[AudioManager] Warning: No background music loaded")
		return
	}

	am.playlistPos = 0
	am.playTrack(true)

	am.musicPoll.Stop()
	am.musicPoll = ts.Every(musicPollInterval, func() {
		if am.currentBGM != "" && am.backend.Finished(am.currentBGM) {
			am.handleTrackEnd(am.currentBGM)
		}
	})
}

func (am *AudioManager) playTrack(first bool) {
	key := bgmKey(am.playlist[am.playlistPos])
	volume := am.catalog.Volumes.BGM
	if first {
		volume = am.catalog.Volumes.BGMStart
	}
	am.volumes[key] = volume
	am.backend.SetVolume(key, am.scaled(key, volume))
	am.currentBGM = key
	am.play(key, false)
	log.Printf("[AudioManager] Playing music: %s (volume: %.2f)", key, volume)
}

// handleTrackEnd 处理背景音乐播放结束；不是当前曲目的通知被忽略
func (am *AudioManager) handleTrackEnd(key string) {
	if key == "" || key != am.currentBGM || len(am.playlist) == 0 {
		return
	}
	am.playlistPos = (am.playlistPos + 1) % len(am.playlist)
	am.playTrack(false)
}

// CurrentTrack 返回当前背景音乐的 key，未播放时为空
func (am *AudioManager) CurrentTrack() string {
	return am.currentBGM
}

// Playlist 返回打乱后的曲目索引
func (am *AudioManager) Playlist() []int {
	return append([]int(nil), am.playlist...)
}

// StopAllMusic 停止所有背景音乐和轮询
func (am *AudioManager) StopAllMusic() {
	am.musicPoll.Stop()
	am.musicPoll = nil
	am.currentBGM = ""
	for i := 0; i < am.catalog.BGM.Len(); i++ {
		if key := bgmKey(i); am.loaded[key] {
			am.backend.Stop(key)
		}
	}
	if key := cueKey(config.CueFinale); am.loaded[key] {
		am.backend.Stop(key)
	}
}

// PlayAmbience 切换到关卡对应的环境音（循环），先停止之前的环境音
//
// 参数：
//   - levelIndex: 关卡索引（从 0 开始），超过环境音数量时使用最后一个
func (am *AudioManager) PlayAmbience(levelIndex int) {
	key := ambienceKey(am.catalog.Ambience.Clamp(levelIndex))
	if key == am.currentAmbience && am.backend.IsPlaying(key) {
		return
	}
	am.StopAmbience()
	if am.play(key, true) {
		am.currentAmbience = key
	}
}

// StopAmbience 停止当前环境音
func (am *AudioManager) StopAmbience() {
	if am.currentAmbience == "" {
		return
	}
	am.backend.Stop(am.currentAmbience)
	am.currentAmbience = ""
}

// CurrentAmbience 返回当前环境音的 key，未播放时为空
func (am *AudioManager) CurrentAmbience() string {
	return am.currentAmbience
}

// PlayLevelCue 播放关卡切换音效，索引按数量取模
func (am *AudioManager) PlayLevelCue(levelIndex int) {
	n := am.catalog.LevelCues.Len()
	if n == 0 {
		return
	}
	am.play(levelCueKey(((levelIndex%n)+n)%n), false)
}

// PlayEndorsement 播放照片语音
func (am *AudioManager) PlayEndorsement(index int) {
	am.play(endorsementKey(am.catalog.Endorsements.Clamp(index)), false)
}

// PlayCue 播放命名音效（config.CueHeartbeat 等）
func (am *AudioManager) PlayCue(name string) {
	am.play(cueKey(name), false)
}

// SetVolume 设置单个 key 的音量
// 音量必须在 0.0 ~ 1.0 之间，否则记录警告且不做修改
func (am *AudioManager) SetVolume(key string, volume float64) {
	if volume < 0 || volume > 1 {
		log.Printf("[AudioManager] Warning: Invalid volume %v for %s", volume, key)
		return
	}
	if !am.loaded[key] {
		log.Printf("[AudioManager] Warning: Sound not loaded: %s", key)
		return
	}
	am.volumes[key] = volume
	am.backend.SetVolume(key, am.scaled(key, volume))
}

// Volume 返回 key 的请求音量
func (am *AudioManager) Volume(key string) float64 {
	return am.volumes[key]
}

// Muted 返回是否静音
func (am *AudioManager) Muted() bool {
	return am.muted
}

// ToggleMute 切换静音并返回新状态
func (am *AudioManager) ToggleMute() bool {
	am.SetMuted(!am.muted)
	return am.muted
}

// SetMuted 对所有已加载的 key 应用静音，并持久化到设置
// 后端保留每个 key 的音量，取消静音后恢复原值
func (am *AudioManager) SetMuted(muted bool) {
	am.muted = muted
	for key := range am.loaded {
		if muted {
			am.backend.Mute(key)
		} else {
			am.backend.Unmute(key)
		}
	}
	if am.settings != nil {
		am.settings.SetMuted(muted)
		if err := am.settings.Save(); err != nil {
			log.Printf("[AudioManager] Warning: Failed to save mute setting: %v", err)
		}
	}
	log.Printf("[AudioManager] Muted: %v", muted)
}

// OnEvent 实现 event.Listener
//   - LevelChanged: 关卡切换音效 + 环境音切换
//   - PhotoRevealed: 照片语音
func (am *AudioManager) OnEvent(e event.Event) {
	switch e.Type {
	case event.LevelChanged:
		lc, ok := e.Data.(event.LevelChange)
		if !ok {
			return
		}
		am.PlayLevelCue(lc.To - 1)
		am.PlayAmbience(lc.To - 1)
	case event.PhotoRevealed:
		pr, ok := e.Data.(event.PhotoReveal)
		if !ok {
			return
		}
		am.PlayEndorsement(pr.VoiceIndex)
	}
}

// Close 停止并释放全部音频
func (am *AudioManager) Close() {
	am.StopAllMusic()
	am.StopAmbience()
	for key := range am.loaded {
		am.backend.Unload(key)
	}
	am.loaded = make(map[string]bool)
	log.Printf("[AudioManager] All sounds unloaded")
}
