package game

import (
	"bytes"
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// AudioBackend 底层音频播放接口
//
// 只有 AudioManager 调用它。每个 key 对应一个已加载的音频资源。
// 对未加载的 key 的操作都是空操作。
type AudioBackend interface {
	// Load 加载 path 指向的音频并以 key 注册
	Load(key, path string) error
	// Play 从头播放；loop 为 true 时无限循环
	Play(key string, loop bool)
	// Stop 停止并回到开头
	Stop(key string)
	// Pause 暂停，不回到开头
	Pause(key string)
	// Unload 释放资源
	Unload(key string)
	// SetVolume 设置音量；静音期间只记录，不生效
	SetVolume(key string, volume float64)
	Mute(key string)
	Unmute(key string)
	IsLoaded(key string) bool
	IsPlaying(key string) bool
	// Finished 返回最近一次非循环播放是否已自然结束
	Finished(key string) bool
	// OnFinished 订阅非循环播放的自然结束
	OnFinished(key string, fn func())
}

type ebitenTrack struct {
	pcm        []byte
	player     *audio.Player
	loop       bool
	volume     float64
	muted      bool
	started    bool
	paused     bool
	finished   bool
	onFinished []func()
}

// EbitenAudioBackend 基于 ebiten/v2/audio 的播放后端
//
// 加载阶段可能在多个 goroutine 中并发调用 Load，其余操作由帧循环调用。
// 自然结束通过 Update 检测，需要每帧调用一次。
type EbitenAudioBackend struct {
	resources *ResourceManager

	mu     sync.Mutex
	tracks map[string]*ebitenTrack
}

// NewEbitenAudioBackend 创建 Ebitengine 音频后端
func NewEbitenAudioBackend(rm *ResourceManager) *EbitenAudioBackend {
	return &EbitenAudioBackend{
		resources: rm,
		tracks:    make(map[string]*ebitenTrack),
	}
}

// Load 实现 AudioBackend
func (b *EbitenAudioBackend) Load(key, path string) error {
	pcm, err := b.resources.DecodeAudio(path)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, exists := b.tracks[key]; exists && old.player != nil {
		old.player.Close()
	}
	b.tracks[key] = &ebitenTrack{pcm: pcm, volume: 1}
	return nil
}

func (b *EbitenAudioBackend) track(key string) *ebitenTrack {
	t, exists := b.tracks[key]
	if !exists {
		log.Printf("[AudioBackend] Warning: Sound not loaded: %s", key)
		return nil
	}
	return t
}

// Play 实现 AudioBackend
// 循环模式变化时重新创建播放器
func (b *EbitenAudioBackend) Play(key string, loop bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.track(key)
	if t == nil {
		return
	}

	if t.player == nil || t.loop != loop {
		if t.player != nil {
			t.player.Close()
			t.player = nil
		}
		ctx := b.resources.AudioContext()
		if loop {
			stream := audio.NewInfiniteLoop(bytes.NewReader(t.pcm), int64(len(t.pcm)))
			player, err := ctx.NewPlayer(stream)
			if err != nil {
				log.Printf("[AudioBackend] Warning: Failed to create player for %s: %v", key, err)
				return
			}
			t.player = player
		} else {
			t.player = ctx.NewPlayerFromBytes(t.pcm)
		}
		t.loop = loop
	}

	if err := t.player.Rewind(); err != nil {
		log.Printf("[AudioBackend] Warning: Failed to rewind %s: %v", key, err)
	}
	t.player.SetVolume(t.effectiveVolume())
	t.player.Play()
	t.started = true
	t.paused = false
	t.finished = false
}

// Stop 实现 AudioBackend
func (b *EbitenAudioBackend) Stop(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.track(key)
	if t == nil || t.player == nil {
		return
	}
	t.player.Pause()
	if err := t.player.Rewind(); err != nil {
		log.Printf("[AudioBackend] Warning: Failed to rewind %s: %v", key, err)
	}
	t.started = false
	t.paused = false
}

// Pause 实现 AudioBackend
func (b *EbitenAudioBackend) Pause(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.track(key)
	if t == nil || t.player == nil {
		return
	}
	t.player.Pause()
	t.paused = true
}

// Unload 实现 AudioBackend
func (b *EbitenAudioBackend) Unload(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, exists := b.tracks[key]
	if !exists {
		return
	}
	if t.player != nil {
		t.player.Close()
	}
	delete(b.tracks, key)
}

// SetVolume 实现 AudioBackend
func (b *EbitenAudioBackend) SetVolume(key string, volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.track(key)
	if t == nil {
		return
	}
	t.volume = volume
	if t.player != nil {
		t.player.SetVolume(t.effectiveVolume())
	}
}

// Mute 实现 AudioBackend
func (b *EbitenAudioBackend) Mute(key string) {
	b.setMuted(key, true)
}

// Unmute 实现 AudioBackend
func (b *EbitenAudioBackend) Unmute(key string) {
	b.setMuted(key, false)
}

func (b *EbitenAudioBackend) setMuted(key string, muted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := b.track(key)
	if t == nil {
		return
	}
	t.muted = muted
	if t.player != nil {
		t.player.SetVolume(t.effectiveVolume())
	}
}

// IsLoaded 实现 AudioBackend
func (b *EbitenAudioBackend) IsLoaded(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, exists := b.tracks[key]
	return exists
}

// IsPlaying 实现 AudioBackend
func (b *EbitenAudioBackend) IsPlaying(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, exists := b.tracks[key]
	return exists && t.player != nil && t.player.IsPlaying()
}

// Finished 实现 AudioBackend
func (b *EbitenAudioBackend) Finished(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, exists := b.tracks[key]
	return exists && t.finished
}

// OnFinished 实现 AudioBackend
func (b *EbitenAudioBackend) OnFinished(key string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t := b.track(key); t != nil {
		t.onFinished = append(t.onFinished, fn)
	}
}

// Update 检测非循环播放的自然结束并通知订阅者
// 回调在锁外执行，可以安全地再次调用后端
func (b *EbitenAudioBackend) Update() {
	var callbacks []func()

	b.mu.Lock()
	for _, t := range b.tracks {
		if !t.started || t.paused || t.loop || t.player == nil {
			continue
		}
		if !t.player.IsPlaying() {
			t.started = false
			t.finished = true
			callbacks = append(callbacks, t.onFinished...)
		}
	}
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

func (t *ebitenTrack) effectiveVolume() float64 {
	if t.muted {
		return 0
	}
	return t.volume
}
