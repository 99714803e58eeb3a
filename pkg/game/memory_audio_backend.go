package game

import (
	"fmt"
	"sync"
)

// AudioCall 记录的一次后端调用
type AudioCall struct {
	Op   string
	Key  string
	Loop bool
}

// String 返回 "op key" 形式（用于日志与断言）
func (c AudioCall) String() string {
	if c.Op == "play" && c.Loop {
		return fmt.Sprintf("%s %s (loop)", c.Op, c.Key)
	}
	return fmt.Sprintf("%s %s", c.Op, c.Key)
}

type memoryTrack struct {
	path       string
	volume     float64
	muted      bool
	playing    bool
	loop       bool
	finished   bool
	onFinished []func()
}

// MemoryAudioBackend 无声的内存后端
// 记录所有调用，播放结束由 Finish 手动触发。用于测试和无窗口模拟
type MemoryAudioBackend struct {
	mu      sync.Mutex
	tracks  map[string]*memoryTrack
	calls   []AudioCall
	failing map[string]error
}

// NewMemoryAudioBackend 创建内存后端
func NewMemoryAudioBackend() *MemoryAudioBackend {
	return &MemoryAudioBackend{
		tracks:  make(map[string]*memoryTrack),
		failing: make(map[string]error),
	}
}

// FailLoad 让指定 path 的 Load 返回错误
func (b *MemoryAudioBackend) FailLoad(path string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing[path] = err
}

func (b *MemoryAudioBackend) record(op, key string, loop bool) {
	b.calls = append(b.calls, AudioCall{Op: op, Key: key, Loop: loop})
}

// Load 实现 AudioBackend
func (b *MemoryAudioBackend) Load(key, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failing[path]; err != nil {
		return err
	}
	b.tracks[key] = &memoryTrack{path: path, volume: 1}
	b.record("load", key, false)
	return nil
}

// Play 实现 AudioBackend
func (b *MemoryAudioBackend) Play(key string, loop bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tracks[key]
	if !ok {
		return
	}
	t.playing = true
	t.loop = loop
	t.finished = false
	b.record("play", key, loop)
}

// Stop 实现 AudioBackend
func (b *MemoryAudioBackend) Stop(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tracks[key]; ok {
		t.playing = false
		b.record("stop", key, false)
	}
}

// Pause 实现 AudioBackend
func (b *MemoryAudioBackend) Pause(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tracks[key]; ok {
		t.playing = false
		b.record("pause", key, false)
	}
}

// Unload 实现 AudioBackend
func (b *MemoryAudioBackend) Unload(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.tracks[key]; ok {
		delete(b.tracks, key)
		b.record("unload", key, false)
	}
}

// SetVolume 实现 AudioBackend
func (b *MemoryAudioBackend) SetVolume(key string, volume float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tracks[key]; ok {
		t.volume = volume
	}
}

// Mute 实现 AudioBackend
func (b *MemoryAudioBackend) Mute(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tracks[key]; ok {
		t.muted = true
	}
}

// Unmute 实现 AudioBackend
func (b *MemoryAudioBackend) Unmute(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tracks[key]; ok {
		t.muted = false
	}
}

// IsLoaded 实现 AudioBackend
func (b *MemoryAudioBackend) IsLoaded(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tracks[key]
	return ok
}

// IsPlaying 实现 AudioBackend
func (b *MemoryAudioBackend) IsPlaying(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tracks[key]
	return ok && t.playing
}

// Finished 实现 AudioBackend
func (b *MemoryAudioBackend) Finished(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tracks[key]
	return ok && t.finished
}

// OnFinished 实现 AudioBackend
func (b *MemoryAudioBackend) OnFinished(key string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tracks[key]; ok {
		t.onFinished = append(t.onFinished, fn)
	}
}

// Finish 模拟 key 的非循环播放自然结束
//
// 参数：
//   - notify: 是否通知 OnFinished 订阅者；为 false 时只能通过 Finished 轮询发现
func (b *MemoryAudioBackend) Finish(key string, notify bool) {
	b.mu.Lock()
	t, ok := b.tracks[key]
	if !ok || !t.playing || t.loop {
		b.mu.Unlock()
		return
	}
	t.playing = false
	t.finished = true
	callbacks := append([]func(){}, t.onFinished...)
	b.mu.Unlock()

	if notify {
		for _, fn := range callbacks {
			fn()
		}
	}
}

// Volume 返回 key 当前生效的音量（静音时为 0）
func (b *MemoryAudioBackend) Volume(key string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tracks[key]
	if !ok || t.muted {
		return 0
	}
	return t.volume
}

// Calls 返回调用记录的副本
func (b *MemoryAudioBackend) Calls() []AudioCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]AudioCall(nil), b.calls...)
}

// PlayCount 返回 key 被播放的次数
func (b *MemoryAudioBackend) PlayCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Op == "play" && c.Key == key {
			n++
		}
	}
	return n
}

// Playing 返回正在播放的 key 集合
func (b *MemoryAudioBackend) Playing() map[string]bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]bool)
	for key, t := range b.tracks {
		if t.playing {
			out[key] = true
		}
	}
	return out
}

// ResetCalls 清空调用记录
func (b *MemoryAudioBackend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}
