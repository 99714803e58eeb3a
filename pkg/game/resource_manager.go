package game

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/decker502/lovetap/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// ResourceManager is responsible for reading and decoding game resources.
// Files are looked up in the embedded data first and then on disk, so the
// desktop build can run from a checkout while mobile builds use the
// embedded copies.
//
// Audio decoding is safe to call from several goroutines: it only reads the
// file and produces PCM bytes at the audio context's sample rate. The image
// cache is guarded by a mutex.
//
// Usage:
//
//	audioContext := audio.NewContext(48000)
//	rm := NewResourceManager(audioContext)
//	pcm, err := rm.DecodeAudio("assets/sound/sfx/heartbeat.mp3")
type ResourceManager struct {
	audioContext *audio.Context

	mu         sync.Mutex
	imageCache map[string]*ebiten.Image
}

// NewResourceManager creates a ResourceManager.
// audioContext may be nil when only images are needed.
func NewResourceManager(audioContext *audio.Context) *ResourceManager {
	return &ResourceManager{
		audioContext: audioContext,
		imageCache:   make(map[string]*ebiten.Image),
	}
}

// AudioContext returns the shared audio context.
func (rm *ResourceManager) AudioContext() *audio.Context {
	return rm.audioContext
}

// ReadFile reads a resource from the embedded file system, falling back to disk.
func (rm *ResourceManager) ReadFile(path string) ([]byte, error) {
	if embedded.IsInitialized() {
		if data, err := embedded.ReadFile(path); err == nil {
			return data, nil
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource %s: %w", path, err)
	}
	return data, nil
}

// DecodeAudio reads an audio file and decodes it to 16-bit stereo PCM at the
// context sample rate. Supported formats: MP3, OGG Vorbis and WAV.
//
// Parameters:
//   - path: The file path to the audio resource (e.g., "assets/sound/sfx/heartbeat.mp3").
//
// Returns:
//   - The decoded PCM bytes, suitable for audio.Context.NewPlayerFromBytes.
//   - An error if the file cannot be read, the format is unsupported or decoding fails.
func (rm *ResourceManager) DecodeAudio(path string) ([]byte, error) {
	if rm.audioContext == nil {
		return nil, fmt.Errorf("no audio context for %s", path)
	}

	raw, err := rm.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reader := bytes.NewReader(raw)
	sampleRate := rm.audioContext.SampleRate()

	var stream io.Reader
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		decoded, err := mp3.DecodeWithSampleRate(sampleRate, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to decode MP3 audio %s: %w", path, err)
		}
		stream = decoded
	case ".ogg":
		decoded, err := vorbis.DecodeWithSampleRate(sampleRate, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to decode OGG audio %s: %w", path, err)
		}
		stream = decoded
	case ".wav":
		decoded, err := wav.DecodeWithSampleRate(sampleRate, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to decode WAV audio %s: %w", path, err)
		}
		stream = decoded
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .ogg, .wav)", ext)
	}

	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read decoded audio %s: %w", path, err)
	}
	return pcm, nil
}

// LoadImage loads an image and caches it for future use.
// If the image has already been loaded, it returns the cached version.
func (rm *ResourceManager) LoadImage(path string) (*ebiten.Image, error) {
	rm.mu.Lock()
	cached, exists := rm.imageCache[path]
	rm.mu.Unlock()
	if exists {
		return cached, nil
	}

	data, err := rm.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	ebitenImg := ebiten.NewImageFromImage(img)

	rm.mu.Lock()
	rm.imageCache[path] = ebitenImg
	rm.mu.Unlock()
	return ebitenImg, nil
}
