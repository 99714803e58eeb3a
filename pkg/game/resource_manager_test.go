package game

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Global audio context shared by all tests
// Ebitengine only allows one audio context to be created
var testAudioContext *audio.Context

// TestMain sets up the shared audio context before running tests
func TestMain(m *testing.M) {
	testAudioContext = audio.NewContext(48000)
	os.Exit(m.Run())
}

// writeTestWAV writes a silent 16-bit stereo PCM WAV file.
func writeTestWAV(t *testing.T, path string, sampleRate, frames int) {
	t.Helper()
	dataSize := frames * 4

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(2)) // channels
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*4))
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write test WAV: %v", err)
	}
}

// TestNewResourceManager tests the creation of a new ResourceManager instance.
func TestNewResourceManager(t *testing.T) {
	rm := NewResourceManager(testAudioContext)
	if rm.imageCache == nil {
		t.Error("imageCache is nil")
	}
	if rm.AudioContext() != testAudioContext {
		t.Error("audioContext not set correctly")
	}
}

func TestDecodeAudio_WAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beat.wav")
	writeTestWAV(t, path, 48000, 480)

	rm := NewResourceManager(testAudioContext)
	pcm, err := rm.DecodeAudio(path)
	if err != nil {
		t.Fatalf("DecodeAudio failed: %v", err)
	}
	if len(pcm) == 0 {
		t.Error("DecodeAudio returned no samples")
	}
}

func TestDecodeAudio_Errors(t *testing.T) {
	dir := t.TempDir()
	bogusMP3 := filepath.Join(dir, "bogus.mp3")
	if err := os.WriteFile(bogusMP3, []byte("not an mp3"), 0644); err != nil {
		t.Fatalf("Failed to create dummy file: %v", err)
	}
	flac := filepath.Join(dir, "song.flac")
	if err := os.WriteFile(flac, []byte("dummy data"), 0644); err != nil {
		t.Fatalf("Failed to create dummy file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "nonexistent.mp3")},
		{"unsupported extension", flac},
		{"corrupt mp3", bogusMP3},
	}

	rm := NewResourceManager(testAudioContext)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := rm.DecodeAudio(tt.path); err == nil {
				t.Errorf("DecodeAudio(%s): got nil error", tt.path)
			}
		})
	}
}

func TestDecodeAudio_NoContext(t *testing.T) {
	rm := NewResourceManager(nil)
	if _, err := rm.DecodeAudio("assets/sound/sfx/heartbeat.mp3"); err == nil {
		t.Error("DecodeAudio without audio context: got nil error")
	}
}

func TestEbitenBackendLoadAndPlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beat.wav")
	writeTestWAV(t, path, 48000, 4800)

	backend := NewEbitenAudioBackend(NewResourceManager(testAudioContext))
	if err := backend.Load("cue/heartbeat", path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !backend.IsLoaded("cue/heartbeat") {
		t.Fatal("IsLoaded: got false, want true")
	}
	if backend.Finished("cue/heartbeat") {
		t.Error("Finished before playing: got true, want false")
	}

	backend.SetVolume("cue/heartbeat", 0.5)
	backend.Mute("cue/heartbeat")
	backend.Play("cue/heartbeat", false)
	backend.Stop("cue/heartbeat")
	backend.Unload("cue/heartbeat")
	if backend.IsLoaded("cue/heartbeat") {
		t.Error("IsLoaded after Unload: got true, want false")
	}

	// 未加载的 key 都是空操作
	backend.Play("cue/missing", true)
	if backend.IsPlaying("cue/missing") {
		t.Error("IsPlaying for unknown key: got true")
	}
}

// TestLoadImage_FileNotFound tests error handling when file doesn't exist.
func TestLoadImage_FileNotFound(t *testing.T) {
	rm := NewResourceManager(testAudioContext)
	if _, err := rm.LoadImage("nonexistent.png"); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

// TestLoadImage_InvalidFormat tests error handling for invalid image format.
func TestLoadImage_InvalidFormat(t *testing.T) {
	invalidPath := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(invalidPath, []byte("not a valid png"), 0644); err != nil {
		t.Fatalf("Failed to create invalid file: %v", err)
	}

	rm := NewResourceManager(testAudioContext)
	if _, err := rm.LoadImage(invalidPath); err == nil {
		t.Error("Expected error for invalid image format, got nil")
	}
	if _, err := rm.LoadImage(invalidPath); err == nil {
		t.Error("Failed image should not be cached")
	}
}
