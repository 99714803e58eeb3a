package embedded

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
)

func initTestFS(t *testing.T) {
	t.Helper()
	Init(
		fstest.MapFS{
			"assets/sound/sfx/heartbeat.mp3": {Data: []byte("ID3")},
		},
		fstest.MapFS{
			"data/config/game.yaml":  {Data: []byte("screen:\n  width: 390\n")},
			"data/config/audio.yaml": {Data: []byte("bgm: {}\n")},
		},
	)
	t.Cleanup(Reset)
}

func TestNotInitialized(t *testing.T) {
	Reset()
	if IsInitialized() {
		t.Fatal("IsInitialized should be false after Reset")
	}
	if _, err := ReadFile("data/config/game.yaml"); err == nil {
		t.Error("ReadFile before Init should fail")
	}
	if _, err := Open("assets/x.png"); err == nil {
		t.Error("Open before Init should fail")
	}
	if Exists("data/config/game.yaml") {
		t.Error("Exists before Init should be false")
	}
}

func TestReadFileByPrefix(t *testing.T) {
	initTestFS(t)

	tests := []struct {
		name string
		path string
		want string
	}{
		{"data", "data/config/game.yaml", "screen:\n  width: 390\n"},
		{"dot prefix", "./data/config/audio.yaml", "bgm: {}\n"},
		{"assets", "assets/sound/sfx/heartbeat.mp3", "ID3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ReadFile(tt.path)
			if err != nil {
				t.Fatalf("ReadFile(%q): %v", tt.path, err)
			}
			if string(data) != tt.want {
				t.Errorf("ReadFile(%q): got %q, want %q", tt.path, data, tt.want)
			}
		})
	}
}

func TestInvalidPrefix(t *testing.T) {
	initTestFS(t)
	if _, err := ReadFile("config/game.yaml"); err == nil {
		t.Error("expected error for unknown prefix")
	}
	if _, err := Glob("*.yaml"); err == nil {
		t.Error("expected glob error for unknown prefix")
	}
}

func TestNilFileSystemReportsNotExist(t *testing.T) {
	Init(nil, fstest.MapFS{})
	t.Cleanup(Reset)

	_, err := ReadFile("assets/images/photos/1.jpeg")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap fs.ErrNotExist, got %v", err)
	}
}

func TestGlobAndExists(t *testing.T) {
	initTestFS(t)

	matches, err := Glob("data/config/*.yaml")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("matches: got %v, want 2 files", matches)
	}
	if !Exists("assets/sound/sfx/heartbeat.mp3") {
		t.Error("heartbeat should exist")
	}
	if Exists("assets/sound/sfx/missing.mp3") {
		t.Error("missing file should not exist")
	}
}
