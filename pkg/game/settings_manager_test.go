package game

import (
	"testing"

	"github.com/quasilyte/gdata/v2"
)

// openTestGdata 在临时目录中打开 gdata 存储
func openTestGdata(t *testing.T) *gdata.Manager {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Setenv("XDG_DATA_HOME", tempDir)

	m, err := gdata.Open(gdata.Config{AppName: "lovetap_test"})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}
	return m
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.Muted {
		t.Error("Muted: got true, want false")
	}
	if s.MusicVolume != 1.0 || s.SoundVolume != 1.0 {
		t.Errorf("volumes: got %v/%v, want 1/1", s.MusicVolume, s.SoundVolume)
	}
}

func TestSettingsNilGdataIsInMemory(t *testing.T) {
	sm := NewSettingsManager(nil)
	sm.SetMuted(true)
	if err := sm.Save(); err != nil {
		t.Errorf("Save in degraded mode: got %v, want nil", err)
	}
	if !sm.Settings().Muted {
		t.Error("in-memory muted flag lost")
	}
	if err := sm.Load(); err != nil {
		t.Errorf("Load in degraded mode: got %v, want nil", err)
	}
	if sm.Settings().Muted {
		t.Error("Load in degraded mode should reset to defaults")
	}
}

func TestSettingsSaveAndReload(t *testing.T) {
	m := openTestGdata(t)

	data := []byte("muted: false\nmusicVolume: 0.25\nsoundVolume: 0.5\n")
	if err := m.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		t.Fatalf("SaveObjectProp: %v", err)
	}

	sm := NewSettingsManager(m)
	sm.SetMuted(true)
	if err := sm.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := NewSettingsManager(m)
	got := reloaded.Settings()
	if !got.Muted || got.MusicVolume != 0.25 || got.SoundVolume != 0.5 {
		t.Errorf("reloaded settings: got %+v", got)
	}
}

func TestSettingsCorruptDataFallsBack(t *testing.T) {
	m := openTestGdata(t)
	if err := m.SaveObjectProp(settingsObject, settingsProperty, []byte("muted: [")); err != nil {
		t.Fatalf("SaveObjectProp: %v", err)
	}

	sm := &SettingsManager{gdataManager: m, settings: DefaultSettings()}
	if err := sm.Load(); err == nil {
		t.Error("Load should report corrupt data")
	}
	if sm.Settings() != *DefaultSettings() {
		t.Errorf("settings after corrupt load: got %+v, want defaults", sm.Settings())
	}
}

func TestClampVolume(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.3, 0.3},
		{1, 1},
		{2, 1},
	}
	for _, tt := range tests {
		if got := clampVolume(tt.in); got != tt.want {
			t.Errorf("clampVolume(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
