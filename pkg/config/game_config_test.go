package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestShippedGameConfigMatchesDefaults(t *testing.T) {
	cfg, err := LoadGameConfig(filepath.Join("..", "..", GameConfigPath))
	if err != nil {
		t.Fatalf("LoadGameConfig: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultGameConfig()) {
		t.Errorf("shipped game.yaml differs from DefaultGameConfig:\ngot  %+v\nwant %+v", cfg, DefaultGameConfig())
	}
}

func TestParseGameConfig(t *testing.T) {
	tests := []struct {
		name        string
		yamlContent string
		wantErr     bool
		errContains string
		validate    func(*testing.T, *GameConfig)
	}{
		{
			name: "partial override keeps defaults",
			yamlContent: `
progression:
  levelDivisor: 10
`,
			validate: func(t *testing.T, cfg *GameConfig) {
				if cfg.Progression.LevelDivisor != 10 {
					t.Errorf("levelDivisor: got %d, want 10", cfg.Progression.LevelDivisor)
				}
				if cfg.Progression.MaxLevel != 9 {
					t.Errorf("maxLevel: got %d, want 9", cfg.Progression.MaxLevel)
				}
				if len(cfg.Cutscene.HeartbeatsMs) != 10 {
					t.Errorf("heartbeats: got %d entries, want 10", len(cfg.Cutscene.HeartbeatsMs))
				}
			},
		},
		{
			name: "heartbeat list replaced",
			yamlContent: `
cutscene:
  heartbeatsMs: [300, 200]
`,
			validate: func(t *testing.T, cfg *GameConfig) {
				if !reflect.DeepEqual(cfg.Cutscene.HeartbeatsMs, []int{300, 200}) {
					t.Errorf("heartbeats: got %v, want [300 200]", cfg.Cutscene.HeartbeatsMs)
				}
			},
		},
		{
			name:        "zero divisor",
			yamlContent: "progression:\n  levelDivisor: 0\n",
			wantErr:     true,
			errContains: "levelDivisor",
		},
		{
			name:        "decay above one",
			yamlContent: "spawn:\n  decay: 1.5\n",
			wantErr:     true,
			errContains: "decay",
		},
		{
			name:        "negative heartbeat",
			yamlContent: "cutscene:\n  heartbeatsMs: [100, -1]\n",
			wantErr:     true,
			errContains: "heartbeatsMs[1]",
		},
		{
			name:        "malformed yaml",
			yamlContent: "progression: [",
			wantErr:     true,
			errContains: "parse",
		},
		{
			name:        "zero shake rounds",
			yamlContent: "boss:\n  finish:\n    shakeRounds: 0\n",
			wantErr:     true,
			errContains: "shakeRounds",
		},
		{
			name:        "zero shake steps",
			yamlContent: "boss:\n  finish:\n    shakeSteps: 0\n",
			wantErr:     true,
			errContains: "shakeSteps",
		},
		{
			name:        "single shake round",
			yamlContent: "boss:\n  finish:\n    shakeRounds: 1\n    shakeSteps: 1\n",
			validate: func(t *testing.T, cfg *GameConfig) {
				if cfg.Boss.Finish.ShakeRounds != 1 || cfg.Boss.Finish.ShakeSteps != 1 {
					t.Errorf("shake: got %d rounds x %d steps, want 1 x 1", cfg.Boss.Finish.ShakeRounds, cfg.Boss.Finish.ShakeSteps)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseGameConfig([]byte(tt.yamlContent))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoadGameConfigMissingFile(t *testing.T) {
	_, err := LoadGameConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error should wrap fs.ErrNotExist, got %v", err)
	}
}

func TestLevelForScore(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.Progression.LevelDivisor = 10

	tests := []struct {
		score int
		want  int
	}{
		{-3, 1},
		{0, 1},
		{9, 1},
		{10, 2},
		{79, 8},
		{80, 9},
		{500, 9},
	}
	for _, tt := range tests {
		if got := cfg.LevelForScore(tt.score); got != tt.want {
			t.Errorf("LevelForScore(%d): got %d, want %d", tt.score, got, tt.want)
		}
	}

	// 单调不减
	prev := cfg.LevelForScore(0)
	for s := 1; s <= 200; s++ {
		cur := cfg.LevelForScore(s)
		if cur < prev {
			t.Fatalf("level decreased at score %d: %d -> %d", s, prev, cur)
		}
		prev = cur
	}
}

func TestSpawnIntervalForLevel(t *testing.T) {
	cfg := DefaultGameConfig()

	if got := cfg.SpawnIntervalForLevel(1); got != 10*time.Second {
		t.Errorf("level 1: got %v, want 10s", got)
	}

	// 10000 * 0.95^4 = 8145.0625ms
	got := cfg.SpawnIntervalForLevel(5)
	if diff := got - 8145*time.Millisecond; diff < 0 || diff > time.Millisecond {
		t.Errorf("level 5: got %v, want about 8145ms", got)
	}

	cfg.Spawn.Decay = 0.5
	if got := cfg.SpawnIntervalForLevel(9); got != 2*time.Second {
		t.Errorf("floor: got %v, want 2s", got)
	}
}

func TestTenths(t *testing.T) {
	if Tenths(0.4) != 4 || Tenths(100) != 1000 || Tenths(90) != 900 {
		t.Errorf("Tenths: got %d %d %d", Tenths(0.4), Tenths(100), Tenths(90))
	}
}
