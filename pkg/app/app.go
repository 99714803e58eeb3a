// Package app 提供游戏应用的核心包装器
//
// 该包将游戏初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log"
	"time"

	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/game"
	"github.com/decker502/lovetap/pkg/session"
	"github.com/decker502/lovetap/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
)

// sampleRate 音频上下文采样率
const sampleRate = 48000

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Seed 随机种子，0 表示使用当前时间
	Seed int64
	// LevelDivisor 覆盖配置文件中的关卡除数（调试用，0 表示不覆盖）
	LevelDivisor int
}

// Configs 从 data/config 加载的三份配置
type Configs struct {
	Game   *config.GameConfig
	Assets *config.AssetCatalog
	Audio  *config.AudioCatalog
}

// LoadConfigs 加载配置文件；任一文件加载失败时使用内置默认值并记录警告
func LoadConfigs() Configs {
	var c Configs
	var err error

	if c.Game, err = config.LoadGameConfig(config.GameConfigPath); err != nil {
		log.Printf("[Config] Warning: %v (using defaults)", err)
		c.Game = config.DefaultGameConfig()
	}
	if c.Assets, err = config.LoadAssetCatalog(config.AssetCatalogPath); err != nil {
		log.Printf("[Config] Warning: %v (using defaults)", err)
		c.Assets = config.DefaultAssetCatalog()
	}
	if c.Audio, err = config.LoadAudioCatalog(config.AudioCatalogPath); err != nil {
		log.Printf("[Config] Warning: %v (using defaults)", err)
		c.Audio = config.DefaultAudioCatalog()
	}
	log.Printf("[Config] Level divisor %d, max level %d", c.Game.Progression.LevelDivisor, c.Game.Progression.MaxLevel)
	return c
}

// openSettings 打开 gdata 存储并创建设置管理器；存储不可用时退化为内存设置
func openSettings() *game.SettingsManager {
	if err := utils.EnsureStorageDir(); err != nil {
		log.Printf("[App] Warning: %v", err)
	}
	manager, err := gdata.Open(gdata.Config{AppName: "lovetap"})
	if err != nil {
		log.Printf("[App] Warning: Settings storage unavailable: %v", err)
		return game.NewSettingsManager(nil)
	}
	return game.NewSettingsManager(manager)
}

// App 是游戏应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	session *session.Session
	backend *game.EbitenAudioBackend
	input   *inputMapper
	view    *View

	screenWidth  int
	screenHeight int

	verbose                  bool
	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化游戏应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	configs := LoadConfigs()
	if cfg.LevelDivisor > 0 {
		configs.Game.Progression.LevelDivisor = cfg.LevelDivisor
		log.Printf("[App] Level divisor overridden: %d", cfg.LevelDivisor)
	}

	// 初始化音频上下文
	audioContext := audio.NewContext(sampleRate)
	resourceManager := game.NewResourceManager(audioContext)
	backend := game.NewEbitenAudioBackend(resourceManager)

	s, err := session.New(session.Options{
		Config:       configs.Game,
		Assets:       configs.Assets,
		AudioCatalog: configs.Audio,
		Backend:      backend,
		Settings:     openSettings(),
		Seed:         cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("会话创建失败: %w", err)
	}
	if err := s.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("会话启动失败: %w", err)
	}
	log.Printf("[App] Session started (seed %d)", cfg.Seed)

	return &App{
		session:      s,
		backend:      backend,
		input:        newInputMapper(configs.Game),
		view:         NewView(resourceManager, configs.Game, configs.Assets),
		screenWidth:  configs.Game.Screen.Width,
		screenHeight: configs.Game.Screen.Height,
		verbose:      cfg.Verbose,
	}, nil
}

// Update 更新游戏逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(a.screenWidth, a.screenHeight)
			log.Printf("[App] Delayed SetWindowSize(%d, %d)", a.screenWidth, a.screenHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			log.Printf("[App] Exit fullscreen, will reset window size in 3 frames")
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	a.backend.Update()
	a.input.Update(a.session)
	a.session.Update(time.Second / time.Duration(ebiten.TPS()))
	return nil
}

// Draw 绘制游戏画面
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	a.view.Draw(screen, a.session.Snapshot())
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回游戏的逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.screenWidth, a.screenHeight
}

// ScreenSize 返回逻辑屏幕尺寸（用于设置窗口大小）
func (a *App) ScreenSize() (int, int) {
	return a.screenWidth, a.screenHeight
}

// Session 返回当前会话
func (a *App) Session() *session.Session {
	return a.session
}

// Close 停止会话并释放音频
func (a *App) Close() {
	a.session.Close()
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
