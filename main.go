package main

import (
	"flag"
	"log"

	"github.com/decker502/lovetap/pkg/app"
	"github.com/decker502/lovetap/pkg/embedded"
	"github.com/decker502/lovetap/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	verbose = flag.Bool("verbose", false, "显示详细日志")
	seed    = flag.Int64("seed", 0, "随机种子（0 表示使用当前时间）")
	divisor = flag.Int("divisor", 0, "覆盖关卡除数，例如 1 表示每次点击升一级（调试用）")
)

func main() {
	flag.Parse()

	// 初始化嵌入资源（assets 从磁盘读取）
	embedded.Init(nil, dataFS)

	gameApp, err := app.NewApp(app.Config{
		Verbose:      *verbose,
		Seed:         *seed,
		LevelDivisor: *divisor,
	})
	if err != nil {
		log.Fatalf("游戏初始化失败: %v", err)
	}
	defer gameApp.Close()

	width, height := gameApp.ScreenSize()
	if !utils.IsMobile() {
		ebiten.SetWindowSize(width, height)
	}
	ebiten.SetWindowTitle("Love Tap")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(gameApp); err != nil {
		log.Fatal(err)
	}
}
