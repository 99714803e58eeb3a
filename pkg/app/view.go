package app

import (
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/decker502/lovetap/pkg/components"
	"github.com/decker502/lovetap/pkg/config"
	"github.com/decker502/lovetap/pkg/game"
	"github.com/decker502/lovetap/pkg/session"
	"github.com/decker502/lovetap/pkg/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var (
	colorHeart   = color.RGBA{R: 0xe8, G: 0x1e, B: 0x4a, A: 0xff}
	colorHeartB  = color.RGBA{R: 0xff, G: 0x7a, B: 0xa8, A: 0xff}
	colorKiss    = color.RGBA{R: 0xd0, G: 0x10, B: 0x60, A: 0xff}
	colorPhoto   = color.RGBA{R: 0xf4, G: 0xee, B: 0xe0, A: 0xff}
	colorEnemy   = color.RGBA{R: 0x30, G: 0x30, B: 0x40, A: 0xff}
	colorBoss    = color.RGBA{R: 0x60, G: 0x20, B: 0x80, A: 0xff}
	colorNight   = color.RGBA{R: 0x08, G: 0x06, B: 0x18, A: 0xff}
	colorText    = color.White
	colorButton  = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0x80}
	colorOutline = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xc0}
)

// backgroundPalette 背景图缺失时每个关卡的底色
var backgroundPalette = []color.RGBA{
	{R: 0xff, G: 0xe4, B: 0xec, A: 0xff},
	{R: 0xff, G: 0xd6, B: 0xe0, A: 0xff},
	{R: 0xfc, G: 0xc4, B: 0xd4, A: 0xff},
	{R: 0xf7, G: 0xb0, B: 0xc4, A: 0xff},
	{R: 0xf0, G: 0x98, B: 0xb0, A: 0xff},
	{R: 0xe8, G: 0x80, B: 0x9c, A: 0xff},
	{R: 0xdc, G: 0x66, B: 0x88, A: 0xff},
	{R: 0xcc, G: 0x4c, B: 0x72, A: 0xff},
}

// View 根据 session.Snapshot 绘制画面
//
// 图片按资源目录中的路径按需加载；加载失败的图片只记录一次警告，
// 之后用矢量图形代替，所以没有美术资源时游戏依然可玩。
type View struct {
	rm     *game.ResourceManager
	cfg    *config.GameConfig
	assets *config.AssetCatalog
	layout controlLayout
	face   text.Face

	missing map[string]bool
	pixel   *ebiten.Image
	vs      []ebiten.Vertex
	is      []uint16
}

// NewView 创建视图
func NewView(rm *game.ResourceManager, cfg *config.GameConfig, assets *config.AssetCatalog) *View {
	pixel := ebiten.NewImage(3, 3)
	pixel.Fill(color.White)
	return &View{
		rm:      rm,
		cfg:     cfg,
		assets:  assets,
		layout:  newControlLayout(cfg),
		face:    text.NewGoXFace(basicfont.Face7x13),
		missing: make(map[string]bool),
		pixel:   pixel,
	}
}

// image 返回已加载的图片；缺失时返回 nil
func (v *View) image(path string) *ebiten.Image {
	if path == "" || v.missing[path] {
		return nil
	}
	img, err := v.rm.LoadImage(path)
	if err != nil {
		log.Printf("[View] Warning: %v", err)
		v.missing[path] = true
		return nil
	}
	return img
}

// Draw 绘制一帧
func (v *View) Draw(screen *ebiten.Image, snap session.Snapshot) {
	switch snap.Mode {
	case session.ModeLoading:
		screen.Fill(colorNight)
		v.drawText(screen, "Loading...", float64(v.cfg.Screen.Width)/2-35, float64(v.cfg.Screen.Height)/2, colorText)
	case session.ModePlaying:
		v.drawPlaying(screen, snap)
	case session.ModeCutsceneRunning:
		v.drawCutscene(screen, snap.Cutscene)
	case session.ModeBossPhaseRunning:
		v.drawBoss(screen, snap.Boss)
	case session.ModeConclusion:
		v.drawConclusion(screen, snap)
	}
	v.drawMuteButton(screen, snap.Muted)
}

func (v *View) drawPlaying(screen *ebiten.Image, snap session.Snapshot) {
	if img := v.image(v.assets.Backgrounds.Handle(snap.BackgroundIndex)); img != nil {
		v.drawImageFill(screen, img, 1)
	} else {
		screen.Fill(backgroundPalette[snap.BackgroundIndex%len(backgroundPalette)])
	}

	v.drawHeart(screen, v.layout.heartX, v.layout.heartY, 120*snap.HeartScale, colorHeart)

	fall := float64(v.cfg.Screen.Height) - v.cfg.Items.SpawnY
	for _, item := range snap.Items {
		y := item.Y + fall*item.Progress
		alpha := float32(1 - item.Progress)
		switch item.Kind {
		case components.ItemHeart:
			c := colorHeart
			if item.Variant%2 == 1 {
				c = colorHeartB
			}
			v.drawHeart(screen, item.X, y, 36, fade(c, alpha))
		case components.ItemKiss:
			v.drawHeart(screen, item.X, y, 28, fade(colorKiss, alpha))
			vector.DrawFilledCircle(screen, float32(item.X), float32(y), 6, fade(colorPhoto, alpha), true)
		case components.ItemPhoto:
			if img := v.image(v.assets.Photos.Handle(item.PhotoIndex)); img != nil {
				v.drawImageAt(screen, img, item.X, y, 120, 0, float64(alpha))
			} else {
				vector.DrawFilledRect(screen, float32(item.X-45), float32(y-60), 90, 120, fade(colorPhoto, alpha), true)
			}
		}
	}

	for _, e := range snap.Enemies {
		if img := v.image(v.assets.EnemySprites.Handle(e.SpriteIndex)); img != nil {
			v.drawImageAt(screen, img, e.X, e.Y, 2*v.cfg.Enemy.HitRadius, e.Angle, 1)
			continue
		}
		vector.DrawFilledCircle(screen, float32(e.X), float32(e.Y), float32(v.cfg.Enemy.HitRadius*0.6), colorEnemy, true)
	}

	v.drawText(screen, fmt.Sprintf("Score %d   Level %d", snap.Score, snap.Level), 16, 24, colorNight)
}

func (v *View) drawCutscene(screen *ebiten.Image, c *systems.CutsceneView) {
	if c == nil {
		return
	}
	w, h := float32(v.cfg.Screen.Width), float32(v.cfg.Screen.Height)
	cx, cy := v.layout.heartX, v.layout.heartY

	screen.Fill(backgroundPalette[len(backgroundPalette)-1])
	vector.DrawFilledRect(screen, 0, 0, w, h, fade(color.RGBA{A: 0xff}, float32(c.SceneOpacity*(1-c.Background))), false)
	if c.Background > 0 {
		vector.DrawFilledRect(screen, 0, 0, w, h, fade(colorNight, float32(c.Background)), false)
	}

	v.drawHeart(screen, cx, cy, 120*c.HeartScale, fade(colorHeart, float32(c.HeartOpacity)))

	if c.RedOverlay > 0 {
		vector.DrawFilledRect(screen, 0, 0, w, h, fade(colorHeart, float32(c.RedOverlay*0.5)), false)
	}
	if c.BlackHoleScale > 0 {
		vector.DrawFilledCircle(screen, float32(cx), float32(cy), float32(40*c.BlackHoleScale), color.Black, true)
	}
	if c.ShootingHeart > 0 {
		v.drawHeart(screen, cx, cy, 60*c.ShootingHeart, colorHeartB)
	}
	if c.Phase == "bossIntro" {
		v.drawBossFigure(screen, 0, 0, c.BossOffset)
	}
	if c.WhiteOverlay > 0 {
		vector.DrawFilledRect(screen, 0, 0, w, h, fade(color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, float32(c.WhiteOverlay)), false)
	}
}

// drawBossFigure 以屏幕中心为原点的偏移绘制 Boss
func (v *View) drawBossFigure(screen *ebiten.Image, sprite int, x, y float64) {
	cx := float64(v.cfg.Screen.Width)/2 + x
	cy := float64(v.cfg.Screen.Height)/2 + y
	if img := v.image(v.assets.BossGallery.Handle(sprite)); img != nil {
		v.drawImageAt(screen, img, cx, cy, 220, 0, 1)
		return
	}
	vector.DrawFilledCircle(screen, float32(cx), float32(cy), 90, colorBoss, true)
}

func (v *View) drawBoss(screen *ebiten.Image, b *systems.BossView) {
	if b == nil {
		return
	}
	w, h := float32(v.cfg.Screen.Width), float32(v.cfg.Screen.Height)
	screen.Fill(colorNight)

	for _, star := range b.Stars {
		vector.DrawFilledCircle(screen, float32(star.X), float32(star.Y), 2, fade(color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, float32(star.Opacity)), true)
	}

	v.drawBossFigure(screen, b.BossSprite, b.BossX+b.ShakeX, b.BossY+b.ShakeY)

	if b.EnergyBall > 0 {
		vector.DrawFilledCircle(screen, float32(b.CursorX), float32(b.CursorY-80), float32(60*b.EnergyBall), colorHeartB, true)
	}
	if b.Laser > 0 {
		bossY := float32(float64(h)/2 + b.BossY)
		vector.DrawFilledRect(screen, float32(b.CursorX-12), bossY, 24, float32(b.CursorY)-bossY, fade(colorHeart, float32(b.Laser)), true)
	}

	for _, shot := range b.Shots {
		v.drawHeart(screen, shot.X, shot.Y, 24, colorHeartB)
	}
	v.drawHeart(screen, b.CursorX, b.CursorY, 60*b.HeartScale, colorHeart)

	// 爱心值
	barW := w - 80
	vector.DrawFilledRect(screen, 40, 24, barW, 14, colorButton, false)
	vector.DrawFilledRect(screen, 40, 24, barW*float32(math.Min(b.Meter, 100)/100), 14, colorHeart, false)
	v.drawText(screen, fmt.Sprintf("Love %.1f", b.Meter), 40, 56, b.MeterColor)

	if b.Finishable && b.State == systems.BossRoaming {
		r := v.layout.fire
		vector.DrawFilledRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), colorHeart, true)
		vector.StrokeRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), 2, colorOutline, true)
		v.drawText(screen, "FIRE", float64(r.Min.X+r.Dx()/2-14), float64(r.Min.Y+r.Dy()/2+4), colorText)
	}

	if b.White > 0 {
		vector.DrawFilledRect(screen, 0, 0, w, h, fade(color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, float32(b.White)), false)
	}
}

func (v *View) drawConclusion(screen *ebiten.Image, snap session.Snapshot) {
	w, h := float32(v.cfg.Screen.Width), float32(v.cfg.Screen.Height)
	if img := v.image(v.assets.Conclusion); img != nil {
		v.drawImageFill(screen, img, 1)
	} else {
		screen.Fill(backgroundPalette[0])
		v.drawHeart(screen, v.layout.heartX, v.layout.heartY, 160, colorHeart)
		v.drawText(screen, "Happy ending", float64(w)/2-42, float64(h)/2+140, colorNight)
	}
	vector.DrawFilledRect(screen, 0, 0, w, h, fade(color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, float32(snap.ConclusionFade)), false)
}

func (v *View) drawMuteButton(screen *ebiten.Image, muted bool) {
	r := v.layout.mute
	vector.DrawFilledRect(screen, float32(r.Min.X), float32(r.Min.Y), float32(r.Dx()), float32(r.Dy()), colorButton, true)
	label := "On"
	if muted {
		label = "Off"
	}
	v.drawText(screen, label, float64(r.Min.X+8), float64(r.Min.Y+r.Dy()/2+4), colorText)
}

// drawHeart 以 (cx, cy) 为中心、size 为宽度填充一个爱心
func (v *View) drawHeart(screen *ebiten.Image, cx, cy, size float64, c color.Color) {
	if size <= 0 {
		return
	}
	s := float32(size / 2)
	x, y := float32(cx), float32(cy)

	var path vector.Path
	path.MoveTo(x, y+s*0.8)
	path.CubicTo(x-s*1.6, y-s*0.1, x-s*0.8, y-s*1.3, x, y-s*0.5)
	path.CubicTo(x+s*0.8, y-s*1.3, x+s*1.6, y-s*0.1, x, y+s*0.8)
	path.Close()

	r, g, b, a := c.RGBA()
	v.vs, v.is = path.AppendVerticesAndIndicesForFilling(v.vs[:0], v.is[:0])
	for i := range v.vs {
		v.vs[i].SrcX, v.vs[i].SrcY = 1, 1
		v.vs[i].ColorR = float32(r) / 0xffff
		v.vs[i].ColorG = float32(g) / 0xffff
		v.vs[i].ColorB = float32(b) / 0xffff
		v.vs[i].ColorA = float32(a) / 0xffff
	}
	screen.DrawTriangles(v.vs, v.is, v.pixel, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

// drawImageFill 把图片缩放铺满屏幕
func (v *View) drawImageFill(screen, img *ebiten.Image, alpha float64) {
	b := img.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(v.cfg.Screen.Width)/float64(b.Dx()), float64(v.cfg.Screen.Height)/float64(b.Dy()))
	op.ColorScale.ScaleAlpha(float32(alpha))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(img, op)
}

// drawImageAt 以 (cx, cy) 为中心绘制图片，宽度缩放到 width
func (v *View) drawImageAt(screen, img *ebiten.Image, cx, cy, width, angle, alpha float64) {
	b := img.Bounds()
	scale := width / float64(b.Dx())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-float64(b.Dx())/2, -float64(b.Dy())/2)
	op.GeoM.Scale(scale, scale)
	op.GeoM.Rotate(angle)
	op.GeoM.Translate(cx, cy)
	op.ColorScale.ScaleAlpha(float32(alpha))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(img, op)
}

func (v *View) drawText(screen *ebiten.Image, s string, x, y float64, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y-10)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(screen, s, v.face, op)
}

// fade 按 alpha 缩放颜色（预乘）
func fade(c color.RGBA, alpha float32) color.RGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.RGBA{
		R: uint8(float32(c.R) * alpha),
		G: uint8(float32(c.G) * alpha),
		B: uint8(float32(c.B) * alpha),
		A: uint8(float32(c.A) * alpha),
	}
}
