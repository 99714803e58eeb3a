package components

import "github.com/decker502/lovetap/pkg/anim"

// HeartShotComponent Boss 阶段从光标处向上发射的爱心子弹
type HeartShotComponent struct {
	X *anim.Value
	Y *anim.Value
}

// StarComponent 星空背景中的一颗星
// Opacity 由闪烁循环驱动，X/Y 由重定位和漂移驱动
type StarComponent struct {
	Index   int
	X       *anim.Value
	Y       *anim.Value
	Opacity *anim.Value
	Twinkle anim.Node
	Drift   anim.Node
}
