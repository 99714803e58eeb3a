package anim

import "math"

// Easing 缓动函数：输入进度 t ∈ [0, 1]，返回缓动后的进度
type Easing func(t float64) float64

// Linear 匀速
func Linear(t float64) float64 {
	return t
}

// EaseInOut 正弦缓入缓出，用于心跳、摇摆等往复动画
func EaseInOut(t float64) float64 {
	return -(math.Cos(math.Pi*t) - 1) / 2
}

// EaseOutCubic 三次方缓出（开始快，结束慢）
// 公式：f(t) = 1 - (1-t)³
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// EaseInCubic 三次方缓入
func EaseInCubic(t float64) float64 {
	return t * t * t
}

// Lerp 在 a 和 b 之间线性插值
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
