package utils

import (
	"math/rand"
	"time"
)

// Random 可设定种子的随机数源
// 会话内所有随机选择（掉落位置、照片、敌人方向、播放列表）都来自同一个实例，
// 固定种子即可复现整局游戏
type Random struct {
	rng *rand.Rand
}

// NewRandom 创建随机数源；seed 为 0 时使用当前时间
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Intn 返回 [0, n) 的随机整数；n <= 0 时返回 0
func (r *Random) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.rng.Intn(n)
}

// Float64 返回 [0, 1) 的随机浮点数
func (r *Random) Float64() float64 {
	return r.rng.Float64()
}

// Range 返回 [min, max) 的随机浮点数
func (r *Random) Range(min, max float64) float64 {
	return min + (max-min)*r.rng.Float64()
}

// Perm 返回 0..n-1 的随机排列（Fisher-Yates）
func (r *Random) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := r.rng.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// IntnExcept 返回 [0, n) 中不等于 except 的随机整数
// n < 2 时无法避开，返回 0
func (r *Random) IntnExcept(n, except int) int {
	if n < 2 {
		return 0
	}
	if except < 0 || except >= n {
		return r.rng.Intn(n)
	}
	v := r.rng.Intn(n - 1)
	if v >= except {
		v++
	}
	return v
}
