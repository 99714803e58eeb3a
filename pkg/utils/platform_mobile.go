//go:build mobile

package utils

// IsMobile 移动端构建始终返回 true（窗口尺寸由系统决定）
func IsMobile() bool {
	return true
}
