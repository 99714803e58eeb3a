//go:build !android

package utils

// EnsureStorageDir 桌面端由 gdata 自行创建设置目录，这里什么也不做
func EnsureStorageDir() error {
	return nil
}

// StoragePath 桌面端返回空字符串（路径由 gdata 决定）
func StoragePath() string {
	return ""
}
