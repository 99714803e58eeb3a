//go:build !mobile

// stub.go - 普通构建时的占位文件
//
// 真正的入口在 mobile.go 和 embed.go 中，只在 -tags mobile 时编译；
// 这里保证 go build ./... 和 go vet ./... 在桌面端也能通过。
package mobile

// Dummy 空导出函数，与 mobile.go 中的同名函数对应
func Dummy() {}
