// embed.go - 资源嵌入声明
// 必须放在项目根目录（与 data/ 同级）
// 因为 //go:embed 指令只能嵌入当前包目录及其子目录的文件
//
// 图片和音频不嵌入，运行时从 assets/ 目录读取；缺失时游戏以静音和矢量图形运行
package main

import "embed"

//go:embed data/config
var dataFS embed.FS
