//go:build !mobile

// stub.go - 桌面构建时的占位实现
//
// ebitenmobile 绑定代码（mobile.go、embed.go）只在 -tags mobile 下
// 编译。普通构建时本文件提供空的 Dummy，保证包始终可被引用。
package mobile

// Dummy 空导出函数，使 gomobile 工具链能发现本包
func Dummy() {}
