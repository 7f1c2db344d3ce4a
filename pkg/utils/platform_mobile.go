//go:build mobile

package utils

// IsMobile 检测当前是否在移动设备上运行。
// 移动端构建（-tags mobile）下恒为 true。
func IsMobile() bool {
	return true
}
