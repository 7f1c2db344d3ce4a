//go:build !android

package utils

// EnsureStorageDir 确保持久化存储目录可用。
// 非 Android 平台上 gdata 会自行创建目录，这里无需处理。
func EnsureStorageDir() error {
	return nil
}

// GetStoragePath 返回存储路径（非 Android 平台为空字符串）
func GetStoragePath() string {
	return ""
}
