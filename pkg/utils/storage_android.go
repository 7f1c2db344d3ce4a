//go:build android

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureStorageDir 确保 Android 存储目录存在并可写。
// gdata 在 Android 上使用 /data/data/{包名}/ 作为存储根，
// 但不会预先创建子目录。此函数在 gdata.Open 之前调用，
// 创建 saves 目录并做一次写入探测。
//
// 返回：
//   - error: 目录创建失败或不可写时返回错误
func EnsureStorageDir() error {
	pkg, err := androidPackageName()
	if err != nil {
		return fmt.Errorf("failed to detect Android app: %w", err)
	}

	dir := filepath.Join("/data/data", pkg, "saves")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create saves directory %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("saves directory %s is not writable: %w", dir, err)
	}
	os.Remove(probe)
	return nil
}

// GetStoragePath 返回应用的存储根目录（调试用）
func GetStoragePath() string {
	pkg, err := androidPackageName()
	if err != nil {
		return ""
	}
	return filepath.Join("/data/data", pkg)
}

// androidPackageName 从 /proc/self/cmdline 读取应用包名
func androidPackageName() (string, error) {
	raw, err := os.ReadFile("/proc/self/cmdline")
	if err != nil {
		return "", err
	}
	name := strings.Map(func(r rune) rune {
		if r == 0 || r == '\n' {
			return -1
		}
		return r
	}, string(raw))
	if name == "" {
		return "", fmt.Errorf("got empty output from /proc/self/cmdline")
	}
	return name, nil
}
