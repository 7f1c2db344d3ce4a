//go:build !mobile

package utils

import "testing"

// TestIsMobile_Desktop 测试桌面端编译时 IsMobile() 返回 false
func TestIsMobile_Desktop(t *testing.T) {
	t.Setenv("TOURGUIDE_MOBILE_EMULATE", "")
	if IsMobile() {
		t.Error("IsMobile() should return false on desktop")
	}
}

// TestIsMobile_EmulateEnv 测试通过环境变量强制启用移动模式（用于本地调试）
func TestIsMobile_EmulateEnv(t *testing.T) {
	t.Setenv("TOURGUIDE_MOBILE_EMULATE", "1")
	if !IsMobile() {
		t.Error("IsMobile() should return true when TOURGUIDE_MOBILE_EMULATE=1")
	}
}
