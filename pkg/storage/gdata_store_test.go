package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/quasilyte/gdata/v2"
)

// createTestGdataManager 在临时 HOME 下创建隔离的 gdata manager
func createTestGdataManager(t *testing.T, testName string) *gdata.Manager {
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })

	appName := fmt.Sprintf("tourguide_test_%s_%d", testName, time.Now().UnixNano())
	manager, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}
	return manager
}

// TestNewGdataStoreValidation 测试构造参数校验
func TestNewGdataStoreValidation(t *testing.T) {
	if _, err := NewGdataStore(nil, "tour"); err == nil {
		t.Error("NewGdataStore(nil, ...): got nil error, want error")
	}

	manager := createTestGdataManager(t, "validation")
	if _, err := NewGdataStore(manager, ""); err == nil {
		t.Error("NewGdataStore(_, \"\"): got nil error, want error")
	}
}

// TestGdataStoreRoundTrip 测试字符串/布尔值的持久化读写
func TestGdataStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	manager := createTestGdataManager(t, "roundtrip")

	store, err := NewGdataStore(manager, "tour")
	if err != nil {
		t.Fatalf("NewGdataStore() error: %v", err)
	}

	// 未写入的键
	_, ok, err := store.GetString(ctx, "missing")
	if err != nil {
		t.Fatalf("GetString() error: %v", err)
	}
	if ok {
		t.Error("GetString(missing): got ok=true, want false")
	}

	if err := store.SetString(ctx, "queue", "a;b;c"); err != nil {
		t.Fatalf("SetString() error: %v", err)
	}
	val, ok, err := store.GetString(ctx, "queue")
	if err != nil || !ok || val != "a;b;c" {
		t.Errorf("GetString(queue) = (%q, %v, %v), want (\"a;b;c\", true, nil)", val, ok, err)
	}

	if err := store.SetBool(ctx, "running", true); err != nil {
		t.Fatalf("SetBool() error: %v", err)
	}
	b, ok, err := store.GetBool(ctx, "running")
	if err != nil || !ok || !b {
		t.Errorf("GetBool(running) = (%v, %v, %v), want (true, true, nil)", b, ok, err)
	}

	// 同一 manager 下新实例应读到已落盘的数据
	store2, err := NewGdataStore(manager, "tour")
	if err != nil {
		t.Fatalf("NewGdataStore() error: %v", err)
	}
	val, ok, err = store2.GetString(ctx, "queue")
	if err != nil || !ok || val != "a;b;c" {
		t.Errorf("reloaded GetString(queue) = (%q, %v, %v), want (\"a;b;c\", true, nil)", val, ok, err)
	}
}

// TestGdataStoreObjectIsolation 测试不同 object 之间的键隔离
func TestGdataStoreObjectIsolation(t *testing.T) {
	ctx := context.Background()
	manager := createTestGdataManager(t, "isolation")

	storeA, err := NewGdataStore(manager, "controller_a")
	if err != nil {
		t.Fatalf("NewGdataStore() error: %v", err)
	}
	storeB, err := NewGdataStore(manager, "controller_b")
	if err != nil {
		t.Fatalf("NewGdataStore() error: %v", err)
	}

	if err := storeA.SetString(ctx, "queue", "a1"); err != nil {
		t.Fatalf("SetString() error: %v", err)
	}
	_, ok, err := storeB.GetString(ctx, "queue")
	if err != nil {
		t.Fatalf("GetString() error: %v", err)
	}
	if ok {
		t.Error("controller_b 读到了 controller_a 的键，object 隔离失效")
	}
}
