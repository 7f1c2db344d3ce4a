package storage

import (
	"context"
	"reflect"
	"testing"
)

// TestEncodeDecodeStringList 测试列表编解码的对称性
func TestEncodeDecodeStringList(t *testing.T) {
	tests := []struct {
		name    string
		items   []string
		encoded string
	}{
		{"空列表", nil, ""},
		{"单元素", []string{"zone_a"}, "zone_a"},
		{"多元素", []string{"zone_a", "zone_b", "zone_c"}, "zone_a;zone_b;zone_c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeStringList(tt.items)
			if got != tt.encoded {
				t.Errorf("EncodeStringList() = %q, want %q", got, tt.encoded)
			}
			back := DecodeStringList(got)
			if !reflect.DeepEqual(back, tt.items) {
				t.Errorf("DecodeStringList() = %v, want %v", back, tt.items)
			}
		})
	}
}

// TestMemoryStoreStringRoundTrip 测试字符串读写与存在性标志
func TestMemoryStoreStringRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	// 未写入的键应报告不存在
	_, ok, err := s.GetString(ctx, "missing")
	if err != nil {
		t.Fatalf("GetString() error: %v", err)
	}
	if ok {
		t.Error("GetString(missing): got ok=true, want false")
	}

	if err := s.SetString(ctx, "k", "v"); err != nil {
		t.Fatalf("SetString() error: %v", err)
	}
	val, ok, err := s.GetString(ctx, "k")
	if err != nil {
		t.Fatalf("GetString() error: %v", err)
	}
	if !ok || val != "v" {
		t.Errorf("GetString(k) = (%q, %v), want (\"v\", true)", val, ok)
	}

	// 空串是合法值，写入后键应存在
	if err := s.SetString(ctx, "empty", ""); err != nil {
		t.Fatalf("SetString() error: %v", err)
	}
	val, ok, _ = s.GetString(ctx, "empty")
	if !ok || val != "" {
		t.Errorf("GetString(empty) = (%q, %v), want (\"\", true)", val, ok)
	}
}

// TestMemoryStoreBoolFloat 测试布尔与浮点值的编解码
func TestMemoryStoreBoolFloat(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.SetBool(ctx, "flag", true); err != nil {
		t.Fatalf("SetBool() error: %v", err)
	}
	b, ok, err := s.GetBool(ctx, "flag")
	if err != nil || !ok || !b {
		t.Errorf("GetBool(flag) = (%v, %v, %v), want (true, true, nil)", b, ok, err)
	}

	if err := s.SetFloat64(ctx, "volume", 0.7); err != nil {
		t.Fatalf("SetFloat64() error: %v", err)
	}
	f, ok, err := s.GetFloat64(ctx, "volume")
	if err != nil || !ok || f != 0.7 {
		t.Errorf("GetFloat64(volume) = (%v, %v, %v), want (0.7, true, nil)", f, ok, err)
	}

	// 未写入的键
	_, ok, err = s.GetBool(ctx, "nope")
	if err != nil || ok {
		t.Errorf("GetBool(nope) = (_, %v, %v), want (false, nil)", ok, err)
	}
}

// TestStringListHelpers 测试基于 Store 接口的列表读写
func TestStringListHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	items := []string{"intro", "buttons", "summary"}
	if err := SetStringList(ctx, s, "queue", items); err != nil {
		t.Fatalf("SetStringList() error: %v", err)
	}
	got, ok, err := GetStringList(ctx, s, "queue")
	if err != nil {
		t.Fatalf("GetStringList() error: %v", err)
	}
	if !ok {
		t.Fatal("GetStringList(): got ok=false, want true")
	}
	if !reflect.DeepEqual(got, items) {
		t.Errorf("GetStringList() = %v, want %v", got, items)
	}

	// 清空列表后读回为空
	if err := SetStringList(ctx, s, "queue", nil); err != nil {
		t.Fatalf("SetStringList(nil) error: %v", err)
	}
	got, ok, _ = GetStringList(ctx, s, "queue")
	if !ok {
		t.Fatal("GetStringList(): got ok=false after clearing, want true")
	}
	if len(got) != 0 {
		t.Errorf("GetStringList() after clear = %v, want empty", got)
	}
}
