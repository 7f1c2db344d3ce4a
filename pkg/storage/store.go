// Package storage 提供聚光队列与用户偏好的本地键值持久化
//
// 三个后端实现同一 Store 接口：
//   - MemoryStore: 纯内存，测试与无盘环境用
//   - GdataStore: 基于 gdata 的跨平台应用数据目录存储（桌面/移动端默认）
//   - SQLiteStore: 基于 SQLite 的单文件存储（需要事务性批量读写的宿主用）
//
// 所有值以字符串编码落盘；列表值用 ';' 连接（因此元素内容不得包含 ';'）。
package storage

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// ListSeparator 列表编码分隔符
const ListSeparator = ";"

// Store 键值存储接口
//
// 实现必须可被多协程并发调用。键不存在不是错误：读取方法以
// ok 标志区分"不存在"与"存在但为零值"。
type Store interface {
	// GetString 读取字符串值
	//
	// 返回：
	//   - val: 值（键不存在时为空串）
	//   - ok: 键是否存在
	GetString(ctx context.Context, key string) (val string, ok bool, err error)

	// SetString 写入字符串值（覆盖旧值）
	SetString(ctx context.Context, key, val string) error

	// GetBool 读取布尔值（键不存在时 ok 为 false）
	GetBool(ctx context.Context, key string) (val bool, ok bool, err error)

	// SetBool 写入布尔值
	SetBool(ctx context.Context, key string, val bool) error

	// GetFloat64 读取浮点值（键不存在时 ok 为 false）
	GetFloat64(ctx context.Context, key string) (val float64, ok bool, err error)

	// SetFloat64 写入浮点值
	SetFloat64(ctx context.Context, key string, val float64) error
}

// EncodeStringList 将字符串列表编码为单个存储值
//
// 空列表编码为空串。元素不得包含分隔符 ';'，调用方负责保证。
func EncodeStringList(items []string) string {
	return strings.Join(items, ListSeparator)
}

// DecodeStringList 解码存储值为字符串列表
//
// 空串解码为空列表（nil），与编码侧对称。
func DecodeStringList(val string) []string {
	if val == "" {
		return nil
	}
	return strings.Split(val, ListSeparator)
}

// GetStringList 读取列表值
func GetStringList(ctx context.Context, s Store, key string) ([]string, bool, error) {
	val, ok, err := s.GetString(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return DecodeStringList(val), true, nil
}

// SetStringList 写入列表值
func SetStringList(ctx context.Context, s Store, key string, items []string) error {
	return s.SetString(ctx, key, EncodeStringList(items))
}

// MemoryStore 纯内存存储，进程退出即丢失
type MemoryStore struct {
	mu   sync.RWMutex // 保护 data
	data map[string]string
}

// NewMemoryStore 构造空的内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// GetString 读取字符串值
func (m *MemoryStore) GetString(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.data[key]
	return val, ok, nil
}

// SetString 写入字符串值
func (m *MemoryStore) SetString(_ context.Context, key, val string) error {
	m.mu.Lock()
	m.data[key] = val
	m.mu.Unlock()
	return nil
}

// GetBool 读取布尔值
func (m *MemoryStore) GetBool(ctx context.Context, key string) (bool, bool, error) {
	val, ok, err := m.GetString(ctx, key)
	if err != nil || !ok {
		return false, ok, err
	}
	return val == "true", true, nil
}

// SetBool 写入布尔值
func (m *MemoryStore) SetBool(ctx context.Context, key string, val bool) error {
	return m.SetString(ctx, key, strconv.FormatBool(val))
}

// GetFloat64 读取浮点值
func (m *MemoryStore) GetFloat64(ctx context.Context, key string) (float64, bool, error) {
	val, ok, err := m.GetString(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	f, perr := strconv.ParseFloat(val, 64)
	if perr != nil {
		return 0, true, perr
	}
	return f, true, nil
}

// SetFloat64 写入浮点值
func (m *MemoryStore) SetFloat64(ctx context.Context, key string, val float64) error {
	return m.SetString(ctx, key, strconv.FormatFloat(val, 'f', -1, 64))
}
