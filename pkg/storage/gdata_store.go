package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/quasilyte/gdata/v2"
)

// GdataStore 基于 gdata 的跨平台存储
//
// 所有键作为同一 object 下的属性存放，object 名由构造参数指定，
// 不同宿主（或同一宿主的不同命名空间）可用不同 object 隔离。
// gdata 的属性操作是同步文件读写，ctx 参数不参与取消。
type GdataStore struct {
	mu        sync.Mutex // gdata 文件操作串行化
	manager   *gdata.Manager
	objectKey string
}

// NewGdataStore 构造 gdata 存储
//
// 参数：
//   - manager: 已打开的 gdata 管理器（不可为 nil）
//   - objectKey: 属性所属的 object 名
//
// 返回：
//   - *GdataStore: 存储实例
//   - error: manager 为 nil 或 objectKey 为空时返回错误
func NewGdataStore(manager *gdata.Manager, objectKey string) (*GdataStore, error) {
	if manager == nil {
		return nil, fmt.Errorf("gdata manager 不能为 nil")
	}
	if objectKey == "" {
		return nil, fmt.Errorf("objectKey 不能为空")
	}
	return &GdataStore{manager: manager, objectKey: objectKey}, nil
}

// GetString 读取字符串值
func (g *GdataStore) GetString(_ context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.manager.ObjectPropExists(g.objectKey, key) {
		return "", false, nil
	}
	data, err := g.manager.LoadObjectProp(g.objectKey, key)
	if err != nil {
		return "", false, fmt.Errorf("加载属性 %s/%s 失败: %w", g.objectKey, key, err)
	}
	return string(data), true, nil
}

// SetString 写入字符串值
func (g *GdataStore) SetString(_ context.Context, key, val string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.manager.SaveObjectProp(g.objectKey, key, []byte(val)); err != nil {
		return fmt.Errorf("保存属性 %s/%s 失败: %w", g.objectKey, key, err)
	}
	return nil
}

// GetBool 读取布尔值
func (g *GdataStore) GetBool(ctx context.Context, key string) (bool, bool, error) {
	val, ok, err := g.GetString(ctx, key)
	if err != nil || !ok {
		return false, ok, err
	}
	return val == "true", true, nil
}

// SetBool 写入布尔值
func (g *GdataStore) SetBool(ctx context.Context, key string, val bool) error {
	return g.SetString(ctx, key, strconv.FormatBool(val))
}

// GetFloat64 读取浮点值
func (g *GdataStore) GetFloat64(ctx context.Context, key string) (float64, bool, error) {
	val, ok, err := g.GetString(ctx, key)
	if err != nil || !ok {
		return 0, ok, err
	}
	f, perr := strconv.ParseFloat(val, 64)
	if perr != nil {
		return 0, true, fmt.Errorf("属性 %s 不是合法浮点值: %w", key, perr)
	}
	return f, true, nil
}

// SetFloat64 写入浮点值
func (g *GdataStore) SetFloat64(ctx context.Context, key string, val float64) error {
	return g.SetString(ctx, key, strconv.FormatFloat(val, 'f', -1, 64))
}
