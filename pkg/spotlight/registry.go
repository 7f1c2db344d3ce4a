package spotlight

import "sync"

// ZoneRegistry 区域注册表
//
// 键为区域的唯一标识，值为区域元数据。宿主在每次布局变化后
// 重新注册（覆盖旧条目），注册与查询可能来自不同协程。
type ZoneRegistry struct {
	mu    sync.RWMutex // 保护 zones
	zones map[string]ZoneEntry
}

// NewZoneRegistry 构造空注册表
func NewZoneRegistry() *ZoneRegistry {
	return &ZoneRegistry{zones: make(map[string]ZoneEntry)}
}

// Register 注册或覆盖一个区域
func (r *ZoneRegistry) Register(key string, entry ZoneEntry) {
	r.mu.Lock()
	r.zones[key] = entry
	r.mu.Unlock()
}

// Unregister 注销一个区域（键不存在时为空操作)
func (r *ZoneRegistry) Unregister(key string) {
	r.mu.Lock()
	delete(r.zones, key)
	r.mu.Unlock()
}

// Get 查询区域
//
// 返回：
//   - entry: 区域元数据
//   - ok: 键是否存在
func (r *ZoneRegistry) Get(key string) (ZoneEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.zones[key]
	return entry, ok
}

// Contains 判断键是否已注册
func (r *ZoneRegistry) Contains(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.zones[key]
	return ok
}

// Len 返回已注册区域数量
func (r *ZoneRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.zones)
}
