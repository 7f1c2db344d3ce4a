package spotlight

import "sync"

// Observable 可观察值：持有一个当前值，支持轮询读取与订阅变更
//
// 渲染层走 Get 的每帧轮询路径；测试与异步消费者走 Subscribe。
// 订阅通道容量为 1，推送采用"最新值覆盖"语义：消费者来不及取走
// 旧值时直接丢弃旧值，保证 Set 永不阻塞在慢消费者上。
type Observable[T any] struct {
	mu   sync.RWMutex
	val  T
	subs map[chan T]struct{}
}

// NewObservable 构造可观察值
//
// 参数：
//   - initial: 初始值
func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{
		val:  initial,
		subs: make(map[chan T]struct{}),
	}
}

// Get 读取当前值
func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.val
}

// Set 更新当前值并通知所有订阅者
func (o *Observable[T]) Set(v T) {
	o.mu.Lock()
	o.val = v
	for ch := range o.subs {
		// 最新值覆盖：先腾空再写入，避免阻塞
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
	o.mu.Unlock()
}

// Subscribe 订阅变更，返回接收通道与退订函数
//
// 返回：
//   - ch: 变更通知通道（容量 1，最新值覆盖）
//   - cancel: 退订函数，调用后通道关闭
func (o *Observable[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)
	o.mu.Lock()
	o.subs[ch] = struct{}{}
	o.mu.Unlock()

	cancel := func() {
		o.mu.Lock()
		if _, ok := o.subs[ch]; ok {
			delete(o.subs, ch)
			close(ch)
		}
		o.mu.Unlock()
	}
	return ch, cancel
}
