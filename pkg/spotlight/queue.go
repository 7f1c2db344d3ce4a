package spotlight

import (
	"context"
	"fmt"
	"log"

	"github.com/decker502/tourguide/pkg/storage"
)

// 持久化键后缀：完整键 = 控制器命名空间 id + 后缀
const (
	queueKeySuffix      = "_spotlight_queue"
	persistentKeySuffix = "_spotlight_persistent"
)

// sequenceQueue 聚光顺序队列
//
// FIFO，允许重复键。persistent 置位后：
//   - 新的追加被拒绝（空操作），队列只能按持久化快照消费
//   - 每次成功变更都同步写穿到存储（崩溃最多丢失最后一次变更，
//     不会打乱顺序）
//
// 本类型不加锁：所有方法必须在控制器的队列锁下调用。
type sequenceQueue struct {
	store      storage.Store
	id         string // 存储命名空间，bind 前为空
	items      []string
	persistent bool
}

func newSequenceQueue(store storage.Store) *sequenceQueue {
	return &sequenceQueue{store: store}
}

func (q *sequenceQueue) listKey() string { return q.id + queueKeySuffix }
func (q *sequenceQueue) flagKey() string { return q.id + persistentKeySuffix }

func (q *sequenceQueue) bound() bool { return q.id != "" }

// mustBound 队列操作的前置条件：已绑定命名空间
//
// 未 Setup 就操作队列属于调用方编程错误，直接 panic 而不是
// 静默写进未定义的命名空间。
func (q *sequenceQueue) mustBound() {
	if !q.bound() {
		panic("[SpotlightController] queue operation before Setup(id)")
	}
}

// bind 绑定存储命名空间并恢复持久化状态
//
// 若该命名空间此前置过持久化标志，则用持久化快照整体替换
// 内存队列（丢弃 bind 之前积累的任何内存状态）。
func (q *sequenceQueue) bind(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("命名空间 id 不能为空")
	}
	q.id = id

	flag, ok, err := q.store.GetBool(ctx, q.flagKey())
	if err != nil {
		return fmt.Errorf("读取持久化标志失败: %w", err)
	}
	if !ok || !flag {
		return nil
	}

	q.persistent = true
	items, _, err := storage.GetStringList(ctx, q.store, q.listKey())
	if err != nil {
		return fmt.Errorf("恢复队列快照失败: %w", err)
	}
	q.items = items
	log.Printf("[SpotlightController] Restored persistent queue %q: %d zones", id, len(items))
	return nil
}

func (q *sequenceQueue) isPersistent() bool {
	q.mustBound()
	return q.persistent
}

// setPersistent 置位持久化标志并落盘当前快照（幂等）
func (q *sequenceQueue) setPersistent(ctx context.Context) error {
	q.mustBound()
	if q.persistent {
		return nil
	}
	if err := q.store.SetBool(ctx, q.flagKey(), true); err != nil {
		return fmt.Errorf("写入持久化标志失败: %w", err)
	}
	q.persistent = true
	if err := storage.SetStringList(ctx, q.store, q.listKey(), q.items); err != nil {
		return fmt.Errorf("写入队列快照失败: %w", err)
	}
	return nil
}

// append 追加一个键
//
// persistent 置位后为空操作（队列以持久化快照为准）。
func (q *sequenceQueue) append(ctx context.Context, key string) {
	q.mustBound()
	if q.persistent {
		log.Printf("[SpotlightController] Queue is persistent, ignoring enqueue of %q", key)
		return
	}
	q.items = append(q.items, key)
}

// popFront 弹出队首
//
// 返回：
//   - key: 队首键
//   - ok: 队列是否非空
//
// 持久化模式下同步写穿新快照；存储失败只记日志，不阻断消费
// （引导流程不因存储故障停摆）。
func (q *sequenceQueue) popFront(ctx context.Context) (string, bool) {
	q.mustBound()
	if len(q.items) == 0 {
		return "", false
	}
	key := q.items[0]
	q.items = q.items[1:]
	if q.persistent {
		if err := storage.SetStringList(ctx, q.store, q.listKey(), q.items); err != nil {
			log.Printf("[SpotlightController] Warning: Failed to persist queue after dequeue: %v", err)
		}
	}
	return key, true
}

func (q *sequenceQueue) length() int {
	return len(q.items)
}

// snapshot 返回当前队列内容的拷贝
func (q *sequenceQueue) snapshot() []string {
	out := make([]string, len(q.items))
	copy(out, q.items)
	return out
}
