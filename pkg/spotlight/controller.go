package spotlight

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/decker502/tourguide/pkg/audio"
	"github.com/decker502/tourguide/pkg/storage"
)

const (
	// defaultRegistrationWait 入队时等待区域注册的默认上限
	defaultRegistrationWait = 3000 * time.Millisecond
	// defaultRegistrationPoll 注册等待的轮询间隔
	defaultRegistrationPoll = 50 * time.Millisecond
	// audioPollInterval 旁白播放状态的发布采样间隔
	audioPollInterval = 100 * time.Millisecond
)

// Config 控制器配置
//
// Store 必填，其余按需提供。零值时长字段取默认值。
type Config struct {
	// Store 队列持久化存储
	Store storage.Store

	// Player 旁白播放器，nil 表示无旁白（全部定时推进）
	Player audio.Player

	// Tooltip 提示展示器，nil 表示不展示提示
	Tooltip TooltipPresenter

	// Gate 输入闸门，nil 表示不屏蔽输入
	Gate InputGate

	// RegistrationWait 入队时等待区域注册的上限（默认 3000ms）
	RegistrationWait time.Duration

	// RegistrationPoll 注册等待的轮询间隔（默认 50ms）
	RegistrationPoll time.Duration

	// ErrorRecoveryDelay 旁白出错后的兜底等待时长；
	// 零值时退回当前消息的 DefaultDelay，再兜底 1500ms
	ErrorRecoveryDelay time.Duration
}

// Controller 聚光灯控制器
//
// 编排注册表、顺序队列、调暗状态与消息序列，对渲染层只发布
// 不可变快照。两个互斥域：注册表自带一个，队列/当前区域/序列器
// 共用 queueMu；两把锁从不同时持有。出队路径先弹队再在锁外查
// 注册表，重新持锁发布前校验 spotGen 代次，过期则放弃发布。
type Controller struct {
	cfg      Config
	registry *ZoneRegistry

	queueMu    sync.Mutex // 保护 queue、setupDone、foreground、seq、spotGen
	queue      *sequenceQueue
	setupDone  bool
	namespace  string
	foreground bool
	seq        *messageSequencer
	spotGen    uint64 // 聚光代次，出队与 Close 时自增

	dimState     *Observable[DimState]
	currentSpot  *Observable[Snapshot]
	audioPlaying *Observable[bool]

	done      chan struct{}
	closeOnce sync.Once
}

// NewController 创建聚光灯控制器
//
// 参数：
//   - cfg: 控制器配置，Store 必填
//
// 返回：
//   - *Controller: 控制器实例，用毕需 Close
//   - error: 配置不合法
func NewController(cfg Config) (*Controller, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("Config.Store 不能为 nil")
	}
	if cfg.RegistrationWait <= 0 {
		cfg.RegistrationWait = defaultRegistrationWait
	}
	if cfg.RegistrationPoll <= 0 {
		cfg.RegistrationPoll = defaultRegistrationPoll
	}

	c := &Controller{
		cfg:          cfg,
		registry:     NewZoneRegistry(),
		queue:        newSequenceQueue(cfg.Store),
		foreground:   true,
		dimState:     NewObservable(DimStopped),
		currentSpot:  NewObservable(Snapshot{}),
		audioPlaying: NewObservable(false),
		done:         make(chan struct{}),
	}
	if cfg.Player != nil {
		go c.pollAudioPlaying()
	}
	return c, nil
}

// Setup 绑定存储命名空间，并恢复此前持久化的队列
//
// 必须先于任何队列操作调用。重复调用：同一 id 为空操作，
// 不同 id 返回错误。
func (c *Controller) Setup(ctx context.Context, id string) error {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()

	if c.setupDone {
		if id == c.namespace {
			return nil
		}
		return fmt.Errorf("控制器已绑定命名空间 %q，不能重新绑定为 %q", c.namespace, id)
	}
	if err := c.queue.bind(ctx, id); err != nil {
		return fmt.Errorf("Setup(%q) 失败: %w", id, err)
	}
	c.setupDone = true
	c.namespace = id
	log.Printf("[SpotlightController] Setup complete: namespace=%s, restored=%d", id, c.queue.length())
	return nil
}

// ensureSetupLocked 队列操作前置检查（须持有 queueMu）
func (c *Controller) ensureSetupLocked() {
	if !c.setupDone {
		panic("[SpotlightController] Setup(id) must be called before queue operations")
	}
}

// IsPersistent 查询队列是否已进入持久化模式
func (c *Controller) IsPersistent() bool {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.ensureSetupLocked()
	return c.queue.isPersistent()
}

// SetPersistent 置位持久化模式并落盘当前队列快照（幂等）
//
// 置位后：后续 Enqueue 全部为空操作；每次出队同步写穿快照。
func (c *Controller) SetPersistent(ctx context.Context) error {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.ensureSetupLocked()
	return c.queue.setPersistent(ctx)
}

// QueueLength 返回当前队列长度
func (c *Controller) QueueLength() int {
	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	c.ensureSetupLocked()
	return c.queue.length()
}

// Enqueue 入队一个区域键
//
// 入队常与 UI 挂载竞速，因此先有界等待该键完成注册
// （RegistrationWait 内按 RegistrationPoll 轮询，等待期间不持有
// 任何锁）；超时则静默丢弃该次入队（对应元素从未挂载）。
// 持久化模式下为空操作。
//
// 返回：
//   - error: 仅在 ctx 取消时返回；注册超时不是错误
func (c *Controller) Enqueue(ctx context.Context, key string) error {
	c.queueMu.Lock()
	c.ensureSetupLocked()
	persistent := c.queue.isPersistent()
	c.queueMu.Unlock()

	if persistent {
		log.Printf("[SpotlightController] Queue is persistent, ignoring enqueue of %q", key)
		return nil
	}

	if !c.registry.Contains(key) {
		ticker := time.NewTicker(c.cfg.RegistrationPoll)
		defer ticker.Stop()
		timeout := time.NewTimer(c.cfg.RegistrationWait)
		defer timeout.Stop()

	wait:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timeout.C:
				log.Printf("[SpotlightController] Warning: Zone %q never registered within %v, dropping enqueue", key, c.cfg.RegistrationWait)
				return nil
			case <-ticker.C:
				if c.registry.Contains(key) {
					break wait
				}
			}
		}
	}

	c.queueMu.Lock()
	c.queue.append(ctx, key)
	c.queueMu.Unlock()
	return nil
}

// EnqueueAll 按顺序逐个入队（串行，注册等待不并发）
func (c *Controller) EnqueueAll(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := c.Enqueue(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// DequeueAndSpotlight 弹出队首并聚光
//
// 先拆除上一个聚光（撤提示、停旁白、清句柄），再弹出队首：
//   - 队列非空：按 groundDimming 设定调暗状态，发布该区域几何
//     快照（区域已注销时发布零几何，引导照常推进），并启动其
//     消息序列
//   - 队列为空：调暗强制 STOPPED，发布空快照
//
// 返回：
//   - key: 弹出的区域键，队列为空时为空串
//   - error: 预留（当前实现总是 nil，存储故障已内部降级）
func (c *Controller) DequeueAndSpotlight(ctx context.Context, groundDimming bool) (string, error) {
	c.queueMu.Lock()
	c.ensureSetupLocked()
	c.teardownCurrentLocked()

	key, ok := c.queue.popFront(ctx)
	c.spotGen++
	gen := c.spotGen
	if !ok {
		c.dimState.Set(DimStopped)
		c.currentSpot.Set(Snapshot{})
		c.queueMu.Unlock()
		log.Printf("[SpotlightController] Queue empty, dimming stopped")
		return "", nil
	}
	c.queueMu.Unlock()

	// 锁外查注册表：注册表锁与 queueMu 从不同时持有
	activationID := uuid.NewString()
	entry, found := c.registry.Get(key)

	var snap Snapshot
	if found {
		snap = snapshotFromEntry(key, entry, activationID)
	} else {
		// 排队期间被注销：发布零几何，遮罩不挖孔但引导不中断
		log.Printf("[SpotlightController] Warning: Zone %q no longer registered, publishing zero geometry", key)
		snap = Snapshot{Key: key, ActivationID: activationID}
	}

	c.queueMu.Lock()
	if gen != c.spotGen {
		// 期间有更新的出队或 Close 抢先发布，本次让位
		c.queueMu.Unlock()
		return key, nil
	}
	if groundDimming {
		c.dimState.Set(DimRunning)
	} else {
		c.dimState.Set(DimStopped)
	}
	c.currentSpot.Set(snap)
	log.Printf("[SpotlightController] Spotlight on zone %q (activation %s, dimming=%v)", key, activationID, groundDimming)

	if !found {
		c.queueMu.Unlock()
		return key, nil
	}

	seq := newMessageSequencer(key, activationID, entry.Messages, c.cfg.Player, c.cfg.Tooltip, c.cfg.Gate, c.recoveryDelayFor, c.foreground, entry.OnFinish)
	c.seq = seq
	c.queueMu.Unlock()

	// 锁外启动：装载旁白是慢 I/O，且空消息列表会同步触发 OnFinish
	seq.start(ctx)
	return key, nil
}

// teardownCurrentLocked 拆除当前序列器（须持有 queueMu）
func (c *Controller) teardownCurrentLocked() {
	if c.seq == nil {
		return
	}
	seq := c.seq
	c.seq = nil
	seq.teardown()
}

// recoveryDelayFor 解析某条消息的出错恢复等待时长
func (c *Controller) recoveryDelayFor(m Message) time.Duration {
	if c.cfg.ErrorRecoveryDelay > 0 {
		return c.cfg.ErrorRecoveryDelay
	}
	if m.DefaultDelay > 0 {
		return m.DefaultDelay
	}
	return defaultErrorRecoveryDelay
}

// StartGroundDimming 启动调暗（不依赖队列状态）
func (c *Controller) StartGroundDimming() {
	c.dimState.Set(DimRunning)
	log.Printf("[SpotlightController] Ground dimming started")
}

// StopGroundDimming 停止调暗
func (c *Controller) StopGroundDimming() {
	c.dimState.Set(DimStopped)
	log.Printf("[SpotlightController] Ground dimming stopped")
}

// RegisterZone 注册或更新一个区域
//
// 宿主在每次布局变化后调用。若该区域正是当前聚光区域，
// 立即用新几何重新发布快照（激活标识不变）。
func (c *Controller) RegisterZone(key string, entry ZoneEntry) {
	c.registry.Register(key, entry)

	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	cur := c.currentSpot.Get()
	if cur.Key != key {
		return
	}
	c.currentSpot.Set(snapshotFromEntry(key, entry, cur.ActivationID))
}

// UnregisterZone 注销一个区域
//
// 必须先于宿主释放该元素资源调用。若该区域正是当前聚光区域，
// 立即降级为零几何快照（键与激活标识保留，遮罩不再挖孔）。
func (c *Controller) UnregisterZone(key string) {
	c.registry.Unregister(key)

	c.queueMu.Lock()
	defer c.queueMu.Unlock()
	cur := c.currentSpot.Get()
	if cur.Key != key {
		return
	}
	c.currentSpot.Set(Snapshot{Key: key, ActivationID: cur.ActivationID})
}

// ZoneCount 返回已注册区域数量
func (c *Controller) ZoneCount() int {
	return c.registry.Len()
}

// SetForeground 宿主前后台信号
//
// 后台暂停当前消息（旁白挂起 / 定时冻结），前台原地恢复。
func (c *Controller) SetForeground(fg bool) {
	c.queueMu.Lock()
	c.foreground = fg
	seq := c.seq
	c.queueMu.Unlock()

	if seq != nil {
		seq.setForeground(fg)
	}
}

// Skip 手动推进当前区域到下一条消息（无激活区域时为空操作）
func (c *Controller) Skip() {
	c.queueMu.Lock()
	seq := c.seq
	c.queueMu.Unlock()

	if seq != nil {
		seq.skip()
	}
}

// DimStateStream 调暗状态流（渲染层每帧 Get）
func (c *Controller) DimStateStream() *Observable[DimState] {
	return c.dimState
}

// SpotlightStream 当前聚光快照流（渲染层每帧 Get）
func (c *Controller) SpotlightStream() *Observable[Snapshot] {
	return c.currentSpot
}

// AudioPlayingStream 旁白播放中状态流（100ms 采样，只发布跳变）
func (c *Controller) AudioPlayingStream() *Observable[bool] {
	return c.audioPlaying
}

// pollAudioPlaying 周期采样旁白播放状态并发布跳变
func (c *Controller) pollAudioPlaying() {
	ticker := time.NewTicker(audioPollInterval)
	defer ticker.Stop()

	last := false
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			playing := c.cfg.Player.IsPlaying()
			if playing != last {
				last = playing
				c.audioPlaying.Set(playing)
			}
		}
	}
}

// Close 拆除当前聚光并停止后台协程
//
// 不关闭注入的 Store/Player（归宿主所有）。
func (c *Controller) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.queueMu.Lock()
	c.spotGen++
	c.teardownCurrentLocked()
	c.dimState.Set(DimStopped)
	c.currentSpot.Set(Snapshot{})
	c.queueMu.Unlock()
	return nil
}

// snapshotFromEntry 由区域元数据构造发布快照
func snapshotFromEntry(key string, entry ZoneEntry, activationID string) Snapshot {
	return Snapshot{
		Key:                 key,
		Offset:              Point{X: entry.Bounds.X, Y: entry.Bounds.Y},
		Size:                Size{Width: entry.Bounds.Width, Height: entry.Bounds.Height},
		Shape:               entry.Shape,
		ForcedNavigation:    entry.ForcedNavigation,
		AdaptComponentShape: entry.AdaptComponentShape,
		Padding:             entry.Padding,
		ActivationID:        activationID,
	}
}
