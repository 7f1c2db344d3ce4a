package spotlight

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/decker502/tourguide/pkg/audio"
	"github.com/decker502/tourguide/pkg/storage"
)

// fakePlayer 可控的旁白播放器，事件由测试手动触发
type fakePlayer struct {
	mu          sync.Mutex
	setItemsErr error
	items       []string
	seeks       []int
	plays       int
	pauses      int
	stops       int
	playing     bool
	events      audio.Events
}

func (f *fakePlayer) SetItems(_ context.Context, locators []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setItemsErr != nil {
		return f.setItemsErr
	}
	f.items = append([]string(nil), locators...)
	f.playing = false
	return nil
}

func (f *fakePlayer) SeekTo(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, index)
	return nil
}

func (f *fakePlayer) Play() {
	f.mu.Lock()
	f.plays++
	f.playing = true
	f.mu.Unlock()
}

func (f *fakePlayer) Pause() {
	f.mu.Lock()
	f.pauses++
	f.playing = false
	f.mu.Unlock()
}

func (f *fakePlayer) Stop() {
	f.mu.Lock()
	f.stops++
	f.playing = false
	f.mu.Unlock()
}

func (f *fakePlayer) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakePlayer) SetVolume(float64) {}

func (f *fakePlayer) SetEvents(ev audio.Events) {
	f.mu.Lock()
	f.events = ev
	f.mu.Unlock()
}

func (f *fakePlayer) fireTransition(from, to int) {
	f.mu.Lock()
	cb := f.events.OnItemTransition
	f.mu.Unlock()
	if cb != nil {
		cb(from, to)
	}
}

func (f *fakePlayer) fireEnded() {
	f.mu.Lock()
	cb := f.events.OnPlaybackEnded
	f.playing = false
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (f *fakePlayer) fireError(err error) {
	f.mu.Lock()
	cb := f.events.OnError
	f.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

func (f *fakePlayer) playCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays
}

func (f *fakePlayer) pauseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauses
}

func (f *fakePlayer) seekLog() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.seeks...)
}

func (f *fakePlayer) itemCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// fakeTooltip 记录展示与撤下次数的提示展示器
type fakeTooltip struct {
	mu         sync.Mutex
	shown      []Message
	zones      []string
	dismissals int
}

type fakeHandle struct {
	parent *fakeTooltip
	once   sync.Once
}

func (h *fakeHandle) Dismiss() {
	h.once.Do(func() {
		h.parent.mu.Lock()
		h.parent.dismissals++
		h.parent.mu.Unlock()
	})
}

func (ft *fakeTooltip) Show(zoneKey string, msg Message) TooltipHandle {
	ft.mu.Lock()
	ft.shown = append(ft.shown, msg)
	ft.zones = append(ft.zones, zoneKey)
	ft.mu.Unlock()
	return &fakeHandle{parent: ft}
}

func (ft *fakeTooltip) shownCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.shown)
}

func (ft *fakeTooltip) dismissCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.dismissals
}

func (ft *fakeTooltip) shownContents() []any {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	out := make([]any, len(ft.shown))
	for i, m := range ft.shown {
		out[i] = m.Content
	}
	return out
}

// fakeGate 记录输入闸门调用
type fakeGate struct {
	mu      sync.Mutex
	blocks  int
	allows  int
	blocked bool
}

func (g *fakeGate) BlockInput() {
	g.mu.Lock()
	g.blocks++
	g.blocked = true
	g.mu.Unlock()
}

func (g *fakeGate) AllowInput() {
	g.mu.Lock()
	g.allows++
	g.blocked = false
	g.mu.Unlock()
}

func (g *fakeGate) isBlocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.blocked
}

// newTestController 构造使用内存存储与加速等待参数的控制器
func newTestController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	if cfg.Store == nil {
		cfg.Store = storage.NewMemoryStore()
	}
	if cfg.RegistrationWait == 0 {
		cfg.RegistrationWait = 300 * time.Millisecond
	}
	if cfg.RegistrationPoll == 0 {
		cfg.RegistrationPoll = 10 * time.Millisecond
	}
	c, err := NewController(cfg)
	if err != nil {
		t.Fatalf("NewController() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// simpleZone 构造指定边界的最小区域
func simpleZone(x, y, w, h float64) ZoneEntry {
	return ZoneEntry{Bounds: Rect{X: x, Y: y, Width: w, Height: h}}
}

// waitSignal 等待通道信号，超时即失败
func waitSignal(t *testing.T, ch <-chan struct{}, timeout time.Duration, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// expectNoSignal 断言一段时间内没有信号
func expectNoSignal(t *testing.T, ch <-chan struct{}, window time.Duration, what string) {
	t.Helper()
	select {
	case <-ch:
		t.Fatalf("unexpected %s", what)
	case <-time.After(window):
	}
}
