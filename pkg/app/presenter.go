package app

import (
	"fmt"
	"sync"

	"github.com/decker502/tourguide/pkg/spotlight"
)

// TooltipView 演示用的提示展示器
//
// 把当前消息渲染为屏幕底部的文字条。Show 返回的句柄带
// 代次号，旧句柄的 Dismiss 不会误撤新提示。
type TooltipView struct {
	mu      sync.Mutex
	zoneKey string
	text    string
	gen     uint64
}

// NewTooltipView 创建提示展示器
func NewTooltipView() *TooltipView {
	return &TooltipView{}
}

// Show 展示一条提示，返回可见性句柄
func (v *TooltipView) Show(zoneKey string, msg spotlight.Message) spotlight.TooltipHandle {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gen++
	v.zoneKey = zoneKey
	v.text = fmt.Sprint(msg.Content)
	return &tooltipHandle{view: v, gen: v.gen}
}

// Current 返回当前展示的提示
//
// 返回：
//   - zoneKey: 提示所属的区域键
//   - text: 提示文本
//   - ok: 是否有提示在展示
func (v *TooltipView) Current() (zoneKey, text string, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.text == "" {
		return "", "", false
	}
	return v.zoneKey, v.text, true
}

// tooltipHandle 一次 Show 的可见性句柄
type tooltipHandle struct {
	view *TooltipView
	gen  uint64
	once sync.Once
}

// Dismiss 撤下提示（幂等，仅当自己仍是最新一条时生效）
func (h *tooltipHandle) Dismiss() {
	h.once.Do(func() {
		h.view.mu.Lock()
		defer h.view.mu.Unlock()
		if h.view.gen != h.gen {
			return
		}
		h.view.zoneKey = ""
		h.view.text = ""
	})
}

// InputBlocker 演示用的输入闸门
//
// 消息播放期间控制器调用 BlockInput，演示层据此忽略控件点击。
type InputBlocker struct {
	mu      sync.Mutex
	blocked bool
}

// NewInputBlocker 创建输入闸门
func NewInputBlocker() *InputBlocker {
	return &InputBlocker{}
}

// BlockInput 开始屏蔽控件输入
func (b *InputBlocker) BlockInput() {
	b.mu.Lock()
	b.blocked = true
	b.mu.Unlock()
}

// AllowInput 恢复控件输入
func (b *InputBlocker) AllowInput() {
	b.mu.Lock()
	b.blocked = false
	b.mu.Unlock()
}

// Blocked 返回当前是否处于屏蔽状态
func (b *InputBlocker) Blocked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blocked
}
