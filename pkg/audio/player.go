// Package audio 实现引导旁白的播放列表播放器
//
// 核心是 Player 接口：一次装载一批旁白音频（与消息序列对应），
// 逐条播放并在条目切换、列表播完、出错时回调。序列器
// (pkg/spotlight.MessageSequencer) 据此推进消息；不关心底层
// 音频栈。默认实现 Manager 基于 ebiten/v2 的 audio 包。
package audio

import "context"

// Events 播放事件回调
//
// 所有回调都可能为 nil。回调在播放器内部协程上触发，实现方
// 保证触发时不持有播放器锁，回调内可以安全地反调播放器方法。
type Events struct {
	// OnItemTransition 播放列表从条目 from 自动推进到条目 to 时触发
	OnItemTransition func(from, to int)

	// OnPlaybackEnded 最后一个条目播放完毕时触发
	OnPlaybackEnded func()

	// OnError 播放过程中出错时触发（装载阶段的错误走返回值，不走这里）
	OnError func(err error)
}

// Player 旁白播放器接口
//
// 实现必须可被多协程并发调用。
type Player interface {
	// SetItems 装载播放列表（替换旧列表并停止播放）
	//
	// 参数：
	//   - ctx: 控制资源装载的取消与超时
	//   - locators: 音频定位串列表（文件路径等，由实现解释）
	//
	// 返回：
	//   - error: 任一条目装载或解码失败（此时列表为空）
	SetItems(ctx context.Context, locators []string) error

	// SeekTo 切换到指定条目开头（不改变播放/暂停状态）
	SeekTo(index int) error

	// Play 从当前条目开始（或恢复）播放
	Play()

	// Pause 暂停播放，Play 可恢复
	Pause()

	// Stop 停止播放并回到列表开头
	Stop()

	// IsPlaying 当前是否处于播放态（暂停与播完均为 false）
	IsPlaying() bool

	// SetVolume 设置音量（0.0 ~ 1.0，越界自动钳制）
	SetVolume(volume float64)

	// SetEvents 注册事件回调（整体替换）
	SetEvents(ev Events)
}
