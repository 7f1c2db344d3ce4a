package spotlight

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/decker502/tourguide/pkg/audio"
)

// defaultErrorRecoveryDelay 播放出错后的兜底等待时长
// （消息与配置都未提供可用时长时使用）
const defaultErrorRecoveryDelay = 1500 * time.Millisecond

// messageSequencer 单个激活区域的消息序列状态机
//
// 以下标 i 扫过消息列表，i == len(messages) 为终态：
//   - 无语音消息：前台时等待 DefaultDelay 后推进
//   - 有语音消息：播放列表对应条目播完（或出错降级为定时）后推进
//   - 切后台暂停（定时器冻结剩余时长 / 播放挂起），回前台恢复，
//     不跳过当前消息
//
// 下标是唯一受保护状态：来自音频引擎的异步回调、定时器回调和
// 用户手动跳过都串行在 mu 上，推进只会 +1，不回退、不跳跃。
// 终态回调 onFinish 对每次激活至多触发一次，并且在锁外触发
// （宿主常在其中再次出队）。
type messageSequencer struct {
	mu sync.Mutex

	zoneKey      string
	activationID string
	messages     []Message
	player       audio.Player // 可为 nil（纯定时推进）
	tooltip      TooltipPresenter
	gate         InputGate
	// recoveryDelay 播放出错后当前消息的等待时长
	recoveryDelay func(m Message) time.Duration
	onFinish      func()

	idx        int
	foreground bool
	finished   bool
	finishSent bool
	torndown   bool

	handle TooltipHandle

	// usingAudio 播放列表装载成功；false 时所有消息都走定时推进
	usingAudio     bool
	itemForMessage []int // 消息下标 -> 播放列表条目下标，-1 表示无语音
	messageForItem []int // 播放列表条目下标 -> 消息下标

	// 定时推进状态。timerGen 让已入队但尚未持锁的旧回调失效。
	timer          *time.Timer
	timerGen       int
	timerPending   bool          // 后台期间挂起的定时
	timerRemaining time.Duration // 挂起的剩余时长
	timerDeadline  time.Time
}

// newMessageSequencer 构造序列器（未启动）
func newMessageSequencer(zoneKey, activationID string, messages []Message, player audio.Player, tooltip TooltipPresenter, gate InputGate, recoveryDelay func(Message) time.Duration, foreground bool, onFinish func()) *messageSequencer {
	return &messageSequencer{
		zoneKey:       zoneKey,
		activationID:  activationID,
		messages:      messages,
		player:        player,
		tooltip:       tooltip,
		gate:          gate,
		recoveryDelay: recoveryDelay,
		onFinish:      onFinish,
		foreground:    foreground,
	}
}

// start 装载播放列表并展示第一条消息
//
// 空消息列表立即进入终态（仍保证 onFinish 恰好一次）。
// 控制器在锁外调用：装载是慢 I/O，且空列表会同步触发 onFinish，
// 宿主常在其中再次出队。
func (s *messageSequencer) start(ctx context.Context) {
	s.mu.Lock()
	if s.torndown {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.buildPlaylist(ctx)

	s.mu.Lock()
	if s.torndown {
		s.mu.Unlock()
		return
	}
	if len(s.messages) > 0 && s.gate != nil {
		s.gate.BlockInput()
	}
	var fire bool
	if s.idx >= len(s.messages) {
		fire = s.finishLocked()
	} else {
		s.showCurrentLocked(false)
	}
	s.mu.Unlock()

	if fire {
		s.onFinish()
	}
}

// buildPlaylist 收集有语音的消息并装载播放列表
//
// 装载失败整体降级为定时推进（引导不因媒体故障停摆）。
func (s *messageSequencer) buildPlaylist(ctx context.Context) {
	s.itemForMessage = make([]int, len(s.messages))
	var locators []string
	for i, m := range s.messages {
		if m.AudioLocator == "" || s.player == nil {
			s.itemForMessage[i] = -1
			continue
		}
		s.itemForMessage[i] = len(locators)
		s.messageForItem = append(s.messageForItem, i)
		locators = append(locators, m.AudioLocator)
	}
	if s.player == nil || len(locators) == 0 {
		return
	}

	if err := s.player.SetItems(ctx, locators); err != nil {
		log.Printf("[MessageSequencer] Warning: Failed to load narration for zone %s, falling back to timed delays: %v", s.zoneKey, err)
		for i := range s.itemForMessage {
			s.itemForMessage[i] = -1
		}
		s.messageForItem = nil
		return
	}
	s.usingAudio = true
	s.player.SetEvents(audio.Events{
		OnItemTransition: s.onItemTransition,
		OnPlaybackEnded:  s.onPlaybackEnded,
		OnError:          s.onPlaybackError,
	})
}

// showCurrentLocked 展示下标处的消息并安排它的推进方式
//
// audioAlreadyPlaying 表示播放列表已经自动切到该消息的条目并在响，
// 此时不再重复 SeekTo/Play。
func (s *messageSequencer) showCurrentLocked(audioAlreadyPlaying bool) {
	msg := s.messages[s.idx]

	if s.handle != nil {
		s.handle.Dismiss()
		s.handle = nil
	}
	if s.tooltip != nil {
		s.handle = s.tooltip.Show(s.zoneKey, msg)
	}

	item := s.itemForMessage[s.idx]
	if item >= 0 && s.usingAudio {
		if audioAlreadyPlaying {
			return
		}
		if err := s.player.SeekTo(item); err != nil {
			log.Printf("[MessageSequencer] Warning: Failed to seek narration item %d: %v", item, err)
			s.armTimerLocked(s.recoveryDelay(msg))
			return
		}
		if s.foreground {
			s.player.Play()
		}
		return
	}

	// 定时推进路径：确保播放列表不在响
	if s.usingAudio {
		s.player.Pause()
	}
	if s.foreground {
		s.armTimerLocked(msg.DefaultDelay)
	} else {
		s.timerPending = true
		s.timerRemaining = msg.DefaultDelay
	}
}

// armTimerLocked 启动当前消息的推进定时器
func (s *messageSequencer) armTimerLocked(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.stopTimerLocked()
	s.timerGen++
	gen := s.timerGen
	s.timerDeadline = time.Now().Add(d)
	s.timer = time.AfterFunc(d, func() { s.onTimer(gen) })
}

// stopTimerLocked 停止定时器并使在途回调失效
func (s *messageSequencer) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
	s.timerPending = false
	s.timerRemaining = 0
}

// onTimer 定时器到期回调
func (s *messageSequencer) onTimer(gen int) {
	s.mu.Lock()
	if gen != s.timerGen || s.finished || s.torndown || !s.foreground {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	fire := s.advanceLocked(false)
	s.mu.Unlock()

	if fire {
		s.onFinish()
	}
}

// onItemTransition 播放列表自动推进回调
func (s *messageSequencer) onItemTransition(from, to int) {
	s.mu.Lock()
	if s.finished || s.torndown || to >= len(s.messageForItem) {
		s.mu.Unlock()
		return
	}
	target := s.messageForItem[to]
	if target <= s.idx {
		// 迟到的旧事件
		s.mu.Unlock()
		return
	}

	var fire bool
	if target == s.idx+1 {
		// 下一条消息正是新条目对应的消息：条目已在响，只推进展示
		fire = s.advanceLocked(true)
	} else {
		// 中间还隔着无语音消息：按住播放，先走定时路径
		s.player.Pause()
		fire = s.advanceLocked(false)
	}
	s.mu.Unlock()

	if fire {
		s.onFinish()
	}
}

// onPlaybackEnded 播放列表整体播完回调
func (s *messageSequencer) onPlaybackEnded() {
	s.mu.Lock()
	if s.finished || s.torndown || s.idx >= len(s.messages) {
		s.mu.Unlock()
		return
	}
	if s.itemForMessage[s.idx] < 0 {
		// 当前在定时消息上，结束事件与推进无关
		s.mu.Unlock()
		return
	}
	fire := s.advanceLocked(false)
	s.mu.Unlock()

	if fire {
		s.onFinish()
	}
}

// onPlaybackError 播放出错回调：降级为定时推进
func (s *messageSequencer) onPlaybackError(err error) {
	s.mu.Lock()
	if s.finished || s.torndown || s.idx >= len(s.messages) {
		s.mu.Unlock()
		return
	}
	msg := s.messages[s.idx]
	log.Printf("[MessageSequencer] Warning: Narration error on zone %s message %d, falling back to delay: %v", s.zoneKey, s.idx, err)
	if s.usingAudio {
		s.player.Pause()
	}
	d := s.recoveryDelay(msg)
	if s.foreground {
		s.armTimerLocked(d)
	} else {
		s.timerPending = true
		s.timerRemaining = d
	}
	s.mu.Unlock()
}

// advanceLocked 下标 +1，返回是否需要在锁外触发 onFinish
func (s *messageSequencer) advanceLocked(audioAlreadyPlaying bool) bool {
	s.stopTimerLocked()
	s.idx++
	if s.idx >= len(s.messages) {
		return s.finishLocked()
	}
	s.showCurrentLocked(audioAlreadyPlaying)
	return false
}

// finishLocked 进入终态（幂等），返回是否需要触发 onFinish
func (s *messageSequencer) finishLocked() bool {
	if s.finished {
		return false
	}
	s.finished = true
	s.stopTimerLocked()
	if s.usingAudio {
		s.player.SetEvents(audio.Events{})
		s.player.Stop()
	}
	if s.handle != nil {
		s.handle.Dismiss()
		s.handle = nil
	}
	if s.gate != nil {
		s.gate.AllowInput()
	}
	if s.onFinish == nil || s.finishSent {
		return false
	}
	s.finishSent = true
	log.Printf("[MessageSequencer] Zone %s sequence finished (activation %s)", s.zoneKey, s.activationID)
	return true
}

// skip 用户手动推进到下一条消息
func (s *messageSequencer) skip() {
	s.mu.Lock()
	if s.finished || s.torndown {
		s.mu.Unlock()
		return
	}
	fire := s.advanceLocked(false)
	s.mu.Unlock()

	if fire {
		s.onFinish()
	}
}

// setForeground 前后台切换
//
// 后台：挂起播放 / 冻结定时器剩余时长；前台：原地恢复。
func (s *messageSequencer) setForeground(fg bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.foreground == fg {
		return
	}
	s.foreground = fg
	if s.finished || s.torndown || s.idx >= len(s.messages) {
		return
	}

	audioDriven := s.itemForMessage[s.idx] >= 0 && s.usingAudio && s.timer == nil && !s.timerPending

	if !fg {
		if audioDriven {
			s.player.Pause()
			return
		}
		// 冻结定时器
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
			s.timerGen++
			remaining := time.Until(s.timerDeadline)
			if remaining < 0 {
				remaining = 0
			}
			s.timerPending = true
			s.timerRemaining = remaining
		}
		return
	}

	if audioDriven {
		s.player.Play()
		return
	}
	if s.timerPending {
		s.timerPending = false
		s.armTimerLocked(s.timerRemaining)
	}
}

// teardown 拆除序列器：停止定时器、释放提示与播放列表监听
//
// 区域不再是当前聚光时由控制器调用，幂等。拆除不触发 onFinish。
func (s *messageSequencer) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.torndown {
		return
	}
	s.torndown = true
	s.stopTimerLocked()
	if s.usingAudio {
		s.player.SetEvents(audio.Events{})
		s.player.Stop()
	}
	if s.handle != nil {
		s.handle.Dismiss()
		s.handle = nil
	}
	if s.gate != nil {
		s.gate.AllowInput()
	}
}
