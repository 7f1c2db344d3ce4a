package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	iaudio "github.com/decker502/tourguide/internal/audio"
	eaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// monitorInterval 条目播完检测的轮询间隔
const monitorInterval = 100 * time.Millisecond

// Loader 音频字节装载函数
//
// 把定位串解析为原始音频字节（mp3/ogg/wav/au 编码数据，非 PCM）。
type Loader func(ctx context.Context, locator string) ([]byte, error)

// FileLoader 返回从本地文件系统装载的 Loader
func FileLoader() Loader {
	return func(ctx context.Context, locator string) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return os.ReadFile(locator)
	}
}

// FSLoader 返回从 fs.FS 装载的 Loader（配合 go:embed 的内嵌资源）
func FSLoader(fsys fs.FS) Loader {
	return func(ctx context.Context, locator string) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fs.ReadFile(fsys, locator)
	}
}

// narrationPlayer 单条目播放器的最小操作面
//
// *audio.Player 隐式满足该接口；拆出接口是为了让播放列表推进
// 逻辑可以脱离真实音频设备验证。
type narrationPlayer interface {
	Play()
	Pause()
	IsPlaying() bool
	Rewind() error
	SetVolume(volume float64)
	Close() error
}

// Manager 基于 ebiten 音频栈的旁白播放器
//
// 职责：
//   - 装载一批旁白音频并整体解码（每条目一个播放器）
//   - 顺序播放：条目自然结束后自动推进到下一条并回调
//   - 暂停/恢复不触发推进（前后台切换用）
//
// 采样率约束：解码不做重采样，音频文件的采样率必须与传入的
// audioContext 一致，否则播放速度会偏移。
type Manager struct {
	mu           sync.Mutex
	audioContext *eaudio.Context
	loader       Loader

	items    []narrationPlayer
	locators []string
	current  int
	playing  bool
	// suspended 为 true 表示被宿主暂停（如切后台），条目不推进
	suspended bool
	volume    float64
	events    Events

	done      chan struct{}
	closeOnce sync.Once
}

// 编译期确认 Manager 满足 Player 接口
var _ Player = (*Manager)(nil)

// NewManager 创建旁白播放器
//
// 参数：
//   - audioContext: ebiten 音频上下文（全局唯一，由宿主创建）
//   - loader: 音频字节装载函数，nil 时使用 FileLoader
//
// 返回：
//   - *Manager: 播放器实例，用毕需 Close
func NewManager(audioContext *eaudio.Context, loader Loader) *Manager {
	if loader == nil {
		loader = FileLoader()
	}
	m := &Manager{
		audioContext: audioContext,
		loader:       loader,
		volume:       1.0,
		done:         make(chan struct{}),
	}
	go m.monitor()
	return m
}

// SetItems 装载播放列表
func (m *Manager) SetItems(ctx context.Context, locators []string) error {
	// 先在锁外完成装载与解码，失败时不影响现有列表
	players := make([]narrationPlayer, 0, len(locators))
	for _, locator := range locators {
		player, err := m.loadItem(ctx, locator)
		if err != nil {
			for _, p := range players {
				p.Close()
			}
			return fmt.Errorf("装载旁白 %s 失败: %w", locator, err)
		}
		players = append(players, player)
	}

	m.mu.Lock()
	old := m.items
	m.items = players
	m.locators = append([]string(nil), locators...)
	m.current = 0
	m.playing = false
	m.suspended = false
	for _, p := range players {
		p.SetVolume(m.volume)
	}
	m.mu.Unlock()

	for _, p := range old {
		p.Pause()
		if err := p.Close(); err != nil {
			log.Printf("[AudioManager] Warning: Failed to close old item: %v", err)
		}
	}

	log.Printf("[AudioManager] Playlist loaded: %d items", len(players))
	return nil
}

// loadItem 装载并解码单个条目
func (m *Manager) loadItem(ctx context.Context, locator string) (narrationPlayer, error) {
	data, err := m.loader(ctx, locator)
	if err != nil {
		return nil, err
	}
	reader := bytes.NewReader(data)

	var stream io.Reader

	ext := strings.ToLower(filepath.Ext(locator))
	switch ext {
	case ".mp3":
		decoded, err := mp3.DecodeWithoutResampling(reader)
		if err != nil {
			return nil, fmt.Errorf("解码 MP3 失败: %w", err)
		}
		stream = decoded
	case ".ogg":
		decoded, err := vorbis.DecodeWithoutResampling(reader)
		if err != nil {
			return nil, fmt.Errorf("解码 OGG 失败: %w", err)
		}
		stream = decoded
	case ".wav":
		decoded, err := wav.DecodeWithoutResampling(reader)
		if err != nil {
			return nil, fmt.Errorf("解码 WAV 失败: %w", err)
		}
		stream = decoded
	case ".au":
		decoded, err := iaudio.DecodeAU(reader)
		if err != nil {
			return nil, fmt.Errorf("解码 AU 失败: %w", err)
		}
		// AU 多为单声道低采样率：先扩展声道再重采样到上下文采样率
		var src io.ReadSeeker = decoded
		size := decoded.Length()
		if decoded.Channels() == 1 {
			src = iaudio.NewMonoToStereo(src)
			size *= 2
		}
		if int(decoded.SampleRate()) != m.audioContext.SampleRate() {
			src = eaudio.Resample(src, size, int(decoded.SampleRate()), m.audioContext.SampleRate())
		}
		stream = src
	default:
		return nil, fmt.Errorf("不支持的音频格式: %s（支持 .mp3/.ogg/.wav/.au）", ext)
	}

	player, err := m.audioContext.NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("创建播放器失败: %w", err)
	}
	return player, nil
}

// SeekTo 切换到指定条目开头
func (m *Manager) SeekTo(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.items) {
		return fmt.Errorf("条目下标越界: %d（共 %d 条）", index, len(m.items))
	}
	if m.current < len(m.items) {
		m.items[m.current].Pause()
	}
	m.current = index
	item := m.items[index]
	if err := item.Rewind(); err != nil {
		return fmt.Errorf("重置条目 %d 失败: %w", index, err)
	}
	if m.playing && !m.suspended {
		item.Play()
	}
	return nil
}

// Play 从当前条目开始（或恢复）播放
func (m *Manager) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items) == 0 || m.current >= len(m.items) {
		return
	}
	if m.playing && !m.suspended {
		return
	}
	m.suspended = false
	m.playing = true
	m.items[m.current].Play()
}

// Pause 暂停播放
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.playing || m.current >= len(m.items) {
		return
	}
	m.suspended = true
	m.items[m.current].Pause()
}

// Stop 停止播放并回到列表开头
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current < len(m.items) {
		m.items[m.current].Pause()
	}
	m.playing = false
	m.suspended = false
	m.current = 0
	if len(m.items) > 0 {
		if err := m.items[0].Rewind(); err != nil {
			log.Printf("[AudioManager] Warning: Failed to rewind item 0: %v", err)
		}
	}
}

// IsPlaying 当前是否处于播放态
func (m *Manager) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing && !m.suspended
}

// SetVolume 设置音量并立即应用到所有条目
func (m *Manager) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = volume
	for _, p := range m.items {
		p.SetVolume(volume)
	}
}

// SetEvents 注册事件回调
func (m *Manager) SetEvents(ev Events) {
	m.mu.Lock()
	m.events = ev
	m.mu.Unlock()
}

// Close 停止监控协程并释放所有条目
func (m *Manager) Close() error {
	m.closeOnce.Do(func() { close(m.done) })

	m.mu.Lock()
	items := m.items
	m.items = nil
	m.locators = nil
	m.playing = false
	m.mu.Unlock()

	for _, p := range items {
		p.Pause()
		if err := p.Close(); err != nil {
			log.Printf("[AudioManager] Warning: Failed to close item: %v", err)
		}
	}
	return nil
}

// monitor 周期检测当前条目是否播完，驱动列表推进
func (m *Manager) monitor() {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.step()
		}
	}
}

// step 单次推进检测
//
// 回调在锁外触发，回调内反调播放器方法不会死锁。
func (m *Manager) step() {
	m.mu.Lock()
	if !m.playing || m.suspended || m.current >= len(m.items) {
		m.mu.Unlock()
		return
	}
	if m.items[m.current].IsPlaying() {
		m.mu.Unlock()
		return
	}

	// 当前条目已自然播完
	if m.current+1 < len(m.items) {
		from := m.current
		m.current++
		next := m.items[m.current]
		rewindErr := next.Rewind()
		if rewindErr == nil {
			next.Play()
		}
		to := m.current
		onTransition := m.events.OnItemTransition
		onError := m.events.OnError
		m.mu.Unlock()

		if rewindErr != nil {
			log.Printf("[AudioManager] Warning: Failed to rewind item %d: %v", to, rewindErr)
			if onError != nil {
				onError(rewindErr)
			}
			return
		}
		if onTransition != nil {
			onTransition(from, to)
		}
		return
	}

	// 最后一条播完，整个列表结束
	m.playing = false
	onEnded := m.events.OnPlaybackEnded
	m.mu.Unlock()

	log.Printf("[AudioManager] Playlist finished")
	if onEnded != nil {
		onEnded()
	}
}
