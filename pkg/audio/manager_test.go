package audio

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	eaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// 测试共享音频上下文（全局只能创建一次）
var (
	testAudioContext     *eaudio.Context
	testAudioContextOnce sync.Once
)

// getTestAudioContext 获取测试音频上下文（延迟创建）
func getTestAudioContext() *eaudio.Context {
	testAudioContextOnce.Do(func() {
		testAudioContext = eaudio.NewContext(48000)
	})
	return testAudioContext
}

// writeTestWAV 生成一个 48kHz/16bit/双声道的静音 WAV 文件
func writeTestWAV(t *testing.T, path string, sampleCount int) {
	t.Helper()

	const (
		channels   = 2
		sampleRate = 48000
		bitDepth   = 16
	)
	blockAlign := channels * bitDepth / 8
	dataSize := sampleCount * blockAlign

	buf := make([]byte, 0, 44+dataSize)
	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataSize))
	buf = append(buf, []byte("WAVE")...)
	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, channels)
	buf = binary.LittleEndian.AppendUint32(buf, sampleRate)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate*blockAlign))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(blockAlign))
	buf = binary.LittleEndian.AppendUint16(buf, bitDepth)
	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataSize))
	buf = append(buf, make([]byte, dataSize)...)

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("Failed to write test WAV: %v", err)
	}
}

// fakeItem 可控的条目播放器，用于脱离音频设备验证列表推进
type fakeItem struct {
	mu       sync.Mutex
	playing  bool
	finished bool // 模拟条目自然播完
	rewinds  int
	volume   float64
	closed   bool
}

func (f *fakeItem) Play()  { f.mu.Lock(); f.playing = true; f.mu.Unlock() }
func (f *fakeItem) Pause() { f.mu.Lock(); f.playing = false; f.mu.Unlock() }

func (f *fakeItem) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing && !f.finished
}

func (f *fakeItem) Rewind() error {
	f.mu.Lock()
	f.rewinds++
	f.finished = false
	f.mu.Unlock()
	return nil
}

func (f *fakeItem) SetVolume(v float64) { f.mu.Lock(); f.volume = v; f.mu.Unlock() }
func (f *fakeItem) Close() error        { f.mu.Lock(); f.closed = true; f.mu.Unlock(); return nil }

func (f *fakeItem) finish() { f.mu.Lock(); f.finished = true; f.mu.Unlock() }

// newStoppedManager 构造不启动监控协程的播放器，测试手动调 step() 推进
func newStoppedManager(items ...narrationPlayer) *Manager {
	return &Manager{
		items:  items,
		volume: 1.0,
		done:   make(chan struct{}),
	}
}

// TestPlaylistAutoAdvance 测试条目播完后自动推进并触发回调
func TestPlaylistAutoAdvance(t *testing.T) {
	f1 := &fakeItem{}
	f2 := &fakeItem{}
	m := newStoppedManager(f1, f2)

	var transitions [][2]int
	ended := false
	m.SetEvents(Events{
		OnItemTransition: func(from, to int) { transitions = append(transitions, [2]int{from, to}) },
		OnPlaybackEnded:  func() { ended = true },
	})

	m.Play()
	if !f1.IsPlaying() {
		t.Fatal("Play(): item 0 should be playing")
	}

	// 条目 0 未播完时不推进
	m.step()
	if len(transitions) != 0 {
		t.Fatalf("step() before finish: got transitions %v, want none", transitions)
	}

	// 条目 0 播完 -> 推进到条目 1
	f1.finish()
	m.step()
	if len(transitions) != 1 || transitions[0] != [2]int{0, 1} {
		t.Fatalf("transitions = %v, want [[0 1]]", transitions)
	}
	if !f2.IsPlaying() {
		t.Error("item 1 should be playing after transition")
	}
	if ended {
		t.Error("OnPlaybackEnded fired too early")
	}

	// 条目 1 播完 -> 列表结束
	f2.finish()
	m.step()
	if !ended {
		t.Error("OnPlaybackEnded not fired after last item finished")
	}
	if m.IsPlaying() {
		t.Error("IsPlaying() = true after playlist ended, want false")
	}

	// 结束后再 step 不应重复触发
	ended = false
	m.step()
	if ended {
		t.Error("OnPlaybackEnded fired twice")
	}
}

// TestPauseSuppressesAdvance 测试暂停期间条目播完不推进
func TestPauseSuppressesAdvance(t *testing.T) {
	f1 := &fakeItem{}
	f2 := &fakeItem{}
	m := newStoppedManager(f1, f2)

	var transitions int
	m.SetEvents(Events{
		OnItemTransition: func(from, to int) { transitions++ },
	})

	m.Play()
	m.Pause()
	if m.IsPlaying() {
		t.Error("IsPlaying() = true after Pause, want false")
	}

	f1.finish()
	m.step()
	if transitions != 0 {
		t.Error("playlist advanced while paused")
	}

	// 恢复后正常推进
	m.Play()
	m.step()
	if transitions != 1 {
		t.Errorf("transitions = %d after resume, want 1", transitions)
	}
}

// TestSeekToSwitchesItem 测试 SeekTo 的边界与状态保持
func TestSeekToSwitchesItem(t *testing.T) {
	f1 := &fakeItem{}
	f2 := &fakeItem{}
	m := newStoppedManager(f1, f2)

	if err := m.SeekTo(2); err == nil {
		t.Error("SeekTo(2): got nil error, want out of range error")
	}
	if err := m.SeekTo(-1); err == nil {
		t.Error("SeekTo(-1): got nil error, want out of range error")
	}

	// 未播放时 SeekTo 不应开始播放
	if err := m.SeekTo(1); err != nil {
		t.Fatalf("SeekTo(1) error: %v", err)
	}
	if f2.IsPlaying() {
		t.Error("SeekTo started playback while stopped")
	}
	if f2.rewinds != 1 {
		t.Errorf("item 1 rewinds = %d, want 1", f2.rewinds)
	}

	// 播放中 SeekTo 应切换正在响的条目
	m.Play()
	if err := m.SeekTo(0); err != nil {
		t.Fatalf("SeekTo(0) error: %v", err)
	}
	if f2.IsPlaying() {
		t.Error("item 1 still playing after SeekTo(0)")
	}
	if !f1.IsPlaying() {
		t.Error("item 0 not playing after SeekTo(0) during playback")
	}
}

// TestStopResetsToHead 测试 Stop 复位到列表开头
func TestStopResetsToHead(t *testing.T) {
	f1 := &fakeItem{}
	f2 := &fakeItem{}
	m := newStoppedManager(f1, f2)

	m.Play()
	if err := m.SeekTo(1); err != nil {
		t.Fatalf("SeekTo(1) error: %v", err)
	}
	m.Stop()

	if m.IsPlaying() {
		t.Error("IsPlaying() = true after Stop")
	}
	if f2.IsPlaying() {
		t.Error("item 1 still playing after Stop")
	}
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur != 0 {
		t.Errorf("current = %d after Stop, want 0", cur)
	}
}

// TestSetVolumeClampAndApply 测试音量钳制与批量应用
func TestSetVolumeClampAndApply(t *testing.T) {
	f1 := &fakeItem{}
	m := newStoppedManager(f1)

	m.SetVolume(1.5)
	if f1.volume != 1.0 {
		t.Errorf("volume = %v after SetVolume(1.5), want 1.0", f1.volume)
	}
	m.SetVolume(-0.5)
	if f1.volume != 0 {
		t.Errorf("volume = %v after SetVolume(-0.5), want 0", f1.volume)
	}
	m.SetVolume(0.35)
	if f1.volume != 0.35 {
		t.Errorf("volume = %v after SetVolume(0.35), want 0.35", f1.volume)
	}
}

// TestSetItemsDecodesWAV 测试真实 WAV 解码装载
func TestSetItemsDecodesWAV(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pathA := filepath.Join(dir, "step_a.wav")
	pathB := filepath.Join(dir, "step_b.wav")
	writeTestWAV(t, pathA, 480)
	writeTestWAV(t, pathB, 480)

	m := NewManager(getTestAudioContext(), nil)
	defer m.Close()

	if err := m.SetItems(ctx, []string{pathA, pathB}); err != nil {
		t.Fatalf("SetItems() error: %v", err)
	}

	m.mu.Lock()
	n := len(m.items)
	m.mu.Unlock()
	if n != 2 {
		t.Fatalf("loaded items = %d, want 2", n)
	}

	if err := m.SeekTo(1); err != nil {
		t.Errorf("SeekTo(1) error: %v", err)
	}
}

// TestSetItemsErrors 测试装载失败路径
func TestSetItemsErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	m := NewManager(getTestAudioContext(), nil)
	defer m.Close()

	// 文件不存在
	if err := m.SetItems(ctx, []string{filepath.Join(dir, "missing.wav")}); err == nil {
		t.Error("SetItems(missing): got nil error, want error")
	}

	// 不支持的扩展名
	badPath := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(badPath, []byte("not audio"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := m.SetItems(ctx, []string{badPath}); err == nil {
		t.Error("SetItems(.txt): got nil error, want unsupported format error")
	}

	// 装载失败不应破坏已有列表
	goodPath := filepath.Join(dir, "ok.wav")
	writeTestWAV(t, goodPath, 480)
	if err := m.SetItems(ctx, []string{goodPath}); err != nil {
		t.Fatalf("SetItems(ok) error: %v", err)
	}
	if err := m.SetItems(ctx, []string{badPath}); err == nil {
		t.Fatal("SetItems(.txt): got nil error, want error")
	}
	m.mu.Lock()
	n := len(m.items)
	m.mu.Unlock()
	if n != 1 {
		t.Errorf("items = %d after failed SetItems, want previous list kept (1)", n)
	}
}
