// Package app 提供引导演示应用的核心包装器
//
// 该包把初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
//
// 演示界面由几个模拟控件组成，导览脚本（YAML）描述聚光顺序与消息；
// 按 Space 开始导览，消息播完自动推进到下一个区域。
package app

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log"
	"time"

	"github.com/decker502/tourguide/pkg/audio"
	"github.com/decker502/tourguide/pkg/config"
	"github.com/decker502/tourguide/pkg/embedded"
	"github.com/decker502/tourguide/pkg/overlay"
	"github.com/decker502/tourguide/pkg/spotlight"
	"github.com/decker502/tourguide/pkg/storage"
	"github.com/decker502/tourguide/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	eaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/quasilyte/gdata/v2"
)

const (
	// WindowWidth 逻辑屏幕宽度
	WindowWidth = 800
	// WindowHeight 逻辑屏幕高度
	WindowHeight = 600

	// defaultTourScript 内置导览脚本在嵌入资源中的路径
	defaultTourScript = "assets/tour.yaml"

	// tickerPeriodSeconds 公告条单程滑动时长（秒）
	tickerPeriodSeconds = 6.0

	// opTimeout 队列操作（入队、出队）的上限时长
	opTimeout = 10 * time.Second

	// volumeKey 旁白音量偏好的存储键
	volumeKey = "narration_volume"
	// volumeStep 方向键单次调整的音量步长
	volumeStep = 0.1
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// TourScript 导览脚本路径，为空则使用内置脚本
	TourScript string
	// SQLitePath 使用 SQLite 存储时的数据库路径，为空则用 gdata
	SQLitePath string
}

// App 是演示应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	controller *spotlight.Controller
	renderer   *overlay.Renderer
	player     *audio.Manager
	tooltip    *TooltipView
	gate       *InputBlocker
	tour       *config.TourConfig
	store      storage.Store
	volume     float64

	widgets []*widget
	byKey   map[string]*widget
	entries map[string]spotlight.ZoneEntry // 注册模板（Bounds 每次布局后改写）
	order   []string                       // 脚本顺序的区域键
	start   time.Time
	focused bool
	verbose bool
	dimming bool // G 键切换的手动调暗
	closers []io.Closer

	lastTooltip  string    // 上一帧的消息文字（检测切换）
	tooltipSince time.Time // 当前消息开始显示的时刻

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化演示应用
//
// 使用内置导览脚本时，调用此函数前必须先调用 embedded.Init()。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	// 初始化音频上下文
	audioContext := eaudio.NewContext(48000)

	// 队列持久化存储：SQLite / gdata / 内存，逐级降级
	store, closer := openStore(cfg)

	// 旁白加载器：嵌入资源优先，其次磁盘路径
	fileLoader := audio.FileLoader()
	loader := func(ctx context.Context, locator string) ([]byte, error) {
		if embedded.IsInitialized() && embedded.Exists(locator) {
			return embedded.ReadFile(locator)
		}
		return fileLoader(ctx, locator)
	}
	player := audio.NewManager(audioContext, loader)

	tooltip := NewTooltipView()
	gate := NewInputBlocker()

	controller, err := spotlight.NewController(spotlight.Config{
		Store:   store,
		Player:  player,
		Tooltip: tooltip,
		Gate:    gate,
	})
	if err != nil {
		return nil, fmt.Errorf("控制器初始化失败: %w", err)
	}

	// 加载导览脚本
	tour, err := loadTourScript(cfg.TourScript)
	if err != nil {
		return nil, err
	}
	log.Printf("[App] Tour %q loaded, %d zones", tour.ID, len(tour.Zones))

	// 波纹效果参数
	params, err := tour.Effect.RippleParams()
	if err != nil {
		return nil, fmt.Errorf("波纹参数解析失败: %w", err)
	}
	renderer := overlay.NewRenderer(params)

	// 绑定存储命名空间并恢复持久化队列
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := controller.Setup(ctx, tour.ID); err != nil {
		return nil, fmt.Errorf("导览初始化失败: %w", err)
	}
	if tour.Persistent && !controller.IsPersistent() {
		if err := controller.SetPersistent(ctx); err != nil {
			log.Printf("[App] Failed to enable persistent mode: %v", err)
		}
	}

	// 恢复旁白音量偏好
	volume := 1.0
	if v, ok, verr := store.GetFloat64(ctx, volumeKey); verr == nil && ok {
		volume = clampVolume(v)
	}
	player.SetVolume(volume)

	a := &App{
		controller: controller,
		renderer:   renderer,
		player:     player,
		tooltip:    tooltip,
		gate:       gate,
		tour:       tour,
		store:      store,
		volume:     volume,
		widgets:    newDemoWidgets(),
		byKey:      make(map[string]*widget),
		entries:    make(map[string]spotlight.ZoneEntry),
		start:      time.Now(),
		focused:    true,
		verbose:    cfg.Verbose,
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	for _, w := range a.widgets {
		a.byKey[w.key] = w
	}

	// 按脚本顺序注册区域，消息播完自动推进
	for _, z := range tour.Zones {
		w, ok := a.byKey[z.Key]
		if !ok {
			log.Printf("[App] Warning: zone %q has no matching widget, skipped", z.Key)
			continue
		}
		entry := z.Entry(tour.AudioBasePath)
		entry.Bounds = w.bounds
		entry.OnFinish = func() { go a.advance() }
		a.entries[z.Key] = entry
		a.order = append(a.order, z.Key)
		controller.RegisterZone(z.Key, entry)
	}
	log.Printf("[App] %d zones registered", controller.ZoneCount())

	// 持久化模式下延续上次未播完的导览
	if controller.IsPersistent() && controller.QueueLength() > 0 {
		log.Printf("[App] Resuming persistent tour, %d zones pending", controller.QueueLength())
		go a.advance()
	}

	return a, nil
}

// startTour 把全部区域入队并聚光第一个
func (a *App) startTour() {
	log.Printf("[App] Starting tour %q", a.tour.ID)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := a.controller.EnqueueAll(ctx, a.order); err != nil {
			log.Printf("[App] Failed to enqueue tour zones: %v", err)
			return
		}
		a.advance()
	}()
}

// advance 弹出下一个区域并聚光，队列空时导览自然结束
func (a *App) advance() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	key, err := a.controller.DequeueAndSpotlight(ctx, true)
	if err != nil {
		log.Printf("[App] Failed to advance tour: %v", err)
		return
	}
	if key == "" {
		log.Printf("[App] Tour %q finished", a.tour.ID)
	}
}

// Update 更新应用逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(WindowWidth, WindowHeight)
			log.Printf("[App] Delayed SetWindowSize(%d, %d)", WindowWidth, WindowHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			// 延迟几帧后设置窗口大小，让窗口管理器有时间处理
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			log.Printf("[App] Exit fullscreen, will reset window size in 3 frames")
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	// 焦点变化映射为前后台信号：失焦暂停旁白与定时，聚焦原地恢复
	focused := ebiten.IsFocused()
	if focused != a.focused {
		a.focused = focused
		a.controller.SetForeground(focused)
		log.Printf("[App] Foreground: %v", focused)
	}

	// Space：空闲时开始导览，播放中推进到下一条消息
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if a.controller.SpotlightStream().Get().Key == "" {
			a.startTour()
		} else {
			a.controller.Skip()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		a.controller.Skip()
	}

	// P：开启持久化（队列落盘，重启后续播）
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
			defer cancel()
			if err := a.controller.SetPersistent(ctx); err != nil {
				log.Printf("[App] Failed to enable persistent mode: %v", err)
			}
		}()
	}

	// G：手动调暗开关（不依赖导览状态）
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		if a.dimming {
			a.controller.StopGroundDimming()
		} else {
			a.controller.StartGroundDimming()
		}
		a.dimming = !a.dimming
	}

	// 上下方向键调整旁白音量
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) {
		a.setVolume(a.volume + volumeStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		a.setVolume(a.volume - volumeStep)
	}

	a.updateTicker()
	a.handleClick()
	return nil
}

// updateTicker 驱动公告条左右往返滑动，布局变化即重新注册区域
//
// 若公告条正被聚光，控制器会用新几何立即重发快照，挖孔跟随移动。
func (a *App) updateTicker() {
	w, ok := a.byKey["ticker"]
	if !ok {
		return
	}

	elapsed := time.Since(a.start).Seconds()
	t := utils.EaseInOutCubic(utils.PingPong(elapsed / tickerPeriodSeconds))
	minX := 80.0
	maxX := float64(WindowWidth) - 80 - w.bounds.Width
	w.bounds.X = utils.Lerp(minX, maxX, t)

	entry, registered := a.entries[w.key]
	if !registered {
		return
	}
	entry.Bounds = w.bounds
	a.entries[w.key] = entry
	a.controller.RegisterZone(w.key, entry)
}

// handleClick 控件点击检测（鼠标与触摸统一处理），
// 闸门或强制导航遮挡期间忽略
func (a *App) handleClick() {
	pressed, mx, my := utils.IsJustTouchedOrClicked()
	if !pressed {
		return
	}
	x, y := float64(mx), float64(my)

	if a.gate.Blocked() {
		log.Printf("[App] Click at (%d, %d) blocked by input gate", mx, my)
		return
	}

	snap := a.controller.SpotlightStream().Get()
	state := a.controller.DimStateStream().Get()
	if state == spotlight.DimRunning && snap.ForcedNavigation {
		for _, b := range overlay.TouchBlockers(inflatedBounds(snap), viewportSize()) {
			if b.Contains(x, y) {
				log.Printf("[App] Click at (%d, %d) blocked by forced navigation", mx, my)
				return
			}
		}
	}

	for _, w := range a.widgets {
		if w.contains(x, y) {
			log.Printf("[App] Widget %q clicked", w.key)
			return
		}
	}

	// 空白区域：空闲时点按开始导览，聚光中（非强制导航）视为下一步
	if snap.Key == "" {
		if state == spotlight.DimStopped {
			a.startTour()
		}
		return
	}
	if !snap.ForcedNavigation {
		a.controller.Skip()
	}
}

// Draw 绘制演示画面
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(color.NRGBA{R: 0xf0, G: 0xf0, B: 0xec, A: 0xff})
	for _, w := range a.widgets {
		w.draw(screen)
	}

	snap := a.controller.SpotlightStream().Get()
	state := a.controller.DimStateStream().Get()
	a.renderer.Draw(screen, snap, state, time.Now())

	// verbose 模式下描出强制导航的遮挡矩形
	if a.verbose && state == spotlight.DimRunning && snap.ForcedNavigation {
		for _, b := range overlay.TouchBlockers(inflatedBounds(snap), viewportSize()) {
			vector.StrokeRect(screen, float32(b.X), float32(b.Y),
				float32(b.Width), float32(b.Height), 1,
				color.NRGBA{R: 0xff, A: 0x80}, false)
		}
	}

	a.drawTooltip(screen)
	a.drawStatusBar(screen)
}

// drawTooltip 绘制当前消息的文字条，新消息从屏幕下缘滑入
func (a *App) drawTooltip(screen *ebiten.Image) {
	_, text, ok := a.tooltip.Current()
	if !ok {
		a.lastTooltip = ""
		return
	}
	if text != a.lastTooltip {
		a.lastTooltip = text
		a.tooltipSince = time.Now()
	}
	shown := text
	if a.controller.AudioPlayingStream().Get() {
		shown = "[voice] " + text
	}

	const barWidth, barHeight = 560, 36
	const slideSeconds = 0.25
	x := float32((WindowWidth - barWidth) / 2)
	y := float64(WindowHeight - 72)
	if d := time.Since(a.tooltipSince).Seconds(); d < slideSeconds {
		y = utils.Lerp(WindowHeight, y, utils.EaseOutCubic(d/slideSeconds))
	}
	vector.DrawFilledRect(screen, x, float32(y), barWidth, barHeight, color.NRGBA{A: 0xc8}, false)
	ebitenutil.DebugPrintAt(screen, shown, int(x)+12, int(y)+10)
}

// drawStatusBar 绘制底部按键提示与运行状态
func (a *App) drawStatusBar(screen *ebiten.Image) {
	hint := "Space: start/next  S: skip  Up/Down: vol  P: persist(%v)  G: dim  F11: fullscreen"
	if utils.IsMobile() {
		hint = "Tap anywhere: start/next  persist(%v)"
	}
	status := fmt.Sprintf(hint+" | zones %d  queue %d  vol %.0f%%",
		a.controller.IsPersistent(), a.controller.ZoneCount(), a.controller.QueueLength(),
		a.volume*100)
	ebitenutil.DebugPrintAt(screen, status, 10, WindowHeight-20)
}

// Layout 返回逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return WindowWidth, WindowHeight
}

// Close 释放控制器、播放器与存储资源
func (a *App) Close() error {
	var firstErr error
	if err := a.controller.Close(); err != nil {
		firstErr = err
	}
	if err := a.player.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}

// setVolume 应用并持久化旁白音量偏好
func (a *App) setVolume(v float64) {
	v = clampVolume(v)
	if v == a.volume {
		return
	}
	a.volume = v
	a.player.SetVolume(v)
	log.Printf("[App] Narration volume: %.0f%%", v*100)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if err := a.store.SetFloat64(ctx, volumeKey, v); err != nil {
			log.Printf("[App] Failed to persist volume: %v", err)
		}
	}()
}

// clampVolume 音量钳制到 [0, 1]
func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// openStore 打开队列持久化存储
//
// 优先级：SQLite（显式指定路径时）→ gdata → 内存。打开失败逐级
// 降级，保证演示总能启动。返回的 closer 在应用关闭时释放（可为 nil）。
func openStore(cfg Config) (storage.Store, io.Closer) {
	if cfg.SQLitePath != "" {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		s, err := storage.OpenSQLiteStore(ctx, cfg.SQLitePath)
		if err == nil {
			log.Printf("[App] Using SQLite store at %s", cfg.SQLitePath)
			return s, s
		}
		log.Printf("[App] Failed to open SQLite store: %v, falling back to gdata", err)
	}

	// Android 上 gdata 的存储目录需要预先创建，其他平台为空操作
	if err := utils.EnsureStorageDir(); err != nil {
		log.Printf("[App] Failed to prepare storage dir: %v", err)
	} else if p := utils.GetStoragePath(); p != "" {
		log.Printf("[App] Storage path: %s", p)
	}
	manager, err := gdata.Open(gdata.Config{AppName: "tourguide"})
	if err == nil {
		s, gerr := storage.NewGdataStore(manager, "tour_state")
		if gerr == nil {
			log.Printf("[App] Using gdata store")
			return s, nil
		}
		err = gerr
	}
	log.Printf("[App] Failed to open gdata store: %v, using in-memory store", err)
	return storage.NewMemoryStore(), nil
}

// loadTourScript 加载导览脚本：显式路径优先，否则用内置脚本
func loadTourScript(path string) (*config.TourConfig, error) {
	if path != "" {
		cfg, err := config.LoadTourConfig(path)
		if err != nil {
			return nil, fmt.Errorf("导览脚本加载失败: %w", err)
		}
		log.Printf("[App] Tour script loaded from %s", path)
		return cfg, nil
	}

	if embedded.IsInitialized() {
		data, err := embedded.ReadFile(defaultTourScript)
		if err != nil {
			return nil, fmt.Errorf("内置导览脚本读取失败: %w", err)
		}
		cfg, err := config.ParseTourConfig(data)
		if err != nil {
			return nil, fmt.Errorf("内置导览脚本解析失败: %w", err)
		}
		log.Printf("[App] Using embedded tour script")
		return cfg, nil
	}

	return nil, fmt.Errorf("未指定导览脚本且嵌入资源未初始化")
}

// inflatedBounds 快照边界按 Padding 外扩后的矩形（与挖孔对齐）
func inflatedBounds(snap spotlight.Snapshot) spotlight.Rect {
	return spotlight.Rect{
		X:      snap.Offset.X - snap.Padding,
		Y:      snap.Offset.Y - snap.Padding,
		Width:  snap.Size.Width + 2*snap.Padding,
		Height: snap.Size.Height + 2*snap.Padding,
	}
}

// viewportSize 逻辑屏幕尺寸
func viewportSize() spotlight.Size {
	return spotlight.Size{Width: WindowWidth, Height: WindowHeight}
}
