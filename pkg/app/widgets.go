package app

import (
	"image/color"

	"github.com/decker502/tourguide/pkg/spotlight"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// widgetShape 控件的绘制外形
type widgetShape int

const (
	widgetRect widgetShape = iota
	widgetCircle
)

// widget 演示界面上的一个可聚光控件
//
// key 与导览脚本中的区域键一一对应，bounds 为屏幕坐标，
// 动画控件的 bounds 由 App.Update 每帧改写。
type widget struct {
	key    string
	label  string
	bounds spotlight.Rect
	shape  widgetShape
	fill   color.NRGBA
}

// newDemoWidgets 构建演示界面的控件集合
//
// 控件键必须与内置导览脚本（assets/tour.yaml）的区域键一致。
func newDemoWidgets() []*widget {
	return []*widget{
		{
			key:    "menu_button",
			label:  "Menu",
			bounds: spotlight.Rect{X: 40, Y: 40, Width: 64, Height: 64},
			shape:  widgetCircle,
			fill:   color.NRGBA{R: 0x4a, G: 0x90, B: 0xd9, A: 0xff},
		},
		{
			key:    "stats_panel",
			label:  "Stats",
			bounds: spotlight.Rect{X: 280, Y: 180, Width: 240, Height: 130},
			shape:  widgetRect,
			fill:   color.NRGBA{R: 0x5c, G: 0xb8, B: 0x5c, A: 0xff},
		},
		{
			key:    "send_button",
			label:  "Send",
			bounds: spotlight.Rect{X: 640, Y: 500, Width: 120, Height: 44},
			shape:  widgetRect,
			fill:   color.NRGBA{R: 0xd9, G: 0x77, B: 0x4a, A: 0xff},
		},
		{
			key:    "ticker",
			label:  "Ticker",
			bounds: spotlight.Rect{X: 80, Y: 420, Width: 150, Height: 36},
			shape:  widgetRect,
			fill:   color.NRGBA{R: 0x9a, G: 0x6a, B: 0xd9, A: 0xff},
		},
	}
}

// draw 绘制控件主体、边框和标签
func (w *widget) draw(screen *ebiten.Image) {
	border := color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}

	switch w.shape {
	case widgetCircle:
		cx := float32(w.bounds.X + w.bounds.Width/2)
		cy := float32(w.bounds.Y + w.bounds.Height/2)
		r := float32(w.bounds.Width / 2)
		vector.DrawFilledCircle(screen, cx, cy, r, w.fill, true)
		vector.StrokeCircle(screen, cx, cy, r, 2, border, true)
	default:
		x := float32(w.bounds.X)
		y := float32(w.bounds.Y)
		vector.DrawFilledRect(screen, x, y, float32(w.bounds.Width), float32(w.bounds.Height), w.fill, true)
		vector.StrokeRect(screen, x, y, float32(w.bounds.Width), float32(w.bounds.Height), 2, border, true)
	}

	labelX := int(w.bounds.X + w.bounds.Width/2 - float64(len(w.label)*3))
	labelY := int(w.bounds.Y + w.bounds.Height/2 - 8)
	ebitenutil.DebugPrintAt(screen, w.label, labelX, labelY)
}

// contains 判断屏幕坐标是否落在控件内（点击检测用）
func (w *widget) contains(x, y float64) bool {
	return w.bounds.Contains(x, y)
}
