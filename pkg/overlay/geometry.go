// Package overlay 实现调暗遮罩的几何计算与渲染
//
// 几何计算（本文件与 shapes.go）是纯函数：给定当前聚光快照、
// 波纹参数与视口尺寸，产出径向渐变色标、形状轮廓与触摸拦截
// 矩形；渲染（render.go）把这些几何喂给 ebiten。每个动画帧
// 重算一遍，所有输入均为值类型，不触碰控制器内部状态。
package overlay

import (
	"math"
	"sort"
	"time"

	"github.com/decker502/tourguide/pkg/spotlight"
	"github.com/decker502/tourguide/pkg/utils"
)

const (
	// gradientExtentFactor 渐变半径相对透明半径的倍数
	// （透明区 1.0 + 波纹带 2.5）
	gradientExtentFactor = 3.5

	// ringCount 波纹带内均匀错相的合成环数
	ringCount = 4

	// ringFadeEdge 环生命周期两端的三角淡入/淡出占比
	ringFadeEdge = 0.15

	// shapeLayers 贴合轮廓模式的同心层数
	shapeLayers = 40
)

// Color 浮点 RGBA（各分量 0..1，非预乘）
type Color struct {
	R, G, B, A float64
}

// Lerp 按 t 线性插值到 other（各通道独立）
func (c Color) Lerp(other Color, t float64) Color {
	return Color{
		R: utils.Lerp(c.R, other.R, t),
		G: utils.Lerp(c.G, other.G, t),
		B: utils.Lerp(c.B, other.B, t),
		A: utils.Lerp(c.A, other.A, t),
	}
}

// ColorStop 径向渐变色标，Pos 为 0..1 的归一化半径
type ColorStop struct {
	Pos   float64
	Color Color
}

// RippleParams 波纹效果参数
type RippleParams struct {
	// Intensity 环亮度强度（0..1，0 退化为单调渐变）
	Intensity float64

	// RippleColor 环峰值颜色
	RippleColor Color

	// DimColor 外围调暗颜色（A 即最大调暗不透明度）
	DimColor Color

	// Animated 是否推进动画相位
	Animated bool

	// Speed 相位走完一圈的时长
	Speed time.Duration
}

// DefaultRippleParams 默认波纹参数
func DefaultRippleParams() RippleParams {
	return RippleParams{
		Intensity:   0.6,
		RippleColor: Color{R: 1, G: 1, B: 1, A: 0.75},
		DimColor:    Color{R: 0, G: 0, B: 0, A: 0.55},
		Animated:    true,
		Speed:       2400 * time.Millisecond,
	}
}

// ClearRadius 计算内层全透明半径
//
// 圆形取目标宽度的一半；其余形状取半对角线（保证任意朝向的
// 非圆挖孔都被透明盘完全包住）；再加上外扩距离。目标尺寸为零
// （区域已注销或从未测量）时退化为仅外扩距离的半径，不会出现
// 除零或负半径。
func ClearRadius(shape spotlight.Shape, size spotlight.Size, padding float64) float64 {
	if padding < 0 {
		padding = 0
	}
	w, h := size.Width, size.Height
	if w <= 0 && h <= 0 {
		return padding
	}

	var r float64
	if shape.Kind == spotlight.ShapeCircle {
		r = w / 2
	} else {
		r = math.Sqrt((w/2)*(w/2) + (h/2)*(h/2))
	}
	return r + padding
}

// GradientRadius 计算渐变外半径
func GradientRadius(clearRadius float64) float64 {
	return clearRadius * gradientExtentFactor
}

// RipplePhase 计算动画相位（0..1 循环）
//
// animated 为 false 或周期非法时固定为 0（静态渐变）。
func RipplePhase(elapsed time.Duration, p RippleParams) float64 {
	if !p.Animated || p.Speed <= 0 {
		return 0
	}
	phase := float64(elapsed%p.Speed) / float64(p.Speed)
	if phase < 0 {
		phase += 1
	}
	return phase
}

// ringEnvelope 环生命周期的三角包络
//
// 环在波纹带内侧出生、外侧消散：带内位置即生命周期进度，
// 前 15% 线性淡入，后 15% 线性淡出，中段全强度。
func ringEnvelope(lifecycle float64) float64 {
	switch {
	case lifecycle <= 0 || lifecycle >= 1:
		return 0
	case lifecycle < ringFadeEdge:
		return lifecycle / ringFadeEdge
	case lifecycle > 1-ringFadeEdge:
		return (1 - lifecycle) / ringFadeEdge
	default:
		return 1
	}
}

// BuildColorStops 构造径向渐变色标列表
//
// 返回按位置升序的色标：
//   - [0, clearRadius/gradientRadius] 全透明
//   - 波纹带内从透明线性爬升到 DimColor，四个均匀错相的环
//     在基准坡上叠加峰值（峰值 = 基准色向 RippleColor 偏移
//     intensity × 包络），intensity 为 0 时峰值落回基准坡，
//     列表退化为单调渐变
//
// gradientRadius 非正时返回整幅 DimColor（零几何遮罩不挖孔）。
func BuildColorStops(clearRadius, gradientRadius float64, p RippleParams, phase float64) []ColorStop {
	if gradientRadius <= 0 {
		return []ColorStop{
			{Pos: 0, Color: p.DimColor},
			{Pos: 1, Color: p.DimColor},
		}
	}

	r0 := clearRadius / gradientRadius
	if r0 > 1 {
		r0 = 1
	}
	transparent := Color{R: p.DimColor.R, G: p.DimColor.G, B: p.DimColor.B, A: 0}

	stops := []ColorStop{
		{Pos: 0, Color: transparent},
		{Pos: r0, Color: transparent},
		{Pos: 1, Color: p.DimColor},
	}

	band := 1 - r0
	if band <= 0 {
		sort.Slice(stops, func(i, j int) bool { return stops[i].Pos < stops[j].Pos })
		return stops
	}

	// baseAt 波纹带内基准坡：透明 -> DimColor
	baseAt := func(pos float64) Color {
		t := (pos - r0) / band
		return transparent.Lerp(p.DimColor, t)
	}

	intensity := p.Intensity
	if intensity < 0 {
		intensity = 0
	}
	if intensity > 1 {
		intensity = 1
	}

	spacing := 1.0 / ringCount
	halfWidth := spacing / 2
	for k := 0; k < ringCount; k++ {
		// 带内位置随相位推进并回绕，环从内侧涌出、外侧消散
		lifecycle := math.Mod(float64(k)*spacing+phase, 1)
		strength := intensity * ringEnvelope(lifecycle)
		center := r0 + lifecycle*band

		crest := baseAt(center).Lerp(p.RippleColor, strength)
		stops = append(stops, ColorStop{Pos: center, Color: crest})

		// 环的两翼落回基准坡，形成局部峰
		lo := lifecycle - halfWidth
		if lo > 0 {
			pos := r0 + lo*band
			stops = append(stops, ColorStop{Pos: pos, Color: baseAt(pos)})
		}
		hi := lifecycle + halfWidth
		if hi < 1 {
			pos := r0 + hi*band
			stops = append(stops, ColorStop{Pos: pos, Color: baseAt(pos)})
		}
	}

	sort.Slice(stops, func(i, j int) bool { return stops[i].Pos < stops[j].Pos })
	return stops
}

// SampleStops 在色标列表上采样指定归一化半径处的颜色
//
// 取最近的包围色标对，各颜色通道与透明度独立线性插值；
// 越界时钳制到端点色标。
func SampleStops(stops []ColorStop, pos float64) Color {
	if len(stops) == 0 {
		return Color{}
	}
	if pos <= stops[0].Pos {
		return stops[0].Color
	}
	last := stops[len(stops)-1]
	if pos >= last.Pos {
		return last.Color
	}
	for i := 1; i < len(stops); i++ {
		if pos > stops[i].Pos {
			continue
		}
		a, b := stops[i-1], stops[i]
		span := b.Pos - a.Pos
		if span <= 0 {
			return b.Color
		}
		t := (pos - a.Pos) / span
		return a.Color.Lerp(b.Color, t)
	}
	return last.Color
}

// TouchBlockers 计算强制导航的四个触摸拦截矩形
//
// 视口被划分为环绕挖孔（未外扩的目标边界）的上/下/左/右四个
// 轴对齐矩形：上下横条横贯全宽，左右竖条夹在孔的上下边之间。
// 所有坐标先钳制到视口内；四个矩形互不重叠，与孔的并集恰好
// 铺满视口。零面积矩形被省略（孔贴边时对应方向没有条带）。
func TouchBlockers(hole spotlight.Rect, viewport spotlight.Size) []spotlight.Rect {
	vw, vh := viewport.Width, viewport.Height
	if vw <= 0 || vh <= 0 {
		return nil
	}

	// 钳制挖孔到视口
	hx := clamp(hole.X, 0, vw)
	hy := clamp(hole.Y, 0, vh)
	hr := clamp(hole.Right(), hx, vw)
	hb := clamp(hole.Bottom(), hy, vh)

	// 上下横条横贯全宽，左右竖条夹在孔的上下边之间
	top := spotlight.Rect{X: 0, Y: 0, Width: vw, Height: hy}
	bottom := spotlight.Rect{X: 0, Y: hb, Width: vw, Height: vh - hb}
	left := spotlight.Rect{X: 0, Y: hy, Width: hx, Height: hb - hy}
	right := spotlight.Rect{X: hr, Y: hy, Width: vw - hr, Height: hb - hy}

	blockers := make([]spotlight.Rect, 0, 4)
	for _, r := range []spotlight.Rect{top, bottom, left, right} {
		if r.Width > 0 && r.Height > 0 {
			blockers = append(blockers, r)
		}
	}
	return blockers
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
