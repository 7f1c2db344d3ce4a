package overlay

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/decker502/tourguide/pkg/spotlight"
	"github.com/decker502/tourguide/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
)

// dimFadeInSeconds 调暗开启后遮罩淡入的时长
const dimFadeInSeconds = 0.2

// 纯色三角形的共享白色贴图（取 3x3 中心像素避免采样到边缘）
var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// Renderer 调暗遮罩渲染器
//
// 每帧根据当前聚光快照与调暗状态重建遮罩：先在离屏图上铺满
// 调暗色，再按两种模式之一画出围绕目标的径向渐变波纹，最后
// 用擦除混合在目标处挖出形状孔洞，整图叠加到屏幕上。
//
// 两种渐变模式：
//   - 径向渐变：同心圆环带逐段着色（圆形目标或未开启形状贴合）
//   - 形状贴合：目标轮廓的同心缩放副本由外向内逐层覆盖，
//     渐变沿轮廓法向收缩而不是纯圆形
//
// 顶点与索引切片跨帧复用以减少分配。
type Renderer struct {
	params RippleParams
	epoch  time.Time

	wasRunning   bool
	runningSince time.Time

	overlay  *ebiten.Image
	vertices []ebiten.Vertex
	indices  []uint16
}

// NewRenderer 创建遮罩渲染器
//
// 参数：
//   - params: 波纹效果参数
//
// 返回：
//   - *Renderer: 渲染器实例，动画相位从创建时刻起算
func NewRenderer(params RippleParams) *Renderer {
	return &Renderer{
		params: params,
		epoch:  time.Now(),
	}
}

// SetParams 更新波纹效果参数（下一帧生效）
func (r *Renderer) SetParams(params RippleParams) {
	r.params = params
}

// Params 返回当前波纹效果参数
func (r *Renderer) Params() RippleParams {
	return r.params
}

// Draw 渲染一帧调暗遮罩
//
// 调暗停止时不画任何东西，刚开启时遮罩在短时间内淡入。快照
// 几何为零（目标缺失或未测量）时整幅铺满调暗色、不挖孔。
//
// 参数：
//   - screen: 目标屏幕
//   - snap: 当前聚光快照
//   - state: 调暗状态
//   - now: 当前时刻（驱动波纹相位与淡入）
func (r *Renderer) Draw(screen *ebiten.Image, snap spotlight.Snapshot, state spotlight.DimState, now time.Time) {
	if state != spotlight.DimRunning {
		r.wasRunning = false
		return
	}
	if !r.wasRunning {
		r.wasRunning = true
		r.runningSince = now
	}
	bounds := screen.Bounds()
	vw, vh := bounds.Dx(), bounds.Dy()
	if vw <= 0 || vh <= 0 {
		return
	}
	r.ensureOverlay(vw, vh)

	clearRadius := ClearRadius(snap.Shape, snap.Size, snap.Padding)
	gradientRadius := GradientRadius(clearRadius)
	phase := RipplePhase(now.Sub(r.epoch), r.params)
	stops := BuildColorStops(clearRadius, gradientRadius, r.params, phase)

	// 渐变范围之外保持纯调暗色
	r.overlay.Fill(toNRGBA(r.params.DimColor))

	if gradientRadius > 0 {
		center := spotlight.Point{
			X: snap.Offset.X + snap.Size.Width/2,
			Y: snap.Offset.Y + snap.Size.Height/2,
		}
		outline := PaddedOutline(snap.Shape, snap.Size, snap.Padding)

		// 圆形目标的形状贴合与径向渐变等价，走更省的径向路径
		if snap.AdaptComponentShape && snap.Shape.Kind != spotlight.ShapeCircle && len(outline) >= 3 {
			r.drawShapeLayers(center, outline, gradientRadius, stops)
		} else {
			r.drawRadialGradient(center, gradientRadius, stops)
		}
		r.punchOut(center, outline)
	}

	op := &ebiten.DrawImageOptions{}
	if d := now.Sub(r.runningSince).Seconds(); d < dimFadeInSeconds {
		t := d / dimFadeInSeconds
		if t < 0 {
			t = 0
		}
		op.ColorScale.ScaleAlpha(float32(utils.EaseOutQuad(t)))
	}
	screen.DrawImage(r.overlay, op)
}

// ensureOverlay 保证离屏遮罩图与视口同尺寸
func (r *Renderer) ensureOverlay(w, h int) {
	if r.overlay != nil {
		b := r.overlay.Bounds()
		if b.Dx() == w && b.Dy() == h {
			return
		}
		r.overlay.Deallocate()
	}
	r.overlay = ebiten.NewImage(w, h)
}

// drawRadialGradient 以同心圆环带绘制径向渐变
//
// 相邻色标之间各构成一条环带，内外圈顶点分别取两端色标的
// 颜色，由光栅插值补出中间过渡。所有环带共享顶点批量提交，
// 用替换混合写入遮罩（内侧透明区直接替换掉底色）。
func (r *Renderer) drawRadialGradient(center spotlight.Point, radius float64, stops []ColorStop) {
	r.vertices = r.vertices[:0]
	r.indices = r.indices[:0]

	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if b.Pos-a.Pos <= 0 {
			continue
		}
		inner := a.Pos * radius
		outer := b.Pos * radius

		base := uint16(len(r.vertices))
		for s := 0; s <= circleSegments; s++ {
			angle := 2 * math.Pi * float64(s) / circleSegments
			sin, cos := math.Sincos(angle)
			r.vertices = append(r.vertices,
				colorVertex(center.X+inner*cos, center.Y+inner*sin, a.Color),
				colorVertex(center.X+outer*cos, center.Y+outer*sin, b.Color),
			)
		}
		for s := 0; s < circleSegments; s++ {
			n := base + uint16(2*s)
			r.indices = append(r.indices, n, n+1, n+2, n+1, n+3, n+2)
		}
	}
	if len(r.vertices) == 0 {
		return
	}

	op := &ebiten.DrawTrianglesOptions{}
	op.Blend = ebiten.BlendCopy
	r.overlay.DrawTriangles(r.vertices, r.indices, whiteSubImage, op)
}

// drawShapeLayers 以轮廓同心副本绘制形状贴合渐变
//
// 把外扩轮廓从渐变外缘逐层缩到原大，每层按其最远顶点所在的
// 归一化半径采样色标、整层填充。由外向内逐层替换写入，任一
// 像素最终呈现包含它的最小一层的颜色，渐变因此跟随轮廓形状
// 收缩。层数固定，层间色差由色标采样保证平滑。
func (r *Renderer) drawShapeLayers(center spotlight.Point, outline []spotlight.Point, gradientRadius float64, stops []ColorStop) {
	baseRadius := outlineMaxRadius(outline)
	if baseRadius <= 0 {
		return
	}
	tris := triangulateOutline(outline)
	if len(tris) == 0 {
		return
	}

	outerFactor := gradientRadius / baseRadius
	if outerFactor < 1 {
		outerFactor = 1
	}

	op := &ebiten.DrawTrianglesOptions{}
	op.Blend = ebiten.BlendCopy

	for layer := 0; layer < shapeLayers; layer++ {
		t := float64(layer) / float64(shapeLayers-1)
		factor := outerFactor + (1-outerFactor)*t
		clr := SampleStops(stops, factor*baseRadius/gradientRadius)

		r.vertices = r.vertices[:0]
		for _, p := range outline {
			r.vertices = append(r.vertices, colorVertex(center.X+p.X*factor, center.Y+p.Y*factor, clr))
		}
		r.overlay.DrawTriangles(r.vertices, tris, whiteSubImage, op)
	}
}

// punchOut 在遮罩上挖出目标形状的孔洞
//
// 轮廓平移到目标中心、三角化后用清除混合抹掉覆盖像素，
// 挖孔边缘抗锯齿。
func (r *Renderer) punchOut(center spotlight.Point, outline []spotlight.Point) {
	if len(outline) < 3 {
		return
	}
	tris := triangulateOutline(outline)
	if len(tris) == 0 {
		return
	}

	r.vertices = r.vertices[:0]
	for _, p := range outline {
		r.vertices = append(r.vertices, colorVertex(center.X+p.X, center.Y+p.Y, Color{R: 1, G: 1, B: 1, A: 1}))
	}

	op := &ebiten.DrawTrianglesOptions{}
	op.Blend = ebiten.BlendClear
	op.AntiAlias = true
	r.overlay.DrawTriangles(r.vertices, tris, whiteSubImage, op)
}

// colorVertex 构造带纯色的顶点（采样共享白色贴图中心）
func colorVertex(x, y float64, c Color) ebiten.Vertex {
	return ebiten.Vertex{
		DstX:   float32(x),
		DstY:   float32(y),
		SrcX:   1,
		SrcY:   1,
		ColorR: float32(c.R),
		ColorG: float32(c.G),
		ColorB: float32(c.B),
		ColorA: float32(c.A),
	}
}

// toNRGBA 浮点颜色转换为非预乘 8 位颜色
func toNRGBA(c Color) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp(c.R, 0, 1)*255 + 0.5),
		G: uint8(clamp(c.G, 0, 1)*255 + 0.5),
		B: uint8(clamp(c.B, 0, 1)*255 + 0.5),
		A: uint8(clamp(c.A, 0, 1)*255 + 0.5),
	}
}
