package overlay

import (
	"math"

	"github.com/decker502/tourguide/pkg/spotlight"
)

const (
	// circleSegments 圆形轮廓的离散段数
	circleSegments = 64

	// cornerSegments 圆角矩形每个圆角的离散段数
	cornerSegments = 8
)

// Outline 生成指定形状在给定尺寸下的闭合轮廓
//
// 顶点以形状中心为原点、按顺时针排列，首尾不重复（渲染端自行
// 闭合）。自定义形状委托给 ZoneEntry 提供的轮廓函数，函数缺失
// 时退化为矩形。
//
// 参数：
//   - shape: 形状描述
//   - w, h: 目标尺寸（已含外扩时直接传外扩后的值）
//
// 返回：
//   - []spotlight.Point: 轮廓顶点
func Outline(shape spotlight.Shape, w, h float64) []spotlight.Point {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}

	switch shape.Kind {
	case spotlight.ShapeCircle:
		return circleOutline(w / 2)
	case spotlight.ShapeRoundedRect:
		return roundedRectOutline(w, h, shape.CornerRadius)
	case spotlight.ShapeCustom:
		if shape.Outline != nil {
			return shape.Outline(w, h)
		}
		return rectOutline(w, h)
	default:
		return rectOutline(w, h)
	}
}

// PaddedOutline 生成含外扩距离的轮廓
//
// 圆形与矩形族按各边外扩 padding 重建，圆角矩形的圆角半径同步
// 增大，保持外扩后边缘与原轮廓等距；自定义形状以外扩后的包围
// 尺寸重新调用轮廓函数。
func PaddedOutline(shape spotlight.Shape, size spotlight.Size, padding float64) []spotlight.Point {
	if padding < 0 {
		padding = 0
	}
	w := size.Width + 2*padding
	h := size.Height + 2*padding

	if shape.Kind == spotlight.ShapeRoundedRect {
		inflated := shape
		inflated.CornerRadius = shape.CornerRadius + padding
		return Outline(inflated, w, h)
	}
	return Outline(shape, w, h)
}

// circleOutline 以原点为圆心的圆形轮廓
func circleOutline(radius float64) []spotlight.Point {
	if radius <= 0 {
		return nil
	}
	points := make([]spotlight.Point, 0, circleSegments)
	for i := 0; i < circleSegments; i++ {
		angle := 2 * math.Pi * float64(i) / circleSegments
		points = append(points, spotlight.Point{
			X: radius * math.Cos(angle),
			Y: radius * math.Sin(angle),
		})
	}
	return points
}

// rectOutline 以原点为中心的矩形轮廓
func rectOutline(w, h float64) []spotlight.Point {
	if w <= 0 || h <= 0 {
		return nil
	}
	hw, hh := w/2, h/2
	return []spotlight.Point{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	}
}

// roundedRectOutline 以原点为中心的圆角矩形轮廓
//
// 圆角半径钳制到短边的一半；半径为零时退化为矩形，半径占满
// 两边时退化为圆/胶囊形。
func roundedRectOutline(w, h, radius float64) []spotlight.Point {
	if w <= 0 || h <= 0 {
		return nil
	}
	r := radius
	if r < 0 {
		r = 0
	}
	if half := w / 2; r > half {
		r = half
	}
	if half := h / 2; r > half {
		r = half
	}
	if r == 0 {
		return rectOutline(w, h)
	}

	hw, hh := w/2, h/2
	// 四个圆角的圆心与起始角（顺时针，Y 轴向下）
	corners := []struct {
		cx, cy, start float64
	}{
		{hw - r, -hh + r, -math.Pi / 2}, // 右上
		{hw - r, hh - r, 0},             // 右下
		{-hw + r, hh - r, math.Pi / 2},  // 左下
		{-hw + r, -hh + r, math.Pi},     // 左上
	}

	points := make([]spotlight.Point, 0, 4*(cornerSegments+1))
	for _, c := range corners {
		for i := 0; i <= cornerSegments; i++ {
			angle := c.start + math.Pi/2*float64(i)/cornerSegments
			points = append(points, spotlight.Point{
				X: c.cx + r*math.Cos(angle),
				Y: c.cy + r*math.Sin(angle),
			})
		}
	}
	return points
}

// outlineMaxRadius 轮廓顶点到原点的最大距离
func outlineMaxRadius(points []spotlight.Point) float64 {
	var max float64
	for _, p := range points {
		if d := math.Hypot(p.X, p.Y); d > max {
			max = d
		}
	}
	return max
}

// signedOutlineArea 鞋带公式有符号面积
func signedOutlineArea(points []spotlight.Point) float64 {
	var sum float64
	n := len(points)
	for i, p := range points {
		q := points[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// triangulateOutline 把简单多边形轮廓切分为三角形索引
//
// 耳切法：每轮找一个凸耳（三角形内不含其余顶点）剪掉，直到
// 剩三个顶点。凸形轮廓退化为扇形切分；自定义轮廓允许凹形，
// 但必须是不自交的简单多边形。退化输入（共线、重复点导致找
// 不到耳）对剩余顶点做扇形兜底，保证总能返回索引。
//
// 返回的索引按输入顶点下标成三个一组。
func triangulateOutline(points []spotlight.Point) []uint16 {
	n := len(points)
	if n < 3 || n > math.MaxUint16 {
		return nil
	}

	// 统一成正面积方向，凸性判断只需看叉积符号
	order := make([]int, n)
	if signedOutlineArea(points) < 0 {
		for i := range order {
			order[i] = n - 1 - i
		}
	} else {
		for i := range order {
			order[i] = i
		}
	}

	const eps = 1e-9
	cross := func(a, b, c spotlight.Point) float64 {
		return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	}
	inTriangle := func(p, a, b, c spotlight.Point) bool {
		d1 := cross(a, b, p)
		d2 := cross(b, c, p)
		d3 := cross(c, a, p)
		hasNeg := d1 < -eps || d2 < -eps || d3 < -eps
		hasPos := d1 > eps || d2 > eps || d3 > eps
		return !(hasNeg && hasPos)
	}

	tris := make([]uint16, 0, 3*(n-2))
	for len(order) > 3 {
		ear := -1
		for i := range order {
			ia := order[(i+len(order)-1)%len(order)]
			ib := order[i]
			ic := order[(i+1)%len(order)]
			a, b, c := points[ia], points[ib], points[ic]

			cr := cross(a, b, c)
			if cr < -eps {
				continue // 凹顶点
			}
			if cr <= eps {
				ear = i // 共线顶点，零面积耳，直接剪掉
				break
			}

			contains := false
			for _, j := range order {
				if j == ia || j == ib || j == ic {
					continue
				}
				if inTriangle(points[j], a, b, c) {
					contains = true
					break
				}
			}
			if !contains {
				ear = i
				break
			}
		}

		if ear < 0 {
			break // 退化轮廓，剩余部分扇形兜底
		}
		ia := order[(ear+len(order)-1)%len(order)]
		ic := order[(ear+1)%len(order)]
		if cr := cross(points[ia], points[order[ear]], points[ic]); cr > eps {
			tris = append(tris, uint16(ia), uint16(order[ear]), uint16(ic))
		}
		order = append(order[:ear], order[ear+1:]...)
	}

	for i := 1; i+1 < len(order); i++ {
		tris = append(tris, uint16(order[0]), uint16(order[i]), uint16(order[i+1]))
	}
	return tris
}
