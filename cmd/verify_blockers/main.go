// 遮挡矩形验证工具
//
// 强制导航期间，挖孔之外的屏幕必须被遮挡矩形无缝覆盖。
// 本工具对一组固定孔位与一批随机孔位做平铺检查：
// 遮挡矩形互不重叠，且与钳制后的挖孔面积之和等于视口面积。
//
// 运行：go run ./cmd/verify_blockers
package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/decker502/tourguide/pkg/overlay"
	"github.com/decker502/tourguide/pkg/spotlight"
)

const (
	viewportWidth  = 800.0
	viewportHeight = 600.0
	randomCases    = 200
)

// fixedHoles 覆盖边界情形的固定孔位
var fixedHoles = []struct {
	Name string
	Hole spotlight.Rect
}{
	{"居中", spotlight.Rect{X: 300, Y: 200, Width: 200, Height: 120}},
	{"左上角", spotlight.Rect{X: 0, Y: 0, Width: 100, Height: 80}},
	{"右下角", spotlight.Rect{X: 700, Y: 520, Width: 100, Height: 80}},
	{"越过左边界", spotlight.Rect{X: -40, Y: 250, Width: 120, Height: 100}},
	{"越过下边界", spotlight.Rect{X: 350, Y: 560, Width: 100, Height: 100}},
	{"覆盖全屏", spotlight.Rect{X: -10, Y: -10, Width: 900, Height: 700}},
	{"零面积", spotlight.Rect{X: 400, Y: 300}},
}

func main() {
	viewport := spotlight.Size{Width: viewportWidth, Height: viewportHeight}
	ok := true

	fmt.Println("==========================================================")
	fmt.Println("遮挡矩形平铺验证工具")
	fmt.Println("==========================================================")
	fmt.Println()

	for _, tc := range fixedHoles {
		blockers := overlay.TouchBlockers(tc.Hole, viewport)
		fmt.Printf("孔位: %s  (%.0f, %.0f, %.0fx%.0f)\n",
			tc.Name, tc.Hole.X, tc.Hole.Y, tc.Hole.Width, tc.Hole.Height)
		for _, b := range blockers {
			fmt.Printf("  遮挡: (%.0f, %.0f, %.0fx%.0f)\n", b.X, b.Y, b.Width, b.Height)
		}
		if err := checkTiling(tc.Hole, viewport, blockers); err != nil {
			fmt.Printf("  ❌ %v\n\n", err)
			ok = false
			continue
		}
		fmt.Printf("  ✅ %d 个遮挡矩形与挖孔恰好铺满视口\n\n", len(blockers))
	}

	fmt.Println("==========================================================")
	fmt.Printf("随机孔位检查（%d 例）:\n", randomCases)
	fmt.Println("==========================================================")

	rng := rand.New(rand.NewSource(42))
	failures := 0
	for i := 0; i < randomCases; i++ {
		hole := spotlight.Rect{
			X:      rng.Float64()*1000 - 100,
			Y:      rng.Float64()*800 - 100,
			Width:  rng.Float64() * 400,
			Height: rng.Float64() * 300,
		}
		blockers := overlay.TouchBlockers(hole, viewport)
		if err := checkTiling(hole, viewport, blockers); err != nil {
			fmt.Printf("  ❌ 例 %d：孔 (%.1f, %.1f, %.1fx%.1f)：%v\n",
				i, hole.X, hole.Y, hole.Width, hole.Height, err)
			failures++
		}
	}
	if failures == 0 {
		fmt.Println("  ✅ 全部通过")
	} else {
		fmt.Printf("  ❌ %d 例失败\n", failures)
		ok = false
	}

	if !ok {
		os.Exit(1)
	}
}

// checkTiling 检查遮挡矩形互不重叠，且与钳制后的挖孔面积之和等于视口面积
func checkTiling(hole spotlight.Rect, viewport spotlight.Size, blockers []spotlight.Rect) error {
	for i := range blockers {
		b := blockers[i]
		if b.Width <= 0 || b.Height <= 0 {
			return fmt.Errorf("遮挡矩形 %d 面积为零", i)
		}
		if b.X < 0 || b.Y < 0 || b.Right() > viewport.Width+1e-9 || b.Bottom() > viewport.Height+1e-9 {
			return fmt.Errorf("遮挡矩形 %d 越出视口", i)
		}
		for j := i + 1; j < len(blockers); j++ {
			if overlaps(b, blockers[j]) {
				return fmt.Errorf("遮挡矩形 %d 与 %d 重叠", i, j)
			}
		}
	}

	total := clampedHoleArea(hole, viewport)
	for _, b := range blockers {
		total += b.Width * b.Height
	}
	want := viewport.Width * viewport.Height
	if math.Abs(total-want) > 1e-6 {
		return fmt.Errorf("面积之和 %.3f != 视口面积 %.3f", total, want)
	}
	return nil
}

// overlaps 判断两个矩形是否有正面积交集
func overlaps(a, b spotlight.Rect) bool {
	return a.X < b.Right() && b.X < a.Right() &&
		a.Y < b.Bottom() && b.Y < a.Bottom()
}

// clampedHoleArea 挖孔钳制到视口内的面积
func clampedHoleArea(hole spotlight.Rect, viewport spotlight.Size) float64 {
	x0 := math.Max(hole.X, 0)
	y0 := math.Max(hole.Y, 0)
	x1 := math.Min(hole.Right(), viewport.Width)
	y1 := math.Min(hole.Bottom(), viewport.Height)
	if x1 <= x0 || y1 <= y0 {
		return 0
	}
	return (x1 - x0) * (y1 - y0)
}
