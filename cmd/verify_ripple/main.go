// 波纹色标验证工具
//
// 对几个典型目标打印渐变色标表，并检查两条基本性质：
//  1. 强度为 0 时透明度沿半径单调不减（无环，纯线性渐变）
//  2. 相位推进时环的峰值位置外移
//
// 运行：go run ./cmd/verify_ripple
package main

import (
	"fmt"
	"os"

	"github.com/decker502/tourguide/pkg/overlay"
	"github.com/decker502/tourguide/pkg/spotlight"
)

// scenario 待验证的波纹场景
type scenario struct {
	Name    string
	Shape   spotlight.Shape
	Size    spotlight.Size
	Padding float64
}

var scenarios = []scenario{
	{
		Name:    "圆形按钮",
		Shape:   spotlight.CircleShape(),
		Size:    spotlight.Size{Width: 64, Height: 64},
		Padding: 10,
	},
	{
		Name:    "圆角面板",
		Shape:   spotlight.RoundedRectShape(12),
		Size:    spotlight.Size{Width: 240, Height: 130},
		Padding: 8,
	},
	{
		Name:    "零尺寸目标",
		Shape:   spotlight.CircleShape(),
		Size:    spotlight.Size{},
		Padding: 12,
	},
}

func main() {
	params := overlay.DefaultRippleParams()
	ok := true

	fmt.Println("==========================================================")
	fmt.Println("波纹色标验证工具")
	fmt.Println("==========================================================")
	fmt.Println()

	for _, sc := range scenarios {
		clear := overlay.ClearRadius(sc.Shape, sc.Size, sc.Padding)
		gradient := overlay.GradientRadius(clear)

		fmt.Printf("场景: %s\n", sc.Name)
		fmt.Println("----------------------------------------------------------")
		fmt.Printf("  📍 挖孔半径: %.1f  渐变半径: %.1f\n", clear, gradient)

		for _, phase := range []float64{0, 0.25, 0.5, 0.75} {
			stops := overlay.BuildColorStops(clear, gradient, params, phase)
			fmt.Printf("  相位 %.2f（%d 个色标）:\n", phase, len(stops))
			for _, s := range stops {
				fmt.Printf("    pos=%.4f  rgba=(%.2f, %.2f, %.2f, %.2f)\n",
					s.Pos, s.Color.R, s.Color.G, s.Color.B, s.Color.A)
			}
		}

		if !checkCrestMovement(clear, gradient, params) {
			fmt.Println("  ❌ 相位推进时环峰值未外移")
			ok = false
		} else {
			fmt.Println("  ✅ 相位推进时环峰值外移")
		}
		fmt.Println()
	}

	fmt.Println("==========================================================")
	fmt.Println("强度为 0 时透明度单调性检查:")
	fmt.Println("==========================================================")
	if !checkMonotonicAlpha() {
		ok = false
	}

	if !ok {
		os.Exit(1)
	}
}

// checkMonotonicAlpha 强度为 0 时，采样透明度必须沿半径单调不减
func checkMonotonicAlpha() bool {
	params := overlay.DefaultRippleParams()
	params.Intensity = 0

	clear := overlay.ClearRadius(spotlight.CircleShape(), spotlight.Size{Width: 64, Height: 64}, 10)
	gradient := overlay.GradientRadius(clear)

	ok := true
	for _, phase := range []float64{0, 0.2, 0.4, 0.6, 0.8} {
		stops := overlay.BuildColorStops(clear, gradient, params, phase)
		prev := -1.0
		for i := 0; i <= 200; i++ {
			a := overlay.SampleStops(stops, float64(i)/200).A
			if a < prev-1e-9 {
				fmt.Printf("  ❌ 相位 %.2f：pos=%.3f 处透明度回落 %.4f -> %.4f\n",
					phase, float64(i)/200, prev, a)
				ok = false
				break
			}
			prev = a
		}
	}
	if ok {
		fmt.Println("  ✅ 全部相位透明度单调不减")
	}
	return ok
}

// checkCrestMovement 同一个环的峰值位置应随相位外移
//
// 通过比较相邻相位下最内侧局部峰值的位置来判断。
func checkCrestMovement(clear, gradient float64, params overlay.RippleParams) bool {
	p1 := innermostCrest(overlay.BuildColorStops(clear, gradient, params, 0.10))
	p2 := innermostCrest(overlay.BuildColorStops(clear, gradient, params, 0.15))
	if p1 < 0 || p2 < 0 {
		return false
	}
	return p2 > p1
}

// innermostCrest 返回最内侧局部透明度峰值的位置，找不到返回 -1
func innermostCrest(stops []overlay.ColorStop) float64 {
	for i := 1; i < len(stops)-1; i++ {
		if stops[i].Color.A > stops[i-1].Color.A+1e-9 &&
			stops[i].Color.A > stops[i+1].Color.A+1e-9 {
			return stops[i].Pos
		}
	}
	return -1
}
