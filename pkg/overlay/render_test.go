package overlay

import (
	"testing"
	"time"

	"github.com/decker502/tourguide/pkg/spotlight"
	"github.com/hajimehoshi/ebiten/v2"
)

// testSnapshot 构造一个居中圆形目标的快照
func testSnapshot() spotlight.Snapshot {
	return spotlight.Snapshot{
		Key:          "demo",
		Offset:       spotlight.Point{X: 280, Y: 200},
		Size:         spotlight.Size{Width: 80, Height: 80},
		Shape:        spotlight.CircleShape(),
		Padding:      10,
		ActivationID: "act-1",
	}
}

// TestRendererDrawStopped 测试调暗停止时不做任何渲染
func TestRendererDrawStopped(t *testing.T) {
	r := NewRenderer(DefaultRippleParams())
	screen := ebiten.NewImage(640, 480)

	r.Draw(screen, testSnapshot(), spotlight.DimStopped, time.Now())

	if r.overlay != nil {
		t.Error("overlay allocated while dimming is stopped")
	}
}

// TestRendererDrawRadial 测试径向渐变路径正常出帧
func TestRendererDrawRadial(t *testing.T) {
	r := NewRenderer(DefaultRippleParams())
	screen := ebiten.NewImage(640, 480)

	r.Draw(screen, testSnapshot(), spotlight.DimRunning, time.Now())

	if r.overlay == nil {
		t.Fatal("overlay not allocated")
	}
	b := r.overlay.Bounds()
	if b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("overlay size: got %dx%d, want 640x480", b.Dx(), b.Dy())
	}
	// 挖孔阶段最后写入顶点，留下的顶点数等于轮廓顶点数
	if len(r.vertices) == 0 {
		t.Error("no vertices generated for radial gradient frame")
	}
}

// TestRendererDrawShapeAdapted 测试形状贴合路径正常出帧
func TestRendererDrawShapeAdapted(t *testing.T) {
	r := NewRenderer(DefaultRippleParams())
	screen := ebiten.NewImage(640, 480)

	snap := testSnapshot()
	snap.Shape = spotlight.RoundedRectShape(12)
	snap.Size = spotlight.Size{Width: 160, Height: 60}
	snap.AdaptComponentShape = true

	r.Draw(screen, snap, spotlight.DimRunning, time.Now())

	if r.overlay == nil {
		t.Fatal("overlay not allocated")
	}
	if len(r.vertices) == 0 {
		t.Error("no vertices generated for shape-adapted frame")
	}
}

// TestRendererDrawZeroGeometry 测试零几何快照整幅调暗且不挖孔
func TestRendererDrawZeroGeometry(t *testing.T) {
	r := NewRenderer(DefaultRippleParams())
	screen := ebiten.NewImage(640, 480)

	// 目标缺失时快照只带键与激活标识
	snap := spotlight.Snapshot{Key: "gone", ActivationID: "act-2"}
	r.Draw(screen, snap, spotlight.DimRunning, time.Now())

	if r.overlay == nil {
		t.Fatal("overlay not allocated")
	}
	// 渐变与挖孔都被跳过，顶点缓冲不应被触碰
	if len(r.vertices) != 0 {
		t.Errorf("vertices generated for zero geometry: got %d, want 0", len(r.vertices))
	}
}

// TestRendererOverlayResize 测试视口变化时离屏图重建
func TestRendererOverlayResize(t *testing.T) {
	r := NewRenderer(DefaultRippleParams())

	r.Draw(ebiten.NewImage(320, 240), testSnapshot(), spotlight.DimRunning, time.Now())
	b := r.overlay.Bounds()
	if b.Dx() != 320 || b.Dy() != 240 {
		t.Fatalf("initial overlay size: got %dx%d, want 320x240", b.Dx(), b.Dy())
	}

	r.Draw(ebiten.NewImage(640, 480), testSnapshot(), spotlight.DimRunning, time.Now())
	b = r.overlay.Bounds()
	if b.Dx() != 640 || b.Dy() != 480 {
		t.Errorf("resized overlay size: got %dx%d, want 640x480", b.Dx(), b.Dy())
	}
}

// TestRendererParams 测试参数更新
func TestRendererParams(t *testing.T) {
	r := NewRenderer(DefaultRippleParams())

	p := r.Params()
	p.Intensity = 0.2
	p.Animated = false
	r.SetParams(p)

	got := r.Params()
	if got.Intensity != 0.2 || got.Animated {
		t.Errorf("params after update: got %+v", got)
	}
}
