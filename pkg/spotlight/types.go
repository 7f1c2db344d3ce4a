// Package spotlight 实现引导式聚光灯（spotlight）编排核心
//
// 核心职责：
//   - 管理可被聚光的区域注册表（ZoneRegistry）
//   - 管理聚光顺序队列（FIFO，支持持久化到本地存储）
//   - 驱动调暗状态机（DimState）与当前聚光区域快照的发布
//   - 驱动每个激活区域的消息序列（文本提示 + 语音旁白）
//
// 渲染层（pkg/overlay）只读取本包发布的不可变快照，绝不直接访问内部锁结构。
package spotlight

import "time"

// Point 屏幕坐标点
type Point struct {
	X float64
	Y float64
}

// Size 目标尺寸（宽 × 高，单位像素）
type Size struct {
	Width  float64
	Height float64
}

// Rect 屏幕坐标下的矩形区域（左上角 + 尺寸）
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Right 返回矩形右边界坐标
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom 返回矩形下边界坐标
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains 判断点 (x, y) 是否落在矩形内（含左上边界，不含右下边界）
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// ShapeKind 挖孔形状类别
//
// 这是一个封闭的变体类型：渲染层对其做穷举匹配，不使用子类型多态。
type ShapeKind int

const (
	// ShapeCircle 圆形挖孔（直径取目标宽度）
	ShapeCircle ShapeKind = iota
	// ShapeRectangle 矩形挖孔
	ShapeRectangle
	// ShapeRoundedRect 圆角矩形挖孔
	ShapeRoundedRect
	// ShapeCustom 自定义轮廓挖孔（由 Outline 函数提供闭合多边形）
	ShapeCustom
)

// OutlineFunc 自定义轮廓生成函数
// 输入目标尺寸，返回以目标中心为原点的闭合多边形顶点序列（顺时针）。
type OutlineFunc func(w, h float64) []Point

// Shape 挖孔形状描述
//
// 零值为圆形。圆角矩形通过 CornerRadius 控制圆角半径；
// 自定义形状通过 Outline 提供轮廓，其余字段忽略。
type Shape struct {
	Kind         ShapeKind
	CornerRadius float64     // 仅 ShapeRoundedRect 使用
	Outline      OutlineFunc // 仅 ShapeCustom 使用
}

// CircleShape 构造圆形
func CircleShape() Shape { return Shape{Kind: ShapeCircle} }

// RectangleShape 构造矩形
func RectangleShape() Shape { return Shape{Kind: ShapeRectangle} }

// RoundedRectShape 构造圆角矩形
//
// 参数：
//   - cornerRadius: 圆角半径（像素），会在渲染时被钳制到不超过短边的一半
func RoundedRectShape(cornerRadius float64) Shape {
	return Shape{Kind: ShapeRoundedRect, CornerRadius: cornerRadius}
}

// CustomShape 构造自定义轮廓形状
func CustomShape(outline OutlineFunc) Shape {
	return Shape{Kind: ShapeCustom, Outline: outline}
}

// Message 聚光消息：一条文本提示，可选携带语音旁白
//
// 构造后不可变。AudioLocator 为空串表示该消息没有语音，
// 此时序列器按 DefaultDelay 定时推进；有语音时以播放结束事件推进，
// DefaultDelay 仅在播放出错的降级路径上可能被用到。
type Message struct {
	// Content 提示内容（对核心不透明，由宿主的 TooltipPresenter 负责渲染）
	Content any

	// AudioLocator 语音定位串（文件路径或已解析的 URI），空串表示无语音。
	// 资源 ID 到定位串的解析是纯函数，见 pkg/config.ResolveAudioLocator。
	AudioLocator string

	// DefaultDelay 无语音时的展示时长
	DefaultDelay time.Duration
}

// NewMessage 构造无语音消息
func NewMessage(content any, delay time.Duration) Message {
	return Message{Content: content, DefaultDelay: delay}
}

// NewAudioMessage 构造带语音的消息
func NewAudioMessage(content any, locator string, delay time.Duration) Message {
	return Message{Content: content, AudioLocator: locator, DefaultDelay: delay}
}

// ZoneEntry 区域元数据
//
// 由宿主 UI 层通过 RegisterZone/UnregisterZone 独占更新（布局每变化一次
// 就重新注册一次），核心只读。注销必须发生在宿主释放该元素资源之前，
// 否则并发的出队可能读到悬空的媒体句柄。
type ZoneEntry struct {
	// Bounds 屏幕坐标下的目标边界（每次布局后由宿主重算）
	Bounds Rect

	// Shape 挖孔形状
	Shape Shape

	// ForcedNavigation 强制导航：激活期间只有目标区域可接收输入
	ForcedNavigation bool

	// AdaptComponentShape 波纹是否贴合目标轮廓（false 则使用圆形径向渐变）
	AdaptComponentShape bool

	// Padding 挖孔在目标四周的外扩距离（像素）
	Padding float64

	// Messages 该区域的消息序列（从头到尾依次消费）
	Messages []Message

	// OnFinish 消息序列播完后的回调（至多调用一次），可为 nil
	OnFinish func()
}

// DimState 调暗状态
type DimState int

const (
	// DimStopped 停止：内容正常渲染，不绘制遮罩
	DimStopped DimState = iota
	// DimRunning 运行：渲染层必须绘制调暗遮罩与挖孔
	DimRunning
)

// String 返回状态名，便于日志输出
func (d DimState) String() string {
	switch d {
	case DimStopped:
		return "STOPPED"
	case DimRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// Snapshot 当前聚光区域的不可变快照
//
// 由控制器在内部锁下构造后整体发布，渲染层每帧读取（无锁路径）。
// Key 为空串表示当前没有聚光区域。区域在出队时已被注销的情形下，
// 快照携带零尺寸零偏移的几何信息，遮罩照常渲染但不挖孔。
type Snapshot struct {
	Key                 string
	Offset              Point
	Size                Size
	Shape               Shape
	ForcedNavigation    bool
	AdaptComponentShape bool
	Padding             float64

	// ActivationID 本次激活的唯一标识（UUID），用于日志关联与
	// 迟到回调的失效判定
	ActivationID string
}

// Bounds 返回快照几何对应的矩形（未加 Padding）
func (s Snapshot) Bounds() Rect {
	return Rect{X: s.Offset.X, Y: s.Offset.Y, Width: s.Size.Width, Height: s.Size.Height}
}

// TooltipHandle 一条已展示提示的可见性句柄
type TooltipHandle interface {
	// Dismiss 撤下提示（幂等）
	Dismiss()
}

// TooltipPresenter 宿主提供的提示展示器
//
// 序列器每切换到一条消息就调用一次 Show；控制器在区域失活时
// 负责 Dismiss 当前句柄。实现可为 nil（不展示提示）。
type TooltipPresenter interface {
	// Show 展示一条提示，返回可见性句柄
	//
	// 参数：
	//   - zoneKey: 当前聚光区域键
	//   - msg: 要展示的消息
	Show(zoneKey string, msg Message) TooltipHandle
}

// InputGate 宿主提供的输入闸门
//
// 消息播放期间序列器调用 BlockInput 屏蔽全局输入，序列结束或
// 序列器被拆除时调用 AllowInput 恢复。实现可为 nil。
type InputGate interface {
	BlockInput()
	AllowInput()
}
