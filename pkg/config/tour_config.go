// Package config 提供导览脚本的 YAML 配置加载
//
// 宿主以数据文件声明一次导览：区域顺序、每个区域的挖孔形状与
// 消息序列、波纹效果参数。几何边界与完成回调属于运行时信息，
// 由宿主在注册区域时补充。
package config

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/decker502/tourguide/pkg/overlay"
	"github.com/decker502/tourguide/pkg/spotlight"
	"gopkg.in/yaml.v3"
)

// 区域形状的配置取值
const (
	ShapeNameCircle      = "circle"
	ShapeNameRectangle   = "rectangle"
	ShapeNameRoundedRect = "roundedRect"
)

// TourConfig 导览脚本配置
type TourConfig struct {
	ID            string       `yaml:"id"`            // 导览标识，同时是存储命名空间
	Persistent    bool         `yaml:"persistent"`    // 启动时是否直接进入持久化模式
	AudioBasePath string       `yaml:"audioBasePath"` // 语音文件的基准目录（可选）
	Effect        EffectConfig `yaml:"effect"`        // 波纹效果参数（可选）
	Zones         []ZoneConfig `yaml:"zones"`         // 区域列表（按导览顺序）
}

// EffectConfig 波纹效果配置
//
// 所有字段可选，缺省值取 overlay.DefaultRippleParams()。
// 指针字段用于区分"未配置"与显式的零值。
type EffectConfig struct {
	Intensity   *float64 `yaml:"intensity"`   // 环亮度强度 0..1，0 表示无环
	RippleColor string   `yaml:"rippleColor"` // 环峰值颜色 #RRGGBB 或 #RRGGBBAA
	DimColor    string   `yaml:"dimColor"`    // 调暗颜色 #RRGGBB 或 #RRGGBBAA
	Animated    *bool    `yaml:"animated"`    // 是否推进动画相位
	SpeedMs     int      `yaml:"speedMs"`     // 相位周期（毫秒）
}

// ZoneConfig 单个导览区域配置
type ZoneConfig struct {
	Key                 string          `yaml:"key"`                 // 区域键（必填，全脚本唯一）
	Shape               string          `yaml:"shape"`               // 挖孔形状，默认 circle
	CornerRadius        float64         `yaml:"cornerRadius"`        // roundedRect 的圆角半径
	Padding             float64         `yaml:"padding"`             // 挖孔外扩距离
	ForcedNavigation    bool            `yaml:"forcedNavigation"`    // 激活期间是否拦截区域外输入
	AdaptComponentShape bool            `yaml:"adaptComponentShape"` // 波纹是否贴合目标轮廓
	Messages            []MessageConfig `yaml:"messages"`            // 消息序列
}

// MessageConfig 单条消息配置
type MessageConfig struct {
	Text    string `yaml:"text"`    // 提示文本
	Audio   string `yaml:"audio"`   // 语音文件名（相对 AudioBasePath），空表示无语音
	DelayMs int    `yaml:"delayMs"` // 无语音时的展示时长（毫秒），默认 1500
}

// defaultMessageDelayMs 未配置展示时长时的缺省值
const defaultMessageDelayMs = 1500

// LoadTourConfig 从 YAML 文件加载导览脚本
//
// 参数：
//
//	filepath - 脚本文件路径（相对或绝对路径）
//
// 返回：
//
//	*TourConfig - 解析后的导览配置
//	error - 文件读取、解析或校验失败时返回错误
func LoadTourConfig(filepath string) (*TourConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tour config file %s: %w", filepath, err)
	}

	cfg, err := ParseTourConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid tour config in %s: %w", filepath, err)
	}
	return cfg, nil
}

// ParseTourConfig 从内存字节解析导览脚本（嵌入资源场景）
func ParseTourConfig(data []byte) (*TourConfig, error) {
	var cfg TourConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tour config YAML: %w", err)
	}

	applyTourDefaults(&cfg)

	if err := validateTourConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyTourDefaults 为缺失的可选字段设置默认值
func applyTourDefaults(cfg *TourConfig) {
	for i := range cfg.Zones {
		zone := &cfg.Zones[i]
		if zone.Shape == "" {
			zone.Shape = ShapeNameCircle
		}
		for j := range zone.Messages {
			if zone.Messages[j].DelayMs == 0 {
				zone.Messages[j].DelayMs = defaultMessageDelayMs
			}
		}
	}
}

// validateTourConfig 校验导览脚本的完整性
func validateTourConfig(cfg *TourConfig) error {
	if cfg.ID == "" {
		return fmt.Errorf("tour ID is required")
	}

	seen := make(map[string]bool, len(cfg.Zones))
	for i, zone := range cfg.Zones {
		if zone.Key == "" {
			return fmt.Errorf("zone %d: key is required", i)
		}
		if seen[zone.Key] {
			return fmt.Errorf("zone %d: duplicate key %q", i, zone.Key)
		}
		seen[zone.Key] = true

		switch zone.Shape {
		case ShapeNameCircle, ShapeNameRectangle, ShapeNameRoundedRect:
		default:
			return fmt.Errorf("zone %q: unknown shape %q", zone.Key, zone.Shape)
		}
		if zone.Padding < 0 {
			return fmt.Errorf("zone %q: padding must not be negative", zone.Key)
		}

		for j, msg := range zone.Messages {
			if msg.Text == "" && msg.Audio == "" {
				return fmt.Errorf("zone %q message %d: text or audio is required", zone.Key, j)
			}
			if msg.DelayMs < 0 {
				return fmt.Errorf("zone %q message %d: delayMs must not be negative", zone.Key, j)
			}
		}
	}

	if _, err := cfg.Effect.RippleParams(); err != nil {
		return err
	}
	return nil
}

// RippleParams 把效果配置转换为渲染参数
//
// 未配置的字段保持 overlay.DefaultRippleParams() 的取值。
func (e EffectConfig) RippleParams() (overlay.RippleParams, error) {
	params := overlay.DefaultRippleParams()

	if e.Intensity != nil {
		params.Intensity = *e.Intensity
	}
	if e.RippleColor != "" {
		c, err := ParseHexColor(e.RippleColor)
		if err != nil {
			return params, fmt.Errorf("invalid rippleColor: %w", err)
		}
		params.RippleColor = c
	}
	if e.DimColor != "" {
		c, err := ParseHexColor(e.DimColor)
		if err != nil {
			return params, fmt.Errorf("invalid dimColor: %w", err)
		}
		params.DimColor = c
	}
	if e.Animated != nil {
		params.Animated = *e.Animated
	}
	if e.SpeedMs > 0 {
		params.Speed = time.Duration(e.SpeedMs) * time.Millisecond
	}
	return params, nil
}

// ShapeSpec 把形状配置转换为聚光形状描述
func (z ZoneConfig) ShapeSpec() spotlight.Shape {
	switch z.Shape {
	case ShapeNameRectangle:
		return spotlight.RectangleShape()
	case ShapeNameRoundedRect:
		return spotlight.RoundedRectShape(z.CornerRadius)
	default:
		return spotlight.CircleShape()
	}
}

// Entry 把区域配置转换为注册项
//
// Bounds 与 OnFinish 属于运行时信息，由宿主在注册前补充。
// 语音文件名经 basePath 解析为定位串。
func (z ZoneConfig) Entry(basePath string) spotlight.ZoneEntry {
	messages := make([]spotlight.Message, 0, len(z.Messages))
	for _, m := range z.Messages {
		delay := time.Duration(m.DelayMs) * time.Millisecond
		if m.Audio == "" {
			messages = append(messages, spotlight.NewMessage(m.Text, delay))
		} else {
			locator := ResolveAudioLocator(basePath, m.Audio)
			messages = append(messages, spotlight.NewAudioMessage(m.Text, locator, delay))
		}
	}

	return spotlight.ZoneEntry{
		Shape:               z.ShapeSpec(),
		ForcedNavigation:    z.ForcedNavigation,
		AdaptComponentShape: z.AdaptComponentShape,
		Padding:             z.Padding,
		Messages:            messages,
	}
}

// ResolveAudioLocator 把语音文件名解析为定位串
//
// 纯函数：绝对路径与带协议前缀的名字原样返回，其余与基准目录
// 拼接；基准目录为空时直接返回文件名。
func ResolveAudioLocator(basePath, name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, "://") {
		return name
	}
	if basePath == "" {
		return name
	}
	return path.Join(basePath, name)
}

// ParseHexColor 解析 #RRGGBB / #RRGGBBAA 颜色串
//
// 省略透明度分量时按不透明处理。
func ParseHexColor(s string) (overlay.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return overlay.Color{}, fmt.Errorf("color %q must be #RRGGBB or #RRGGBBAA", s)
	}

	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return overlay.Color{}, fmt.Errorf("color %q is not valid hex: %w", s, err)
	}

	if len(hex) == 6 {
		v = v<<8 | 0xFF
	}
	return overlay.Color{
		R: float64(v>>24&0xFF) / 255,
		G: float64(v>>16&0xFF) / 255,
		B: float64(v>>8&0xFF) / 255,
		A: float64(v&0xFF) / 255,
	}, nil
}
