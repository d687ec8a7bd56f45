package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig 配置校验失败，可用 errors.Is 判断
var ErrInvalidConfig = errors.New("invalid interaction config")

// InteractionConfig 交互参数配置（data/interaction.yaml）
type InteractionConfig struct {
	Grabber GrabberConfig  `yaml:"grabber"`
	Trail   TrailConfig    `yaml:"trail"`
	Blade   BladeConfig    `yaml:"blade"`
	Layers  map[string]int `yaml:"layers"` // 层名 -> 层号，启动时解析一次为 LayerTable
}

// GrabberConfig 抓取手参数
type GrabberConfig struct {
	// 扳机阈值，带回差：Begin 必须大于 End
	GrabBeginThreshold float64 `yaml:"grabBeginThreshold"`
	GrabEndThreshold   float64 `yaml:"grabEndThreshold"`
	HideOnGrab         bool    `yaml:"hideOnGrab"`     // 抓取期间隐藏手的模型
	GrabberLayer       string  `yaml:"grabberLayer"`   // 手自身碰撞体所在层
	GrabbableLayer     string  `yaml:"grabbableLayer"` // 被抓取物体抓取期间切换到的层
}

// TrailConfig 拖尾参数
type TrailConfig struct {
	Height               float64 `yaml:"height"`               // 拖尾带宽度（沿 Up 方向）
	MinDistance          float64 `yaml:"minDistance"`          // 相邻采样点最小间距
	TimeTransitionSpeed  float64 `yaml:"timeTransitionSpeed"`  // 时间窗口每秒变化量
	StartTime            float64 `yaml:"startTime"`            // 静止时重置的时间窗口（秒）
	DesiredTime          float64 `yaml:"desiredTime"`          // 目标时间窗口（秒）
	VelocityThreshold    float64 `yaml:"velocityThreshold"`    // 开始生成拖尾的位移平方阈值
	EndVelocityThreshold float64 `yaml:"endVelocityThreshold"` // 停止生成拖尾的位移平方阈值
}

// BladeConfig 光剑刀身参数
type BladeConfig struct {
	Speed          float64 `yaml:"speed"`          // 伸缩速度（刀身比例/秒）
	LightIntensity float64 `yaml:"lightIntensity"` // 灯光基础亮度
	BlinkAmplitude float64 `yaml:"blinkAmplitude"` // 闪烁幅度
	BlinkFrequency float64 `yaml:"blinkFrequency"` // 闪烁角频率（弧度/秒）
}

// DefaultInteractionConfig 返回默认配置
func DefaultInteractionConfig() *InteractionConfig {
	return &InteractionConfig{
		Grabber: GrabberConfig{
			GrabBeginThreshold: 0.55,
			GrabEndThreshold:   0.35,
			HideOnGrab:         true,
			GrabberLayer:       LayerGrabber,
			GrabbableLayer:     LayerGrabbable,
		},
		Trail: TrailConfig{
			Height:              2.0,
			MinDistance:         0.1,
			TimeTransitionSpeed: 1.0,
			StartTime:           10.0,
			DesiredTime:         2.0,
		},
		Blade: BladeConfig{
			Speed:          1.0,
			LightIntensity: 1.0,
			BlinkAmplitude: 0.1,
			BlinkFrequency: 20.0,
		},
		Layers: DefaultLayers(),
	}
}

// LoadInteractionConfig 从YAML文件加载交互配置
// 文件中缺失的字段保留默认值
func LoadInteractionConfig(path string) (*InteractionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read interaction config file %s: %w", path, err)
	}

	cfg, err := ParseInteractionConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseInteractionConfig 解析YAML数据并校验
func ParseInteractionConfig(data []byte) (*InteractionConfig, error) {
	cfg := DefaultInteractionConfig()
	// 先清空层表：YAML 中的 layers 与默认层表合并，而不是叠加到同一个 map 上
	cfg.Layers = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse interaction config YAML: %w", err)
	}

	applyInteractionDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyInteractionDefaults 补齐缺失的层定义
func applyInteractionDefaults(cfg *InteractionConfig) {
	if cfg.Layers == nil {
		cfg.Layers = make(map[string]int)
	}
	for name, layer := range DefaultLayers() {
		if _, ok := cfg.Layers[name]; !ok {
			cfg.Layers[name] = layer
		}
	}
}

// Validate 校验配置合法性
// NaN 与任何值比较都为 false，所以范围检查都写成"不在范围内"的形式
func (c *InteractionConfig) Validate() error {
	g := c.Grabber
	if !unitInterval(g.GrabBeginThreshold) {
		return fmt.Errorf("%w: grabBeginThreshold must be within [0,1], got %v", ErrInvalidConfig, g.GrabBeginThreshold)
	}
	if !unitInterval(g.GrabEndThreshold) {
		return fmt.Errorf("%w: grabEndThreshold must be within [0,1], got %v", ErrInvalidConfig, g.GrabEndThreshold)
	}
	if g.GrabBeginThreshold <= g.GrabEndThreshold {
		return fmt.Errorf("%w: grabBeginThreshold (%v) must be greater than grabEndThreshold (%v)",
			ErrInvalidConfig, g.GrabBeginThreshold, g.GrabEndThreshold)
	}

	t := c.Trail
	// 按固定顺序检查，多个字段同时出错时报告的总是第一个
	nonNegative := []struct {
		name  string
		value float64
	}{
		{"height", t.Height},
		{"minDistance", t.MinDistance},
		{"timeTransitionSpeed", t.TimeTransitionSpeed},
		{"startTime", t.StartTime},
		{"desiredTime", t.DesiredTime},
		{"velocityThreshold", t.VelocityThreshold},
		{"endVelocityThreshold", t.EndVelocityThreshold},
	}
	for _, f := range nonNegative {
		if !(f.value >= 0) || math.IsInf(f.value, 1) {
			return fmt.Errorf("%w: trail.%s must be a finite non-negative number, got %v", ErrInvalidConfig, f.name, f.value)
		}
	}

	if !(c.Blade.Speed > 0) || math.IsInf(c.Blade.Speed, 1) {
		return fmt.Errorf("%w: blade.speed must be positive, got %v", ErrInvalidConfig, c.Blade.Speed)
	}

	table, err := NewLayerTable(c.Layers)
	if err != nil {
		return err
	}
	for _, name := range []string{g.GrabberLayer, g.GrabbableLayer} {
		if _, err := table.Resolve(name); err != nil {
			return err
		}
	}
	return nil
}

// unitInterval v 在 [0,1] 内，NaN 返回 false
func unitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
