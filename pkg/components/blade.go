package components

import "github.com/decker502/saber/pkg/ecs"

// SoundCue 光剑开关时产生的音效事件
type SoundCue int

const (
	SoundPowerUp   SoundCue = iota // 开启音效（单次）
	SoundPowerDown                 // 关闭音效（单次）
	SoundIdleStart                 // 开始循环嗡鸣
	SoundIdleStop                  // 停止循环嗡鸣
)

// String 返回音效名称
func (c SoundCue) String() string {
	switch c {
	case SoundPowerUp:
		return "power_up"
	case SoundPowerDown:
		return "power_down"
	case SoundIdleStart:
		return "idle_start"
	case SoundIdleStop:
		return "idle_stop"
	default:
		return "unknown"
	}
}

// BladeComponent 光剑刀身伸缩动画
//
// Scale 是动画进度（刀身 X 轴缩放），InProgress 为 true 时忽略新的开关请求。
// PowerOn 表示下一次开关动作的方向：true 为伸出，false 为收回。
type BladeComponent struct {
	Speed      float64
	Scale      float64
	Active     bool // 刀身是否显示
	PowerOn    bool
	InProgress bool
	// Light 刀身灯光实体
	Light ecs.EntityID
}

// LightComponent 刀身灯光
type LightComponent struct {
	Enabled        bool
	BaseIntensity  float64
	Intensity      float64
	BlinkAmplitude float64
	BlinkFrequency float64
}
