package game

import (
	"fmt"

	"github.com/decker502/saber/pkg/config"
	"github.com/decker502/saber/pkg/logger"
	"github.com/decker502/saber/pkg/utils"
	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// InteractionSettings 用户偏好设置
// 只保存偏好，不保存任何交互状态（手中物体、拖尾等）
type InteractionSettings struct {
	// 音频设置
	SoundVolume  float64 `yaml:"soundVolume"`  // 音效音量 0.0 ~ 1.0
	SoundEnabled bool    `yaml:"soundEnabled"` // 音效开关

	// 拖尾开关，关闭时每帧清空拖尾
	TrailEnabled bool `yaml:"trailEnabled"`

	// 扳机阈值覆盖，0 表示使用配置文件中的值
	GrabBeginThreshold float64 `yaml:"grabBeginThreshold,omitempty"`
	GrabEndThreshold   float64 `yaml:"grabEndThreshold,omitempty"`

	// 显示设置
	Fullscreen bool `yaml:"fullscreen"` // 启动时是否全屏
}

// DefaultSettings 返回默认设置
func DefaultSettings() *InteractionSettings {
	return &InteractionSettings{
		SoundVolume:  0.8,
		SoundEnabled: true,
		TrailEnabled: true,
		Fullscreen:   false,
	}
}

// SettingsManager 设置管理器
// 负责设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager       // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *InteractionSettings // 当前设置
	log          *zap.Logger
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "interaction"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 返回：
//   - *SettingsManager: 设置管理器实例，加载失败时使用默认设置
func NewSettingsManager(gdataManager *gdata.Manager) *SettingsManager {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
		log:          logger.Named("SettingsManager"),
	}

	// 加载失败不是致命错误，使用默认设置
	if err := sm.Load(); err != nil {
		sm.log.Warn("加载设置失败，使用默认设置", zap.Error(err))
	}

	return sm
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或文件不存在，使用默认设置
func (sm *SettingsManager) Load() error {
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	sm.settings = loaded
	sm.log.Debug("设置加载完成")
	return nil
}

// Save 保存设置到 gdata
// 降级模式下直接返回 nil
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	sm.log.Debug("设置已保存")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *InteractionSettings {
	return sm.settings
}

// SetSoundVolume 设置音效音量（限制在 0.0 ~ 1.0）
// 仅修改内存中的设置，需调用 Save() 持久化
func (sm *SettingsManager) SetSoundVolume(volume float64) {
	sm.settings.SoundVolume = utils.Clamp01(volume)
}

// SetSoundEnabled 设置音效开关
func (sm *SettingsManager) SetSoundEnabled(enabled bool) {
	sm.settings.SoundEnabled = enabled
}

// SetTrailEnabled 设置拖尾开关
func (sm *SettingsManager) SetTrailEnabled(enabled bool) {
	sm.settings.TrailEnabled = enabled
}

// SetFullscreen 设置全屏模式
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.settings.Fullscreen = enabled
}

// SetGrabThresholds 覆盖扳机阈值，两个都为 0 时取消覆盖
//
// 返回：
//   - error: 阈值超出 [0,1] 或 begin <= end 时返回 config.ErrInvalidConfig
func (sm *SettingsManager) SetGrabThresholds(begin, end float64) error {
	if begin == 0 && end == 0 {
		sm.settings.GrabBeginThreshold = 0
		sm.settings.GrabEndThreshold = 0
		return nil
	}
	if !(begin >= 0 && begin <= 1) || !(end >= 0 && end <= 1) || begin <= end {
		return fmt.Errorf("%w: grab thresholds begin=%v end=%v", config.ErrInvalidConfig, begin, end)
	}
	sm.settings.GrabBeginThreshold = begin
	sm.settings.GrabEndThreshold = end
	return nil
}

// ApplyTo 把用户偏好叠加到交互配置上
// 阈值覆盖无效（例如存档被手动改坏）时保留配置文件的值
func (sm *SettingsManager) ApplyTo(cfg *config.InteractionConfig) {
	s := sm.settings
	if s.GrabBeginThreshold == 0 && s.GrabEndThreshold == 0 {
		return
	}
	if !(s.GrabBeginThreshold > s.GrabEndThreshold) || !(s.GrabBeginThreshold <= 1) || !(s.GrabEndThreshold >= 0) {
		sm.log.Warn("忽略无效的扳机阈值覆盖",
			zap.Float64("begin", s.GrabBeginThreshold),
			zap.Float64("end", s.GrabEndThreshold),
		)
		return
	}
	cfg.Grabber.GrabBeginThreshold = s.GrabBeginThreshold
	cfg.Grabber.GrabEndThreshold = s.GrabEndThreshold
}
