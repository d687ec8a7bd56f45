package game

import (
	"bytes"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/logger"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"go.uber.org/zap"
)

// AudioManager 光剑音效播放
//
// 实现 systems.SoundSink：开启/关闭音效单次播放，待机嗡鸣循环播放。
// 音效在创建时合成，不依赖音频文件。context 为 nil 时静音（测试和无声卡环境）。
type AudioManager struct {
	context         *audio.Context
	settingsManager *SettingsManager // 可为 nil
	clips           map[components.SoundCue][]byte
	hum             *audio.Player
	oneShots        []*audio.Player // 正在播放的单次音效，播完后释放
	log             *zap.Logger
}

// NewAudioManager 创建音频管理器
//
// 参数：
//   - ctx: ebiten 音频上下文，采样率应为 SampleRate；nil 表示静音
//   - sm: 设置管理器（用于读取音量和开关），可为 nil
func NewAudioManager(ctx *audio.Context, sm *SettingsManager) *AudioManager {
	am := &AudioManager{
		context:         ctx,
		settingsManager: sm,
		clips: map[components.SoundCue][]byte{
			components.SoundPowerUp:   synthesize(powerUpTone, SampleRate),
			components.SoundPowerDown: synthesize(powerDownTone, SampleRate),
		},
		log: logger.Named("AudioManager"),
	}

	if ctx != nil {
		humPCM := synthesize(idleHumTone, SampleRate)
		loop := audio.NewInfiniteLoop(bytes.NewReader(humPCM), int64(len(humPCM)))
		hum, err := ctx.NewPlayer(loop)
		if err != nil {
			am.log.Warn("创建待机嗡鸣播放器失败", zap.Error(err))
		} else {
			am.hum = hum
		}
	}
	return am
}

// PlayCue 播放光剑音效
func (am *AudioManager) PlayCue(cue components.SoundCue) {
	am.log.Debug("音效", zap.Stringer("cue", cue))

	switch cue {
	case components.SoundIdleStart:
		if am.hum != nil && am.soundEnabled() {
			am.hum.SetVolume(am.volume())
			if err := am.hum.Rewind(); err != nil {
				am.log.Warn("重置待机嗡鸣失败", zap.Error(err))
			}
			am.hum.Play()
		}
	case components.SoundIdleStop:
		if am.hum != nil {
			am.hum.Pause()
		}
	default:
		am.playOneShot(cue)
	}
}

func (am *AudioManager) playOneShot(cue components.SoundCue) {
	if am.context == nil || !am.soundEnabled() {
		return
	}
	pcm, ok := am.clips[cue]
	if !ok {
		return
	}
	player := am.context.NewPlayerFromBytes(pcm)
	player.SetVolume(am.volume())
	player.Play()
	am.oneShots = append(am.oneShots, player)
}

// Update 释放已经播完的单次音效，每帧调用
func (am *AudioManager) Update() {
	alive := am.oneShots[:0]
	for _, p := range am.oneShots {
		if p.IsPlaying() {
			alive = append(alive, p)
			continue
		}
		_ = p.Close()
	}
	am.oneShots = alive
}

// SetSoundVolume 设置音效音量，立即应用到待机嗡鸣
func (am *AudioManager) SetSoundVolume(volume float64) {
	if am.settingsManager != nil {
		am.settingsManager.SetSoundVolume(volume)
	}
	if am.hum != nil {
		am.hum.SetVolume(am.volume())
	}
}

// IsHumming 待机嗡鸣是否在播放
func (am *AudioManager) IsHumming() bool {
	return am.hum != nil && am.hum.IsPlaying()
}

// Close 停止并释放所有播放器
func (am *AudioManager) Close() {
	for _, p := range am.oneShots {
		_ = p.Close()
	}
	am.oneShots = nil
	if am.hum != nil {
		_ = am.hum.Close()
		am.hum = nil
	}
}

func (am *AudioManager) soundEnabled() bool {
	if am.settingsManager == nil {
		return true
	}
	return am.settingsManager.GetSettings().SoundEnabled
}

func (am *AudioManager) volume() float64 {
	if am.settingsManager == nil {
		return 1
	}
	return am.settingsManager.GetSettings().SoundVolume
}
