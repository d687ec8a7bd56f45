package game

import (
	"encoding/binary"
	"math"
)

// SampleRate 音频采样率，与 audio.NewContext 保持一致
const SampleRate = 48000

// toneSpec 合成音效参数
// 频率从 FromHz 线性滑到 ToHz，首尾各有 Fade 秒的淡入淡出
type toneSpec struct {
	FromHz   float64
	ToHz     float64
	Seconds  float64
	Fade     float64
	Harmonic float64 // 二次谐波的相对强度
}

// 光剑音效：开启向上扫频，关闭向下扫频，待机是低频嗡鸣
var (
	powerUpTone   = toneSpec{FromHz: 110, ToHz: 330, Seconds: 0.6, Fade: 0.05, Harmonic: 0.3}
	powerDownTone = toneSpec{FromHz: 330, ToHz: 70, Seconds: 0.5, Fade: 0.05, Harmonic: 0.3}
	// 1 秒 90 个完整周期，循环播放时首尾相接没有爆音
	idleHumTone = toneSpec{FromHz: 90, ToHz: 90, Seconds: 1, Harmonic: 0.5}
)

// synthesize 生成 16 位小端立体声 PCM
func synthesize(spec toneSpec, sampleRate int) []byte {
	n := int(math.Round(spec.Seconds * float64(sampleRate)))
	buf := make([]byte, n*4)

	phase := 0.0
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		freq := spec.FromHz + (spec.ToHz-spec.FromHz)*t/spec.Seconds
		phase += 2 * math.Pi * freq / float64(sampleRate)

		v := math.Sin(phase) + spec.Harmonic*math.Sin(2*phase)
		v /= 1 + spec.Harmonic
		v *= envelope(t, spec.Seconds, spec.Fade)

		s := int16(v * 0.5 * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(s))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(s))
	}
	return buf
}

// envelope 淡入淡出包络
func envelope(t, total, fade float64) float64 {
	if fade <= 0 {
		return 1
	}
	switch {
	case t < fade:
		return t / fade
	case t > total-fade:
		return math.Max(0, (total-t)/fade)
	default:
		return 1
	}
}
