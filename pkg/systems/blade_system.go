package systems

import (
	"math"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/input"
	"github.com/decker502/saber/pkg/logger"
	"github.com/decker502/saber/pkg/utils"
	"go.uber.org/zap"
)

// SoundSink 接收光剑音效事件，具体播放由外部完成
type SoundSink interface {
	PlayCue(cue components.SoundCue)
}

// BladeSystem 光剑刀身伸缩、灯光闪烁和开关音效
//
// 刀身动画是逐帧推进的进度值（刀身 X 轴缩放），动画进行中忽略新的开关请求。
// 输入来源实现了 input.ButtonSource 时，右手 B 键切换开关。
type BladeSystem struct {
	entityManager *ecs.EntityManager
	buttons       input.ButtonSource
	sink          SoundSink
	time          float64
	log           *zap.Logger
}

// NewBladeSystem 创建刀身系统
// source 不支持按键时只能通过 Toggle 切换；sink 可以为 nil
func NewBladeSystem(em *ecs.EntityManager, source input.PoseSource, sink SoundSink) *BladeSystem {
	buttons, _ := source.(input.ButtonSource)
	return &BladeSystem{
		entityManager: em,
		buttons:       buttons,
		sink:          sink,
		log:           logger.Named("BladeSystem"),
	}
}

// Update 处理开关输入，推进动画并刷新灯光亮度
func (s *BladeSystem) Update(deltaTime float64) {
	s.time += deltaTime

	blades := ecs.GetEntitiesWith1[*components.BladeComponent](s.entityManager)
	if s.buttons != nil && s.buttons.ButtonDown(input.ControllerRTouch, input.ButtonTwo) {
		for _, id := range blades {
			s.Toggle(id)
		}
	}

	for _, id := range blades {
		blade, _ := ecs.GetComponent[*components.BladeComponent](s.entityManager, id)
		s.advance(id, blade, deltaTime)
	}

	for _, id := range ecs.GetEntitiesWith1[*components.LightComponent](s.entityManager) {
		light, _ := ecs.GetComponent[*components.LightComponent](s.entityManager, id)
		light.Intensity = light.BaseIntensity + light.BlinkAmplitude*math.Abs(math.Sin(light.BlinkFrequency*s.time))
	}
}

// Toggle 开始一次开启或关闭动画
//
// 返回:
//   - bool: 动画进行中时忽略请求，返回 false
func (s *BladeSystem) Toggle(id ecs.EntityID) bool {
	blade, ok := ecs.GetComponent[*components.BladeComponent](s.entityManager, id)
	if !ok || blade.InProgress {
		return false
	}

	if light, ok := ecs.GetComponent[*components.LightComponent](s.entityManager, blade.Light); ok {
		light.Enabled = blade.PowerOn
	}

	if blade.PowerOn {
		s.setActive(id, blade, true)
		s.play(components.SoundPowerUp)
	} else {
		s.play(components.SoundIdleStop)
		s.play(components.SoundPowerDown)
	}
	blade.InProgress = true

	s.log.Debug("光剑开关", zap.Uint64("blade", uint64(id)), zap.Bool("powerOn", blade.PowerOn))
	return true
}

// advance 推进动画进度，到达终点时收尾并翻转下一次的方向
func (s *BladeSystem) advance(id ecs.EntityID, blade *components.BladeComponent, deltaTime float64) {
	if !blade.InProgress {
		return
	}

	target := 0.0
	step := -deltaTime * blade.Speed
	if blade.PowerOn {
		target = 1.0
		step = -step
	}
	blade.Scale = utils.Clamp01(blade.Scale + step)
	if transform, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
		transform.Scale[0] = blade.Scale
	}

	if blade.Scale != target {
		return
	}

	if blade.PowerOn {
		s.play(components.SoundIdleStart)
	} else {
		s.setActive(id, blade, false)
	}
	blade.InProgress = false
	blade.PowerOn = !blade.PowerOn
}

func (s *BladeSystem) setActive(id ecs.EntityID, blade *components.BladeComponent, active bool) {
	blade.Active = active
	if r, ok := ecs.GetComponent[*components.RendererComponent](s.entityManager, id); ok {
		r.Visible = active
	}
}

func (s *BladeSystem) play(cue components.SoundCue) {
	if s.sink != nil {
		s.sink.PlayCue(cue)
	}
}
