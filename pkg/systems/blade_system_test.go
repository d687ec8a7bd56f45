package systems

import (
	"testing"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/config"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/entities"
	"github.com/decker502/saber/pkg/input"
	"github.com/decker502/saber/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink 记录收到的音效
type recordingSink struct {
	cues []components.SoundCue
}

func (r *recordingSink) PlayCue(cue components.SoundCue) {
	r.cues = append(r.cues, cue)
}

func newSaber(t *testing.T, em *ecs.EntityManager) entities.Lightsaber {
	t.Helper()
	layers, err := config.NewLayerTable(config.DefaultLayers())
	require.NoError(t, err)
	saber, err := entities.NewLightsaberEntity(em, entities.NewColliderRegistry(), config.DefaultInteractionConfig(), layers, utils.IdentityPose())
	require.NoError(t, err)
	return saber
}

func TestBladePowerUpAndDown(t *testing.T) {
	em := ecs.NewEntityManager()
	saber := newSaber(t, em)
	sink := &recordingSink{}
	system := NewBladeSystem(em, input.NewScriptedSource(), sink)

	blade, _ := ecs.GetComponent[*components.BladeComponent](em, saber.Blade)
	light, _ := ecs.GetComponent[*components.LightComponent](em, saber.Light)
	renderer, _ := ecs.GetComponent[*components.RendererComponent](em, saber.Blade)
	transform, _ := ecs.GetComponent[*components.TransformComponent](em, saber.Blade)

	require.True(t, system.Toggle(saber.Blade))
	assert.True(t, blade.Active)
	assert.True(t, renderer.Visible)
	assert.True(t, light.Enabled)
	assert.Equal(t, []components.SoundCue{components.SoundPowerUp}, sink.cues)

	// 动画进行中不响应新的开关
	assert.False(t, system.Toggle(saber.Blade))

	system.Update(0.5)
	assert.Equal(t, 0.5, blade.Scale)
	assert.Equal(t, 0.5, transform.Scale.X())
	assert.True(t, blade.InProgress)

	system.Update(0.75)
	assert.Equal(t, 1.0, blade.Scale, "进度被限制在 [0,1]")
	assert.False(t, blade.InProgress)
	assert.False(t, blade.PowerOn, "下一次操作为关闭")
	assert.Equal(t, []components.SoundCue{components.SoundPowerUp, components.SoundIdleStart}, sink.cues)

	sink.cues = nil
	require.True(t, system.Toggle(saber.Blade))
	assert.False(t, light.Enabled)
	assert.Equal(t, []components.SoundCue{components.SoundIdleStop, components.SoundPowerDown}, sink.cues)

	system.Update(2)
	assert.Equal(t, 0.0, blade.Scale)
	assert.False(t, blade.Active)
	assert.False(t, renderer.Visible)
	assert.True(t, blade.PowerOn)
	assert.Len(t, sink.cues, 2, "关闭完成时没有额外音效")
}

func TestBladeToggleFromButton(t *testing.T) {
	em := ecs.NewEntityManager()
	saber := newSaber(t, em)
	source := input.NewScriptedSource()
	system := NewBladeSystem(em, source, nil)

	blade, _ := ecs.GetComponent[*components.BladeComponent](em, saber.Blade)

	// 左手的 B 键不起作用
	source.Press(input.ControllerLTouch, input.ButtonTwo)
	system.Update(0.1)
	assert.False(t, blade.InProgress)
	source.EndFrame()

	source.Press(input.ControllerRTouch, input.ButtonTwo)
	system.Update(0.1)
	source.EndFrame()
	assert.True(t, blade.InProgress)
	assert.InDelta(t, 0.1, blade.Scale, 1e-12, "按下的那一帧就开始推进")
}

func TestBladeLightBlink(t *testing.T) {
	em := ecs.NewEntityManager()
	saber := newSaber(t, em)
	system := NewBladeSystem(em, input.NewScriptedSource(), nil)
	light, _ := ecs.GetComponent[*components.LightComponent](em, saber.Light)

	for i := 0; i < 200; i++ {
		system.Update(1.0 / 60)
		assert.GreaterOrEqual(t, light.Intensity, light.BaseIntensity)
		assert.LessOrEqual(t, light.Intensity, light.BaseIntensity+light.BlinkAmplitude+1e-12)
	}
}

func TestBladeToggleUnknownEntity(t *testing.T) {
	em := ecs.NewEntityManager()
	system := NewBladeSystem(em, input.NewScriptedSource(), nil)
	assert.False(t, system.Toggle(42))
}
