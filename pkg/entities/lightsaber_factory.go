package entities

import (
	"fmt"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/config"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
)

// 光剑模型尺寸（米）
const (
	HiltHalfLength = 0.12
	HiltRadius     = 0.02
	// BladeBaseOffset 刀身根部相对剑柄原点的偏移（沿剑柄 +Y）
	BladeBaseOffset = HiltHalfLength
)

// Lightsaber 一把光剑涉及的实体
type Lightsaber struct {
	Hilt  ecs.EntityID // 剑柄，可抓取
	Blade ecs.EntityID // 刀身，伸缩动画
	Light ecs.EntityID // 刀身灯光
	Trail ecs.EntityID // 拖尾发射点，位于刀身根部
}

// NewLightsaberEntity 创建光剑
//
// 剑柄有两个抓取点（靠下的握把和靠上的护手），刀身、灯光和拖尾都挂在剑柄上，
// 被抓起后由 HierarchySystem 带着一起移动。刀身初始为收起状态。
func NewLightsaberEntity(
	em *ecs.EntityManager,
	registry *ColliderRegistry,
	cfg *config.InteractionConfig,
	layers *config.LayerTable,
	pose utils.Pose,
) (Lightsaber, error) {
	if cfg == nil || layers == nil {
		return Lightsaber{}, fmt.Errorf("config and layer table cannot be nil")
	}

	hilt, err := NewGrabbableEntity(em, registry, GrabbableSpec{
		Pose: pose,
		GrabPoints: []BoxSpec{
			{
				LocalPosition: mgl64.Vec3{0, -HiltHalfLength / 2, 0},
				HalfExtents:   mgl64.Vec3{HiltRadius, HiltHalfLength / 2, HiltRadius},
			},
			{
				LocalPosition: mgl64.Vec3{0, HiltHalfLength / 2, 0},
				HalfExtents:   mgl64.Vec3{HiltRadius, HiltHalfLength / 2, HiltRadius},
			},
		},
		GrabRotations: []mgl64.Vec3{{0, 0, 0}, {0, 180, 0}},
		Layer:         layers.ResolveOrDefault(config.LayerDefault),
	})
	if err != nil {
		return Lightsaber{}, fmt.Errorf("failed to create lightsaber hilt: %w", err)
	}

	bladeBase := utils.NewPose(mgl64.Vec3{0, BladeBaseOffset, 0}, mgl64.QuatIdent())

	blade := newAttachedEntity(em, hilt, bladeBase)
	if t, ok := ecs.GetComponent[*components.TransformComponent](em, blade); ok {
		t.Scale = mgl64.Vec3{0, 1, 1}
	}
	em.AddComponent(blade, &components.RendererComponent{Visible: false})

	light := newAttachedEntity(em, blade, utils.IdentityPose())
	em.AddComponent(light, &components.LightComponent{
		BaseIntensity:  cfg.Blade.LightIntensity,
		Intensity:      cfg.Blade.LightIntensity,
		BlinkAmplitude: cfg.Blade.BlinkAmplitude,
		BlinkFrequency: cfg.Blade.BlinkFrequency,
	})

	em.AddComponent(blade, &components.BladeComponent{
		Speed:   cfg.Blade.Speed,
		PowerOn: true,
		Light:   light,
	})

	trail := NewTrailEntity(em, hilt, bladeBase, cfg.Trail)

	return Lightsaber{Hilt: hilt, Blade: blade, Light: light, Trail: trail}, nil
}

// NewTrailEntity 创建拖尾发射点
// parent 为 0 时创建独立实体，local 即世界位姿
func NewTrailEntity(em *ecs.EntityManager, parent ecs.EntityID, local utils.Pose, cfg config.TrailConfig) ecs.EntityID {
	var id ecs.EntityID
	if parent != ecs.InvalidEntity {
		id = newAttachedEntity(em, parent, local)
	} else {
		id = em.CreateEntity()
		em.AddComponent(id, components.NewTransformComponent(local.Position, normalizedRotation(local.Rotation)))
	}

	em.AddComponent(id, &components.TrailComponent{
		Height:               cfg.Height,
		MinDistance:          cfg.MinDistance,
		TimeTransitionSpeed:  cfg.TimeTransitionSpeed,
		StartTime:            cfg.StartTime,
		DesiredTime:          cfg.DesiredTime,
		VelocityThreshold:    cfg.VelocityThreshold,
		EndVelocityThreshold: cfg.EndVelocityThreshold,
		Window:               cfg.StartTime,
	})
	em.AddComponent(id, &components.MeshComponent{})
	return id
}
