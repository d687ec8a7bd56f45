package entities

import (
	"errors"
	"fmt"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/config"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/input"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrGrabPointMismatch 抓取点与抓取朝向数量不一致
var ErrGrabPointMismatch = errors.New("grab points and grab rotations length mismatch")

// BoxSpec 挂在父实体上的盒形碰撞体
type BoxSpec struct {
	LocalPosition mgl64.Vec3
	LocalRotation mgl64.Quat
	HalfExtents   mgl64.Vec3
}

// GrabbableSpec 可抓取物体的创建参数
type GrabbableSpec struct {
	Pose utils.Pose
	// GrabPoints 为空时生成一个位于物体原点、尺寸为零的默认抓取点
	GrabPoints []BoxSpec
	// GrabRotations 为空时生成一个零朝向
	GrabRotations []mgl64.Vec3
	Kinematic     bool
	Layer         int
}

// NewGrabbableEntity 创建可抓取物体
//
// 参数:
//   - em: 实体管理器
//   - registry: 碰撞体注册表，抓取点会登记到该物体名下
//   - spec: 创建参数
//
// 返回:
//   - ecs.EntityID: 物体实体ID
//   - error: 抓取点与朝向数量不一致时返回 ErrGrabPointMismatch
func NewGrabbableEntity(em *ecs.EntityManager, registry *ColliderRegistry, spec GrabbableSpec) (ecs.EntityID, error) {
	if em == nil || registry == nil {
		return 0, fmt.Errorf("entity manager and collider registry cannot be nil")
	}

	points := spec.GrabPoints
	if len(points) == 0 {
		points = []BoxSpec{{LocalRotation: mgl64.QuatIdent()}}
	}
	rotations := spec.GrabRotations
	if len(rotations) == 0 {
		rotations = []mgl64.Vec3{{}}
	}
	if len(points) != len(rotations) {
		return 0, fmt.Errorf("%w: %d grab points, %d rotations", ErrGrabPointMismatch, len(points), len(rotations))
	}

	id := em.CreateEntity()
	em.AddComponent(id, components.NewTransformComponent(spec.Pose.Position, normalizedRotation(spec.Pose.Rotation)))
	em.AddComponent(id, &components.LayerComponent{Layer: spec.Layer})
	em.AddComponent(id, &components.RigidbodyComponent{IsKinematic: spec.Kinematic})

	grabbable := &components.GrabbableComponent{
		GrabPoints:       make([]ecs.EntityID, 0, len(points)),
		GrabRotations:    append([]mgl64.Vec3(nil), rotations...),
		DefaultLayer:     spec.Layer,
		DefaultKinematic: spec.Kinematic,
	}
	for _, p := range points {
		collider := newAttachedBox(em, id, p, false, spec.Layer)
		registry.Register(collider, id)
		grabbable.GrabPoints = append(grabbable.GrabPoints, collider)
	}
	em.AddComponent(id, grabbable)

	return id, nil
}

// GrabberSpec 抓取手的创建参数
type GrabberSpec struct {
	Controller      input.Controller
	Config          config.GrabberConfig
	Layers          *config.LayerTable
	MountOffset     utils.Pose
	GrabPointOffset utils.Pose
	// Volumes 抓取检测触发体，挂在手上
	Volumes []BoxSpec
}

// NewGrabberEntity 创建抓取手
// 手及其触发体都放到 GrabberLayer；HeldLayer 在此解析一次
func NewGrabberEntity(em *ecs.EntityManager, spec GrabberSpec) (ecs.EntityID, error) {
	if em == nil {
		return 0, fmt.Errorf("entity manager cannot be nil")
	}
	if spec.Layers == nil {
		return 0, fmt.Errorf("layer table cannot be nil")
	}
	grabberLayer, err := spec.Layers.Resolve(spec.Config.GrabberLayer)
	if err != nil {
		return 0, fmt.Errorf("grabber layer: %w", err)
	}
	heldLayer, err := spec.Layers.Resolve(spec.Config.GrabbableLayer)
	if err != nil {
		return 0, fmt.Errorf("grabbable layer: %w", err)
	}
	if spec.Config.GrabBeginThreshold <= spec.Config.GrabEndThreshold {
		return 0, fmt.Errorf("%w: grab begin threshold must exceed end threshold", config.ErrInvalidConfig)
	}

	mount := utils.NewPose(spec.MountOffset.Position, normalizedRotation(spec.MountOffset.Rotation))
	grabPoint := utils.NewPose(spec.GrabPointOffset.Position, normalizedRotation(spec.GrabPointOffset.Rotation))

	id := em.CreateEntity()
	em.AddComponent(id, components.NewTransformComponent(mgl64.Vec3{}, mgl64.QuatIdent()))
	em.AddComponent(id, &components.LayerComponent{Layer: grabberLayer})
	em.AddComponent(id, &components.RendererComponent{Visible: true})

	grabber := &components.GrabberComponent{
		Controller:         spec.Controller,
		GrabBeginThreshold: spec.Config.GrabBeginThreshold,
		GrabEndThreshold:   spec.Config.GrabEndThreshold,
		HideOnGrab:         spec.Config.HideOnGrab,
		MountOffset:        mount,
		GrabPointOffset:    grabPoint,
		GrabVolumeEnabled:  true,
		HeldLayer:          heldLayer,
		Candidates:         make(map[ecs.EntityID]int),
		RotOffset:          mgl64.QuatIdent(),
	}
	for _, v := range spec.Volumes {
		grabber.GrabVolumes = append(grabber.GrabVolumes, newAttachedBox(em, id, v, true, grabberLayer))
	}
	em.AddComponent(id, grabber)

	return id, nil
}

// newAttachedBox 创建挂在 parent 上的盒形碰撞体实体
func newAttachedBox(em *ecs.EntityManager, parent ecs.EntityID, box BoxSpec, trigger bool, layer int) ecs.EntityID {
	id := newAttachedEntity(em, parent, utils.NewPose(box.LocalPosition, box.LocalRotation))
	em.AddComponent(id, &components.ColliderComponent{
		HalfExtents: box.HalfExtents,
		Enabled:     true,
		IsTrigger:   trigger,
		Layer:       layer,
	})
	return id
}

// newAttachedEntity 创建挂在 parent 上的实体，并立即按父节点位姿计算世界变换
func newAttachedEntity(em *ecs.EntityManager, parent ecs.EntityID, local utils.Pose) ecs.EntityID {
	local.Rotation = normalizedRotation(local.Rotation)

	world := local
	if pt, ok := ecs.GetComponent[*components.TransformComponent](em, parent); ok {
		world = pt.Pose().Mul(local)
	}

	id := em.CreateEntity()
	em.AddComponent(id, components.NewTransformComponent(world.Position, world.Rotation))
	em.AddComponent(id, &components.AttachmentComponent{
		Parent:        parent,
		LocalPosition: local.Position,
		LocalRotation: local.Rotation,
	})
	return id
}

// normalizedRotation 零四元数视为单位旋转
func normalizedRotation(q mgl64.Quat) mgl64.Quat {
	if q == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}
