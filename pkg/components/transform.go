package components

import (
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
)

// TransformComponent 实体的世界变换
// 有 AttachmentComponent 的实体由 HierarchySystem 每帧根据父节点重新计算
type TransformComponent struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// NewTransformComponent 创建变换组件（缩放为 1）
func NewTransformComponent(position mgl64.Vec3, rotation mgl64.Quat) *TransformComponent {
	return &TransformComponent{
		Position: position,
		Rotation: rotation,
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Pose 返回位置+朝向
func (t *TransformComponent) Pose() utils.Pose {
	return utils.NewPose(t.Position, t.Rotation)
}

// SetPose 写入位置+朝向
func (t *TransformComponent) SetPose(p utils.Pose) {
	t.Position = p.Position
	t.Rotation = p.Rotation
}

// TransformDirection 将局部方向变换到世界方向（只受旋转影响）
func (t *TransformComponent) TransformDirection(dir mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(dir)
}

// LocalToWorld 局部到世界的矩阵
func (t *TransformComponent) LocalToWorld() mgl64.Mat4 {
	return utils.TRS(t.Position, t.Rotation, t.Scale)
}

// WorldToLocal 世界到局部的矩阵
func (t *TransformComponent) WorldToLocal() mgl64.Mat4 {
	return t.LocalToWorld().Inv()
}

// AttachmentComponent 父子挂接关系
// 子节点的世界位姿 = 父节点位姿 * 局部位姿；父节点只以ID引用
type AttachmentComponent struct {
	Parent        ecs.EntityID
	LocalPosition mgl64.Vec3
	LocalRotation mgl64.Quat
}

// LocalPose 返回相对父节点的位姿
func (a *AttachmentComponent) LocalPose() utils.Pose {
	return utils.NewPose(a.LocalPosition, a.LocalRotation)
}
