package utils

import "github.com/go-gl/mathgl/mgl64"

// Pose 刚体位姿（位置 + 朝向），语义与 VR 运行时的 pose 一致
//
// 组合规则：
//
//	(a * b).Position = a.Position + a.Rotation · b.Position
//	(a * b).Rotation = a.Rotation * b.Rotation
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// IdentityPose 返回单位位姿
func IdentityPose() Pose {
	return Pose{Rotation: mgl64.QuatIdent()}
}

// NewPose 根据位置和朝向创建位姿
func NewPose(position mgl64.Vec3, rotation mgl64.Quat) Pose {
	return Pose{Position: position, Rotation: rotation}
}

// Mul 位姿组合：先应用 other，再应用 p
func (p Pose) Mul(other Pose) Pose {
	return Pose{
		Position: p.Position.Add(p.Rotation.Rotate(other.Position)),
		Rotation: p.Rotation.Mul(other.Rotation),
	}
}

// Inverse 返回逆位姿，满足 p.Mul(p.Inverse()) == Identity
func (p Pose) Inverse() Pose {
	inv := p.Rotation.Inverse()
	return Pose{
		Position: inv.Rotate(p.Position.Mul(-1)),
		Rotation: inv,
	}
}

// TransformPoint 将局部坐标点变换到位姿所在的坐标系
func (p Pose) TransformPoint(local mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.Rotation.Rotate(local))
}

// EulerToQuat 欧拉角（度）转四元数
// 旋转顺序与 Unity 一致：先绕 Z，再绕 X，最后绕 Y（q = qY * qX * qZ）
func EulerToQuat(degrees mgl64.Vec3) mgl64.Quat {
	return mgl64.AnglesToQuat(
		mgl64.DegToRad(degrees.Y()),
		mgl64.DegToRad(degrees.X()),
		mgl64.DegToRad(degrees.Z()),
		mgl64.YXZ,
	)
}

// TRS 构建 平移 * 旋转 * 缩放 矩阵
func TRS(position mgl64.Vec3, rotation mgl64.Quat, scale mgl64.Vec3) mgl64.Mat4 {
	t := mgl64.Translate3D(position.X(), position.Y(), position.Z())
	s := mgl64.Scale3D(scale.X(), scale.Y(), scale.Z())
	return t.Mul4(rotation.Mat4()).Mul4(s)
}

// MultiplyPoint 用齐次矩阵变换一个点
func MultiplyPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}
