package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB 轴对齐包围盒（世界坐标）
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// BoundsFromBox 计算有向盒子（中心位姿 + 半尺寸）在世界坐标下的轴对齐包围盒
// 与物理引擎的 collider.bounds 一致：旋转后的盒子取外接 AABB
func BoundsFromBox(center Pose, halfExtents mgl64.Vec3) AABB {
	rot := center.Rotation.Mat4().Mat3()
	var ext mgl64.Vec3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			ext[row] += math.Abs(rot.At(row, col)) * halfExtents[col]
		}
	}
	return AABB{
		Min: center.Position.Sub(ext),
		Max: center.Position.Add(ext),
	}
}

// ClosestPoint 返回包围盒上（或内部）距离 p 最近的点；p 在盒内时返回 p 本身
func (b AABB) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := 0; i < 3; i++ {
		out[i] = Clamp(p[i], b.Min[i], b.Max[i])
	}
	return out
}

// SqrDistance 返回 p 到包围盒的平方距离
func (b AABB) SqrDistance(p mgl64.Vec3) float64 {
	return p.Sub(b.ClosestPoint(p)).LenSqr()
}

// Intersects 判断两个包围盒是否相交（接触也算相交）
func (b AABB) Intersects(other AABB) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < other.Min[i] || other.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// Center 返回包围盒中心
func (b AABB) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}
