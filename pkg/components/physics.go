package components

import "github.com/go-gl/mathgl/mgl64"

// RigidbodyComponent 刚体状态
// 本项目不做物理模拟，只记录运动学标记和松手时写入的速度，交给外部物理引擎
type RigidbodyComponent struct {
	IsKinematic     bool
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// LayerComponent 实体所在的碰撞层
type LayerComponent struct {
	Layer int
}

// ColliderComponent 盒形碰撞体
// 世界位姿取自同一实体的 TransformComponent，通常通过 AttachmentComponent 挂在物体或手上
type ColliderComponent struct {
	HalfExtents mgl64.Vec3
	Enabled     bool
	IsTrigger   bool // 触发体（手的抓取检测范围）
	Layer       int
	// EnableCount 每次启用/禁用切换时递增，重叠检测据此发现同一帧内的关闭再开启
	EnableCount uint64
}

// SetEnabled 切换启用状态，状态变化时递增 EnableCount
func (c *ColliderComponent) SetEnabled(enabled bool) {
	if c.Enabled == enabled {
		return
	}
	c.Enabled = enabled
	c.EnableCount++
}
