package components

import (
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/input"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
)

// GrabbableComponent 可被抓取的物体
//
// 不变式：
//   - Holder != 0 当且仅当物体正被抓取
//   - len(GrabPoints) == len(GrabRotations)，且至少有一项
type GrabbableComponent struct {
	// GrabPoints 抓取点碰撞体实体，按顺序与 GrabRotations 一一对应
	GrabPoints []ecs.EntityID
	// GrabRotations 每个抓取点的朝向偏移（欧拉角，度）
	GrabRotations []mgl64.Vec3

	// Holder 当前抓住物体的手；只是ID引用，不表示所有权
	Holder ecs.EntityID
	// HeldCollider/HeldRotationOffset 抓取开始时写入，松手时清空
	HeldCollider       ecs.EntityID
	HeldRotationOffset mgl64.Vec3

	// DefaultLayer 创建时的层，松手时恢复
	DefaultLayer int
	// DefaultKinematic 创建时刚体的运动学标记，松手时恢复
	DefaultKinematic bool
}

// IsGrabbed 物体是否正被抓取
func (g *GrabbableComponent) IsGrabbed() bool {
	return g.Holder != ecs.InvalidEntity
}

// GrabBegin 记录抓取者和抓取点，刚体切换为运动学
// 只能由 GrabSystem 调用
func (g *GrabbableComponent) GrabBegin(holder, collider ecs.EntityID, rotation mgl64.Vec3, rb *RigidbodyComponent) {
	g.Holder = holder
	g.HeldCollider = collider
	g.HeldRotationOffset = rotation
	if rb != nil {
		rb.IsKinematic = true
	}
}

// GrabEnd 恢复刚体的运动学标记，写入松手速度，并清空抓取状态
func (g *GrabbableComponent) GrabEnd(linear, angular mgl64.Vec3, rb *RigidbodyComponent) {
	if rb != nil {
		rb.IsKinematic = g.DefaultKinematic
		rb.Velocity = linear
		rb.AngularVelocity = angular
	}
	g.Holder = ecs.InvalidEntity
	g.HeldCollider = ecs.InvalidEntity
	g.HeldRotationOffset = mgl64.Vec3{}
}

// GrabState 抓取手的状态
type GrabState int

const (
	GrabStateIdle    GrabState = iota // 空闲
	GrabStateHolding                  // 握持中（可能没有抓到物体）
)

// String 返回状态名称
func (s GrabState) String() string {
	if s == GrabStateHolding {
		return "Holding"
	}
	return "Idle"
}

// GrabberComponent 一只追踪手
type GrabberComponent struct {
	Controller input.Controller
	State      GrabState

	// 扳机回差阈值
	GrabBeginThreshold float64
	GrabEndThreshold   float64
	HideOnGrab         bool

	// MountOffset 手相对手柄锚点的局部位姿
	MountOffset utils.Pose
	// GrabPointOffset 抓取锚点相对手的局部位姿，被抓物体吸附到该点，也用于候选排序
	GrabPointOffset utils.Pose

	// GrabVolumes 手的抓取检测触发体
	GrabVolumes       []ecs.EntityID
	GrabVolumeEnabled bool

	// HeldLayer 被抓物体在抓取期间切换到的层
	HeldLayer int

	// Candidates 正在重叠的可抓物体 -> 重叠计数（>=1，归零即删除）
	Candidates map[ecs.EntityID]int
	// Held 当前抓住的物体，0 表示空手
	Held ecs.EntityID
	// PreviousTrigger 上一帧扳机值，用于边沿检测
	PreviousTrigger float64

	// 抓取时计算的跟随偏移
	PosOffset mgl64.Vec3
	// RotOffset 抓取点朝向偏移；目前跟随时不使用，保留字段
	RotOffset mgl64.Quat
}

// IsHolding 手中是否有物体
func (g *GrabberComponent) IsHolding() bool {
	return g.Held != ecs.InvalidEntity
}
