package systems

import (
	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
)

var worldUp = mgl64.Vec3{0, 1, 0}

// TrailSystem 光剑拖尾
//
// 每帧对每个拖尾依次执行：采样当前位置 -> 淘汰过期采样并重建网格 -> 时间窗口向目标值渐变。
// 网格顶点位于拖尾实体的局部坐标系。
type TrailSystem struct {
	entityManager *ecs.EntityManager
	// now 系统时钟（秒），采样时间戳都取自它
	now float64
}

// NewTrailSystem 创建拖尾系统
func NewTrailSystem(em *ecs.EntityManager) *TrailSystem {
	return &TrailSystem{entityManager: em}
}

// Update 推进时钟并更新所有拖尾
func (s *TrailSystem) Update(deltaTime float64) {
	s.now += deltaTime

	for _, id := range ecs.GetEntitiesWith3[*components.TrailComponent, *components.TransformComponent, *components.MeshComponent](s.entityManager) {
		trail, _ := ecs.GetComponent[*components.TrailComponent](s.entityManager, id)
		transform, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		mesh, _ := ecs.GetComponent[*components.MeshComponent](s.entityManager, id)

		s.sample(trail, transform)
		s.rebuildMesh(trail, transform, mesh)
		trail.Window = utils.MoveTowards(trail.Window, trail.DesiredTime, deltaTime*trail.TimeTransitionSpeed)

		trail.LastVelocityPosition = transform.Position
	}
}

// ClearTrail 立即清空拖尾：时间窗口归零，队列和网格清空
func (s *TrailSystem) ClearTrail(id ecs.EntityID) {
	trail, ok := ecs.GetComponent[*components.TrailComponent](s.entityManager, id)
	if !ok {
		return
	}
	trail.DesiredTime = 0
	trail.Window = 0
	trail.Sections.Clear()
	if mesh, ok := ecs.GetComponent[*components.MeshComponent](s.entityManager, id); ok {
		mesh.Clear()
	}
}

// SetDesiredTime 设置目标时间窗口，实际窗口按 TimeTransitionSpeed 渐变过去
func (s *TrailSystem) SetDesiredTime(id ecs.EntityID, seconds float64) {
	if trail, ok := ecs.GetComponent[*components.TrailComponent](s.entityManager, id); ok {
		trail.DesiredTime = seconds
	}
}

// sample 根据移动速度决定是否提交新的采样点
//
// 低速：只记录待提交的采样点，窗口重置为 StartTime；如果停止前还欠一个采样点且离上一个
// 足够远则补上，补完后阈值切回 VelocityThreshold。
// 高速：队列为空或离上一个采样点超过 MinDistance 时，阈值切到 EndVelocityThreshold，
// 先提交待提交的采样点，再提交当前位置。
func (s *TrailSystem) sample(trail *components.TrailComponent, transform *components.TransformComponent) {
	pos := transform.Position
	section := components.TrailSection{
		Position: pos,
		Up:       transform.TransformDirection(worldUp),
		Time:     s.now,
	}
	minDistSq := trail.MinDistance * trail.MinDistance

	if pos.Sub(trail.LastVelocityPosition).LenSqr() < trail.InternalThreshold {
		trail.Window = trail.StartTime
		trail.Pending = section
		trail.HasPending = true
		trail.PendingUsed = false

		if trail.OneMore && trail.LastPosition.Sub(pos).LenSqr() > minDistSq {
			trail.Sections.Push(section)
			trail.LastPosition = pos
			trail.OneMore = false
		}
		if !trail.OneMore {
			trail.InternalThreshold = trail.VelocityThreshold
		}
		return
	}

	if trail.Sections.Len() == 0 || trail.LastPosition.Sub(pos).LenSqr() > minDistSq {
		trail.InternalThreshold = trail.EndVelocityThreshold
		if !trail.PendingUsed && trail.HasPending {
			trail.Sections.Push(trail.Pending)
		}
		trail.PendingUsed = true
		trail.OneMore = true

		trail.Sections.Push(section)
		trail.LastPosition = pos
	}
}

// rebuildMesh 淘汰超出时间窗口的采样点并整体重建条带网格
func (s *TrailSystem) rebuildMesh(trail *components.TrailComponent, transform *components.TransformComponent, mesh *components.MeshComponent) {
	mesh.Clear()

	for {
		front, ok := trail.Sections.Front()
		if !ok || s.now <= front.Time+trail.Window {
			break
		}
		trail.Sections.PopFront()
	}

	// 至少两个采样点才能连成条带
	n := trail.Sections.Len()
	if n < 2 {
		return
	}

	worldToLocal := transform.WorldToLocal()
	for i := 0; i < n; i++ {
		sec := trail.Sections.At(i)
		mesh.Vertices = append(mesh.Vertices,
			utils.MultiplyPoint(worldToLocal, sec.Position),
			utils.MultiplyPoint(worldToLocal, sec.Position.Add(sec.Up.Mul(trail.Height))),
		)
	}
	for t := 0; t < n-1; t++ {
		mesh.Triangles = append(mesh.Triangles,
			t*2, t*2+1, t*2+2,
			t*2+2, t*2+1, t*2+3,
		)
	}
}
