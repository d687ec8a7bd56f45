package systems

import (
	"testing"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/config"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/entities"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrail(t *testing.T, em *ecs.EntityManager, cfg config.TrailConfig) (ecs.EntityID, *components.TrailComponent, *components.TransformComponent, *components.MeshComponent) {
	t.Helper()
	id := entities.NewTrailEntity(em, ecs.InvalidEntity, utils.IdentityPose(), cfg)
	trail, ok := ecs.GetComponent[*components.TrailComponent](em, id)
	require.True(t, ok)
	transform, _ := ecs.GetComponent[*components.TransformComponent](em, id)
	mesh, _ := ecs.GetComponent[*components.MeshComponent](em, id)
	return id, trail, transform, mesh
}

func TestTrailWindowRampExactSteps(t *testing.T) {
	em := ecs.NewEntityManager()
	_, trail, _, _ := newTrail(t, em, config.TrailConfig{
		Height: 2, MinDistance: 0.1, TimeTransitionSpeed: 1, StartTime: 10, DesiredTime: 2,
	})
	system := NewTrailSystem(em)

	prev := trail.Window
	assert.Equal(t, 10.0, prev)
	for i := 0; i < 32; i++ {
		system.Update(0.25)
		assert.LessOrEqual(t, trail.Window, prev, "单调递减")
		assert.GreaterOrEqual(t, trail.Window, 2.0, "不会越过目标值")
		prev = trail.Window
	}
	assert.Equal(t, 2.0, trail.Window)
}

func TestTrailWindowRampAtFrameRate(t *testing.T) {
	em := ecs.NewEntityManager()
	_, trail, _, _ := newTrail(t, em, config.TrailConfig{
		Height: 2, MinDistance: 0.1, TimeTransitionSpeed: 1, StartTime: 10, DesiredTime: 2,
	})
	system := NewTrailSystem(em)

	for i := 0; i < 8*60; i++ {
		system.Update(1.0 / 60)
		require.GreaterOrEqual(t, trail.Window, 2.0)
	}
	assert.InDelta(t, 2.0, trail.Window, 1e-9)

	// 已到达目标后保持不变
	system.Update(1)
	assert.Equal(t, 2.0, trail.Window)
}

func TestTrailWindowRampsUp(t *testing.T) {
	em := ecs.NewEntityManager()
	id, trail, _, _ := newTrail(t, em, config.TrailConfig{TimeTransitionSpeed: 2, StartTime: 1, DesiredTime: 1})
	system := NewTrailSystem(em)

	system.SetDesiredTime(id, 3)
	system.Update(0.5)
	assert.Equal(t, 2.0, trail.Window)
	system.Update(0.75)
	assert.Equal(t, 3.0, trail.Window)
}

func TestTrailMeshFromThreeSections(t *testing.T) {
	em := ecs.NewEntityManager()
	_, trail, transform, mesh := newTrail(t, em, config.TrailConfig{
		Height: 2, MinDistance: 0.1, TimeTransitionSpeed: 1, StartTime: 10, DesiredTime: 10,
	})
	system := NewTrailSystem(em)

	for i := 0; i < 3; i++ {
		transform.Position = mgl64.Vec3{float64(i), 0, 0}
		system.Update(0.1)
	}
	require.Equal(t, 3, trail.Sections.Len())

	// 拖尾实体停在 (2,0,0)，顶点在它的局部坐标系里
	assert.Len(t, mesh.Vertices, 6)
	assert.Equal(t, []int{0, 1, 2, 2, 1, 3, 2, 3, 4, 4, 3, 5}, mesh.Triangles)
	assert.True(t, mesh.Vertices[0].ApproxEqualThreshold(mgl64.Vec3{-2, 0, 0}, 1e-9), "got %v", mesh.Vertices[0])
	assert.True(t, mesh.Vertices[1].ApproxEqualThreshold(mgl64.Vec3{-2, 2, 0}, 1e-9), "got %v", mesh.Vertices[1])
	assert.True(t, mesh.Vertices[5].ApproxEqualThreshold(mgl64.Vec3{0, 2, 0}, 1e-9), "got %v", mesh.Vertices[5])
}

func TestTrailSkipsSamplesCloserThanMinDistance(t *testing.T) {
	em := ecs.NewEntityManager()
	_, trail, transform, mesh := newTrail(t, em, config.TrailConfig{
		Height: 1, MinDistance: 0.5, StartTime: 10, DesiredTime: 10,
	})
	system := NewTrailSystem(em)

	for _, x := range []float64{0, 0.1, 0.2, 0.3} {
		transform.Position = mgl64.Vec3{x, 0, 0}
		system.Update(0.1)
	}
	assert.Equal(t, 1, trail.Sections.Len())
	assert.True(t, mesh.Empty(), "少于两个采样点不生成几何体")

	transform.Position = mgl64.Vec3{0.6, 0, 0}
	system.Update(0.1)
	assert.Equal(t, 2, trail.Sections.Len())
	assert.Len(t, mesh.Triangles, 6)
}

func TestTrailEvictsSectionsOutsideWindow(t *testing.T) {
	em := ecs.NewEntityManager()
	_, trail, transform, mesh := newTrail(t, em, config.TrailConfig{
		Height: 1, MinDistance: 0.1, StartTime: 1, DesiredTime: 1,
	})
	system := NewTrailSystem(em)

	for i := 0; i < 3; i++ {
		transform.Position = mgl64.Vec3{float64(i), 0, 0}
		system.Update(0.5)
	}
	require.Equal(t, 3, trail.Sections.Len())
	for i := 1; i < trail.Sections.Len(); i++ {
		assert.LessOrEqual(t, trail.Sections.At(i-1).Time, trail.Sections.At(i).Time)
	}

	// 停止移动后，旧采样点逐个超出 1 秒窗口
	system.Update(0.3)
	assert.Equal(t, 2, trail.Sections.Len())
	assert.Len(t, mesh.Vertices, 4)

	system.Update(1)
	assert.Equal(t, 0, trail.Sections.Len())
	assert.True(t, mesh.Empty())
}

func TestClearTrail(t *testing.T) {
	em := ecs.NewEntityManager()
	id, trail, transform, mesh := newTrail(t, em, config.DefaultInteractionConfig().Trail)
	system := NewTrailSystem(em)

	for i := 0; i < 5; i++ {
		transform.Position = mgl64.Vec3{float64(i), 0, 0}
		system.Update(0.1)
	}
	require.False(t, mesh.Empty())

	system.ClearTrail(id)
	assert.Equal(t, 0, trail.Sections.Len())
	assert.True(t, mesh.Empty())
	assert.Equal(t, 0.0, trail.Window)
	assert.Equal(t, 0.0, trail.DesiredTime)

	// 下一帧无论如何都不生成几何体
	transform.Position = mgl64.Vec3{10, 0, 0}
	system.Update(0.1)
	assert.True(t, mesh.Empty())
}

func TestTrailVelocityThresholdAddsClosingSection(t *testing.T) {
	em := ecs.NewEntityManager()
	_, trail, transform, _ := newTrail(t, em, config.TrailConfig{
		Height: 1, MinDistance: 0.1, StartTime: 10, DesiredTime: 10,
		VelocityThreshold: 0.01, EndVelocityThreshold: 0.0001,
	})
	system := NewTrailSystem(em)

	// 快速移动：每帧 0.5
	for i := 0; i < 3; i++ {
		transform.Position = mgl64.Vec3{float64(i) * 0.5, 0, 0}
		system.Update(0.1)
	}
	require.Equal(t, 3, trail.Sections.Len())
	assert.True(t, trail.OneMore)
	assert.Equal(t, 0.0001, trail.InternalThreshold)

	// 位移平方 0.0009 高于结束阈值，仍按移动处理，但离上一个采样点不足 MinDistance
	transform.Position = transform.Position.Add(mgl64.Vec3{0.03, 0, 0})
	system.Update(0.1)
	assert.Equal(t, 3, trail.Sections.Len())

	// 几乎停止：位移平方低于阈值，离上一个采样点已超过 MinDistance，补一个收尾采样点
	last := trail.LastPosition
	for i := 0; i < 20 && trail.OneMore; i++ {
		transform.Position = transform.Position.Add(mgl64.Vec3{0.009, 0, 0})
		system.Update(0.1)
	}
	assert.False(t, trail.OneMore)
	assert.Equal(t, 4, trail.Sections.Len())
	assert.NotEqual(t, last, trail.LastPosition)
	assert.Equal(t, 0.01, trail.InternalThreshold, "收尾后切回起始阈值")
	assert.Equal(t, 10.0, trail.Window)
}

func TestTrailStopResetsWindowToStartTime(t *testing.T) {
	em := ecs.NewEntityManager()
	_, trail, transform, _ := newTrail(t, em, config.TrailConfig{
		Height: 1, MinDistance: 0.1, TimeTransitionSpeed: 2, StartTime: 5, DesiredTime: 1,
		VelocityThreshold: 0.01, EndVelocityThreshold: 0.0001,
	})
	system := NewTrailSystem(em)

	// 移动期间窗口每帧向目标值渐变 0.2
	for i := 1; i <= 10; i++ {
		transform.Position = mgl64.Vec3{float64(i) * 0.5, 0, 0}
		system.Update(0.1)
	}
	require.InDelta(t, 3.0, trail.Window, 1e-9)

	// 停下的那一帧窗口先回到 StartTime，再渐变一步
	system.Update(0.1)
	assert.InDelta(t, 4.8, trail.Window, 1e-9)

	system.Update(0.1)
	assert.InDelta(t, 4.8, trail.Window, 1e-9, "静止期间每帧都重置")
}

func TestTrailFirstMovingFrameQueuesOnlyCurrentSection(t *testing.T) {
	em := ecs.NewEntityManager()
	_, trail, transform, _ := newTrail(t, em, config.TrailConfig{
		Height: 1, MinDistance: 0.1, StartTime: 10, DesiredTime: 10,
		VelocityThreshold: 0.01, EndVelocityThreshold: 0.0001,
	})
	system := NewTrailSystem(em)

	// 还没有静止过，没有待提交的采样点，不会补一个原点处的空采样
	transform.Position = mgl64.Vec3{3, 0, 0}
	system.Update(0.1)

	require.Equal(t, 1, trail.Sections.Len())
	front, _ := trail.Sections.Front()
	assert.Equal(t, mgl64.Vec3{3, 0, 0}, front.Position)
	assert.InDelta(t, 0.1, front.Time, 1e-12)
}
