package systems

import (
	"testing"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type overlapEvent struct {
	enter    bool
	owner    ecs.EntityID
	collider ecs.EntityID
}

type recordingListener struct {
	events []overlapEvent
}

func (r *recordingListener) OnOverlapEnter(owner, collider ecs.EntityID) {
	r.events = append(r.events, overlapEvent{true, owner, collider})
}

func (r *recordingListener) OnOverlapExit(owner, collider ecs.EntityID) {
	r.events = append(r.events, overlapEvent{false, owner, collider})
}

func addBox(em *ecs.EntityManager, parent ecs.EntityID, pos mgl64.Vec3, trigger bool, layer int) (ecs.EntityID, *components.TransformComponent, *components.ColliderComponent) {
	id := em.CreateEntity()
	transform := components.NewTransformComponent(pos, mgl64.QuatIdent())
	collider := &components.ColliderComponent{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}, Enabled: true, IsTrigger: trigger, Layer: layer}
	em.AddComponent(id, transform)
	em.AddComponent(id, collider)
	if parent != ecs.InvalidEntity {
		em.AddComponent(id, &components.AttachmentComponent{Parent: parent, LocalPosition: pos, LocalRotation: mgl64.QuatIdent()})
	}
	return id, transform, collider
}

func TestOverlapEnterExit(t *testing.T) {
	em := ecs.NewEntityManager()
	listener := &recordingListener{}
	system := NewOverlapSystem(em, listener)

	hand := em.CreateEntity()
	_, volumeTransform, _ := addBox(em, hand, mgl64.Vec3{}, true, 8)
	box, _, _ := addBox(em, ecs.InvalidEntity, mgl64.Vec3{0.8, 0, 0}, false, 0)

	system.Update(0)
	system.Update(0)
	assert.Equal(t, []overlapEvent{{true, hand, box}}, listener.events, "持续重叠只通知一次")
	assert.Equal(t, 1, system.ActiveOverlaps())

	volumeTransform.Position = mgl64.Vec3{5, 0, 0}
	system.Update(0)
	assert.Equal(t, []overlapEvent{{true, hand, box}, {false, hand, box}}, listener.events)
	assert.Equal(t, 0, system.ActiveOverlaps())
}

func TestOverlapIgnoresSameLayerAndTriggerTargets(t *testing.T) {
	em := ecs.NewEntityManager()
	listener := &recordingListener{}
	system := NewOverlapSystem(em, listener)

	hand := em.CreateEntity()
	other := em.CreateEntity()
	addBox(em, hand, mgl64.Vec3{}, true, 8)
	addBox(em, other, mgl64.Vec3{}, true, 8)
	addBox(em, ecs.InvalidEntity, mgl64.Vec3{}, false, 8)

	system.Update(0)
	assert.Empty(t, listener.events)
}

func TestOverlapDisabledVolumeDropsPairsSilently(t *testing.T) {
	em := ecs.NewEntityManager()
	listener := &recordingListener{}
	system := NewOverlapSystem(em, listener)

	hand := em.CreateEntity()
	_, _, volume := addBox(em, hand, mgl64.Vec3{}, true, 8)
	box, _, boxCollider := addBox(em, ecs.InvalidEntity, mgl64.Vec3{}, false, 0)

	system.Update(0)
	volume.Enabled = false
	system.Update(0)
	assert.Len(t, listener.events, 1, "禁用触发体不发送离开事件")

	volume.Enabled = true
	system.Update(0)
	assert.Equal(t, overlapEvent{true, hand, box}, listener.events[1])

	// 碰撞体被禁用时，触发体仍启用，发送离开事件
	boxCollider.Enabled = false
	system.Update(0)
	assert.Equal(t, overlapEvent{false, hand, box}, listener.events[2])
}

func TestOverlapReentersAfterToggleWithinFrame(t *testing.T) {
	em := ecs.NewEntityManager()
	listener := &recordingListener{}
	system := NewOverlapSystem(em, listener)

	hand := em.CreateEntity()
	_, _, volume := addBox(em, hand, mgl64.Vec3{}, true, 8)
	box, boxTransform, _ := addBox(em, ecs.InvalidEntity, mgl64.Vec3{}, false, 0)

	system.Update(0)
	require.Len(t, listener.events, 1)

	// 两次检测之间关闭又开启，仍在重叠的对重新进入
	volume.SetEnabled(false)
	volume.SetEnabled(true)
	system.Update(0)
	require.Len(t, listener.events, 2)
	assert.Equal(t, overlapEvent{true, hand, box}, listener.events[1])

	system.Update(0)
	assert.Len(t, listener.events, 2, "没有切换时不重复发送")

	// 切换后已经不再重叠：不发送离开事件
	volume.SetEnabled(false)
	volume.SetEnabled(true)
	boxTransform.Position = mgl64.Vec3{5, 0, 0}
	system.Update(0)
	assert.Len(t, listener.events, 2)
	assert.Equal(t, 0, system.ActiveOverlaps())
}

func TestColliderSetEnabledCountsChanges(t *testing.T) {
	c := &components.ColliderComponent{Enabled: true}
	c.SetEnabled(true)
	assert.Equal(t, uint64(0), c.EnableCount)

	c.SetEnabled(false)
	c.SetEnabled(true)
	assert.True(t, c.Enabled)
	assert.Equal(t, uint64(2), c.EnableCount)
}
