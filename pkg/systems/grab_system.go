package systems

import (
	"math"
	"sort"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/input"
	"github.com/decker502/saber/pkg/logger"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// ColliderOwners 把抓取点碰撞体解析为所属的可抓取物体
type ColliderOwners interface {
	Owner(collider ecs.EntityID) (ecs.EntityID, bool)
}

// GrabSystem 双手抓取/松手
//
// 每帧在追踪装置的锚点更新回调中运行，对每只手依次：
//  1. 让手和手中物体跟随锚点
//  2. 读取扳机值，按回差阈值做边沿检测
//  3. 抓取时在所有候选物体的所有抓取点中选最近的一个；松手时计算抛出速度
//
// 物体与手之间只保存实体ID，互不拥有。
type GrabSystem struct {
	entityManager *ecs.EntityManager
	owners        ColliderOwners
	source        input.PoseSource
	log           *zap.Logger
}

// NewGrabSystem 创建抓取系统并注册到追踪装置的锚点更新通知
//
// 参数:
//   - em: 实体管理器
//   - owners: 碰撞体注册表，用于解析重叠回调中的碰撞体
//   - rig: 追踪装置，提供输入来源和每帧一次的锚点更新通知
func NewGrabSystem(em *ecs.EntityManager, owners ColliderOwners, rig *input.CameraRig) *GrabSystem {
	s := &GrabSystem{
		entityManager: em,
		owners:        owners,
		source:        rig.Source(),
		log:           logger.Named("GrabSystem"),
	}
	rig.OnAnchorsUpdated(s.OnAnchorsUpdated)
	return s
}

// OnOverlapEnter 手的触发体进入某个碰撞体
// 碰撞体不属于任何可抓取物体时忽略
func (s *GrabSystem) OnOverlapEnter(grabber, collider ecs.EntityID) {
	owner, ok := s.owners.Owner(collider)
	if !ok {
		return
	}
	s.AddCandidate(grabber, owner)
}

// OnOverlapExit 手的触发体离开某个碰撞体
func (s *GrabSystem) OnOverlapExit(grabber, collider ecs.EntityID) {
	owner, ok := s.owners.Owner(collider)
	if !ok {
		return
	}
	s.RemoveCandidate(grabber, owner)
}

// AddCandidate 候选物体引用计数加一
func (s *GrabSystem) AddCandidate(grabber, grabbable ecs.EntityID) {
	g, ok := ecs.GetComponent[*components.GrabberComponent](s.entityManager, grabber)
	if !ok {
		return
	}
	if g.Candidates == nil {
		g.Candidates = make(map[ecs.EntityID]int)
	}
	g.Candidates[grabbable]++
}

// RemoveCandidate 候选物体引用计数减一，归零时移除；未记录的物体忽略
func (s *GrabSystem) RemoveCandidate(grabber, grabbable ecs.EntityID) {
	g, ok := ecs.GetComponent[*components.GrabberComponent](s.entityManager, grabber)
	if !ok {
		return
	}
	count, found := g.Candidates[grabbable]
	if !found {
		return
	}
	if count > 1 {
		g.Candidates[grabbable] = count - 1
	} else {
		delete(g.Candidates, grabbable)
	}
}

// GrabbedObject 返回手中的物体，空手时返回 InvalidEntity
func (s *GrabSystem) GrabbedObject(grabber ecs.EntityID) ecs.EntityID {
	g, ok := ecs.GetComponent[*components.GrabberComponent](s.entityManager, grabber)
	if !ok {
		return ecs.InvalidEntity
	}
	return g.Held
}

// ForceRelease 如果手中正是该物体，立即松手（按当前手柄速度抛出）
func (s *GrabSystem) ForceRelease(grabber, grabbable ecs.EntityID) {
	g, ok := ecs.GetComponent[*components.GrabberComponent](s.entityManager, grabber)
	if !ok || grabbable == ecs.InvalidEntity || g.Held != grabbable {
		return
	}
	s.grabEnd(grabber, g)
}

// DestroyGrabber 销毁抓取手及其触发体，手中物体以零速度释放
func (s *GrabSystem) DestroyGrabber(grabber ecs.EntityID) {
	g, ok := ecs.GetComponent[*components.GrabberComponent](s.entityManager, grabber)
	if !ok {
		return
	}
	if g.IsHolding() {
		s.log.Debug("抓取手销毁，释放物体", zap.Uint64("grabber", uint64(grabber)), zap.Uint64("object", uint64(g.Held)))
		s.release(g, mgl64.Vec3{}, mgl64.Vec3{})
	}
	for _, v := range g.GrabVolumes {
		s.entityManager.DestroyEntity(v)
	}
	s.entityManager.DestroyEntity(grabber)
}

// ForgetGrabbable 物体被场景销毁前调用：从所有手的候选中移除，握着它的手回到空闲
func (s *GrabSystem) ForgetGrabbable(grabbable ecs.EntityID) {
	for _, id := range ecs.GetEntitiesWith1[*components.GrabberComponent](s.entityManager) {
		g, _ := ecs.GetComponent[*components.GrabberComponent](s.entityManager, id)
		delete(g.Candidates, grabbable)
		if g.Held == grabbable {
			g.Held = ecs.InvalidEntity
			s.finishRelease(id, g)
		}
	}
}

// OnAnchorsUpdated 锚点更新回调，按实体ID顺序处理每只手
func (s *GrabSystem) OnAnchorsUpdated() {
	for _, id := range ecs.GetEntitiesWith2[*components.GrabberComponent, *components.TransformComponent](s.entityManager) {
		s.updateGrabber(id)
	}
}

func (s *GrabSystem) updateGrabber(id ecs.EntityID) {
	g, _ := ecs.GetComponent[*components.GrabberComponent](s.entityManager, id)
	transform, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)

	hand := s.source.AnchorPose(g.Controller).Mul(g.MountOffset)
	transform.SetPose(hand)
	anchor := hand.Mul(g.GrabPointOffset)

	s.moveGrabbedObject(g, anchor)

	prev := g.PreviousTrigger
	cur := s.source.TriggerValue(g.Controller)
	g.PreviousTrigger = cur

	if g.State == components.GrabStateIdle && cur >= g.GrabBeginThreshold && prev < g.GrabBeginThreshold {
		s.grabBegin(id, g, anchor)
	} else if g.State == components.GrabStateHolding && cur <= g.GrabEndThreshold && prev > g.GrabEndThreshold {
		s.grabEnd(id, g)
	}
}

// grabBegin 选出最近的抓取点并抓起物体
func (s *GrabSystem) grabBegin(id ecs.EntityID, g *components.GrabberComponent, anchor utils.Pose) {
	target, collider, rotation, found := s.closestGrabPoint(g, anchor.Position)

	if found {
		if grabbable, ok := ecs.GetComponent[*components.GrabbableComponent](s.entityManager, target); ok &&
			grabbable.IsGrabbed() && grabbable.Holder != id {
			s.offhandGrabbed(grabbable.Holder, target)
		}
	}

	g.State = components.GrabStateHolding
	s.setGrabVolumesEnabled(g, false)

	if !found {
		s.log.Debug("没有可抓取的候选物体", zap.Uint64("grabber", uint64(id)))
		return
	}

	grabbable, ok := ecs.GetComponent[*components.GrabbableComponent](s.entityManager, target)
	if !ok {
		return
	}
	rb, _ := ecs.GetComponent[*components.RigidbodyComponent](s.entityManager, target)

	g.Held = target
	s.setLayer(target, grabbable, g.HeldLayer)
	grabbable.GrabBegin(id, collider, rotation, rb)

	g.PosOffset = s.localPosition(collider).Mul(-1)
	g.RotOffset = utils.EulerToQuat(rotation)

	s.moveGrabbedObject(g, anchor)

	if g.HideOnGrab {
		s.setRenderersVisible(id, false)
	}

	s.log.Debug("抓起物体",
		zap.Uint64("grabber", uint64(id)),
		zap.Stringer("controller", g.Controller),
		zap.Uint64("object", uint64(target)),
		zap.Uint64("grabPoint", uint64(collider)),
	)
}

// closestGrabPoint 在所有候选物体的所有抓取点中找距离锚点最近的一个
// 距离相同时保留先遍历到的；候选按实体ID升序遍历
func (s *GrabSystem) closestGrabPoint(g *components.GrabberComponent, anchor mgl64.Vec3) (ecs.EntityID, ecs.EntityID, mgl64.Vec3, bool) {
	candidates := make([]ecs.EntityID, 0, len(g.Candidates))
	for id := range g.Candidates {
		candidates = append(candidates, id)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	closest := math.MaxFloat64
	var (
		target   ecs.EntityID
		collider ecs.EntityID
		rotation mgl64.Vec3
		found    bool
	)
	for _, id := range candidates {
		grabbable, ok := ecs.GetComponent[*components.GrabbableComponent](s.entityManager, id)
		if !ok {
			continue
		}
		for j, point := range grabbable.GrabPoints {
			bounds, ok := s.colliderBounds(point)
			if !ok {
				continue
			}
			d := bounds.SqrDistance(anchor)
			if d < closest {
				closest = d
				target = id
				collider = point
				rotation = grabbable.GrabRotations[j]
				found = true
			}
		}
	}
	return target, collider, rotation, found
}

func (s *GrabSystem) colliderBounds(collider ecs.EntityID) (utils.AABB, bool) {
	transform, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, collider)
	if !ok {
		return utils.AABB{}, false
	}
	var half mgl64.Vec3
	if c, ok := ecs.GetComponent[*components.ColliderComponent](s.entityManager, collider); ok {
		half = c.HalfExtents
	}
	return utils.BoundsFromBox(transform.Pose(), half), true
}

// localPosition 抓取点相对物体的局部位置
func (s *GrabSystem) localPosition(collider ecs.EntityID) mgl64.Vec3 {
	if attach, ok := ecs.GetComponent[*components.AttachmentComponent](s.entityManager, collider); ok {
		return attach.LocalPosition
	}
	return mgl64.Vec3{}
}

// moveGrabbedObject 手中物体跟随锚点；朝向直接取锚点朝向，不叠加 RotOffset
func (s *GrabSystem) moveGrabbedObject(g *components.GrabberComponent, anchor utils.Pose) {
	if !g.IsHolding() {
		return
	}
	transform, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, g.Held)
	if !ok {
		return
	}
	transform.Position = anchor.Position.Add(anchor.Rotation.Rotate(g.PosOffset))
	transform.Rotation = anchor.Rotation
}

// grabEnd 扳机松开：按手柄速度抛出手中物体，然后恢复触发体和显示
func (s *GrabSystem) grabEnd(id ecs.EntityID, g *components.GrabberComponent) {
	if g.IsHolding() {
		linear, angular := s.releaseVelocity(id, g)
		s.log.Debug("松手",
			zap.Uint64("grabber", uint64(id)),
			zap.Uint64("object", uint64(g.Held)),
			zap.Float64("speed", linear.Len()),
		)
		s.release(g, linear, angular)
	}
	s.finishRelease(id, g)
}

// releaseVelocity 把手柄局部速度变换到追踪空间
//
//	localPose     = 手柄局部位姿 * 手的安装偏移
//	trackingSpace = 手的世界位姿 * localPose⁻¹
func (s *GrabSystem) releaseVelocity(id ecs.EntityID, g *components.GrabberComponent) (mgl64.Vec3, mgl64.Vec3) {
	hand := utils.IdentityPose()
	if transform, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id); ok {
		hand = transform.Pose()
	}
	localPose := s.source.LocalControllerPose(g.Controller).Mul(g.MountOffset)
	trackingSpace := hand.Mul(localPose.Inverse())

	linear := trackingSpace.Rotation.Rotate(s.source.LocalVelocity(g.Controller))
	angular := trackingSpace.Rotation.Rotate(s.source.LocalAngularVelocity(g.Controller))
	return linear, angular
}

// release 恢复物体的层和刚体状态，写入速度并清空手中物体
func (s *GrabSystem) release(g *components.GrabberComponent, linear, angular mgl64.Vec3) {
	held := g.Held
	g.Held = ecs.InvalidEntity

	grabbable, ok := ecs.GetComponent[*components.GrabbableComponent](s.entityManager, held)
	if !ok {
		return
	}
	rb, _ := ecs.GetComponent[*components.RigidbodyComponent](s.entityManager, held)
	s.setLayer(held, grabbable, grabbable.DefaultLayer)
	grabbable.GrabEnd(linear, angular, rb)
}

// finishRelease 回到空闲：重新启用触发体并显示手
func (s *GrabSystem) finishRelease(id ecs.EntityID, g *components.GrabberComponent) {
	g.State = components.GrabStateIdle
	s.setGrabVolumesEnabled(g, true)
	s.setRenderersVisible(id, true)
}

// offhandGrabbed 另一只手抢走物体：原来的手以零速度释放
func (s *GrabSystem) offhandGrabbed(holder, grabbable ecs.EntityID) {
	g, ok := ecs.GetComponent[*components.GrabberComponent](s.entityManager, holder)
	if !ok || g.Held != grabbable {
		return
	}
	s.log.Debug("物体被另一只手抢走", zap.Uint64("from", uint64(holder)), zap.Uint64("object", uint64(grabbable)))
	s.release(g, mgl64.Vec3{}, mgl64.Vec3{})
	s.finishRelease(holder, g)
}

// setGrabVolumesEnabled 启用/禁用手的触发体，状态变化时清空候选
func (s *GrabSystem) setGrabVolumesEnabled(g *components.GrabberComponent, enabled bool) {
	if g.GrabVolumeEnabled == enabled {
		return
	}
	g.GrabVolumeEnabled = enabled
	for _, v := range g.GrabVolumes {
		if c, ok := ecs.GetComponent[*components.ColliderComponent](s.entityManager, v); ok {
			c.SetEnabled(enabled)
		}
	}
	for id := range g.Candidates {
		delete(g.Candidates, id)
	}
}

// setLayer 设置物体及其所有抓取点的层
func (s *GrabSystem) setLayer(id ecs.EntityID, grabbable *components.GrabbableComponent, layer int) {
	if l, ok := ecs.GetComponent[*components.LayerComponent](s.entityManager, id); ok {
		l.Layer = layer
	}
	for _, point := range grabbable.GrabPoints {
		if c, ok := ecs.GetComponent[*components.ColliderComponent](s.entityManager, point); ok {
			c.Layer = layer
		}
	}
}

// setRenderersVisible 切换手及其挂接子节点的可见性，只在状态变化时写入
func (s *GrabSystem) setRenderersVisible(id ecs.EntityID, visible bool) {
	apply := func(entity ecs.EntityID) {
		if r, ok := ecs.GetComponent[*components.RendererComponent](s.entityManager, entity); ok && r.Visible != visible {
			r.Visible = visible
		}
	}

	apply(id)
	for _, child := range ecs.GetEntitiesWith2[*components.AttachmentComponent, *components.RendererComponent](s.entityManager) {
		if attach, _ := ecs.GetComponent[*components.AttachmentComponent](s.entityManager, child); attach.Parent == id {
			apply(child)
		}
	}
}
