package systems

import (
	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/ecs"
)

// HierarchySystem 根据父节点计算挂接子节点的世界变换
//
// 子节点世界位姿 = 父节点世界位姿 * 局部位姿。多级挂接（灯光挂在刀身上，刀身挂在剑柄上）
// 先解析父节点再解析子节点。父节点不存在时保持子节点的上一次结果。
// 缩放不沿层级传递。
type HierarchySystem struct {
	entityManager *ecs.EntityManager
	resolved      map[ecs.EntityID]bool
}

// NewHierarchySystem 创建层级系统
func NewHierarchySystem(em *ecs.EntityManager) *HierarchySystem {
	return &HierarchySystem{
		entityManager: em,
		resolved:      make(map[ecs.EntityID]bool),
	}
}

// Update 刷新所有挂接实体的世界变换
func (s *HierarchySystem) Update(deltaTime float64) {
	for id := range s.resolved {
		delete(s.resolved, id)
	}

	for _, id := range ecs.GetEntitiesWith2[*components.AttachmentComponent, *components.TransformComponent](s.entityManager) {
		s.resolve(id, 0)
	}
}

// resolve 计算单个实体的世界变换，depth 防止环状挂接导致无限递归
func (s *HierarchySystem) resolve(id ecs.EntityID, depth int) {
	if s.resolved[id] || depth > maxHierarchyDepth {
		return
	}
	s.resolved[id] = true

	attach, ok := ecs.GetComponent[*components.AttachmentComponent](s.entityManager, id)
	if !ok {
		return
	}
	transform, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
	if !ok {
		return
	}

	if ecs.HasComponent[*components.AttachmentComponent](s.entityManager, attach.Parent) {
		s.resolve(attach.Parent, depth+1)
	}
	parent, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, attach.Parent)
	if !ok {
		return
	}

	transform.SetPose(parent.Pose().Mul(attach.LocalPose()))
}

const maxHierarchyDepth = 32
