package systems

import (
	"sort"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/utils"
)

// OverlapListener 接收触发体重叠事件
// owner 是触发体挂接的父实体（抓取手），collider 是被重叠的碰撞体
type OverlapListener interface {
	OnOverlapEnter(owner, collider ecs.EntityID)
	OnOverlapExit(owner, collider ecs.EntityID)
}

// overlapPair 一对正在重叠的触发体和碰撞体
type overlapPair struct {
	volume   ecs.EntityID
	collider ecs.EntityID
}

// OverlapSystem 检测触发体与碰撞体的重叠，并在进入/离开时通知监听者
//
// 触发体（IsTrigger）与非触发碰撞体做世界 AABB 相交测试。与触发体同层的碰撞体不参与检测。
// 触发体被禁用时，它参与的重叠对直接丢弃，不发送离开事件；重新启用后重新发送进入事件。
// 同一帧内关闭又开启的触发体通过 EnableCount 识别，仍在重叠的对会重新进入。
type OverlapSystem struct {
	entityManager *ecs.EntityManager
	listener      OverlapListener
	// active 重叠对 -> 记录时触发体的 EnableCount
	active map[overlapPair]uint64
}

// NewOverlapSystem 创建重叠检测系统
func NewOverlapSystem(em *ecs.EntityManager, listener OverlapListener) *OverlapSystem {
	return &OverlapSystem{
		entityManager: em,
		listener:      listener,
		active:        make(map[overlapPair]uint64),
	}
}

// ActiveOverlaps 当前重叠对数量
func (s *OverlapSystem) ActiveOverlaps() int {
	return len(s.active)
}

// Update 计算本帧重叠并派发事件
func (s *OverlapSystem) Update(deltaTime float64) {
	type box struct {
		id          ecs.EntityID
		layer       int
		bounds      utils.AABB
		enableCount uint64
	}

	var volumes, targets []box
	for _, id := range ecs.GetEntitiesWith2[*components.ColliderComponent, *components.TransformComponent](s.entityManager) {
		collider, _ := ecs.GetComponent[*components.ColliderComponent](s.entityManager, id)
		if !collider.Enabled {
			continue
		}
		transform, _ := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
		b := box{
			id:          id,
			layer:       collider.Layer,
			bounds:      utils.BoundsFromBox(transform.Pose(), collider.HalfExtents),
			enableCount: collider.EnableCount,
		}
		if collider.IsTrigger {
			// 没有挂接的触发体找不到所属的手
			if !ecs.HasComponent[*components.AttachmentComponent](s.entityManager, id) {
				continue
			}
			volumes = append(volumes, b)
		} else {
			targets = append(targets, b)
		}
	}

	current := make(map[overlapPair]uint64)
	var entered []overlapPair
	for _, v := range volumes {
		for _, t := range targets {
			if t.layer == v.layer || !v.bounds.Intersects(t.bounds) {
				continue
			}
			p := overlapPair{volume: v.id, collider: t.id}
			current[p] = v.enableCount
			if count, ok := s.active[p]; !ok || count != v.enableCount {
				entered = append(entered, p)
			}
		}
	}

	var exited []overlapPair
	for p, count := range s.active {
		if _, ok := current[p]; ok {
			continue
		}
		if s.volumeUnchanged(p.volume, count) {
			exited = append(exited, p)
		}
	}
	sortPairs(exited)

	s.active = current

	for _, p := range exited {
		s.dispatch(p, false)
	}
	for _, p := range entered {
		s.dispatch(p, true)
	}
}

// volumeUnchanged 触发体仍存在、处于启用状态，且记录重叠后没有切换过
// 切换过的触发体已经清空了候选，不再需要离开事件
func (s *OverlapSystem) volumeUnchanged(volume ecs.EntityID, count uint64) bool {
	collider, ok := ecs.GetComponent[*components.ColliderComponent](s.entityManager, volume)
	return ok && collider.Enabled && collider.EnableCount == count
}

func (s *OverlapSystem) dispatch(p overlapPair, enter bool) {
	if s.listener == nil {
		return
	}
	attach, ok := ecs.GetComponent[*components.AttachmentComponent](s.entityManager, p.volume)
	if !ok {
		return
	}
	if enter {
		s.listener.OnOverlapEnter(attach.Parent, p.collider)
	} else {
		s.listener.OnOverlapExit(attach.Parent, p.collider)
	}
}

func sortPairs(pairs []overlapPair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].volume != pairs[j].volume {
			return pairs[i].volume < pairs[j].volume
		}
		return pairs[i].collider < pairs[j].collider
	})
}
