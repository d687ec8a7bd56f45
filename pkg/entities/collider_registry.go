package entities

import "github.com/decker502/saber/pkg/ecs"

// ColliderRegistry 碰撞体 -> 所属可抓取物体 的显式映射
// 由工厂在创建物体时填充，重叠回调通过它把碰撞体解析为可抓取物体
type ColliderRegistry struct {
	owners map[ecs.EntityID]ecs.EntityID
}

// NewColliderRegistry 创建空的注册表
func NewColliderRegistry() *ColliderRegistry {
	return &ColliderRegistry{owners: make(map[ecs.EntityID]ecs.EntityID)}
}

// Register 登记碰撞体的所属物体
func (r *ColliderRegistry) Register(collider, owner ecs.EntityID) {
	r.owners[collider] = owner
}

// Unregister 移除碰撞体登记
func (r *ColliderRegistry) Unregister(collider ecs.EntityID) {
	delete(r.owners, collider)
}

// UnregisterOwner 移除某物体的全部碰撞体登记
func (r *ColliderRegistry) UnregisterOwner(owner ecs.EntityID) {
	for collider, o := range r.owners {
		if o == owner {
			delete(r.owners, collider)
		}
	}
}

// Owner 查询碰撞体所属的可抓取物体
func (r *ColliderRegistry) Owner(collider ecs.EntityID) (ecs.EntityID, bool) {
	owner, ok := r.owners[collider]
	return owner, ok
}

// Len 已登记的碰撞体数量
func (r *ColliderRegistry) Len() int {
	return len(r.owners)
}
