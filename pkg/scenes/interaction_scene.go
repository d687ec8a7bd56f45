package scenes

import (
	"fmt"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/config"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/entities"
	"github.com/decker502/saber/pkg/input"
	"github.com/decker502/saber/pkg/logger"
	"github.com/decker502/saber/pkg/systems"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// 抓取检测范围（米）
const grabVolumeHalfExtent = 0.06

// Options 交互场景的创建参数
type Options struct {
	Config *config.InteractionConfig
	Source input.PoseSource
	// Sound 光剑音效输出，可为 nil
	Sound systems.SoundSink
	// TrailEnabled 为 false 时拖尾不采样也不生成网格
	TrailEnabled bool
	// SkipProps 不生成默认的光剑和方块（测试用）
	SkipProps bool
}

// InteractionScene 光剑与双手抓取的交互场景
//
// 每帧系统执行顺序：
//  1. HierarchySystem 刷新挂接实体的世界变换
//  2. OverlapSystem 计算手的触发体重叠，更新抓取候选
//  3. CameraRig 锚点更新通知 -> GrabSystem 跟随、抓取、松手
//  4. HierarchySystem 再次刷新，让被移动物体的子节点（刀身、拖尾）跟上
//  5. BladeSystem 刀身动画和灯光
//  6. TrailSystem 拖尾采样和网格重建
//  7. 清理本帧标记删除的实体
type InteractionScene struct {
	entityManager *ecs.EntityManager
	registry      *entities.ColliderRegistry
	layers        *config.LayerTable
	config        *config.InteractionConfig
	source        input.PoseSource
	rig           *input.CameraRig

	hierarchySystem *systems.HierarchySystem
	overlapSystem   *systems.OverlapSystem
	grabSystem      *systems.GrabSystem
	bladeSystem     *systems.BladeSystem
	trailSystem     *systems.TrailSystem

	grabbers     map[input.Controller]ecs.EntityID
	sabers       []entities.Lightsaber
	trailEnabled bool
	log          *zap.Logger
}

// NewInteractionScene 创建交互场景
//
// 参数:
//   - opts: 场景参数，Config 和 Source 必须提供
//
// 返回:
//   - *InteractionScene: 场景实例，已创建左右手
//   - error: 配置无效或实体创建失败
func NewInteractionScene(opts Options) (*InteractionScene, error) {
	if opts.Config == nil || opts.Source == nil {
		return nil, fmt.Errorf("config and pose source cannot be nil")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid interaction config: %w", err)
	}
	layers, err := config.NewLayerTable(opts.Config.Layers)
	if err != nil {
		return nil, fmt.Errorf("invalid layer table: %w", err)
	}

	em := ecs.NewEntityManager()
	registry := entities.NewColliderRegistry()
	rig := input.NewCameraRig(opts.Source)

	s := &InteractionScene{
		entityManager: em,
		registry:      registry,
		layers:        layers,
		config:        opts.Config,
		source:        opts.Source,
		rig:           rig,
		grabbers:      make(map[input.Controller]ecs.EntityID),
		trailEnabled:  opts.TrailEnabled,
		log:           logger.Named("InteractionScene"),
	}

	s.hierarchySystem = systems.NewHierarchySystem(em)
	s.grabSystem = systems.NewGrabSystem(em, registry, rig)
	s.overlapSystem = systems.NewOverlapSystem(em, s.grabSystem)
	s.bladeSystem = systems.NewBladeSystem(em, opts.Source, opts.Sound)
	s.trailSystem = systems.NewTrailSystem(em)

	for _, c := range []input.Controller{input.ControllerLTouch, input.ControllerRTouch} {
		if _, err := s.AddGrabber(c); err != nil {
			return nil, err
		}
	}

	if !opts.SkipProps {
		if err := s.spawnDefaultProps(); err != nil {
			return nil, err
		}
	}

	s.log.Info("交互场景初始化完成",
		zap.Int("grabbers", len(s.grabbers)),
		zap.Int("sabers", len(s.sabers)),
	)
	return s, nil
}

// spawnDefaultProps 两把光剑和一个方块，放在双手前方
func (s *InteractionScene) spawnDefaultProps() error {
	for _, x := range []float64{-0.35, 0.35} {
		if _, err := s.SpawnLightsaber(utils.NewPose(mgl64.Vec3{x, 0.9, 0}, mgl64.QuatIdent())); err != nil {
			return err
		}
	}
	_, err := s.SpawnGrabbable(entities.GrabbableSpec{
		Pose: utils.NewPose(mgl64.Vec3{0, 0.6, 0}, mgl64.QuatIdent()),
		GrabPoints: []entities.BoxSpec{{
			HalfExtents: mgl64.Vec3{0.08, 0.08, 0.08},
		}},
		Layer: s.layers.ResolveOrDefault(config.LayerDefault),
	})
	return err
}

// AddGrabber 为手柄创建抓取手；同一手柄已有抓取手时先销毁旧的
func (s *InteractionScene) AddGrabber(c input.Controller) (ecs.EntityID, error) {
	if old, ok := s.grabbers[c]; ok {
		s.grabSystem.DestroyGrabber(old)
	}

	half := mgl64.Vec3{grabVolumeHalfExtent, grabVolumeHalfExtent, grabVolumeHalfExtent}
	id, err := entities.NewGrabberEntity(s.entityManager, entities.GrabberSpec{
		Controller: c,
		Config:     s.config.Grabber,
		Layers:     s.layers,
		Volumes:    []entities.BoxSpec{{HalfExtents: half}},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create %s grabber: %w", c, err)
	}
	s.grabbers[c] = id
	return id, nil
}

// RemoveGrabber 销毁手柄对应的抓取手，手中物体以零速度释放
func (s *InteractionScene) RemoveGrabber(c input.Controller) {
	id, ok := s.grabbers[c]
	if !ok {
		return
	}
	s.grabSystem.DestroyGrabber(id)
	delete(s.grabbers, c)
}

// SpawnLightsaber 在指定位姿生成一把光剑
func (s *InteractionScene) SpawnLightsaber(pose utils.Pose) (entities.Lightsaber, error) {
	saber, err := entities.NewLightsaberEntity(s.entityManager, s.registry, s.config, s.layers, pose)
	if err != nil {
		return entities.Lightsaber{}, err
	}
	s.sabers = append(s.sabers, saber)
	return saber, nil
}

// SpawnGrabbable 生成一个可抓取物体
func (s *InteractionScene) SpawnGrabbable(spec entities.GrabbableSpec) (ecs.EntityID, error) {
	return entities.NewGrabbableEntity(s.entityManager, s.registry, spec)
}

// Destroy 标记实体及其所有挂接子节点待删除，帧末统一清理
func (s *InteractionScene) Destroy(id ecs.EntityID) {
	for _, child := range ecs.GetEntitiesWith1[*components.AttachmentComponent](s.entityManager) {
		if attach, _ := ecs.GetComponent[*components.AttachmentComponent](s.entityManager, child); attach.Parent == id {
			s.Destroy(child)
		}
	}
	s.entityManager.DestroyEntity(id)
}

// Update 推进一帧
func (s *InteractionScene) Update(deltaTime float64) {
	s.hierarchySystem.Update(deltaTime)
	s.overlapSystem.Update(deltaTime)
	s.rig.UpdateAnchors()
	s.hierarchySystem.Update(deltaTime)
	s.bladeSystem.Update(deltaTime)
	if s.trailEnabled {
		s.trailSystem.Update(deltaTime)
	}
	s.cleanup()
}

// cleanup 删除前解除抓取关系和碰撞体登记
func (s *InteractionScene) cleanup() {
	pending := s.entityManager.PendingDestroy()
	if len(pending) == 0 {
		return
	}

	for _, id := range pending {
		if ecs.HasComponent[*components.GrabbableComponent](s.entityManager, id) {
			s.grabSystem.ForgetGrabbable(id)
			s.registry.UnregisterOwner(id)
		}
		if ecs.HasComponent[*components.GrabberComponent](s.entityManager, id) {
			// 通过 Destroy 直接删除的手也要放下手中物体；重复标记无副作用
			s.grabSystem.DestroyGrabber(id)
			for c, g := range s.grabbers {
				if g == id {
					delete(s.grabbers, c)
				}
			}
		}
		s.registry.Unregister(id)
	}

	removed := make(map[ecs.EntityID]bool, len(pending))
	for _, id := range pending {
		removed[id] = true
	}
	alive := s.sabers[:0]
	for _, saber := range s.sabers {
		if !removed[saber.Hilt] {
			alive = append(alive, saber)
		}
	}
	s.sabers = alive

	s.entityManager.RemoveMarkedEntities()
}

// SetTrailEnabled 开关拖尾，关闭时立即清空所有拖尾
func (s *InteractionScene) SetTrailEnabled(enabled bool) {
	if s.trailEnabled == enabled {
		return
	}
	s.trailEnabled = enabled
	for _, saber := range s.sabers {
		if enabled {
			s.trailSystem.SetDesiredTime(saber.Trail, s.config.Trail.DesiredTime)
		} else {
			s.trailSystem.ClearTrail(saber.Trail)
		}
	}
}

// ToggleBlades 切换所有光剑的开关
func (s *InteractionScene) ToggleBlades() {
	for _, saber := range s.sabers {
		s.bladeSystem.Toggle(saber.Blade)
	}
}

// EntityManager 返回实体管理器
func (s *InteractionScene) EntityManager() *ecs.EntityManager {
	return s.entityManager
}

// Grabber 返回手柄对应的抓取手
func (s *InteractionScene) Grabber(c input.Controller) (ecs.EntityID, bool) {
	id, ok := s.grabbers[c]
	return id, ok
}

// GrabSystem 返回抓取系统
func (s *InteractionScene) GrabSystem() *systems.GrabSystem {
	return s.grabSystem
}

// TrailSystem 返回拖尾系统
func (s *InteractionScene) TrailSystem() *systems.TrailSystem {
	return s.trailSystem
}

// Sabers 返回场景中的光剑
func (s *InteractionScene) Sabers() []entities.Lightsaber {
	return s.sabers
}

// Close 场景被替换时调用：放下手中物体并清空所有实体
func (s *InteractionScene) Close() {
	for _, c := range []input.Controller{input.ControllerLTouch, input.ControllerRTouch} {
		s.RemoveGrabber(c)
	}
	for _, id := range ecs.GetEntitiesWith1[*components.TransformComponent](s.entityManager) {
		s.entityManager.DestroyEntity(id)
	}
	s.cleanup()
	s.log.Info("交互场景已关闭")
}
