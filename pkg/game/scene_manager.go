package game

import (
	"github.com/decker502/saber/pkg/logger"
	"github.com/hajimehoshi/ebiten/v2"
)

// SceneFactory 场景工厂函数，用于重新创建场景（重置）
type SceneFactory func() (Scene, error)

// SceneManager controls which scene is active.
// It ensures only one scene's Update and Draw methods are called at any given time.
type SceneManager struct {
	currentScene Scene
	sceneFactory SceneFactory
}

// NewSceneManager creates a manager with no active scene; use SwitchTo or Reload to set one.
func NewSceneManager() *SceneManager {
	return &SceneManager{}
}

// SetSceneFactory 设置场景工厂函数
func (sm *SceneManager) SetSceneFactory(factory SceneFactory) {
	sm.sceneFactory = factory
}

// SwitchTo changes the active scene. The previous scene is closed if it implements Closer.
func (sm *SceneManager) SwitchTo(scene Scene) {
	if closer, ok := sm.currentScene.(Closer); ok && sm.currentScene != scene {
		closer.Close()
	}
	sm.currentScene = scene
}

// GetCurrentScene 返回当前活动的场景，没有时返回 nil
func (sm *SceneManager) GetCurrentScene() Scene {
	return sm.currentScene
}

// Reload 用工厂函数重新创建场景
// 工厂未设置或创建失败时保持当前场景
func (sm *SceneManager) Reload() {
	log := logger.Named("SceneManager")
	if sm.sceneFactory == nil {
		log.Warn("SceneFactory 未设置，无法重置场景")
		return
	}

	scene, err := sm.sceneFactory()
	if err != nil {
		log.Sugar().Errorf("重置场景失败: %v", err)
		return
	}
	sm.SwitchTo(scene)
	log.Info("场景已重置")
}

// Update updates the currently active scene.
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.currentScene != nil {
		sm.currentScene.Update(deltaTime)
	}
}

// Draw renders the currently active scene.
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.currentScene != nil {
		sm.currentScene.Draw(screen)
	}
}

// Close 关闭当前场景
func (sm *SceneManager) Close() {
	sm.SwitchTo(nil)
}
