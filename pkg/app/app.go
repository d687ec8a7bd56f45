// Package app 提供桌面程序的核心包装器
//
// 该包把初始化逻辑（音频、存储、设置、场景）从 main 包提取出来，
// main.go 只负责解析参数、加载配置和运行 ebiten 主循环。
package app

import (
	"fmt"
	"image/color"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/config"
	"github.com/decker502/saber/pkg/game"
	"github.com/decker502/saber/pkg/logger"
	"github.com/decker502/saber/pkg/scenes"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
)

// AppName gdata 存储目录名
const AppName = "saber"

// Config 定义应用启动配置
type Config struct {
	// Interaction 交互参数，用户设置中的扳机阈值会覆盖到它的副本上
	Interaction *config.InteractionConfig
}

// grabThresholdPresets G 键循环切换的扳机阈值 {开始, 结束}，{0, 0} 表示使用配置文件中的值
var grabThresholdPresets = [][2]float64{
	{0, 0},
	{0.35, 0.15},
	{0.8, 0.5},
}

// nextGrabThresholds 返回当前阈值之后的下一组预设；当前值不在预设中时回到第一组
func nextGrabThresholds(begin, end float64) (float64, float64) {
	next := 0
	for i, p := range grabThresholdPresets {
		if p[0] == begin && p[1] == end {
			next = (i + 1) % len(grabThresholdPresets)
			break
		}
	}
	return grabThresholdPresets[next][0], grabThresholdPresets[next][1]
}

// App 是桌面程序的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager    *game.SceneManager
	settingsManager *game.SettingsManager
	audioManager    *game.AudioManager
	source          *DesktopSource
	baseConfig      *config.InteractionConfig
	log             *zap.Logger

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化应用
func NewApp(cfg Config) (*App, error) {
	if cfg.Interaction == nil {
		return nil, fmt.Errorf("interaction config cannot be nil")
	}
	log := logger.Named("App")

	// 存储不可用时设置只保存在内存中
	storage, err := gdata.Open(gdata.Config{AppName: AppName})
	if err != nil {
		log.Warn("打开本地存储失败，设置不会被保存", zap.Error(err))
	}
	settingsManager := game.NewSettingsManager(storage)

	audioContext := audio.NewContext(game.SampleRate)
	a := &App{
		settingsManager: settingsManager,
		audioManager:    game.NewAudioManager(audioContext, settingsManager),
		source:          NewDesktopSource(),
		baseConfig:      cfg.Interaction,
		log:             log,
	}

	interaction, err := a.interactionConfig()
	if err != nil {
		return nil, err
	}

	a.sceneManager = game.NewSceneManager()
	a.sceneManager.SetSceneFactory(a.newScene)
	a.sceneManager.Reload()
	if a.sceneManager.GetCurrentScene() == nil {
		return nil, fmt.Errorf("failed to create interaction scene")
	}

	if settingsManager.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}

	log.Info("应用初始化完成",
		zap.Float64("grabBegin", interaction.Grabber.GrabBeginThreshold),
		zap.Float64("grabEnd", interaction.Grabber.GrabEndThreshold),
	)
	return a, nil
}

// interactionConfig 复制启动配置并叠加用户设置
func (a *App) interactionConfig() (*config.InteractionConfig, error) {
	interaction := *a.baseConfig
	a.settingsManager.ApplyTo(&interaction)
	if err := interaction.Validate(); err != nil {
		return nil, err
	}
	return &interaction, nil
}

// newScene 场景工厂，每次重载都重新读取用户设置
func (a *App) newScene() (game.Scene, error) {
	interaction, err := a.interactionConfig()
	if err != nil {
		return nil, err
	}
	return scenes.NewInteractionScene(scenes.Options{
		Config:       interaction,
		Source:       a.source,
		Sound:        a.audioManager,
		TrailEnabled: a.settingsManager.GetSettings().TrailEnabled,
	})
}

// Update 更新逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(scenes.WindowWidth, scenes.WindowHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		a.toggleFullscreen()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		// 旧场景里可能还有开着的光剑，先停掉嗡鸣
		a.audioManager.PlayCue(components.SoundIdleStop)
		a.sceneManager.Reload()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		a.toggleTrail()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		a.cycleGrabThresholds()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		enabled := !a.settingsManager.GetSettings().SoundEnabled
		a.settingsManager.SetSoundEnabled(enabled)
		if !enabled {
			a.audioManager.PlayCue(components.SoundIdleStop)
		}
	}

	deltaTime := 1.0 / float64(ebiten.TPS())
	a.source.Update(deltaTime)
	a.sceneManager.Update(deltaTime)
	a.audioManager.Update()
	return nil
}

func (a *App) toggleFullscreen() {
	if ebiten.IsFullscreen() {
		ebiten.SetFullscreen(false)
		if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
			ebiten.RestoreWindow()
		}
		// 延迟几帧后设置窗口大小，让窗口管理器有时间处理
		a.pendingWindowSizeReset = true
		a.windowSizeResetCountdown = 3
	} else {
		ebiten.SetFullscreen(true)
	}
	a.settingsManager.SetFullscreen(ebiten.IsFullscreen())
}

func (a *App) toggleTrail() {
	enabled := !a.settingsManager.GetSettings().TrailEnabled
	a.settingsManager.SetTrailEnabled(enabled)
	if scene, ok := a.sceneManager.GetCurrentScene().(*scenes.InteractionScene); ok {
		scene.SetTrailEnabled(enabled)
	}
	a.log.Debug("拖尾开关", zap.Bool("enabled", enabled))
}

// cycleGrabThresholds 切换到下一组扳机阈值并重建场景
func (a *App) cycleGrabThresholds() {
	settings := a.settingsManager.GetSettings()
	begin, end := nextGrabThresholds(settings.GrabBeginThreshold, settings.GrabEndThreshold)
	if err := a.settingsManager.SetGrabThresholds(begin, end); err != nil {
		a.log.Warn("切换扳机阈值失败", zap.Error(err))
		return
	}
	a.audioManager.PlayCue(components.SoundIdleStop)
	a.sceneManager.Reload()
	a.log.Info("扳机阈值已切换", zap.Float64("begin", begin), zap.Float64("end", end))
}

// Draw 绘制画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return scenes.WindowWidth, scenes.WindowHeight
}

// Close 退出前释放场景和音频，并保存设置
func (a *App) Close() error {
	a.sceneManager.Close()
	a.audioManager.Close()
	if err := a.settingsManager.Save(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
