package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene represents one interactive scene (the saber playground).
// Each scene has its own update and rendering logic.
type Scene interface {
	// Update advances the scene by deltaTime seconds.
	Update(deltaTime float64)

	// Draw renders the scene to the provided screen.
	Draw(screen *ebiten.Image)
}

// Closer 是一个可选接口，场景被替换或程序退出时释放资源（音频播放器等）
type Closer interface {
	Close()
}
