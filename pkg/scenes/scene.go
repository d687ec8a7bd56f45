package scenes

import (
	"github.com/decker502/saber/pkg/game"
)

// Scene is a type alias for game.Scene so scenes can be passed to SceneManager directly.
type Scene = game.Scene

var (
	_ Scene       = (*InteractionScene)(nil)
	_ game.Closer = (*InteractionScene)(nil)
)
