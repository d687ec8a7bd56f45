package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/decker502/saber/pkg/app"
	"github.com/decker502/saber/pkg/config"
	"github.com/decker502/saber/pkg/embedded"
	"github.com/decker502/saber/pkg/logger"
	"github.com/decker502/saber/pkg/scenes"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

const defaultConfigPath = "data/interaction.yaml"

var (
	configPath = flag.String("config", "", "交互参数配置文件（默认使用内置 data/interaction.yaml）")
	verbose    = flag.Bool("verbose", false, "显示详细调试信息")
)

// loadConfig 优先读取命令行指定的文件，否则使用嵌入的默认配置
func loadConfig(path string) (*config.InteractionConfig, error) {
	if path != "" {
		return config.LoadInteractionConfig(path)
	}
	data, err := embedded.ReadFile(defaultConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded config: %w", err)
	}
	return config.ParseInteractionConfig(data)
}

func main() {
	flag.Parse()

	log, err := logger.Init(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	embedded.Init(dataFS)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("加载交互配置失败", zap.Error(err))
	}

	gameApp, err := app.NewApp(app.Config{Interaction: cfg})
	if err != nil {
		log.Fatal("初始化失败", zap.Error(err))
	}

	ebiten.SetWindowSize(scenes.WindowWidth, scenes.WindowHeight)
	ebiten.SetWindowTitle("Saber")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	runErr := ebiten.RunGame(gameApp)
	if err := gameApp.Close(); err != nil {
		log.Warn("退出时保存设置失败", zap.Error(err))
	}
	if runErr != nil {
		log.Fatal("主循环异常退出", zap.Error(runErr))
	}
}
