// verify_throw 无窗口验证工具：用脚本输入跑一遍 抓起 -> 挥动 -> 开刀 -> 抛出，
// 打印每个阶段的关键状态，用来在没有 VR 设备时检查配置文件的参数效果。
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/config"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/entities"
	"github.com/decker502/saber/pkg/input"
	"github.com/decker502/saber/pkg/logger"
	"github.com/decker502/saber/pkg/scenes"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "交互参数配置文件（默认使用内置默认值）")
	swingSpeed = flag.Float64("speed", 3.0, "挥动速度（米/秒）")
	verbose    = flag.Bool("verbose", false, "显示详细调试信息")
)

const dt = 1.0 / 60.0

func main() {
	flag.Parse()

	log, err := logger.Init(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.DefaultInteractionConfig()
	if *configPath != "" {
		if cfg, err = config.LoadInteractionConfig(*configPath); err != nil {
			log.Fatal("加载配置失败", zap.Error(err))
		}
	}

	source := input.NewScriptedSource()
	scene, err := scenes.NewInteractionScene(scenes.Options{Config: cfg, Source: source, TrailEnabled: true})
	if err != nil {
		log.Fatal("创建场景失败", zap.Error(err))
	}
	em := scene.EntityManager()
	saber := scene.Sabers()[1]
	right, _ := scene.Grabber(input.ControllerRTouch)

	step := func(n int) {
		for i := 0; i < n; i++ {
			scene.Update(dt)
			source.EndFrame()
		}
	}

	// 阶段 1：右手移到剑柄下方握把，扣下扳机
	hilt, _ := ecs.GetComponent[*components.TransformComponent](em, saber.Hilt)
	grip := hilt.Position.Sub(mgl64.Vec3{0, entities.HiltHalfLength / 2, 0})
	source.SetAnchor(input.ControllerRTouch, utils.NewPose(grip, mgl64.QuatIdent()))
	step(2)
	source.SetTrigger(input.ControllerRTouch, 1)
	step(1)
	held := scene.GrabSystem().GrabbedObject(right)
	report("抓起", held == saber.Hilt, "held=%d hilt=%d", held, saber.Hilt)

	// 阶段 2：开刀，等待动画结束
	scene.ToggleBlades()
	blade, _ := ecs.GetComponent[*components.BladeComponent](em, saber.Blade)
	frames := 0
	for blade.InProgress && frames < 600 {
		step(1)
		frames++
	}
	report("开刀", blade.Scale == 1, "frames=%d scale=%.3f", frames, blade.Scale)

	// 阶段 3：水平挥动一秒，检查拖尾
	velocity := mgl64.Vec3{*swingSpeed, 0, 0}
	source.SetVelocity(input.ControllerRTouch, velocity, mgl64.Vec3{0, 0, 2})
	for i := 0; i < 60; i++ {
		grip = grip.Add(velocity.Mul(dt))
		source.SetAnchor(input.ControllerRTouch, utils.NewPose(grip, mgl64.QuatIdent()))
		step(1)
	}
	trail, _ := ecs.GetComponent[*components.TrailComponent](em, saber.Trail)
	mesh, _ := ecs.GetComponent[*components.MeshComponent](em, saber.Trail)
	report("拖尾", !mesh.Empty(), "sections=%d vertices=%d window=%.2fs", trail.Sections.Len(), len(mesh.Vertices), trail.Window)

	// 阶段 4：松开扳机，物体按手柄速度抛出
	source.SetTrigger(input.ControllerRTouch, 0)
	step(1)
	rb, _ := ecs.GetComponent[*components.RigidbodyComponent](em, saber.Hilt)
	released := scene.GrabSystem().GrabbedObject(right) == ecs.InvalidEntity
	report("抛出", released && rb.Velocity.ApproxEqual(velocity), "velocity=%v angular=%v kinematic=%v",
		rb.Velocity, rb.AngularVelocity, rb.IsKinematic)
}

func report(stage string, ok bool, format string, args ...interface{}) {
	mark := "✅"
	if !ok {
		mark = "❌"
	}
	fmt.Printf("%s %s: %s\n", mark, stage, fmt.Sprintf(format, args...))
}
