// Package input 定义追踪手柄的输入来源
//
// PoseSource 抽象了 VR 运行时：扳机模拟量、锚点位姿、手柄局部位姿与速度。
// CameraRig 负责每帧触发一次"锚点已更新"通知，抓取系统在回调中完成跟随与抓放判断。
package input

import (
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
)

// Controller 手柄标识
type Controller int

const (
	ControllerNone Controller = iota
	ControllerLTouch
	ControllerRTouch
)

// String 返回手柄名称
func (c Controller) String() string {
	switch c {
	case ControllerLTouch:
		return "LTouch"
	case ControllerRTouch:
		return "RTouch"
	default:
		return "None"
	}
}

// Button 手柄按键
type Button int

const (
	ButtonOne   Button = iota // A
	ButtonTwo                 // B
	ButtonThree               // X
	ButtonFour                // Y
)

// PoseSource 每帧提供手柄状态
type PoseSource interface {
	// TriggerValue 握把扳机模拟量，范围 [0,1]
	TriggerValue(c Controller) float64
	// AnchorPose 手部锚点在世界（追踪空间）中的位姿
	AnchorPose(c Controller) utils.Pose
	// LocalControllerPose 手柄相对追踪空间原点的位姿
	LocalControllerPose(c Controller) utils.Pose
	// LocalVelocity 手柄线速度（追踪空间局部坐标）
	LocalVelocity(c Controller) mgl64.Vec3
	// LocalAngularVelocity 手柄角速度（追踪空间局部坐标）
	LocalAngularVelocity(c Controller) mgl64.Vec3
}

// ButtonSource 可选接口：支持按键的输入来源
type ButtonSource interface {
	// ButtonDown 按键在本帧被按下（边沿）
	ButtonDown(c Controller, b Button) bool
}
