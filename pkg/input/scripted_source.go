package input

import (
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
)

// ControllerState 单个手柄在某一帧的完整状态
type ControllerState struct {
	Trigger         float64
	Anchor          utils.Pose
	LocalPose       utils.Pose
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Pressed         map[Button]bool
}

// ScriptedSource 由代码直接写入状态的输入来源
// 用于测试、回放以及没有 VR 设备时的桌面演示
type ScriptedSource struct {
	states map[Controller]*ControllerState
}

// NewScriptedSource 创建脚本输入来源
func NewScriptedSource() *ScriptedSource {
	return &ScriptedSource{states: make(map[Controller]*ControllerState)}
}

// State 返回手柄状态（不存在时创建，锚点初始为单位位姿）
func (s *ScriptedSource) State(c Controller) *ControllerState {
	st, ok := s.states[c]
	if !ok {
		st = &ControllerState{
			Anchor:    utils.IdentityPose(),
			LocalPose: utils.IdentityPose(),
			Pressed:   make(map[Button]bool),
		}
		s.states[c] = st
	}
	return st
}

// SetTrigger 设置扳机值（自动限制在 [0,1]）
func (s *ScriptedSource) SetTrigger(c Controller, v float64) {
	s.State(c).Trigger = utils.Clamp01(v)
}

// SetAnchor 设置锚点位姿
func (s *ScriptedSource) SetAnchor(c Controller, pose utils.Pose) {
	s.State(c).Anchor = pose
}

// SetLocalPose 设置手柄局部位姿
func (s *ScriptedSource) SetLocalPose(c Controller, pose utils.Pose) {
	s.State(c).LocalPose = pose
}

// SetVelocity 设置手柄局部线速度与角速度
func (s *ScriptedSource) SetVelocity(c Controller, linear, angular mgl64.Vec3) {
	st := s.State(c)
	st.Velocity = linear
	st.AngularVelocity = angular
}

// Press 标记按键本帧按下，下一次 EndFrame 时清除
func (s *ScriptedSource) Press(c Controller, b Button) {
	s.State(c).Pressed[b] = true
}

// EndFrame 清除本帧的按键边沿
func (s *ScriptedSource) EndFrame() {
	for _, st := range s.states {
		for b := range st.Pressed {
			delete(st.Pressed, b)
		}
	}
}

func (s *ScriptedSource) TriggerValue(c Controller) float64 {
	return s.State(c).Trigger
}

func (s *ScriptedSource) AnchorPose(c Controller) utils.Pose {
	return s.State(c).Anchor
}

func (s *ScriptedSource) LocalControllerPose(c Controller) utils.Pose {
	return s.State(c).LocalPose
}

func (s *ScriptedSource) LocalVelocity(c Controller) mgl64.Vec3 {
	return s.State(c).Velocity
}

func (s *ScriptedSource) LocalAngularVelocity(c Controller) mgl64.Vec3 {
	return s.State(c).AngularVelocity
}

func (s *ScriptedSource) ButtonDown(c Controller, b Button) bool {
	return s.State(c).Pressed[b]
}
