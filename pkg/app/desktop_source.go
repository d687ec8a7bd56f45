package app

import (
	"math"

	"github.com/decker502/saber/pkg/input"
	"github.com/decker502/saber/pkg/scenes"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	// triggerRampSpeed 按住/松开时扳机值每秒的变化量，模拟模拟量扳机
	triggerRampSpeed = 6.0
	// leftHandSpeed 方向键移动左手的速度（米/秒）
	leftHandSpeed = 0.8
	// wheelStep 滚轮每格旋转的角度（弧度）
	wheelStep = math.Pi / 12
	// keyRotateSpeed Q/E 旋转左手的角速度（弧度/秒）
	keyRotateSpeed = math.Pi
)

// frameInput 一帧的键鼠输入快照
type frameInput struct {
	CursorX, CursorY float64
	RightGrip        bool    // 鼠标左键
	Wheel            float64 // 滚轮增量
	RightToggle      bool    // 右键或 B 键按下（边沿）

	LeftMove   mgl64.Vec3 // 方向键，分量为 -1/0/1
	LeftRotate float64    // Q/E，-1/0/1
	LeftGrip   bool       // 空格
}

// desktopHand 一只虚拟手的状态
type desktopHand struct {
	position mgl64.Vec3
	angle    float64 // 绕 Z 轴的角度
	trigger  float64

	velocity        mgl64.Vec3
	angularVelocity mgl64.Vec3
	toggle          bool
}

func (h *desktopHand) pose() utils.Pose {
	return utils.NewPose(h.position, mgl64.QuatRotate(h.angle, mgl64.Vec3{0, 0, 1}))
}

// move 更新位姿并按位移估算速度
func (h *desktopHand) move(position mgl64.Vec3, angle, deltaTime float64) {
	if deltaTime > 0 {
		h.velocity = position.Sub(h.position).Mul(1 / deltaTime)
		h.angularVelocity = mgl64.Vec3{0, 0, (angle - h.angle) / deltaTime}
	}
	h.position = position
	h.angle = angle
}

func (h *desktopHand) ramp(pressed bool, deltaTime float64) {
	target := 0.0
	if pressed {
		target = 1.0
	}
	h.trigger = utils.MoveTowards(h.trigger, target, triggerRampSpeed*deltaTime)
}

// DesktopSource 用键鼠模拟两只 Touch 手柄
//
// 右手跟随鼠标，左键握持，滚轮旋转，右键或 B 键开关光剑；
// 左手用方向键移动，空格握持，Q/E 旋转。
// 追踪空间与世界重合，LocalControllerPose 与锚点相同，速度直接是世界速度。
type DesktopSource struct {
	hands map[input.Controller]*desktopHand
}

// NewDesktopSource 创建键鼠输入来源，双手放在身体两侧
func NewDesktopSource() *DesktopSource {
	return &DesktopSource{
		hands: map[input.Controller]*desktopHand{
			input.ControllerLTouch: {position: mgl64.Vec3{-0.35, 0.6, 0}},
			input.ControllerRTouch: {position: mgl64.Vec3{0.35, 0.6, 0}},
		},
	}
}

// Update 读取本帧键鼠状态，每帧在场景更新前调用一次
func (s *DesktopSource) Update(deltaTime float64) {
	s.apply(pollInput(), deltaTime)
}

func pollInput() frameInput {
	cx, cy := ebiten.CursorPosition()
	_, wheel := ebiten.Wheel()

	var in frameInput
	in.CursorX, in.CursorY = float64(cx), float64(cy)
	in.RightGrip = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	in.Wheel = wheel
	in.RightToggle = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) ||
		inpututil.IsKeyJustPressed(ebiten.KeyB)

	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		in.LeftMove[0]--
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		in.LeftMove[0]++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		in.LeftMove[1]++
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		in.LeftMove[1]--
	}
	if ebiten.IsKeyPressed(ebiten.KeyQ) {
		in.LeftRotate++
	}
	if ebiten.IsKeyPressed(ebiten.KeyE) {
		in.LeftRotate--
	}
	in.LeftGrip = ebiten.IsKeyPressed(ebiten.KeySpace)
	return in
}

// apply 把输入快照转成两只手的状态
func (s *DesktopSource) apply(in frameInput, deltaTime float64) {
	right := s.hands[input.ControllerRTouch]
	right.move(scenes.Unproject(in.CursorX, in.CursorY), right.angle+in.Wheel*wheelStep, deltaTime)
	right.ramp(in.RightGrip, deltaTime)
	right.toggle = in.RightToggle

	left := s.hands[input.ControllerLTouch]
	left.move(
		left.position.Add(in.LeftMove.Mul(leftHandSpeed*deltaTime)),
		left.angle+in.LeftRotate*keyRotateSpeed*deltaTime,
		deltaTime,
	)
	left.ramp(in.LeftGrip, deltaTime)
}

func (s *DesktopSource) hand(c input.Controller) *desktopHand {
	if h, ok := s.hands[c]; ok {
		return h
	}
	return &desktopHand{}
}

// TriggerValue 扳机值，按住按键时按 triggerRampSpeed 渐变到 1
func (s *DesktopSource) TriggerValue(c input.Controller) float64 {
	return s.hand(c).trigger
}

// AnchorPose 手的世界位姿；桌面模式下追踪空间与世界重合
func (s *DesktopSource) AnchorPose(c input.Controller) utils.Pose {
	return s.hand(c).pose()
}

// LocalControllerPose 手柄在追踪空间中的位姿，与 AnchorPose 相同
func (s *DesktopSource) LocalControllerPose(c input.Controller) utils.Pose {
	return s.hand(c).pose()
}

// LocalVelocity 上一帧位移除以帧时间得到的线速度
func (s *DesktopSource) LocalVelocity(c input.Controller) mgl64.Vec3 {
	return s.hand(c).velocity
}

// LocalAngularVelocity 绕 Z 轴的角速度
func (s *DesktopSource) LocalAngularVelocity(c input.Controller) mgl64.Vec3 {
	return s.hand(c).angularVelocity
}

// ButtonDown 只支持右手 B 键
func (s *DesktopSource) ButtonDown(c input.Controller, b input.Button) bool {
	return c == input.ControllerRTouch && b == input.ButtonTwo && s.hand(c).toggle
}
