package app

import (
	"math"
	"testing"

	"github.com/decker502/saber/pkg/input"
	"github.com/decker502/saber/pkg/scenes"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

var _ input.ButtonSource = (*DesktopSource)(nil)

func TestDesktopRightHandFollowsCursor(t *testing.T) {
	s := NewDesktopSource()
	s.apply(frameInput{CursorX: 600, CursorY: 300}, 0.5)

	want := scenes.Unproject(600, 300)
	got := s.AnchorPose(input.ControllerRTouch)
	assert.True(t, got.Position.ApproxEqualThreshold(want, 1e-9))
	assert.Equal(t, got, s.LocalControllerPose(input.ControllerRTouch))

	// 速度按位移除以帧时间估算
	start := mgl64.Vec3{0.35, 0.6, 0}
	assert.True(t, s.LocalVelocity(input.ControllerRTouch).ApproxEqualThreshold(want.Sub(start).Mul(2), 1e-9))
}

func TestDesktopTriggerRamps(t *testing.T) {
	s := NewDesktopSource()
	dt := 1.0 / 60

	s.apply(frameInput{RightGrip: true}, dt)
	first := s.TriggerValue(input.ControllerRTouch)
	assert.InDelta(t, triggerRampSpeed*dt, first, 1e-9)

	for i := 0; i < 60; i++ {
		s.apply(frameInput{RightGrip: true}, dt)
	}
	assert.Equal(t, 1.0, s.TriggerValue(input.ControllerRTouch))

	for i := 0; i < 60; i++ {
		s.apply(frameInput{}, dt)
	}
	assert.Equal(t, 0.0, s.TriggerValue(input.ControllerRTouch))
	assert.Equal(t, 0.0, s.TriggerValue(input.ControllerLTouch))
}

func TestDesktopWheelRotatesRightHand(t *testing.T) {
	s := NewDesktopSource()
	s.apply(frameInput{Wheel: 2}, 0.1)

	rot := s.AnchorPose(input.ControllerRTouch).Rotation
	want := mgl64.QuatRotate(2*wheelStep, mgl64.Vec3{0, 0, 1})
	assert.True(t, rot.ApproxEqualThreshold(want, 1e-9))
	assert.InDelta(t, 2*wheelStep/0.1, s.LocalAngularVelocity(input.ControllerRTouch)[2], 1e-9)
}

func TestDesktopLeftHandKeys(t *testing.T) {
	s := NewDesktopSource()
	s.apply(frameInput{LeftMove: mgl64.Vec3{1, 1, 0}, LeftRotate: 1, LeftGrip: true}, 0.5)

	pose := s.AnchorPose(input.ControllerLTouch)
	assert.True(t, pose.Position.ApproxEqualThreshold(mgl64.Vec3{-0.35 + 0.4, 0.6 + 0.4, 0}, 1e-9))
	assert.True(t, pose.Rotation.ApproxEqualThreshold(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}), 1e-9))
	assert.Equal(t, 1.0, s.TriggerValue(input.ControllerLTouch))
}

func TestDesktopToggleIsRightHandButtonTwoOnly(t *testing.T) {
	s := NewDesktopSource()
	s.apply(frameInput{RightToggle: true}, 0.1)

	assert.True(t, s.ButtonDown(input.ControllerRTouch, input.ButtonTwo))
	assert.False(t, s.ButtonDown(input.ControllerRTouch, input.ButtonOne))
	assert.False(t, s.ButtonDown(input.ControllerLTouch, input.ButtonTwo))

	s.apply(frameInput{}, 0.1)
	assert.False(t, s.ButtonDown(input.ControllerRTouch, input.ButtonTwo))
}

func TestDesktopUnknownControllerIsIdle(t *testing.T) {
	s := NewDesktopSource()
	assert.Equal(t, 0.0, s.TriggerValue(input.ControllerNone))
	assert.Equal(t, mgl64.Vec3{}, s.LocalVelocity(input.ControllerNone))
}
