package scenes

import (
	"fmt"
	"image"
	"image/color"

	"github.com/decker502/saber/pkg/components"
	"github.com/decker502/saber/pkg/ecs"
	"github.com/decker502/saber/pkg/entities"
	"github.com/decker502/saber/pkg/input"
	"github.com/decker502/saber/pkg/utils"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// 窗口尺寸与正交投影参数
const (
	WindowWidth  = 960
	WindowHeight = 720

	// pixelsPerMeter 世界 1 米对应的像素数
	pixelsPerMeter = 400.0
	// 世界原点在屏幕上的位置（地面中点）
	originX = WindowWidth / 2
	originY = WindowHeight - 80

	// bladeLength 刀身完全伸出时的长度（米）
	bladeLength = 0.9
)

var (
	colorBackground = color.RGBA{R: 12, G: 14, B: 24, A: 255}
	colorGround     = color.RGBA{R: 40, G: 44, B: 60, A: 255}
	colorHilt       = color.RGBA{R: 170, G: 170, B: 180, A: 255}
	colorGrabPoint  = color.RGBA{R: 90, G: 200, B: 120, A: 255}
	colorHeld       = color.RGBA{R: 240, G: 200, B: 80, A: 255}
	colorBladeCore  = color.RGBA{R: 235, G: 245, B: 255, A: 255}
	colorVolume     = color.RGBA{R: 120, G: 160, B: 255, A: 160}
	colorHand       = color.RGBA{R: 200, G: 160, B: 140, A: 255}

	// 拖尾颜色（RGB 0-1，alpha 沿拖尾从尾到头渐变）
	trailR, trailG, trailB float32 = 0.35, 0.6, 1.0
)

// 拖尾三角形使用的纯白贴图，取中心 1x1 像素避免边缘采样；首次绘制时创建
var whiteSubImage *ebiten.Image

func whiteImage() *ebiten.Image {
	if whiteSubImage == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}
	return whiteSubImage
}

// project 正交投影：世界 X/Y 平面映射到屏幕，Z 丢弃
func project(p mgl64.Vec3) (float32, float32) {
	return float32(originX + p[0]*pixelsPerMeter), float32(originY - p[1]*pixelsPerMeter)
}

// Unproject 屏幕坐标反投影到世界 Z=0 平面
func Unproject(x, y float64) mgl64.Vec3 {
	return mgl64.Vec3{(x - originX) / pixelsPerMeter, (originY - y) / pixelsPerMeter, 0}
}

// Draw 绘制场景
//
// 绘制顺序：背景 -> 拖尾（加法混合）-> 碰撞体和剑柄 -> 刀身 -> 手 -> 文字信息
func (s *InteractionScene) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	vector.DrawFilledRect(screen, 0, originY, WindowWidth, WindowHeight-originY, colorGround, false)

	if s.trailEnabled {
		s.drawTrails(screen)
	}
	s.drawGrabbables(screen)
	s.drawBlades(screen)
	s.drawGrabbers(screen)
	s.drawHUD(screen)
}

// drawTrails 把拖尾网格变换到世界坐标后投影，一次 DrawTriangles 画完一条拖尾
func (s *InteractionScene) drawTrails(screen *ebiten.Image) {
	em := s.entityManager
	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	op.Blend = ebiten.Blend{
		BlendFactorSourceRGB:        ebiten.BlendFactorOne,
		BlendFactorDestinationRGB:   ebiten.BlendFactorOne,
		BlendOperationRGB:           ebiten.BlendOperationAdd,
		BlendFactorSourceAlpha:      ebiten.BlendFactorOne,
		BlendFactorDestinationAlpha: ebiten.BlendFactorOne,
		BlendOperationAlpha:         ebiten.BlendOperationAdd,
	}

	for _, id := range ecs.GetEntitiesWith2[*components.MeshComponent, *components.TransformComponent](em) {
		mesh, _ := ecs.GetComponent[*components.MeshComponent](em, id)
		if mesh.Empty() {
			continue
		}
		transform, _ := ecs.GetComponent[*components.TransformComponent](em, id)
		vertices, indices := trailVertices(mesh, transform.LocalToWorld())
		screen.DrawTriangles(vertices, indices, whiteImage(), op)
	}
}

// trailVertices 生成 ebiten 顶点：每个采样点两个顶点，越新的采样点越亮
func trailVertices(mesh *components.MeshComponent, localToWorld mgl64.Mat4) ([]ebiten.Vertex, []uint16) {
	pairs := len(mesh.Vertices) / 2
	vertices := make([]ebiten.Vertex, 0, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		x, y := project(utils.MultiplyPoint(localToWorld, v))
		alpha := float32(1)
		if pairs > 1 {
			alpha = float32(i/2) / float32(pairs-1)
		}
		// 预乘 alpha
		vertices = append(vertices, ebiten.Vertex{
			DstX: x, DstY: y,
			SrcX: 1, SrcY: 1,
			ColorR: trailR * alpha, ColorG: trailG * alpha, ColorB: trailB * alpha, ColorA: alpha,
		})
	}

	indices := make([]uint16, len(mesh.Triangles))
	for i, t := range mesh.Triangles {
		indices[i] = uint16(t)
	}
	return vertices, indices
}

// drawGrabbables 画可抓取物体的抓取点，被抓住时高亮
func (s *InteractionScene) drawGrabbables(screen *ebiten.Image) {
	em := s.entityManager
	for _, id := range ecs.GetEntitiesWith1[*components.GrabbableComponent](em) {
		grabbable, _ := ecs.GetComponent[*components.GrabbableComponent](em, id)
		clr := color.Color(colorGrabPoint)
		if grabbable.IsGrabbed() {
			clr = colorHeld
		}
		if s.isSaberHilt(id) {
			s.drawHilt(screen, id)
		}
		for _, point := range grabbable.GrabPoints {
			s.strokeCollider(screen, point, clr)
		}
	}
}

func (s *InteractionScene) isSaberHilt(id ecs.EntityID) bool {
	for _, saber := range s.sabers {
		if saber.Hilt == id {
			return true
		}
	}
	return false
}

func (s *InteractionScene) drawHilt(screen *ebiten.Image, hilt ecs.EntityID) {
	transform, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, hilt)
	if !ok {
		return
	}
	axis := transform.TransformDirection(mgl64.Vec3{0, entities.HiltHalfLength, 0})
	x0, y0 := project(transform.Position.Sub(axis))
	x1, y1 := project(transform.Position.Add(axis))
	vector.StrokeLine(screen, x0, y0, x1, y1, 10, colorHilt, true)
}

// strokeCollider 画碰撞体在 X/Y 平面上的包围盒
func (s *InteractionScene) strokeCollider(screen *ebiten.Image, id ecs.EntityID, clr color.Color) {
	collider, ok := ecs.GetComponent[*components.ColliderComponent](s.entityManager, id)
	if !ok {
		return
	}
	transform, ok := ecs.GetComponent[*components.TransformComponent](s.entityManager, id)
	if !ok {
		return
	}
	box := utils.BoundsFromBox(transform.Pose(), collider.HalfExtents)
	x0, y1 := project(box.Min)
	x1, y0 := project(box.Max)
	w, h := x1-x0, y1-y0
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}
	vector.StrokeRect(screen, x0, y0, w, h, 1, clr, false)
}

// drawBlades 刀身沿本地 +Y 伸出，长度随伸缩进度变化，外层光晕亮度跟随灯光
func (s *InteractionScene) drawBlades(screen *ebiten.Image) {
	em := s.entityManager
	for _, id := range ecs.GetEntitiesWith2[*components.BladeComponent, *components.TransformComponent](em) {
		if r, ok := ecs.GetComponent[*components.RendererComponent](em, id); ok && !r.Visible {
			continue
		}
		blade, _ := ecs.GetComponent[*components.BladeComponent](em, id)
		transform, _ := ecs.GetComponent[*components.TransformComponent](em, id)

		tip := transform.Position.Add(transform.TransformDirection(mgl64.Vec3{0, bladeLength * blade.Scale, 0}))
		x0, y0 := project(transform.Position)
		x1, y1 := project(tip)

		glow := float32(0.5)
		if light, ok := ecs.GetComponent[*components.LightComponent](em, blade.Light); ok && light.Enabled {
			glow = float32(utils.Clamp01(light.Intensity / 2))
		}
		glowColor := color.RGBA{R: uint8(60 * glow), G: uint8(120 * glow), B: uint8(255 * glow), A: uint8(255 * glow)}
		vector.StrokeLine(screen, x0, y0, x1, y1, 14, glowColor, true)
		vector.StrokeLine(screen, x0, y0, x1, y1, 5, colorBladeCore, true)
	}
}

// drawGrabbers 画手和它的抓取检测范围；隐藏的手只画检测范围
func (s *InteractionScene) drawGrabbers(screen *ebiten.Image) {
	em := s.entityManager
	for _, id := range ecs.GetEntitiesWith2[*components.GrabberComponent, *components.TransformComponent](em) {
		grabber, _ := ecs.GetComponent[*components.GrabberComponent](em, id)
		transform, _ := ecs.GetComponent[*components.TransformComponent](em, id)

		if r, ok := ecs.GetComponent[*components.RendererComponent](em, id); !ok || r.Visible {
			x, y := project(transform.Position)
			vector.DrawFilledCircle(screen, x, y, 10, colorHand, true)
		}
		if grabber.GrabVolumeEnabled {
			for _, v := range grabber.GrabVolumes {
				s.strokeCollider(screen, v, colorVolume)
			}
		}
	}
}

func (s *InteractionScene) drawHUD(screen *ebiten.Image) {
	lines := []string{
		"Mouse: right hand  LMB: grip  Wheel: rotate  RMB/B: toggle blade",
		"Arrows: left hand  Space: grip  T: trail  R: reload  F11: fullscreen",
	}
	for _, c := range []input.Controller{input.ControllerLTouch, input.ControllerRTouch} {
		id, ok := s.grabbers[c]
		if !ok {
			continue
		}
		g, _ := ecs.GetComponent[*components.GrabberComponent](s.entityManager, id)
		lines = append(lines, fmt.Sprintf("%s: %s trigger=%.2f held=%d candidates=%d",
			c, g.State, s.source.TriggerValue(c), g.Held, len(g.Candidates)))
	}
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, 10, 10+i*16)
	}
}
