package components

import "github.com/go-gl/mathgl/mgl64"

// TrailSection 拖尾的一个采样点
type TrailSection struct {
	Position mgl64.Vec3
	Up       mgl64.Vec3 // 采样时物体的 Up 方向（世界坐标）
	Time     float64
}

// SectionQueue 采样点环形队列
// 按插入顺序（即时间顺序）保存，只从尾部入队、从头部出队
type SectionQueue struct {
	buf  []TrailSection
	head int
	size int
}

// Len 返回队列长度
func (q *SectionQueue) Len() int {
	return q.size
}

// Push 入队，容量不足时翻倍
func (q *SectionQueue) Push(s TrailSection) {
	if q.size == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = s
	q.size++
}

// Front 返回队首元素
func (q *SectionQueue) Front() (TrailSection, bool) {
	if q.size == 0 {
		return TrailSection{}, false
	}
	return q.buf[q.head], true
}

// PopFront 移除队首元素
func (q *SectionQueue) PopFront() {
	if q.size == 0 {
		return
	}
	q.buf[q.head] = TrailSection{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
}

// At 返回第 i 个元素（0 为最旧）
func (q *SectionQueue) At(i int) TrailSection {
	return q.buf[(q.head+i)%len(q.buf)]
}

// Clear 清空队列（保留底层容量）
func (q *SectionQueue) Clear() {
	for i := range q.buf {
		q.buf[i] = TrailSection{}
	}
	q.head = 0
	q.size = 0
}

// Slice 按时间顺序返回所有元素的副本
func (q *SectionQueue) Slice() []TrailSection {
	out := make([]TrailSection, q.size)
	for i := 0; i < q.size; i++ {
		out[i] = q.At(i)
	}
	return out
}

func (q *SectionQueue) grow() {
	newCap := len(q.buf) * 2
	if newCap == 0 {
		newCap = 16
	}
	buf := make([]TrailSection, newCap)
	for i := 0; i < q.size; i++ {
		buf[i] = q.At(i)
	}
	q.buf = buf
	q.head = 0
}

// TrailComponent 光剑拖尾
type TrailComponent struct {
	// 参数
	Height               float64
	MinDistance          float64
	TimeTransitionSpeed  float64
	StartTime            float64
	DesiredTime          float64
	VelocityThreshold    float64
	EndVelocityThreshold float64

	// Window 当前时间窗口（秒），每帧向 DesiredTime 渐变
	Window float64

	Sections SectionQueue

	// LastPosition 最近一次入队的采样位置
	LastPosition mgl64.Vec3
	// LastVelocityPosition 上一帧的位置，用于估算移动速度
	LastVelocityPosition mgl64.Vec3
	// Pending 静止时记录但尚未入队的采样点
	Pending     TrailSection
	HasPending  bool
	PendingUsed bool
	// OneMore 停止移动后还需要补一个采样点
	OneMore bool
	// InternalThreshold 当前使用的位移平方阈值
	InternalThreshold float64
}

// MeshComponent 每帧整体重建的三角网格（局部坐标）
type MeshComponent struct {
	Vertices  []mgl64.Vec3
	Triangles []int
}

// Clear 清空网格
func (m *MeshComponent) Clear() {
	m.Vertices = m.Vertices[:0]
	m.Triangles = m.Triangles[:0]
}

// Empty 网格是否没有几何体
func (m *MeshComponent) Empty() bool {
	return len(m.Vertices) == 0
}
