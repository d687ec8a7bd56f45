package components

// RendererComponent 可见性开关
type RendererComponent struct {
	Visible bool
}
