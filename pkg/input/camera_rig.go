package input

// CameraRig 追踪装置
// 每帧调用一次 UpdateAnchors，按注册顺序通知所有监听者
type CameraRig struct {
	source    PoseSource
	listeners []func()
}

// NewCameraRig 创建追踪装置
func NewCameraRig(source PoseSource) *CameraRig {
	return &CameraRig{source: source}
}

// Source 返回输入来源
func (r *CameraRig) Source() PoseSource {
	return r.source
}

// OnAnchorsUpdated 注册锚点更新回调
func (r *CameraRig) OnAnchorsUpdated(fn func()) {
	r.listeners = append(r.listeners, fn)
}

// UpdateAnchors 触发本帧的锚点更新通知
func (r *CameraRig) UpdateAnchors() {
	for _, fn := range r.listeners {
		fn()
	}
}
