package config

import "fmt"

// 内置层名
const (
	LayerDefault   = "Default"
	LayerGrabber   = "Grabber"
	LayerGrabbable = "Grabbable"
)

// maxLayer 层号上限（与物理引擎的 32 层一致）
const maxLayer = 31

// DefaultLayers 默认层表
func DefaultLayers() map[string]int {
	return map[string]int{
		LayerDefault:   0,
		LayerGrabber:   8,
		LayerGrabbable: 9,
	}
}

// LayerTable 层名到层号的显式映射
// 在构造时解析一次，运行期间不再按字符串查找
type LayerTable struct {
	layers map[string]int
}

// NewLayerTable 根据配置创建层表
func NewLayerTable(layers map[string]int) (*LayerTable, error) {
	table := &LayerTable{layers: make(map[string]int, len(layers))}
	for name, layer := range layers {
		if name == "" {
			return nil, fmt.Errorf("%w: empty layer name", ErrInvalidConfig)
		}
		if layer < 0 || layer > maxLayer {
			return nil, fmt.Errorf("%w: layer %q must be within [0,%d], got %d", ErrInvalidConfig, name, maxLayer, layer)
		}
		table.layers[name] = layer
	}
	return table, nil
}

// Resolve 返回层名对应的层号
func (t *LayerTable) Resolve(name string) (int, error) {
	layer, ok := t.layers[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown layer %q", ErrInvalidConfig, name)
	}
	return layer, nil
}

// ResolveOrDefault 同 Resolve，层不存在时返回 Default 层号
func (t *LayerTable) ResolveOrDefault(name string) int {
	if layer, err := t.Resolve(name); err == nil {
		return layer
	}
	return t.layers[LayerDefault]
}
