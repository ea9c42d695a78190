// Package compute holds the backend-facing objects the lowering pass and the
// descriptor layer hand results to: the graph pipeline being built, the
// shared tensor descriptors stored into it, and the tensor-view wrappers that
// supply raw buffer handles during descriptor substitution.
package compute

import (
	"fmt"
	"unsafe"

	"github.com/tensorvk/tensorvk/types/shapes"
	"github.com/tensorvk/tensorvk/vkapi"
)

// Device wraps the native device state the layer tracks per VkDevice.
type Device struct {
	// Handle is the dispatchable VkDevice the layer intercepts for.
	Handle uintptr
}

// TensorView wraps a VkTensorViewARM handle created by the layer. It carries
// two buffers: the descriptor buffer holding the tensor's metadata block, and
// the buffer backing the raw tensor data.
type TensorView struct {
	descriptorBuffer vkapi.Buffer
	tensorBuffer     vkapi.Buffer
}

// NewTensorView wraps the two backing buffers of a tensor view.
func NewTensorView(descriptorBuffer, tensorBuffer vkapi.Buffer) *TensorView {
	return &TensorView{descriptorBuffer: descriptorBuffer, tensorBuffer: tensorBuffer}
}

// DescriptorBuffer returns the buffer holding the tensor's metadata block on
// the given device.
func (v *TensorView) DescriptorBuffer(dev *Device) vkapi.Buffer {
	_ = dev // descriptor buffers are per-device once sparse residency lands
	return v.descriptorBuffer
}

// TensorBuffer returns the buffer backing the raw tensor data.
func (v *TensorView) TensorBuffer() vkapi.Buffer { return v.tensorBuffer }

// Handle returns the view as the VkTensorViewARM handle the application sees.
// The layer creates these handles, so the handle is the wrapper's address.
func (v *TensorView) Handle() vkapi.TensorViewARM {
	return vkapi.TensorViewARM(uintptr(unsafe.Pointer(v)))
}

// TensorViewFromHandle recovers the wrapper behind a VkTensorViewARM handle.
func TensorViewFromHandle(h vkapi.TensorViewARM) *TensorView {
	return (*TensorView)(unsafe.Pointer(uintptr(h)))
}

// TensorDescriptor is the shared description of one tensor resolved from a
// module: shape, element format and, for interface tensors, the descriptor
// set and binding it is bound through. Multiple call sites hold the same
// *TensorDescriptor; identity comparison detects aliasing.
type TensorDescriptor struct {
	ID      uint32
	Name    string
	Shape   shapes.Shape
	Format  vkapi.Format
	Set     uint64
	Binding uint64
}

func (t *TensorDescriptor) String() string {
	return fmt.Sprintf("tensor#%d %q %s set=%d binding=%d", t.ID, t.Name, t.Shape, t.Set, t.Binding)
}

// GraphInfo is the lowered interface of one graph entry point.
type GraphInfo struct {
	ID      uint32
	Name    string
	Inputs  []*TensorDescriptor
	Outputs []*TensorDescriptor
}

// GraphPipeline accumulates the results of lowering one module: per-graph
// interface tensors and the composite tensors primed from graph constants.
// It is owned by the caller of the pass; the pass only populates it.
type GraphPipeline struct {
	device    *Device
	graphs    []*GraphInfo
	constants map[uint32]*TensorDescriptor
}

// NewGraphPipeline returns an empty pipeline for the given device.
func NewGraphPipeline(device *Device) *GraphPipeline {
	return &GraphPipeline{
		device:    device,
		constants: make(map[uint32]*TensorDescriptor),
	}
}

// Device returns the device the pipeline builds for.
func (p *GraphPipeline) Device() *Device { return p.device }

// AddGraph records a lowered graph interface, in lowering order.
func (p *GraphPipeline) AddGraph(info *GraphInfo) { p.graphs = append(p.graphs, info) }

// Graphs returns the recorded graphs in lowering order.
func (p *GraphPipeline) Graphs() []*GraphInfo { return p.graphs }

// SetConstant registers the composite tensor for a graph-constant id.
func (p *GraphPipeline) SetConstant(graphConstantID uint32, tensor *TensorDescriptor) {
	p.constants[graphConstantID] = tensor
}

// Constant returns the composite tensor registered for a graph-constant id.
func (p *GraphPipeline) Constant(graphConstantID uint32) *TensorDescriptor {
	return p.constants[graphConstantID]
}
