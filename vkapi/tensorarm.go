package vkapi

import "unsafe"

// VK_ARM_tensors additions. The extension reserves the 1000460xxx enum block;
// these records are what applications hand the layer when they bind tensor
// resources, before substitution rewrites them into core buffer records.

// TensorViewARM is the VkTensorViewARM handle. The layer creates these
// handles itself, so a handle is the address of the layer's own view wrapper.
type TensorViewARM uint64

const (
	// DescriptorTypeTensorARM is VK_DESCRIPTOR_TYPE_TENSOR_ARM.
	DescriptorTypeTensorARM DescriptorType = 1000460000

	// ImageLayoutTensorAliasingARM is VK_IMAGE_LAYOUT_TENSOR_ALIASING_ARM.
	ImageLayoutTensorAliasingARM ImageLayout = 1000460000

	// StructureTypeWriteDescriptorSetTensorARM is
	// VK_STRUCTURE_TYPE_WRITE_DESCRIPTOR_SET_TENSOR_ARM.
	StructureTypeWriteDescriptorSetTensorARM StructureType = 1000460001
)

// WriteDescriptorSetTensorARM is VkWriteDescriptorSetTensorARM, chained on
// the pNext of a WriteDescriptorSet whose descriptor type is
// DescriptorTypeTensorARM.
type WriteDescriptorSetTensorARM struct {
	SType           StructureType
	PNext           unsafe.Pointer
	TensorViewCount uint32
	PTensorViews    *TensorViewARM
}

// TensorViews returns the view handles as a slice.
func (w *WriteDescriptorSetTensorARM) TensorViews() []TensorViewARM {
	if w.PTensorViews == nil || w.TensorViewCount == 0 {
		return nil
	}
	return unsafe.Slice(w.PTensorViews, w.TensorViewCount)
}

// FindWriteDescriptorSetTensorARM locates the tensor info chained on a
// descriptor write, or returns nil if the write carries none.
func FindWriteDescriptorSetTensorARM(pNext unsafe.Pointer) *WriteDescriptorSetTensorARM {
	p := FindInChain(pNext, StructureTypeWriteDescriptorSetTensorARM)
	if p == nil {
		return nil
	}
	return (*WriteDescriptorSetTensorARM)(p)
}
