// Package layer rewrites descriptor API calls so that tensor-typed entries
// reach the native driver as standard buffer entries. Applications keep
// using the virtual tensor descriptor type; set layouts, descriptor writes
// and pool sizes are substituted transparently, preserving binding indices,
// array semantics and flag compatibility.
//
// Every function here is a pure, call-scoped transform: no state survives a
// call except the RewriteState the caller must keep alive until the
// intercepted call returns to the driver.
package layer

import (
	"github.com/pkg/errors"

	"github.com/tensorvk/tensorvk/compute"
	"github.com/tensorvk/tensorvk/vkapi"
)

// RawBufferBindingOffset is the fixed distance between a tensor's metadata
// binding and the raw-data buffer binding added in raw-buffer mode.
const RawBufferBindingOffset uint32 = 16

// Options selects layer behavior per device.
type Options struct {
	// RawTensorBuffers additionally binds each tensor's raw data buffer as a
	// storage buffer at binding+RawBufferBindingOffset. Experimental; for
	// backends that need both a metadata view and a raw view of the tensor.
	RawTensorBuffers bool
}

// ErrMissingTensorInfo reports a tensor descriptor write with no
// VkWriteDescriptorSetTensorARM chained on it.
var ErrMissingTensorInfo = errors.New("tensor descriptor write is missing tensor view info")

func isTensorBinding(b vkapi.DescriptorSetLayoutBinding) bool {
	return b.DescriptorType == vkapi.DescriptorTypeTensorARM
}

// SubstituteBindings rewrites a descriptor-set-layout binding list: tensor
// bindings become uniform-buffer bindings in place, and in raw-buffer mode a
// storage-buffer binding with the same count and stage flags is appended at
// the fixed offset. bindingFlags, when non-nil, is the layout's
// update-after-bind flag array; tensor entries lose that bit in place since
// the substituted type does not support it. Appended bindings carry no flags
// entry, keeping index correspondence for all original entries.
func SubstituteBindings(bindings []vkapi.DescriptorSetLayoutBinding, bindingFlags []vkapi.DescriptorBindingFlags, opts Options) []vkapi.DescriptorSetLayoutBinding {
	out := make([]vkapi.DescriptorSetLayoutBinding, len(bindings), len(bindings)+1)
	copy(out, bindings)

	for i, binding := range bindings {
		if !isTensorBinding(binding) {
			continue
		}
		out[i].DescriptorType = vkapi.DescriptorTypeUniformBuffer

		if opts.RawTensorBuffers {
			out = append(out, vkapi.DescriptorSetLayoutBinding{
				Binding:         binding.Binding + RawBufferBindingOffset,
				DescriptorType:  vkapi.DescriptorTypeStorageBuffer,
				DescriptorCount: binding.DescriptorCount,
				StageFlags:      binding.StageFlags,
			})
		}

		if bindingFlags != nil && i < len(bindingFlags) {
			bindingFlags[i] &^= vkapi.DescriptorBindingUpdateAfterBindBit
		}
	}
	return out
}

// RewriteState is the per-call scratch of a write substitution: the rewritten
// write list plus the buffer/image info records the writes point into. The
// records are allocated one by one, so growing the state never moves one the
// driver already holds an address of; the state must outlive the intercepted
// call.
type RewriteState struct {
	Writes      []vkapi.WriteDescriptorSet
	bufferInfos []*vkapi.DescriptorBufferInfo
	imageInfos  []*vkapi.DescriptorImageInfo
}

func (s *RewriteState) newBufferInfo(buffer vkapi.Buffer) *vkapi.DescriptorBufferInfo {
	info := &vkapi.DescriptorBufferInfo{Buffer: buffer, Offset: 0, Range: vkapi.WholeSize}
	s.bufferInfos = append(s.bufferInfos, info)
	return info
}

func (s *RewriteState) newImageInfo(info vkapi.DescriptorImageInfo) *vkapi.DescriptorImageInfo {
	copied := info
	s.imageInfos = append(s.imageInfos, &copied)
	return &copied
}

// SubstituteWrites rewrites a descriptor-write list. Non-tensor writes pass
// through unchanged, except image writes in the tensor-aliasing layout,
// whose layout is normalized to GENERAL. A tensor write must chain its
// tensor view info and expands to one uniform-buffer write per view,
// addressing the view's descriptor buffer whole-range at the same
// set/binding with the array element advanced per view; raw-buffer mode adds
// a storage-buffer write for the view's data buffer at the offset binding.
// Relative order of independent writes is preserved.
func SubstituteWrites(dev *compute.Device, writes []vkapi.WriteDescriptorSet, opts Options) (*RewriteState, error) {
	state := &RewriteState{Writes: make([]vkapi.WriteDescriptorSet, 0, len(writes))}

	for _, write := range writes {
		if write.DescriptorType != vkapi.DescriptorTypeTensorARM {
			if write.PImageInfo == nil || write.PImageInfo.ImageLayout != vkapi.ImageLayoutTensorAliasingARM {
				state.Writes = append(state.Writes, write)
				continue
			}
			// The aliasing layout is virtual; the driver gets GENERAL.
			info := state.newImageInfo(*write.PImageInfo)
			info.ImageLayout = vkapi.ImageLayoutGeneral
			write.PImageInfo = info
			state.Writes = append(state.Writes, write)
			continue
		}

		tensorInfo := vkapi.FindWriteDescriptorSetTensorARM(write.PNext)
		if tensorInfo == nil {
			return nil, errors.Wrapf(ErrMissingTensorInfo, "write at set=%d binding=%d", write.DstSet, write.DstBinding)
		}

		for j, handle := range tensorInfo.TensorViews() {
			view := compute.TensorViewFromHandle(handle)

			state.Writes = append(state.Writes, vkapi.WriteDescriptorSet{
				SType:           vkapi.StructureTypeWriteDescriptorSet,
				DstSet:          write.DstSet,
				DstBinding:      write.DstBinding,
				DstArrayElement: write.DstArrayElement + uint32(j),
				DescriptorCount: 1,
				DescriptorType:  vkapi.DescriptorTypeUniformBuffer,
				PBufferInfo:     state.newBufferInfo(view.DescriptorBuffer(dev)),
			})

			if opts.RawTensorBuffers {
				state.Writes = append(state.Writes, vkapi.WriteDescriptorSet{
					SType:           vkapi.StructureTypeWriteDescriptorSet,
					DstSet:          write.DstSet,
					DstBinding:      write.DstBinding + RawBufferBindingOffset,
					DstArrayElement: write.DstArrayElement + uint32(j),
					DescriptorCount: 1,
					DescriptorType:  vkapi.DescriptorTypeStorageBuffer,
					PBufferInfo:     state.newBufferInfo(view.TensorBuffer()),
				})
			}
		}
	}
	return state, nil
}

// SubstitutePoolSizes rewrites a descriptor-pool size list: tensor entries
// are removed and their counts folded into the uniform-buffer entry,
// appending one if the pool declares none. Raw-buffer mode folds the same
// count into the storage-buffer entry the same way. All other entries pass
// through unchanged, in order.
func SubstitutePoolSizes(poolSizes []vkapi.DescriptorPoolSize, opts Options) []vkapi.DescriptorPoolSize {
	out := make([]vkapi.DescriptorPoolSize, 0, len(poolSizes))
	var tensorCount uint32

	for _, size := range poolSizes {
		if size.Type == vkapi.DescriptorTypeTensorARM {
			tensorCount += size.DescriptorCount
			continue
		}
		out = append(out, size)
	}

	if tensorCount == 0 {
		return out
	}
	out = foldPoolSize(out, vkapi.DescriptorTypeUniformBuffer, tensorCount)
	if opts.RawTensorBuffers {
		out = foldPoolSize(out, vkapi.DescriptorTypeStorageBuffer, tensorCount)
	}
	return out
}

func foldPoolSize(sizes []vkapi.DescriptorPoolSize, t vkapi.DescriptorType, count uint32) []vkapi.DescriptorPoolSize {
	for i := range sizes {
		if sizes[i].Type == t {
			sizes[i].DescriptorCount += count
			return sizes
		}
	}
	return append(sizes, vkapi.DescriptorPoolSize{Type: t, DescriptorCount: count})
}
