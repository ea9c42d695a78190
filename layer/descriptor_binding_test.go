package layer

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/tensorvk/tensorvk/compute"
	"github.com/tensorvk/tensorvk/vkapi"
)

func tensorWrite(set vkapi.DescriptorSet, binding, arrayElement uint32, views []vkapi.TensorViewARM) vkapi.WriteDescriptorSet {
	info := &vkapi.WriteDescriptorSetTensorARM{
		SType:           vkapi.StructureTypeWriteDescriptorSetTensorARM,
		TensorViewCount: uint32(len(views)),
		PTensorViews:    &views[0],
	}
	return vkapi.WriteDescriptorSet{
		SType:           vkapi.StructureTypeWriteDescriptorSet,
		PNext:           unsafe.Pointer(info),
		DstSet:          set,
		DstBinding:      binding,
		DstArrayElement: arrayElement,
		DescriptorCount: uint32(len(views)),
		DescriptorType:  vkapi.DescriptorTypeTensorARM,
	}
}

func TestSubstituteBindings(t *testing.T) {
	bindings := []vkapi.DescriptorSetLayoutBinding{
		{Binding: 0, DescriptorType: vkapi.DescriptorTypeStorageBuffer, DescriptorCount: 1, StageFlags: vkapi.ShaderStageComputeBit},
		{Binding: 1, DescriptorType: vkapi.DescriptorTypeSampledImage, DescriptorCount: 1, StageFlags: vkapi.ShaderStageFragmentBit},
		{Binding: 2, DescriptorType: vkapi.DescriptorTypeTensorARM, DescriptorCount: 4, StageFlags: vkapi.ShaderStageComputeBit},
		{Binding: 3, DescriptorType: vkapi.DescriptorTypeUniformBuffer, DescriptorCount: 1, StageFlags: vkapi.ShaderStageAll},
	}
	flags := []vkapi.DescriptorBindingFlags{
		0,
		vkapi.DescriptorBindingPartiallyBoundBit,
		vkapi.DescriptorBindingUpdateAfterBindBit | vkapi.DescriptorBindingUpdateUnusedWhilePendingBit,
		0,
	}

	out := SubstituteBindings(bindings, flags, Options{})
	require.Len(t, out, 4)
	require.Equal(t, vkapi.DescriptorTypeUniformBuffer, out[2].DescriptorType)
	require.Equal(t, uint32(2), out[2].Binding)
	require.Equal(t, uint32(4), out[2].DescriptorCount)

	// Only the tensor entry loses the update-after-bind bit.
	require.Equal(t, vkapi.DescriptorBindingUpdateUnusedWhilePendingBit, flags[2])
	require.Equal(t, vkapi.DescriptorBindingPartiallyBoundBit, flags[1])

	// Non-tensor entries pass through untouched.
	require.Equal(t, bindings[0], out[0])
	require.Equal(t, bindings[1], out[1])
	require.Equal(t, bindings[3], out[3])

	// The caller's binding list itself is not modified.
	require.Equal(t, vkapi.DescriptorTypeTensorARM, bindings[2].DescriptorType)
}

func TestSubstituteBindings_RawBuffers(t *testing.T) {
	bindings := []vkapi.DescriptorSetLayoutBinding{
		{Binding: 5, DescriptorType: vkapi.DescriptorTypeTensorARM, DescriptorCount: 2, StageFlags: vkapi.ShaderStageComputeBit},
	}

	out := SubstituteBindings(bindings, nil, Options{RawTensorBuffers: true})
	require.Len(t, out, 2)
	require.Equal(t, vkapi.DescriptorTypeUniformBuffer, out[0].DescriptorType)

	raw := out[1]
	require.Equal(t, 5+RawBufferBindingOffset, raw.Binding)
	require.Equal(t, vkapi.DescriptorTypeStorageBuffer, raw.DescriptorType)
	require.Equal(t, uint32(2), raw.DescriptorCount)
	require.Equal(t, vkapi.ShaderStageComputeBit, raw.StageFlags)
}

func TestSubstitutePoolSizes(t *testing.T) {
	out := SubstitutePoolSizes([]vkapi.DescriptorPoolSize{
		{Type: vkapi.DescriptorTypeTensorARM, DescriptorCount: 5},
		{Type: vkapi.DescriptorTypeUniformBuffer, DescriptorCount: 10},
		{Type: vkapi.DescriptorTypeSampler, DescriptorCount: 2},
	}, Options{})
	require.Equal(t, []vkapi.DescriptorPoolSize{
		{Type: vkapi.DescriptorTypeUniformBuffer, DescriptorCount: 15},
		{Type: vkapi.DescriptorTypeSampler, DescriptorCount: 2},
	}, out)

	// No uniform-buffer entry to fold into: one is appended.
	out = SubstitutePoolSizes([]vkapi.DescriptorPoolSize{
		{Type: vkapi.DescriptorTypeTensorARM, DescriptorCount: 3},
	}, Options{})
	require.Equal(t, []vkapi.DescriptorPoolSize{
		{Type: vkapi.DescriptorTypeUniformBuffer, DescriptorCount: 3},
	}, out)

	// No tensor entries: the list is returned as-is.
	sizes := []vkapi.DescriptorPoolSize{{Type: vkapi.DescriptorTypeStorageBuffer, DescriptorCount: 7}}
	require.Equal(t, sizes, SubstitutePoolSizes(sizes, Options{}))
}

func TestSubstitutePoolSizes_RawBuffers(t *testing.T) {
	out := SubstitutePoolSizes([]vkapi.DescriptorPoolSize{
		{Type: vkapi.DescriptorTypeTensorARM, DescriptorCount: 3},
		{Type: vkapi.DescriptorTypeStorageBuffer, DescriptorCount: 1},
	}, Options{RawTensorBuffers: true})
	require.Equal(t, []vkapi.DescriptorPoolSize{
		{Type: vkapi.DescriptorTypeStorageBuffer, DescriptorCount: 4},
		{Type: vkapi.DescriptorTypeUniformBuffer, DescriptorCount: 3},
	}, out)
}

func TestSubstituteWrites_TensorExpansion(t *testing.T) {
	dev := &compute.Device{Handle: 1}
	views := []*compute.TensorView{
		compute.NewTensorView(vkapi.Buffer(0x10), vkapi.Buffer(0x11)),
		compute.NewTensorView(vkapi.Buffer(0x20), vkapi.Buffer(0x21)),
		compute.NewTensorView(vkapi.Buffer(0x30), vkapi.Buffer(0x31)),
	}
	handles := []vkapi.TensorViewARM{views[0].Handle(), views[1].Handle(), views[2].Handle()}

	state, err := SubstituteWrites(dev, []vkapi.WriteDescriptorSet{
		tensorWrite(vkapi.DescriptorSet(0xd5), 3, 1, handles),
	}, Options{})
	require.NoError(t, err)
	require.Len(t, state.Writes, 3)

	for i, w := range state.Writes {
		require.Equal(t, vkapi.StructureTypeWriteDescriptorSet, w.SType)
		require.Equal(t, vkapi.DescriptorSet(0xd5), w.DstSet)
		require.Equal(t, uint32(3), w.DstBinding)
		require.Equal(t, uint32(1+i), w.DstArrayElement)
		require.Equal(t, uint32(1), w.DescriptorCount)
		require.Equal(t, vkapi.DescriptorTypeUniformBuffer, w.DescriptorType)
		require.NotNil(t, w.PBufferInfo)
		require.Equal(t, views[i].DescriptorBuffer(dev), w.PBufferInfo.Buffer)
		require.Equal(t, vkapi.DeviceSize(0), w.PBufferInfo.Offset)
		require.Equal(t, vkapi.WholeSize, w.PBufferInfo.Range)
	}

	// Each write owns its own buffer-info record.
	require.NotSame(t, state.Writes[0].PBufferInfo, state.Writes[1].PBufferInfo)
	require.NotSame(t, state.Writes[1].PBufferInfo, state.Writes[2].PBufferInfo)
}

func TestSubstituteWrites_RawBuffers(t *testing.T) {
	dev := &compute.Device{Handle: 1}
	view := compute.NewTensorView(vkapi.Buffer(0x40), vkapi.Buffer(0x41))

	state, err := SubstituteWrites(dev, []vkapi.WriteDescriptorSet{
		tensorWrite(vkapi.DescriptorSet(1), 2, 0, []vkapi.TensorViewARM{view.Handle()}),
	}, Options{RawTensorBuffers: true})
	require.NoError(t, err)
	require.Len(t, state.Writes, 2)

	require.Equal(t, vkapi.DescriptorTypeUniformBuffer, state.Writes[0].DescriptorType)
	require.Equal(t, vkapi.Buffer(0x40), state.Writes[0].PBufferInfo.Buffer)

	raw := state.Writes[1]
	require.Equal(t, vkapi.DescriptorTypeStorageBuffer, raw.DescriptorType)
	require.Equal(t, 2+RawBufferBindingOffset, raw.DstBinding)
	require.Equal(t, uint32(0), raw.DstArrayElement)
	require.Equal(t, vkapi.Buffer(0x41), raw.PBufferInfo.Buffer)
}

func TestSubstituteWrites_MissingTensorInfo(t *testing.T) {
	dev := &compute.Device{Handle: 1}
	_, err := SubstituteWrites(dev, []vkapi.WriteDescriptorSet{{
		SType:          vkapi.StructureTypeWriteDescriptorSet,
		DstBinding:     4,
		DescriptorType: vkapi.DescriptorTypeTensorARM,
	}}, Options{})
	require.ErrorIs(t, err, ErrMissingTensorInfo)
}

func TestSubstituteWrites_AliasingImageLayout(t *testing.T) {
	dev := &compute.Device{Handle: 1}
	original := &vkapi.DescriptorImageInfo{
		ImageView:   vkapi.ImageView(0x99),
		ImageLayout: vkapi.ImageLayoutTensorAliasingARM,
	}

	state, err := SubstituteWrites(dev, []vkapi.WriteDescriptorSet{{
		SType:          vkapi.StructureTypeWriteDescriptorSet,
		DstBinding:     0,
		DescriptorType: vkapi.DescriptorTypeStorageImage,
		PImageInfo:     original,
	}}, Options{})
	require.NoError(t, err)
	require.Len(t, state.Writes, 1)

	rewritten := state.Writes[0].PImageInfo
	require.NotSame(t, original, rewritten)
	require.Equal(t, vkapi.ImageLayoutGeneral, rewritten.ImageLayout)
	require.Equal(t, vkapi.ImageView(0x99), rewritten.ImageView)

	// The application's record is left alone.
	require.Equal(t, vkapi.ImageLayoutTensorAliasingARM, original.ImageLayout)
}

func TestSubstituteWrites_PassThroughOrder(t *testing.T) {
	dev := &compute.Device{Handle: 1}
	view := compute.NewTensorView(vkapi.Buffer(0x50), vkapi.Buffer(0x51))
	bufInfo := &vkapi.DescriptorBufferInfo{Buffer: vkapi.Buffer(0x60), Range: vkapi.WholeSize}

	state, err := SubstituteWrites(dev, []vkapi.WriteDescriptorSet{
		{
			SType:           vkapi.StructureTypeWriteDescriptorSet,
			DstBinding:      0,
			DescriptorCount: 1,
			DescriptorType:  vkapi.DescriptorTypeStorageBuffer,
			PBufferInfo:     bufInfo,
		},
		tensorWrite(vkapi.DescriptorSet(0), 1, 0, []vkapi.TensorViewARM{view.Handle()}),
	}, Options{})
	require.NoError(t, err)
	require.Len(t, state.Writes, 2)

	// Untouched writes keep their position and their caller-owned records.
	require.Equal(t, vkapi.DescriptorTypeStorageBuffer, state.Writes[0].DescriptorType)
	require.Same(t, bufInfo, state.Writes[0].PBufferInfo)
	require.Equal(t, uint32(1), state.Writes[1].DstBinding)
}
